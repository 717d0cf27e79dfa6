// Package assets implements the instrument layer: an Asset couples a
// price series with static metadata and a classification tag set, and
// answers the correlation and risk/return queries the market and
// portfolio layers compose.
package assets

import (
	"strings"

	"github.com/rs/zerolog"
)

// Tag is a classification label attached to an instrument.
type Tag string

// Tag taxonomy. Report column order follows AllTags, not the order the
// constants happen to be declared in.
const (
	Unclassified Tag = "Unclassified"

	ETF       Tag = "ETF"
	ActiveETF Tag = "Active ETF"
	NotETF    Tag = "Not ETF"
	Foreign   Tag = "Foreign"
	REIT      Tag = "REIT"

	BlackRock Tag = "BlackRock"
	Vanguard  Tag = "Vanguard"
	Schwab    Tag = "Schwab"
	SPDR      Tag = "SPDR"
	Invesco   Tag = "Invesco"

	Bond               Tag = "Bond"
	TotalBond          Tag = "Total Bond"
	IntlBond           Tag = "Intl Bond"
	MuniBond           Tag = "Muni Bond"
	ShortCorpBond      Tag = "Short Corp Bond"
	IntermediateCorpBd Tag = "Intermediate Corp Bond"
	LongCorpBond       Tag = "Long Corp Bond"
	IntermediateBond   Tag = "Intermediate Bond"
	LongTermBond       Tag = "Long Term Bond"
	ShortTermBond      Tag = "Short Term Bond"
	CorporateBond      Tag = "Corporate Bond"

	SandP500    Tag = "S&P 500"
	TotalMarket Tag = "Total Market"
	TotalIntl   Tag = "Total Intl"

	PreciousMetal Tag = "Precious Metal"
	Russell1000   Tag = "Russell 1000"

	HighYield     Tag = "High Yield"
	IntlHighYield Tag = "Intl High Yield"

	ForeignLargeBlend Tag = "Foreign Large Blend"
	ForeignLargeValue Tag = "Foreign Large Value"

	SmallCap    Tag = "Small Cap"
	SmallBlend  Tag = "Small Blend"
	SmallGrowth Tag = "Small Growth"
	SmallValue  Tag = "Small Value"

	MidCap       Tag = "Mid Cap"
	MidCapBlend  Tag = "Mid Cap Blend"
	MidCapGrowth Tag = "Mid Cap Growth"
	MidCapValue  Tag = "Mid Cap Value"

	LargeBlend  Tag = "Large Blend"
	LargeValue  Tag = "Large Value"
	LargeGrowth Tag = "Large Growth"

	Energy            Tag = "Energy"
	Technology        Tag = "Technology"
	Healthcare        Tag = "Healthcare"
	Utilities         Tag = "Utilities"
	Communication     Tag = "Communication"
	ConsumerCyclical  Tag = "Consumer Cyclical"
	ConsumerDefensive Tag = "Consumer Defensive"
	Industrials       Tag = "Industrials"
	FinancialServices Tag = "Financial Services"
	NaturalResources  Tag = "Natural Resources"

	China    Tag = "China"
	Emerging Tag = "Emerging"
	Europe   Tag = "Europe"
	Leveraged Tag = "Leveraged"
)

// AllTags is the contractual enumeration order for tag columns in
// generated reports. Changing this order changes report layouts.
var AllTags = []Tag{
	Unclassified,
	ETF, ActiveETF, NotETF, Foreign, REIT,
	BlackRock, Vanguard, Schwab, SPDR, Invesco,
	Bond, TotalBond, IntlBond, MuniBond,
	ShortCorpBond, IntermediateCorpBd, LongCorpBond,
	IntermediateBond, LongTermBond, ShortTermBond, CorporateBond,
	SandP500, TotalMarket, TotalIntl,
	PreciousMetal, Russell1000,
	HighYield, IntlHighYield,
	ForeignLargeBlend, ForeignLargeValue,
	SmallCap, SmallBlend, SmallGrowth, SmallValue,
	MidCap, MidCapBlend, MidCapGrowth, MidCapValue,
	LargeBlend, LargeValue, LargeGrowth,
	Energy, Technology, Healthcare, Utilities, Communication,
	ConsumerCyclical, ConsumerDefensive, Industrials,
	FinancialServices, NaturalResources,
	China, Emerging, Europe, Leveraged,
}

// tagOrder maps each tag to its position in AllTags.
var tagOrder = func() map[Tag]int {
	m := make(map[Tag]int, len(AllTags))
	for i, tag := range AllTags {
		m[tag] = i
	}
	return m
}()

// lookupTags maps ticker symbols and metadata category/sector names to
// tags. Symbols only contribute for ETFs; category and sector strings
// are looked up for every instrument. Static data curated from the
// downloader's universe.
var lookupTags = map[string]Tag{
	// Symbols: broad bond market
	"AGG": TotalBond, "BND": TotalBond, "BIV": TotalBond, "BSV": TotalBond,
	"ILTB": TotalBond, "IUSB": TotalBond, "BLV": TotalBond, "IMTB": TotalBond,
	"VMBS": TotalBond, "ISTB": TotalBond,
	"IAGG": IntlBond, "BNDX": IntlBond,
	"EDV": LongTermBond, "TLT": LongTermBond, "SPTL": LongTermBond,
	"SLQD": ShortCorpBond, "IGSB": ShortCorpBond, "IGIB": ShortCorpBond,
	"IGLB": LongCorpBond, "VCLT": LongCorpBond, "VCIT": IntermediateCorpBd,
	"MUB": MuniBond, "VTEB": MuniBond,
	"STIP": ShortTermBond, "USHY": CorporateBond,

	// Symbols: broad equity market
	"ITOT": TotalMarket, "VTI": TotalMarket, "SCHB": TotalMarket,
	"IWV": TotalMarket, "VT": TotalMarket,
	"SPY": SandP500, "IVV": SandP500, "VOO": SandP500, "SPLG": SandP500,
	"VV": SandP500, "RSP": SandP500,
	"VONE": Russell1000, "IWB": Russell1000, "SCHK": Russell1000,
	"SCHX": Russell1000, "SPTM": Russell1000,
	"IXUS": TotalIntl, "VXUS": TotalIntl, "VEU": TotalIntl, "VEA": TotalIntl,
	"IEUR": TotalIntl, "IPAC": TotalIntl, "VSS": TotalIntl, "VWO": TotalIntl,

	// Symbols: styles, sectors, themes
	"VTV": LargeValue, "MGV": LargeValue, "IUSV": LargeValue,
	"DTD": LargeValue, "DJD": LargeValue, "VOE": LargeValue,
	"IVW": LargeGrowth, "VUG": LargeGrowth, "SCHG": LargeGrowth,
	"IUSG": LargeGrowth, "MGK": LargeGrowth, "QQQ": LargeGrowth,
	"QQQE": LargeGrowth, "VGT": LargeGrowth, "VOT": LargeGrowth,
	"VHT": LargeGrowth,
	"VO": MidCap, "JHMM": MidCap,
	"VB": SmallCap, "VBK": SmallCap, "VBR": SmallCap, "VXF": SmallCap,
	"JPSE": SmallCap,
	"REET": REIT, "RWR": REIT, "SCHH": REIT, "USRT": REIT,
	"VNQ": REIT, "VNQI": REIT,
	"SGOL": PreciousMetal, "SIVR": PreciousMetal,
	"TECL": Technology, "SOXL": Technology,
	"VDE": Energy, "XLE": Energy,
	"VOX": Communication, "XLC": Communication,
	"DEM": IntlHighYield, "VYMI": IntlHighYield,
	"SPYD": HighYield, "SPHD": HighYield, "HDV": HighYield,
	"VYM": HighYield, "SCHD": HighYield, "DGRO": HighYield,
	"VIG": HighYield, "SPHY": HighYield,
	"CXSE": China,
	"VAW": NaturalResources, "VCR": ConsumerCyclical,
	"VDC": ConsumerDefensive, "VFH": FinancialServices,
	"VIS": Industrials, "VPU": Utilities,
	"ARKF": ActiveETF, "ARKG": ActiveETF, "ARKK": ActiveETF,
	"ARKQ": ActiveETF, "ARKW": ActiveETF, "PFF": ActiveETF,
	"QYLD": ActiveETF, "IPO": ActiveETF,

	// Metadata category / sector names
	"Intermediate-Term Bond":    IntermediateBond,
	"Intermediate Government":   IntermediateBond,
	"Long-Term Bond":            LongTermBond,
	"Long Government":           LongTermBond,
	"Short-Term Bond":           ShortTermBond,
	"Inflation-Protected Bond":  ShortTermBond,
	"Corporate Bond":            CorporateBond,
	"High Yield Bond":           CorporateBond,
	"Muni National Interm":      MuniBond,
	"Technology":                Technology,
	"Health":                    Healthcare,
	"Healthcare":                Healthcare,
	"Communications":            Communication,
	"Communication Services":    Communication,
	"China Region":              China,
	"Diversified Pacific/Asia":  China,
	"Diversified Emerging Mkts": Emerging,
	"Europe Stock":              Europe,
	"Large Value":               LargeValue,
	"Large Growth":              LargeGrowth,
	"Large Blend":               LargeBlend,
	"Foreign Large Blend":       ForeignLargeBlend,
	"Foreign Large Value":       ForeignLargeValue,
	"Mid-Cap Blend":             MidCapBlend,
	"Mid-Cap Growth":            MidCapGrowth,
	"Mid-Cap Value":             MidCapValue,
	"Foreign Small/Mid Blend":   MidCapBlend,
	"Small Blend":               SmallBlend,
	"Small Growth":              SmallGrowth,
	"Small Value":               SmallValue,
	"Real Estate":               REIT,
	"Global Real Estate":        REIT,
	"Utilities":                 Utilities,
	"Industrials":               Industrials,
	"Consumer Cyclical":         ConsumerCyclical,
	"Consumer Defensive":        ConsumerDefensive,
	"Financial Services":        FinancialServices,
	"Financial":                 FinancialServices,
	"Natural Resources":         NaturalResources,
	"Equity Energy":             Energy,
	"Energy":                    Energy,
	"Trading--Leveraged Equity": Leveraged,
	"World Stock":               TotalMarket,
	"Preferred Stock":           ActiveETF,
}

// LookupTag resolves a symbol or a metadata category/sector string to a
// tag. Unknown non-empty keys are logged; the lookup tables only cover
// the curated universe.
func LookupTag(key string, log zerolog.Logger) (Tag, bool) {
	if tag, ok := lookupTags[key]; ok {
		return tag, true
	}
	if key != "" {
		log.Debug().Str("key", key).Msg("No tag for key")
	}
	return "", false
}

// managementCompanies is the first-match-wins substring search used to
// tag an ETF with its management company.
var managementCompanies = []struct {
	needle string
	tag    Tag
}{
	{"iShares", BlackRock},
	{"Vanguard", Vanguard},
	{"Schwab", Schwab},
	{"SPDR", SPDR},
	{"Invesco", Invesco},
}

// managementTag returns the management-company tag for a fund name.
func managementTag(longName string) (Tag, bool) {
	for _, company := range managementCompanies {
		if strings.Contains(longName, company.needle) {
			return company.tag, true
		}
	}
	return "", false
}

// sortTags orders a tag set by AllTags position.
func sortTags(set map[Tag]bool) []Tag {
	result := make([]Tag, 0, len(set))
	for _, tag := range AllTags {
		if set[tag] {
			result = append(result, tag)
		}
	}
	// Anything outside the taxonomy goes last; should not happen
	for tag := range set {
		if _, ok := tagOrder[tag]; !ok {
			result = append(result, tag)
		}
	}
	return result
}
