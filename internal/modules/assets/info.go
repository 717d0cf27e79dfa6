package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a required data file is missing.
var ErrNotFound = errors.New("asset data file not found")

// Info is the static per-instrument metadata bag. The risk/return and
// correlation fields back the fallback path for instruments without
// price history.
type Info struct {
	DividendYield float64
	ExpenseRatio  float64

	AvgRisk     float64
	AvgReturn   float64
	Correlation map[string]float64 // symbol -> prior known correlation coefficient
}

// Metadata is the side-channel key/value document downloaded alongside
// the bar file (<symbol>.json). Only string-valued keys are consumed;
// a missing key reads as an empty string with a diagnostic, never an
// error.
type Metadata struct {
	doc map[string]any
	log zerolog.Logger
}

// NewMetadata wraps an already-decoded document.
func NewMetadata(doc map[string]any, log zerolog.Logger) Metadata {
	if doc == nil {
		doc = map[string]any{}
	}
	return Metadata{doc: doc, log: log}
}

// LoadMetadata reads and decodes <symbol>.json from path.
func LoadMetadata(path string, log zerolog.Logger) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Metadata{}, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return NewMetadata(doc, log), nil
}

// Value returns the string value for key, with any commas replaced by
// spaces so values embed cleanly in CSV reports. Missing and
// non-string keys read as empty strings with a diagnostic.
func (m Metadata) Value(key string) string {
	raw, ok := m.doc[key]
	if !ok {
		m.log.Debug().Str("key", key).Msg("Metadata key not found")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		m.log.Debug().Str("key", key).Msg("Metadata key is not a string")
		return ""
	}
	return strings.ReplaceAll(s, ",", " ")
}
