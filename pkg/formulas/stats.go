// Package formulas implements the pure statistics used by the series,
// market and portfolio modules. Degenerate inputs (empty slices, zero
// variance, mismatched lengths) return a defined neutral value rather
// than an error; structural problems are for the callers to detect.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation (divide by N, not N-1)
// of a slice of float64 values. Risk figures across the codebase use the
// population form, so the sample-based stat.StdDev is not used here.
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := stat.Mean(data, nil)
	return math.Sqrt(stat.MomentAbout(2, data, mean, nil))
}

// Rankify assigns a fractional rank to every element: one plus the count
// of strictly smaller elements, with ties sharing the average of the
// ranks they would occupy. O(n²), which is fine for correlation windows
// of a few hundred elements.
func Rankify(data []float64) []float64 {
	result := make([]float64, 0, len(data))
	for i := range data {
		r := 1
		s := 1
		for j := range data {
			if i == j {
				continue
			}
			if data[j] < data[i] {
				r++
			}
			if data[j] == data[i] {
				s++
			}
		}
		result = append(result, float64(r)+float64(s-1)*0.5)
	}
	return result
}

// PearsonCorrelation calculates the product-moment correlation of two
// equal-length series. Returns 0 on empty or mismatched input, and 0
// when either series has zero variance (a constant series has no
// defined correlation).
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	if StdDev(x) <= 0 || StdDev(y) <= 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// SpearmanCorrelation is the Pearson correlation of the fractional ranks
func SpearmanCorrelation(x, y []float64) float64 {
	return PearsonCorrelation(Rankify(x), Rankify(y))
}

// LinearRegression fits y = slope*x + intercept by least squares.
// Returns (0, 0) on empty, mismatched or degenerate (all-x-equal) input.
func LinearRegression(x, y []float64) (slope, intercept float64) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, 0
	}
	if StdDev(x) <= 0 {
		return 0, 0
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return slope, intercept
}

// DoublingTime returns the number of periods for a quantity growing at
// ratePercent per period to double: ln(2) / ln(1 + rate/100).
func DoublingTime(ratePercent float64) float64 {
	return math.Ln2 / math.Log(1+ratePercent/100)
}

// Powi computes base^exp over the integers by repeated squaring.
// Powi(0, 0) == 1 by convention.
func Powi(base, exp uint64) uint64 {
	result := uint64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		exp /= 2
		base *= base
	}
	return result
}
