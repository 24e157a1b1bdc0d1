// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/stewardship-forecast/pkg/constants"
)

// RoundTenth rounds a value to one decimal place for display.
func RoundTenth(val float64) float64 {
	return math.Round(val*constants.DisplayPrecision) / constants.DisplayPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp restricts val to [lo, hi]. NaN is returned unchanged.
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
