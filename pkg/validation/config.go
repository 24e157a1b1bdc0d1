// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/stewardship-forecast/pkg/constants"
)

// ValidateReturnVector warns when a return vector does not cover the expected
// number of generations.
func ValidateReturnVector(owner string, returns []float64) []string {
	var warnings []string

	if len(returns) != constants.ReturnVectorLength {
		warnings = append(warnings, fmt.Sprintf("%s return vector has %d entries, expected %d",
			owner, len(returns), constants.ReturnVectorLength))
	}
	for i, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			warnings = append(warnings, fmt.Sprintf("%s return %d is not a finite number", owner, i))
		}
	}

	return warnings
}

// ValidateQualityScore warns when a quality score falls outside [0, 1]. Such
// scores are still evaluated; the warning only flags likely input mistakes.
func ValidateQualityScore(owner string, score float64) string {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return fmt.Sprintf("%s quality score %v is outside [0, 1]", owner, score)
	}
	return ""
}

// ValidateThresholds warns when the critical floor sits above the warning
// floor, which leaves no warning band.
func ValidateThresholds(critical, warning float64) string {
	if critical > warning {
		return fmt.Sprintf("critical floor %.2f is above warning floor %.2f; warnings can never trigger", critical, warning)
	}
	return ""
}
