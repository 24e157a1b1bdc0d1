// Package format renders numbers for human-readable output.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Decimal returns v with the given number of decimal places and thousands
// separators (e.g., "-1,234.5").
func Decimal(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	if places < 0 {
		places = 0
	}
	formatted := printer.Sprintf("%.*f", places, math.Abs(v))
	if v < 0 && strings.Trim(formatted, "0.,") != "" {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a 0..1 fraction as a whole percentage (e.g., "92%").
func Percent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", fraction*100)
}
