// Package output provides utilities for formatting and displaying projection
// and monitor results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyProjection writes a human-readable rather than machine-readable
// table. Values are rounded to one decimal place for display only.
func PrettyProjection(w io.Writer, title string, domains [constants.DomainCount]projection.Domain, points []projection.Point) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- Projection %s ---\n", title)
	header := []string{"Gen"}
	rule := []string{"___"}
	for _, d := range domains {
		header = append(header, fmt.Sprintf("%-10s", d.Name))
		rule = append(rule, strings.Repeat("_", 10))
	}
	header = append(header, "Aggregate")
	rule = append(rule, strings.Repeat("_", 9))
	_, _ = fmt.Fprintln(w, strings.Join(header, " | "))
	_, _ = fmt.Fprintln(w, strings.Join(rule, " | "))

	for _, point := range projection.Rounded(points) {
		_, _ = p.Fprintf(w, "%-3s", point.Label)
		for _, v := range point.Values {
			_, _ = p.Fprintf(w, " | %-10.1f", v)
		}
		_, _ = p.Fprintf(w, " | %.1f\n", point.Aggregate)
	}

	if len(points) == 0 {
		_, _ = fmt.Fprintln(w, "(empty horizon)")
	}
}

// CsvProjection writes the projection in comma-separated value format.
func CsvProjection(w io.Writer, domains [constants.DomainCount]projection.Domain, points []projection.Point) {
	_, _ = io.WriteString(w, CsvString(domains, points))
}

// CsvString returns the CSV rendering used by CsvProjection.
func CsvString(domains [constants.DomainCount]projection.Domain, points []projection.Point) string {
	var b strings.Builder
	b.WriteString(`"period","generation"`)
	for _, d := range domains {
		fmt.Fprintf(&b, `,"%s"`, d.Name)
	}
	b.WriteString(`,"aggregate"` + "\n")

	for _, point := range projection.Rounded(points) {
		fmt.Fprintf(&b, `"%d","%s"`, point.Period, point.Label)
		for _, v := range point.Values {
			fmt.Fprintf(&b, `,"%.1f"`, v)
		}
		fmt.Fprintf(&b, `,"%.1f"`+"\n", point.Aggregate)
	}
	return b.String()
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

var (
	criticalColor = lipgloss.Color("#D32F2F")
	warningColor  = lipgloss.Color("#F9A825")
	healthyColor  = lipgloss.Color("#8BC34A")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// AlertBanner renders alert as a bordered banner coloured by its visual cue.
// A nil alert renders the healthy banner.
func AlertBanner(w io.Writer, alert *monitor.Alert) {
	_, _ = fmt.Fprintln(w, Banner(alert))
}

// Banner returns the rendered banner used by AlertBanner.
func Banner(alert *monitor.Alert) string {
	if alert == nil {
		style := bannerStyle.BorderForeground(healthyColor)
		return style.Render(titleStyle.Foreground(healthyColor).Render("HEALTHY") + "\nStewardship within thresholds.")
	}

	color := warningColor
	if alert.VisualCue == monitor.CueCritical {
		color = criticalColor
	}

	lines := []string{
		titleStyle.Foreground(color).Render(strings.ToUpper(string(alert.Severity))),
		alert.Message,
		"Action: " + alert.Action,
		"Reference: " + alert.Reference,
	}
	if !alert.Timestamp.IsZero() {
		lines = append(lines, "At: "+alert.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	return bannerStyle.BorderForeground(color).Render(strings.Join(lines, "\n"))
}

// PrettyAssessments writes one line per project assessment.
func PrettyAssessments(w io.Writer, assessments []catalog.Assessment) {
	_, _ = fmt.Fprintf(w, "ID  | State    | Quality | Total Return | Momentum | Project\n")
	_, _ = fmt.Fprintf(w, "__  | _____    | _______ | ____________ | ________ | _______\n")
	for _, a := range assessments {
		_, _ = fmt.Fprintf(w, "%-3d | %-8s | %-7s | %-12s | %-8s | %s\n",
			a.ProjectID, a.State, format.Percent(a.QualityScore), format.Decimal(a.TotalReturn, 2),
			format.Decimal(a.Momentum*100, 2)+"%", a.Name)
	}
}

// CsvAssessments writes the assessments in comma-separated value format.
func CsvAssessments(w io.Writer, assessments []catalog.Assessment) {
	_, _ = fmt.Fprintf(w, `"id","name","state","qualityScore","totalReturn","momentum","reference"`+"\n")
	for _, a := range assessments {
		reference := ""
		if a.Alert != nil {
			reference = a.Alert.Reference
		}
		_, _ = fmt.Fprintf(w, `"%d","%s","%s","%.4f","%.4f","%.6f","%s"`+"\n",
			a.ProjectID, a.Name, a.State, a.QualityScore, a.TotalReturn, a.Momentum, reference)
	}
}
