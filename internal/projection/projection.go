// Package projection computes deterministic compound-growth series for the
// three value domains and the aggregate weighted return across generations.
package projection

import (
	"fmt"
	"math"

	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/mathutil"
	"gonum.org/v1/gonum/floats"
)

// Domain holds the inputs for one value domain.
type Domain struct {
	Name     string  `yaml:"name" json:"name"`
	Baseline float64 `yaml:"baseline" json:"baseline"`
	Rate     float64 `yaml:"rate" json:"rate"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// Point is one period of a projection.
type Point struct {
	Period    int                            `json:"period"`
	Label     string                         `json:"label"`
	Values    [constants.DomainCount]float64 `json:"values"`
	Aggregate float64                        `json:"aggregate"`
}

// DefaultDomains returns the standard ecological, social and financial inputs.
func DefaultDomains() [constants.DomainCount]Domain {
	return [constants.DomainCount]Domain{
		{Name: constants.DomainEcological, Baseline: 40, Rate: 0.12, Weight: 0.40},
		{Name: constants.DomainSocial, Baseline: 35, Rate: 0.08, Weight: 0.35},
		{Name: constants.DomainFinancial, Baseline: 25, Rate: 0.06, Weight: 0.25},
	}
}

// Project computes horizon periods starting at t=0. Every period is computed
// from the exact baseline and exponent, so no error carries over between
// periods. A non-positive horizon yields an empty series.
func Project(domains [constants.DomainCount]Domain, horizon int) []Point {
	if horizon <= 0 {
		return []Point{}
	}

	points := make([]Point, 0, horizon)
	returns := make([]float64, constants.DomainCount)
	for t := 0; t < horizon; t++ {
		point := Point{Period: t, Label: Label(t)}
		for i, d := range domains {
			value := d.Baseline * math.Pow(1+d.Rate, float64(t))
			point.Values[i] = value
			returns[i] = d.Weight * (value - d.Baseline)
		}
		point.Aggregate = floats.Sum(returns)
		points = append(points, point)
	}
	return points
}

// Rounded returns a display copy of points with every value rounded to one
// decimal place. The input is not modified.
func Rounded(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p
		for j := range p.Values {
			out[i].Values[j] = mathutil.RoundTenth(p.Values[j])
		}
		out[i].Aggregate = mathutil.RoundTenth(p.Aggregate)
	}
	return out
}

// Label names period t as a generation, G1 for t=0.
func Label(t int) string {
	return fmt.Sprintf("G%d", t+1)
}

// Aggregates extracts the aggregate weighted return of each point.
func Aggregates(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Aggregate
	}
	return out
}

// Momentum is the average per-period relative change between the first and
// last entries of series. It is 0 for fewer than two entries or a zero start.
func Momentum(series []float64) float64 {
	if len(series) < 2 || series[0] == 0 {
		return 0
	}
	return (series[len(series)-1] - series[0]) / series[0] / float64(len(series))
}

// Rates carries one compounding rate per domain, in domain order.
type Rates [constants.DomainCount]float64

// WithRates returns a copy of domains with the rates replaced.
func WithRates(domains [constants.DomainCount]Domain, rates Rates) [constants.DomainCount]Domain {
	out := domains
	for i := range out {
		out[i].Rate = rates[i]
	}
	return out
}

// Validate reports inputs that the formula accepts but that are unlikely to
// be intended. It never rejects anything.
func Validate(domains [constants.DomainCount]Domain, horizon int) []string {
	var warnings []string

	if horizon <= 0 {
		warnings = append(warnings, fmt.Sprintf("horizon %d produces an empty projection", horizon))
	}

	weights := make([]float64, 0, len(domains))
	for i, d := range domains {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("domain %d", i+1)
		}
		if d.Rate <= -1 {
			warnings = append(warnings, fmt.Sprintf("%s rate %.4f is at or below -1; values collapse or alternate sign", name, d.Rate))
		}
		if d.Baseline < 0 {
			warnings = append(warnings, fmt.Sprintf("%s baseline %.2f is negative", name, d.Baseline))
		}
		weights = append(weights, d.Weight)
	}

	if sum := floats.Sum(weights); !mathutil.WithinTolerance(sum, 1, constants.WeightSumTolerance) {
		warnings = append(warnings, fmt.Sprintf("domain weights sum to %.4f rather than 1", sum))
	}

	return warnings
}
