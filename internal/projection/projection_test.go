package projection

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
)

func TestProjectBaseline(t *testing.T) {
	points := Project(DefaultDomains(), 5)
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	first := points[0]
	expected := [constants.DomainCount]float64{40, 35, 25}
	if first.Values != expected {
		t.Errorf("t=0 values = %v, expected %v", first.Values, expected)
	}
	if first.Aggregate != 0 {
		t.Errorf("t=0 aggregate = %v, expected 0", first.Aggregate)
	}
	if first.Label != "G1" {
		t.Errorf("t=0 label = %s, expected G1", first.Label)
	}

	if got := points[1].Values[0]; math.Abs(got-44.8) > 1e-9 {
		t.Errorf("t=1 ecological value = %v, expected 44.8", got)
	}
}

func TestProjectSeries(t *testing.T) {
	points := Project(DefaultDomains(), 5)

	tests := []struct {
		period    int
		values    [3]float64
		aggregate float64
	}{
		{0, [3]float64{40, 35, 25}, 0},
		{1, [3]float64{44.8, 37.8, 26.5}, 0.4*4.8 + 0.35*2.8 + 0.25*1.5},
		{2, [3]float64{50.176, 40.824, 28.09}, 0.4*10.176 + 0.35*5.824 + 0.25*3.09},
		{4, [3]float64{40 * math.Pow(1.12, 4), 35 * math.Pow(1.08, 4), 25 * math.Pow(1.06, 4)},
			0.4*(40*math.Pow(1.12, 4)-40) + 0.35*(35*math.Pow(1.08, 4)-35) + 0.25*(25*math.Pow(1.06, 4)-25)},
	}

	for _, tt := range tests {
		p := points[tt.period]
		if p.Period != tt.period {
			t.Errorf("point %d has period %d", tt.period, p.Period)
		}
		for i := range tt.values {
			if math.Abs(p.Values[i]-tt.values[i]) > 1e-9 {
				t.Errorf("t=%d domain %d = %v, expected %v", tt.period, i, p.Values[i], tt.values[i])
			}
		}
		if math.Abs(p.Aggregate-tt.aggregate) > 1e-9 {
			t.Errorf("t=%d aggregate = %v, expected %v", tt.period, p.Aggregate, tt.aggregate)
		}
	}
}

func TestProjectEmptyHorizon(t *testing.T) {
	for _, horizon := range []int{0, -3} {
		points := Project(DefaultDomains(), horizon)
		if points == nil || len(points) != 0 {
			t.Errorf("Project(horizon=%d) = %v, expected empty non-nil series", horizon, points)
		}
	}
}

func TestProjectIdempotent(t *testing.T) {
	domains := DefaultDomains()
	first := Project(domains, 12)
	second := Project(domains, 12)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Project() is not deterministic (-first +second):\n%s", diff)
	}
}

func TestProjectMonotonic(t *testing.T) {
	points := Project(DefaultDomains(), 20)
	for i := 1; i < len(points); i++ {
		for d := 0; d < constants.DomainCount; d++ {
			if points[i].Values[d] <= points[i-1].Values[d] {
				t.Errorf("domain %d not strictly increasing at t=%d: %v <= %v",
					d, i, points[i].Values[d], points[i-1].Values[d])
			}
		}
	}
}

func TestProjectNoDriftFromRounding(t *testing.T) {
	domains := DefaultDomains()
	points := Project(domains, 30)
	for _, p := range points {
		want := domains[0].Baseline * math.Pow(1+domains[0].Rate, float64(p.Period))
		if p.Values[0] != want {
			t.Errorf("t=%d value %v differs from closed form %v", p.Period, p.Values[0], want)
		}
	}
}

func TestProjectUnnormalizedWeights(t *testing.T) {
	domains := DefaultDomains()
	for i := range domains {
		domains[i].Weight = 1
	}
	p := Project(domains, 2)[1]
	expected := (p.Values[0] - 40) + (p.Values[1] - 35) + (p.Values[2] - 25)
	if math.Abs(p.Aggregate-expected) > 1e-9 {
		t.Errorf("aggregate = %v, expected %v", p.Aggregate, expected)
	}
}

func TestProjectNegativeRate(t *testing.T) {
	domains := DefaultDomains()
	domains[2].Rate = -0.5
	points := Project(domains, 3)
	if got := points[2].Values[2]; math.Abs(got-6.25) > 1e-9 {
		t.Errorf("decaying domain at t=2 = %v, expected 6.25", got)
	}
}

func TestRounded(t *testing.T) {
	points := Project(DefaultDomains(), 3)
	original := append([]Point(nil), points...)

	rounded := Rounded(points)
	if diff := cmp.Diff(original, points); diff != "" {
		t.Errorf("Rounded() modified its input (-want +got):\n%s", diff)
	}

	if got := rounded[2].Values[0]; got != 50.2 {
		t.Errorf("rounded t=2 ecological = %v, expected 50.2", got)
	}
	if got := rounded[2].Values[2]; got != 28.1 {
		t.Errorf("rounded t=2 financial = %v, expected 28.1", got)
	}
	if got := rounded[2].Aggregate; got != 6.9 {
		t.Errorf("rounded t=2 aggregate = %v, expected 6.9", got)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(0); got != "G1" {
		t.Errorf("Label(0) = %s", got)
	}
	if got := Label(9); got != "G10" {
		t.Errorf("Label(9) = %s", got)
	}
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{"Empty", nil, 0},
		{"Single", []float64{1}, 0},
		{"Zero start", []float64{0, 5}, 0},
		{"Declining", []float64{0.12, 0.11, 0.1, 0.09, 0.08, 0.07, 0.06, 0.05, 0.04, 0.03}, (0.03 - 0.12) / 0.12 / 10},
		{"Rising", []float64{1, 2}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Momentum(tt.series); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Momentum(%v) = %v, expected %v", tt.series, got, tt.expected)
			}
		})
	}
}

func TestWithRates(t *testing.T) {
	domains := DefaultDomains()
	updated := WithRates(domains, Rates{0.12, 0.14, 0.13})

	if domains[1].Rate != 0.08 {
		t.Errorf("WithRates() modified its input")
	}
	for i, rate := range []float64{0.12, 0.14, 0.13} {
		if updated[i].Rate != rate {
			t.Errorf("domain %d rate = %v, expected %v", i, updated[i].Rate, rate)
		}
		if updated[i].Baseline != domains[i].Baseline || updated[i].Weight != domains[i].Weight {
			t.Errorf("domain %d baseline or weight changed", i)
		}
	}
}

func TestValidate(t *testing.T) {
	if warnings := Validate(DefaultDomains(), 5); len(warnings) != 0 {
		t.Errorf("expected no warnings for defaults, got %v", warnings)
	}

	domains := DefaultDomains()
	domains[0].Rate = -1
	domains[1].Baseline = -4
	domains[2].Weight = 0.5
	warnings := Validate(domains, 0)

	for _, fragment := range []string{"horizon 0", "ecological rate", "social baseline", "weights sum to"} {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, fragment) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a warning containing %q, got %v", fragment, warnings)
		}
	}
}
