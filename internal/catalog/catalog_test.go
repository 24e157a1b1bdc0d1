package catalog_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/testutil"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(nil, testutil.SampleProjects(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewDefaults(t *testing.T) {
	c := newCatalog(t)

	if got := len(c.Presets()); got != 3 {
		t.Errorf("expected 3 default presets, got %d", got)
	}
	if got := len(c.Mandates()); got != 3 {
		t.Errorf("expected 3 default mandates, got %d", got)
	}
	if got := len(c.Projects()); got != 3 {
		t.Errorf("expected 3 projects, got %d", got)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		presets  []catalog.Preset
		projects []catalog.Project
		mandates []catalog.Mandate
		errPart  string
	}{
		{
			name:    "Duplicate preset",
			presets: []catalog.Preset{{ID: "a"}, {ID: "a"}},
			errPart: "duplicate preset id a",
		},
		{
			name:    "Empty preset id",
			presets: []catalog.Preset{{Name: "nameless"}},
			errPart: "empty id",
		},
		{
			name:     "Duplicate project",
			projects: []catalog.Project{{ID: 7}, {ID: 7}},
			errPart:  "duplicate project id 7",
		},
		{
			name:     "Duplicate mandate",
			mandates: []catalog.Mandate{{ID: "m"}, {ID: "m"}},
			errPart:  "duplicate mandate id m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.New(tt.presets, tt.projects, tt.mandates)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

func TestPresetLookup(t *testing.T) {
	c := newCatalog(t)

	preset, found := c.Preset("prophetic_mode")
	if !found || preset.GammaSocial != 0.18 {
		t.Errorf("expected prophetic_mode with social gamma 0.18, got found=%v %+v", found, preset)
	}

	fallback, found := c.Preset("does_not_exist")
	if found {
		t.Errorf("expected unknown preset to report found=false")
	}
	if fallback.ID != constants.DefaultPresetID {
		t.Errorf("expected fallback to %s, got %s", constants.DefaultPresetID, fallback.ID)
	}

	if !c.HasPreset("covenantal_minimum") || c.HasPreset("nope") {
		t.Errorf("HasPreset() returned unexpected results")
	}

	rates := preset.Rates()
	if rates != (projection.Rates{0.12, 0.18, 0.16}) {
		t.Errorf("Rates() = %v", rates)
	}
}

func TestProjectsAreCopies(t *testing.T) {
	c := newCatalog(t)

	projects := c.Projects()
	projects[0].Returns[0] = 999
	projects[0].Name = "changed"

	again, ok := c.Project(projects[0].ID)
	if !ok {
		t.Fatal("expected project to exist")
	}
	if again.Returns[0] == 999 || again.Name == "changed" {
		t.Errorf("catalog was mutated through a returned copy: %+v", again)
	}

	if _, ok := c.Project(404); ok {
		t.Errorf("expected unknown project lookup to fail")
	}
}

func TestProjectsOrderedByID(t *testing.T) {
	c, err := catalog.New(nil, []catalog.Project{{ID: 3}, {ID: 1}, {ID: 2}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var ids []int
	for _, p := range c.Projects() {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids); diff != "" {
		t.Errorf("unexpected project order (-want +got):\n%s", diff)
	}
}

func TestAssessAll(t *testing.T) {
	c := newCatalog(t)
	now := time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)

	results := c.AssessAll(monitor.DefaultThresholds(), now)
	if len(results) != 3 {
		t.Fatalf("expected 3 assessments, got %d", len(results))
	}

	tests := []struct {
		name  string
		state string
	}{
		{"Healthy Project", monitor.StateHealthy},
		{"Warning Project", string(monitor.SeverityWarning)},
		{"Critical Project", string(monitor.SeverityCritical)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testutil.FindAssessment(results, tt.name)
			if a == nil {
				t.Fatalf("assessment for %s not found", tt.name)
			}
			if a.State != tt.state {
				t.Errorf("state = %s, expected %s", a.State, tt.state)
			}
			if tt.state == monitor.StateHealthy {
				if a.Alert != nil {
					t.Errorf("healthy assessment should carry no alert")
				}
				return
			}
			if a.Alert == nil || !a.Alert.Timestamp.Equal(now) {
				t.Errorf("expected alert stamped at %v, got %+v", now, a.Alert)
			}
		})
	}

	warning := testutil.FindAssessment(results, "Warning Project")
	if math.Abs(warning.TotalReturn-50) > 1e-9 {
		t.Errorf("expected total return 50, got %v", warning.TotalReturn)
	}
	if warning.Momentum != 0 {
		t.Errorf("expected zero momentum for a flat vector, got %v", warning.Momentum)
	}
}

func TestMandateEligibility(t *testing.T) {
	c := newCatalog(t)
	council, ok := c.Mandate("covenant_council_formation")
	if !ok {
		t.Fatal("expected default council mandate")
	}

	eligible, unmet := council.Eligible(catalog.EligibilityInput{
		QualityScore:  0.9,
		GraceFlow:     0.7,
		CommunitySize: 3,
	})
	if !eligible || len(unmet) != 0 {
		t.Errorf("expected eligible, got unmet %v", unmet)
	}

	eligible, unmet = council.Eligible(catalog.EligibilityInput{
		QualityScore:  0.5,
		GraceFlow:     0.1,
		CommunitySize: 1,
	})
	if eligible {
		t.Fatal("expected ineligible")
	}
	if len(unmet) != 3 {
		t.Errorf("expected 3 unmet conditions, got %v", unmet)
	}
}

func TestMandatePrerequisites(t *testing.T) {
	m := catalog.Mandate{
		ID:         "follow_up",
		Conditions: catalog.Conditions{Prerequisites: []string{"first", "second"}},
	}

	eligible, unmet := m.Eligible(catalog.EligibilityInput{Completed: []string{"first"}})
	if eligible {
		t.Fatal("expected missing prerequisite to block eligibility")
	}
	if len(unmet) != 1 || !strings.Contains(unmet[0], "second") {
		t.Errorf("unexpected unmet conditions %v", unmet)
	}

	eligible, _ = m.Eligible(catalog.EligibilityInput{Completed: []string{"second", "first"}})
	if !eligible {
		t.Errorf("expected eligibility once prerequisites complete")
	}
}

func TestBoostedReturns(t *testing.T) {
	m := catalog.Mandate{Impact: catalog.Impact{ReturnBoost: []float64{1, 2}}}
	returns := []float64{10, 10, 10}

	boosted := m.BoostedReturns(returns)
	if diff := cmp.Diff([]float64{11, 12, 10}, boosted); diff != "" {
		t.Errorf("unexpected boosted returns (-want +got):\n%s", diff)
	}
	if returns[0] != 10 {
		t.Errorf("BoostedReturns() modified its input")
	}
}
