package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
)

func TestFindAssessment(t *testing.T) {
	results := []catalog.Assessment{
		{Name: "Project A", TotalReturn: 10},
		{Name: "Project B", TotalReturn: 20},
		{Name: "Another Project", TotalReturn: 30},
	}

	tests := []struct {
		name          string
		searchName    string
		expectFound   bool
		expectedTotal float64
	}{
		{"Find existing project A", "Project A", true, 10},
		{"Find existing project B", "Project B", true, 20},
		{"Find project with longer name", "Another Project", true, 30},
		{"Search for non-existent project", "Non-existent", false, 0},
		{"Empty name", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindAssessment(results, tt.searchName)
			if tt.expectFound {
				if result == nil {
					t.Fatalf("expected to find %q", tt.searchName)
				}
				if result.TotalReturn != tt.expectedTotal {
					t.Errorf("expected total %v, got %v", tt.expectedTotal, result.TotalReturn)
				}
			} else if result != nil {
				t.Errorf("expected nil for %q, got %+v", tt.searchName, result)
			}
		})
	}
}

func TestFindAssessmentReturnsPointerIntoSlice(t *testing.T) {
	results := []catalog.Assessment{{Name: "Project A"}}
	found := FindAssessment(results, "Project A")
	found.State = "modified"
	if results[0].State != "modified" {
		t.Errorf("expected pointer into the original slice")
	}
}

func TestSampleProjectsCoverEveryState(t *testing.T) {
	states := make(map[string]bool)
	for _, p := range SampleProjects() {
		states[catalog.Assess(p, monitor.DefaultThresholds(), time.Time{}).State] = true
	}
	for _, state := range []string{monitor.StateHealthy, string(monitor.SeverityWarning), string(monitor.SeverityCritical)} {
		if !states[state] {
			t.Errorf("sample projects do not cover state %s", state)
		}
	}
}
