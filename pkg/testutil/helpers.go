// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
)

// FindAssessment finds an assessment by project name in the results slice.
// Returns a pointer to the assessment if found, nil otherwise.
func FindAssessment(results []catalog.Assessment, name string) *catalog.Assessment {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// SampleProjects returns a small fixed project set covering each alert state.
func SampleProjects() []catalog.Project {
	return []catalog.Project{
		{
			ID:           1,
			Name:         "Healthy Project",
			QualityScore: 0.95,
			Returns:      []float64{1.5, 1.4, 1.3, 1.2, 1.1, 1.0, 0.9, 0.8, 0.7, 0.6},
			Status:       "Active",
		},
		{
			ID:           2,
			Name:         "Warning Project",
			QualityScore: 0.78,
			Returns:      []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
			Status:       "Active",
		},
		{
			ID:           3,
			Name:         "Critical Project",
			QualityScore: 0.65,
			Returns:      []float64{0.08, 0.09, 0.09, 0.08, 0.08, 0.07, 0.07, 0.06, 0.06, 0.05},
			Status:       "Auditing",
		},
	}
}
