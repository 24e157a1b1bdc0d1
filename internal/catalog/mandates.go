package catalog

import (
	"fmt"
)

// Urgency classifies how soon a mandate should be taken up.
type Urgency string

const (
	UrgencyKairos       Urgency = "kairos"
	UrgencyStrategic    Urgency = "strategic"
	UrgencyFoundational Urgency = "foundational"
)

// Conditions are the activation requirements of a mandate.
type Conditions struct {
	MinGraceFlow     float64  `yaml:"minGraceFlow" json:"minGraceFlow" mapstructure:"minGraceFlow"`
	RequiredQuality  float64  `yaml:"requiredQuality" json:"requiredQuality" mapstructure:"requiredQuality"`
	CommunitySizeMin int      `yaml:"communitySizeMin" json:"communitySizeMin" mapstructure:"communitySizeMin"`
	WindowDays       int      `yaml:"windowDays" json:"windowDays" mapstructure:"windowDays"`
	Prerequisites    []string `yaml:"prerequisites" json:"prerequisites"`
}

// Impact is the projected effect of completing a mandate.
type Impact struct {
	QualityDelta    float64   `yaml:"qualityDelta" json:"qualityDelta" mapstructure:"qualityDelta"`
	ReturnBoost     []float64 `yaml:"returnBoost" json:"returnBoost" mapstructure:"returnBoost"`
	GraceMultiplier float64   `yaml:"graceMultiplier" json:"graceMultiplier" mapstructure:"graceMultiplier"`
}

// Mandate is a catalogued action with activation conditions.
type Mandate struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Basis       string     `yaml:"basis" json:"basis"`
	Warning     string     `yaml:"warning,omitempty" json:"warning,omitempty"`
	Urgency     Urgency    `yaml:"urgency" json:"urgency"`
	Conditions  Conditions `yaml:"conditions" json:"conditions"`
	Impact      Impact     `yaml:"impact" json:"impact"`
}

func (m Mandate) clone() Mandate {
	m.Conditions.Prerequisites = append([]string(nil), m.Conditions.Prerequisites...)
	m.Impact.ReturnBoost = append([]float64(nil), m.Impact.ReturnBoost...)
	return m
}

// EligibilityInput describes the steward state checked against a mandate.
type EligibilityInput struct {
	QualityScore  float64  `json:"qualityScore"`
	GraceFlow     float64  `json:"graceFlow"`
	CommunitySize int      `json:"communitySize"`
	Completed     []string `json:"completed"`
}

// Eligible reports whether in satisfies every activation condition. When it
// does not, the unmet conditions are described in order.
func (m Mandate) Eligible(in EligibilityInput) (bool, []string) {
	var unmet []string

	if in.QualityScore < m.Conditions.RequiredQuality {
		unmet = append(unmet, fmt.Sprintf("quality score %.2f below required %.2f", in.QualityScore, m.Conditions.RequiredQuality))
	}
	if in.GraceFlow < m.Conditions.MinGraceFlow {
		unmet = append(unmet, fmt.Sprintf("grace flow %.2f below minimum %.2f", in.GraceFlow, m.Conditions.MinGraceFlow))
	}
	if in.CommunitySize < m.Conditions.CommunitySizeMin {
		unmet = append(unmet, fmt.Sprintf("community size %d below minimum %d", in.CommunitySize, m.Conditions.CommunitySizeMin))
	}

	completed := make(map[string]struct{}, len(in.Completed))
	for _, id := range in.Completed {
		completed[id] = struct{}{}
	}
	for _, prereq := range m.Conditions.Prerequisites {
		if _, ok := completed[prereq]; !ok {
			unmet = append(unmet, fmt.Sprintf("prerequisite mandate %s not completed", prereq))
		}
	}

	return len(unmet) == 0, unmet
}

// BoostedReturns adds the mandate's projected boost to returns element-wise.
// Entries beyond the shorter of the two are copied unchanged.
func (m Mandate) BoostedReturns(returns []float64) []float64 {
	out := append([]float64(nil), returns...)
	for i := range out {
		if i < len(m.Impact.ReturnBoost) {
			out[i] += m.Impact.ReturnBoost[i]
		}
	}
	return out
}

// DefaultMandates returns the built-in mandate catalog.
func DefaultMandates() []Mandate {
	return []Mandate{
		{
			ID:          "covenant_acceleration_1",
			Title:       "Sevenfold Covenant Activation",
			Description: "Seven consecutive days of covenant declaration over the generational line",
			Basis:       "Joshua 6:3-4",
			Warning:     "Activation window closing soon.",
			Urgency:     UrgencyKairos,
			Conditions: Conditions{
				MinGraceFlow:     0.75,
				RequiredQuality:  0.80,
				CommunitySizeMin: 1,
				WindowDays:       7,
			},
			Impact: Impact{
				QualityDelta:    0.12,
				ReturnBoost:     []float64{0.15, 0.12, 0.10, 0.08, 0.07, 0.06, 0.05, 0.04, 0.03, 0.02},
				GraceMultiplier: 1.8,
			},
		},
		{
			ID:          "prophetic_preset_activation",
			Title:       "Prophetic Mode Engagement",
			Description: "Run the Prophetic Mode preset for 40 days",
			Basis:       "Matthew 4:1-2",
			Urgency:     UrgencyStrategic,
			Conditions: Conditions{
				MinGraceFlow:     0.65,
				RequiredQuality:  0.75,
				CommunitySizeMin: 1,
				WindowDays:       14,
			},
			Impact: Impact{
				QualityDelta:    0.18,
				ReturnBoost:     []float64{0.08, 0.10, 0.12, 0.14, 0.13, 0.11, 0.09, 0.07, 0.05, 0.03},
				GraceMultiplier: 2.2,
			},
		},
		{
			ID:          "covenant_council_formation",
			Title:       "Threefold Covenant Council",
			Description: "Gather two or three stewards for monthly accountability",
			Basis:       "Ecclesiastes 4:12",
			Urgency:     UrgencyFoundational,
			Conditions: Conditions{
				MinGraceFlow:     0.60,
				RequiredQuality:  0.70,
				CommunitySizeMin: 3,
				WindowDays:       30,
			},
			Impact: Impact{
				QualityDelta:    0.15,
				ReturnBoost:     []float64{0.12, 0.15, 0.18, 0.16, 0.14, 0.12, 0.10, 0.08, 0.06, 0.04},
				GraceMultiplier: 1.6,
			},
		},
	}
}
