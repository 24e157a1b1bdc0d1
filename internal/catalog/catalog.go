// Package catalog holds the read-only preset, project and mandate catalogs.
// A Catalog is built once from configuration and passed to its users; it is
// never mutated after construction and is safe to share.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// Preset is a named set of compounding rates.
type Preset struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Description     string  `yaml:"description" json:"description"`
	GammaEcological float64 `yaml:"gammaEcological" json:"gammaEcological" mapstructure:"gammaEcological"`
	GammaSocial     float64 `yaml:"gammaSocial" json:"gammaSocial" mapstructure:"gammaSocial"`
	GammaFinancial  float64 `yaml:"gammaFinancial" json:"gammaFinancial" mapstructure:"gammaFinancial"`
	GraceBias       float64 `yaml:"graceBias" json:"graceBias" mapstructure:"graceBias"`
}

// Rates returns the preset gammas in domain order.
func (p Preset) Rates() projection.Rates {
	return projection.Rates{p.GammaEcological, p.GammaSocial, p.GammaFinancial}
}

// Project is one tracked project with its current quality score and
// per-generation return vector.
type Project struct {
	ID              int       `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Meta            bool      `yaml:"meta" json:"meta"`
	Basis           string    `yaml:"basis" json:"basis"`
	QualityScore    float64   `yaml:"qualityScore" json:"qualityScore" mapstructure:"qualityScore"`
	Returns         []float64 `yaml:"returns" json:"returns"`
	GraceMultiplier float64   `yaml:"graceMultiplier" json:"graceMultiplier" mapstructure:"graceMultiplier"`
	Status          string    `yaml:"status" json:"status"`
}

func (p Project) clone() Project {
	p.Returns = append([]float64(nil), p.Returns...)
	return p
}

// Assessment is the monitor's view of a single project.
type Assessment struct {
	ProjectID    int            `json:"projectId"`
	Name         string         `json:"name"`
	QualityScore float64        `json:"qualityScore"`
	TotalReturn  float64        `json:"totalReturn"`
	Momentum     float64        `json:"momentum"`
	State        string         `json:"state"`
	Alert        *monitor.Alert `json:"alert,omitempty"`
}

// Catalog is the immutable set of presets, projects and mandates.
type Catalog struct {
	presets  []Preset
	projects []Project
	mandates []Mandate

	presetIndex  map[string]int
	projectIndex map[int]int
	mandateIndex map[string]int
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() []Preset {
	return []Preset{
		{
			ID:              "prophetic_mode",
			Name:            "Prophetic Mode",
			Description:     "Maximum covenant sensitivity for councils and seers",
			GammaEcological: 0.12,
			GammaSocial:     0.18,
			GammaFinancial:  0.16,
			GraceBias:       0.15,
		},
		{
			ID:              constants.DefaultPresetID,
			Name:            "Balanced Covenant",
			Description:     "Standard household stewardship model",
			GammaEcological: 0.12,
			GammaSocial:     0.14,
			GammaFinancial:  0.13,
			GraceBias:       0.13,
		},
		{
			ID:              "covenantal_minimum",
			Name:            "Covenant Minimum",
			Description:     "Entry-level threshold with grace-enabled accessibility",
			GammaEcological: 0.12,
			GammaSocial:     0.10,
			GammaFinancial:  0.10,
			GraceBias:       0.10,
		},
	}
}

// New builds a catalog. Empty preset or mandate lists fall back to the
// built-in defaults. Duplicate or empty identifiers are rejected.
func New(presets []Preset, projects []Project, mandates []Mandate) (*Catalog, error) {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	if len(mandates) == 0 {
		mandates = DefaultMandates()
	}

	c := &Catalog{
		presetIndex:  make(map[string]int, len(presets)),
		projectIndex: make(map[int]int, len(projects)),
		mandateIndex: make(map[string]int, len(mandates)),
	}

	for _, p := range presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset %q has an empty id", p.Name)
		}
		if _, dup := c.presetIndex[p.ID]; dup {
			return nil, fmt.Errorf("duplicate preset id %s", p.ID)
		}
		c.presetIndex[p.ID] = len(c.presets)
		c.presets = append(c.presets, p)
	}

	for _, p := range projects {
		if _, dup := c.projectIndex[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project id %d", p.ID)
		}
		c.projectIndex[p.ID] = len(c.projects)
		c.projects = append(c.projects, p.clone())
	}

	for _, m := range mandates {
		if m.ID == "" {
			return nil, fmt.Errorf("mandate %q has an empty id", m.Title)
		}
		if _, dup := c.mandateIndex[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mandate id %s", m.ID)
		}
		c.mandateIndex[m.ID] = len(c.mandates)
		c.mandates = append(c.mandates, m.clone())
	}

	return c, nil
}

// Presets returns all presets in catalog order.
func (c *Catalog) Presets() []Preset {
	return append([]Preset(nil), c.presets...)
}

// Preset looks up a preset by id. Unknown ids resolve to the default preset
// when it exists; found reports whether id itself matched.
func (c *Catalog) Preset(id string) (preset Preset, found bool) {
	if i, ok := c.presetIndex[id]; ok {
		return c.presets[i], true
	}
	if i, ok := c.presetIndex[constants.DefaultPresetID]; ok {
		return c.presets[i], false
	}
	if len(c.presets) > 0 {
		return c.presets[0], false
	}
	return Preset{}, false
}

// HasPreset reports whether id names a preset in the catalog.
func (c *Catalog) HasPreset(id string) bool {
	_, ok := c.presetIndex[id]
	return ok
}

// Projects returns all projects ordered by id.
func (c *Catalog) Projects() []Project {
	out := make([]Project, 0, len(c.projects))
	for _, p := range c.projects {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Project looks up a project by id.
func (c *Catalog) Project(id int) (Project, bool) {
	i, ok := c.projectIndex[id]
	if !ok {
		return Project{}, false
	}
	return c.projects[i].clone(), true
}

// Mandates returns all mandates in catalog order.
func (c *Catalog) Mandates() []Mandate {
	out := make([]Mandate, 0, len(c.mandates))
	for _, m := range c.mandates {
		out = append(out, m.clone())
	}
	return out
}

// Mandate looks up a mandate by id.
func (c *Catalog) Mandate(id string) (Mandate, bool) {
	i, ok := c.mandateIndex[id]
	if !ok {
		return Mandate{}, false
	}
	return c.mandates[i].clone(), true
}

// Assess runs the threshold monitor over a project. A triggered alert is
// stamped with now.
func Assess(project Project, thresholds monitor.Thresholds, now time.Time) Assessment {
	assessment := Assessment{
		ProjectID:    project.ID,
		Name:         project.Name,
		QualityScore: project.QualityScore,
		TotalReturn:  floats.Sum(project.Returns),
		Momentum:     projection.Momentum(project.Returns),
		State:        monitor.StateHealthy,
	}

	if alert, ok := monitor.EvaluateWith(thresholds, project.Returns, project.QualityScore); ok {
		alert.Timestamp = now
		assessment.Alert = &alert
		assessment.State = string(alert.Severity)
	}

	return assessment
}

// AssessAll assesses every project in id order.
func (c *Catalog) AssessAll(thresholds monitor.Thresholds, now time.Time) []Assessment {
	projects := c.Projects()
	out := make([]Assessment, 0, len(projects))
	for _, p := range projects {
		out = append(out, Assess(p, thresholds, now))
	}
	return out
}
