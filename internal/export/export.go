// Package export builds the sealed YAML stewardship snapshot.
package export

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"github.com/iwvelando/stewardship-forecast/pkg/mathutil"
	"gopkg.in/yaml.v3"
)

// Input is the state captured by a snapshot.
type Input struct {
	StewardID    string         `json:"stewardId"`
	QualityScore float64        `json:"qualityScore"`
	Returns      []float64      `json:"returns"`
	Preset       catalog.Preset `json:"preset"`
	Alert        *monitor.Alert `json:"alert,omitempty"`
	Mandates     []string       `json:"mandates,omitempty"`
	// Alignment is the covenant alignment against the community in percent.
	Alignment float64 `json:"alignment"`
}

// Snapshot is the exported document.
type Snapshot struct {
	ID        string    `yaml:"exportId"`
	Timestamp time.Time `yaml:"timestamp"`
	Seal      string    `yaml:"covenantSeal"`
	Steward   Steward   `yaml:"stewardship_snapshot"`
	Metadata  Metadata  `yaml:"prophetic_metadata"`
	Audit     Audit     `yaml:"audit_trail"`
}

// Steward is the stewardship section of a snapshot.
type Steward struct {
	UserID         string    `yaml:"user_id"`
	QualityScore   float64   `yaml:"l_score"`
	Returns        []float64 `yaml:"g_roi_vector,flow"`
	ActiveMandates []string  `yaml:"active_mandates"`
	Alignment      float64   `yaml:"covenant_alignment_vs_community"`
}

// Metadata records the preset in force when the snapshot was taken.
type Metadata struct {
	ActivePreset      string  `yaml:"active_preset"`
	PresetDescription string  `yaml:"preset_description"`
	GammaEcological   float64 `yaml:"gamma_ecological"`
	GammaSocial       float64 `yaml:"gamma_social"`
	GammaFinancial    float64 `yaml:"gamma_financial"`
	GraceBias         float64 `yaml:"grace_bias"`
}

// Audit anchors the snapshot to the alert reference in force.
type Audit struct {
	References         []string `yaml:"scripture_anchors"`
	CommunityAlignment float64  `yaml:"community_alignment"`
}

// Exporter stamps snapshots with an id and time.
type Exporter struct {
	newID func() string
	now   func() time.Time
}

// NewExporter returns an exporter using random UUIDs and the wall clock.
func NewExporter() *Exporter {
	return &Exporter{
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// WithIDSource replaces the export id generator.
func (e *Exporter) WithIDSource(newID func() string) *Exporter {
	e.newID = newID
	return e
}

// WithClock replaces the time source.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Build assembles a snapshot from in. An empty steward id uses the default
// steward; a nil alert records the healthy reference.
func (e *Exporter) Build(in Input) Snapshot {
	steward := in.StewardID
	if steward == "" {
		steward = constants.DefaultStewardID
	}

	reference := constants.HealthyExportReference
	if in.Alert != nil && in.Alert.Reference != "" {
		reference = in.Alert.Reference
	}

	return Snapshot{
		ID:        e.newID(),
		Timestamp: e.now().UTC(),
		Seal:      Seal(steward, in.QualityScore, in.Preset.ID),
		Steward: Steward{
			UserID:         steward,
			QualityScore:   in.QualityScore,
			Returns:        append([]float64{}, in.Returns...),
			ActiveMandates: append([]string{}, in.Mandates...),
			Alignment:      in.Alignment,
		},
		Metadata: Metadata{
			ActivePreset:      in.Preset.ID,
			PresetDescription: in.Preset.Description,
			GammaEcological:   in.Preset.GammaEcological,
			GammaSocial:       in.Preset.GammaSocial,
			GammaFinancial:    in.Preset.GammaFinancial,
			GraceBias:         in.Preset.GraceBias,
		},
		Audit: Audit{
			References:         []string{reference},
			CommunityAlignment: mathutil.Clamp(in.Alignment, 0, 100) / 100,
		},
	}
}

// Build assembles a snapshot with a fresh id and the current time.
func Build(in Input) Snapshot {
	return NewExporter().Build(in)
}

// Seal encodes "user_<steward>:<score>:<preset>" in standard base64.
func Seal(steward string, score float64, preset string) string {
	raw := fmt.Sprintf("user_%s:%s:%s", steward, strconv.FormatFloat(score, 'f', -1, 64), preset)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// YAML renders the snapshot document.
func (s Snapshot) YAML() ([]byte, error) {
	body, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}
	return append([]byte("# Liturgical Export: Covenant Seal\n"), body...), nil
}

// Filename is the suggested download name for the snapshot.
func (s Snapshot) Filename() string {
	return fmt.Sprintf("covenant-export-%d.yaml", s.Timestamp.UnixMilli())
}
