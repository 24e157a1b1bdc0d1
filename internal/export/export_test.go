package export

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"gopkg.in/yaml.v3"
)

var fixedTime = time.Date(2025, 11, 8, 12, 30, 0, 0, time.UTC)

func newTestExporter() *Exporter {
	return NewExporter().
		WithIDSource(func() string { return "00000000-0000-0000-0000-000000000001" }).
		WithClock(func() time.Time { return fixedTime })
}

func testPreset() catalog.Preset {
	for _, p := range catalog.DefaultPresets() {
		if p.ID == "prophetic_mode" {
			return p
		}
	}
	panic("prophetic_mode preset missing")
}

func TestSeal(t *testing.T) {
	seal := Seal("steward_01", 0.92, "prophetic_mode")
	raw, err := base64.StdEncoding.DecodeString(seal)
	if err != nil {
		t.Fatalf("seal is not base64: %v", err)
	}
	if got := string(raw); got != "user_steward_01:0.92:prophetic_mode" {
		t.Errorf("decoded seal = %q", got)
	}
}

func TestBuildHealthy(t *testing.T) {
	snap := newTestExporter().Build(Input{
		QualityScore: 0.92,
		Returns:      []float64{1, 2},
		Preset:       testPreset(),
		Alignment:    87,
	})

	if snap.ID != "00000000-0000-0000-0000-000000000001" || !snap.Timestamp.Equal(fixedTime) {
		t.Errorf("unexpected id/time %s %v", snap.ID, snap.Timestamp)
	}
	if snap.Steward.UserID != constants.DefaultStewardID {
		t.Errorf("default steward = %s", snap.Steward.UserID)
	}
	if diff := cmp.Diff([]string{constants.HealthyExportReference}, snap.Audit.References); diff != "" {
		t.Errorf("unexpected references (-want +got):\n%s", diff)
	}
	if snap.Audit.CommunityAlignment != 0.87 {
		t.Errorf("community alignment = %v", snap.Audit.CommunityAlignment)
	}
	if snap.Metadata.GammaSocial != 0.18 || snap.Metadata.ActivePreset != "prophetic_mode" {
		t.Errorf("unexpected metadata %+v", snap.Metadata)
	}
}

func TestBuildWithAlert(t *testing.T) {
	alert, ok := monitor.Evaluate([]float64{1}, 0.5)
	if !ok {
		t.Fatal("expected an alert")
	}
	in := Input{StewardID: "council_7", Returns: []float64{1}, Alert: &alert}
	snap := newTestExporter().Build(in)

	if snap.Audit.References[0] != alert.Reference {
		t.Errorf("reference = %s, expected %s", snap.Audit.References[0], alert.Reference)
	}
	if snap.Steward.UserID != "council_7" {
		t.Errorf("steward = %s", snap.Steward.UserID)
	}

	in.Returns[0] = 99
	if snap.Steward.Returns[0] != 1 {
		t.Errorf("snapshot shares the caller's return slice")
	}
}

func TestSnapshotYAML(t *testing.T) {
	snap := newTestExporter().Build(Input{
		QualityScore: 0.92,
		Returns:      []float64{0.12, 0.11},
		Preset:       testPreset(),
		Mandates:     []string{"Listen without agenda"},
	})

	body, err := snap.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	text := string(body)
	for _, fragment := range []string{
		"# Liturgical Export: Covenant Seal",
		"covenantSeal: " + snap.Seal,
		"user_id: steward_01",
		"active_preset: prophetic_mode",
		"g_roi_vector: [0.12, 0.11]",
		"- Psalm 23:1",
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("YAML missing %q:\n%s", fragment, text)
		}
	}

	var decoded Snapshot
	if err := yaml.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("snapshot YAML does not parse: %v", err)
	}
	if decoded.Seal != snap.Seal || decoded.Steward.QualityScore != 0.92 {
		t.Errorf("decoded snapshot differs: %+v", decoded)
	}
}

func TestFilename(t *testing.T) {
	snap := newTestExporter().Build(Input{})
	if got, want := snap.Filename(), "covenant-export-1762605000000.yaml"; got != want {
		t.Errorf("Filename() = %s, expected %s", got, want)
	}
}

func TestBuildUsesRandomIDs(t *testing.T) {
	a := Build(Input{})
	b := Build(Input{})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct generated ids, got %q and %q", a.ID, b.ID)
	}
}
