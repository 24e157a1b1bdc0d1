// Package monitor classifies a return vector and quality score into a health
// state and produces the matching alert.
package monitor

import (
	"time"

	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Severity is the level of an active alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// StateHealthy is the label used when an evaluation produces no alert.
const StateHealthy = "healthy"

// VisualCue tells a renderer how to present an alert.
type VisualCue string

const (
	CueCritical VisualCue = "critical"
	CueWarning  VisualCue = "warning"
	CueNone     VisualCue = "none"
)

// Alert describes a non-healthy evaluation. It is created fresh by every
// evaluation and never mutated afterwards.
type Alert struct {
	Severity  Severity  `json:"severity" yaml:"severity"`
	Message   string    `json:"message" yaml:"message"`
	Action    string    `json:"action" yaml:"action"`
	Reference string    `json:"reference" yaml:"reference"`
	VisualCue VisualCue `json:"visualCue" yaml:"visualCue"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Thresholds holds the floors used to classify an evaluation.
type Thresholds struct {
	Critical      float64 `yaml:"critical" json:"critical"`
	Warning       float64 `yaml:"warning" json:"warning"`
	MinimumReturn float64 `yaml:"minimumReturn" json:"minimumReturn" mapstructure:"minimumReturn"`
}

// DefaultThresholds returns the standard floors.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Critical:      constants.CriticalQualityFloor,
		Warning:       constants.WarningQualityFloor,
		MinimumReturn: constants.MinimumAggregateReturn,
	}
}

// Evaluate classifies returns and quality with the default thresholds.
func Evaluate(returns []float64, quality float64) (Alert, bool) {
	return EvaluateWith(DefaultThresholds(), returns, quality)
}

// EvaluateWith classifies returns and quality against th. The boolean is
// false when the state is healthy. The returned alert has a zero Timestamp;
// stamping is left to the caller.
//
// Quality is compared as given. Values outside [0, 1] are not clamped, so a
// negative score is simply critical.
func EvaluateWith(th Thresholds, returns []float64, quality float64) (Alert, bool) {
	total := floats.Sum(returns)

	// Critical is checked first: a low total is never downgraded to a warning.
	if quality < th.Critical || total < th.MinimumReturn {
		return Alert{
			Severity:  SeverityCritical,
			Message:   "Alignment below threshold.",
			Action:    "initiate_corrective_protocol",
			Reference: "James 4:6",
			VisualCue: CueCritical,
		}, true
	}

	if quality < th.Warning {
		return Alert{
			Severity:  SeverityWarning,
			Message:   "Approaching alignment threshold.",
			Action:    "increase_stewardship_focus",
			Reference: "Matthew 25:21",
			VisualCue: CueWarning,
		}, true
	}

	return Alert{}, false
}

// State returns the severity label of an evaluation result, or StateHealthy.
func State(alert *Alert) string {
	if alert == nil {
		return StateHealthy
	}
	return string(alert.Severity)
}

// Recorder receives the outcome of every observation.
type Recorder interface {
	RecordEvaluation(state string)
}

// Monitor tracks the single active alert for one stream of inputs. A Monitor
// is not safe for concurrent use.
type Monitor struct {
	logger     *zap.Logger
	thresholds Thresholds
	now        func() time.Time
	recorder   Recorder
	active     *Alert
}

// NewMonitor creates a monitor using the given thresholds.
func NewMonitor(logger *zap.Logger, thresholds Thresholds) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger:     logger,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to stamp alerts.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	if now != nil {
		m.now = now
	}
	return m
}

// WithRecorder attaches a recorder that is notified of each observation.
func (m *Monitor) WithRecorder(recorder Recorder) *Monitor {
	m.recorder = recorder
	return m
}

// Thresholds returns the floors the monitor evaluates against.
func (m *Monitor) Thresholds() Thresholds {
	return m.thresholds
}

// Observe evaluates new inputs, stamps the resulting alert, and replaces the
// active alert with it. A healthy evaluation clears the active alert and
// returns nil.
func (m *Monitor) Observe(returns []float64, quality float64) *Alert {
	previous := State(m.active)

	alert, triggered := EvaluateWith(m.thresholds, returns, quality)
	if triggered {
		alert.Timestamp = m.now()
		m.active = &alert
	} else {
		m.active = nil
	}

	current := State(m.active)
	if m.recorder != nil {
		m.recorder.RecordEvaluation(current)
	}

	if current != previous {
		m.logger.Info("alert state changed",
			zap.String("op", "monitor.Observe"),
			zap.String("from", previous),
			zap.String("to", current),
			zap.Float64("qualityScore", quality),
			zap.Float64("totalReturn", floats.Sum(returns)),
		)
	} else {
		m.logger.Debug("alert state unchanged",
			zap.String("op", "monitor.Observe"),
			zap.String("state", current),
		)
	}

	return m.Active()
}

// Active returns a copy of the active alert, or nil when healthy.
func (m *Monitor) Active() *Alert {
	if m.active == nil {
		return nil
	}
	alert := *m.active
	return &alert
}

// Clear drops the active alert without evaluating.
func (m *Monitor) Clear() {
	m.active = nil
}
