package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/export"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/internal/sonify"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

type evaluateRequest struct {
	Returns      []float64          `json:"returns"`
	QualityScore *float64           `json:"qualityScore"`
	Thresholds   *thresholdOverride `json:"thresholds,omitempty"`
}

// thresholdOverride carries the floors a client wants to change. Omitted
// floors keep the configured value.
type thresholdOverride struct {
	Critical      *float64 `json:"critical,omitempty"`
	Warning       *float64 `json:"warning,omitempty"`
	MinimumReturn *float64 `json:"minimumReturn,omitempty"`
}

func (o *thresholdOverride) apply(base monitor.Thresholds) monitor.Thresholds {
	if o == nil {
		return base
	}
	if o.Critical != nil {
		base.Critical = *o.Critical
	}
	if o.Warning != nil {
		base.Warning = *o.Warning
	}
	if o.MinimumReturn != nil {
		base.MinimumReturn = *o.MinimumReturn
	}
	return base
}

type evaluateResponse struct {
	State       string         `json:"state"`
	Healthy     bool           `json:"healthy"`
	TotalReturn float64        `json:"totalReturn"`
	Alert       *monitor.Alert `json:"alert,omitempty"`
}

type projectRequest struct {
	Domains []projection.Domain `json:"domains,omitempty"`
	Horizon *int                `json:"horizon,omitempty"`
	Preset  string              `json:"preset,omitempty"`
	Rounded bool                `json:"rounded,omitempty"`
}

type projectResponse struct {
	Preset   string              `json:"preset,omitempty"`
	Domains  []projection.Domain `json:"domains"`
	Points   []projection.Point  `json:"points"`
	Warnings []string            `json:"warnings,omitempty"`
}

type eligibilityResponse struct {
	MandateID      string    `json:"mandateId"`
	Eligible       bool      `json:"eligible"`
	Unmet          []string  `json:"unmet,omitempty"`
	BoostedReturns []float64 `json:"boostedReturns,omitempty"`
}

type eligibilityRequest struct {
	catalog.EligibilityInput
	Returns []float64 `json:"returns,omitempty"`
}

type sonifyRequest struct {
	Metric string  `json:"metric"`
	Delta  float64 `json:"delta"`
	Seed   *int64  `json:"seed,omitempty"`
}

type exportRequest struct {
	StewardID    string    `json:"stewardId"`
	QualityScore float64   `json:"qualityScore"`
	Returns      []float64 `json:"returns"`
	Preset       string    `json:"preset"`
	Mandates     []string  `json:"mandates,omitempty"`
	Alignment    float64   `json:"alignment"`
}

type exportResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Seal         string `json:"seal"`
	SnapshotYAML string `json:"snapshotYaml"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"

	var req evaluateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.QualityScore == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "qualityScore is required", op)
		return
	}

	total := floats.Sum(req.Returns)
	if math.IsInf(total, 0) {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, "total return overflows a finite number", op)
		return
	}

	thresholds := req.Thresholds.apply(h.thresholds)
	mon := monitor.NewMonitor(h.logger, thresholds).WithClock(h.now).WithRecorder(h.metrics)
	alert := mon.Observe(req.Returns, *req.QualityScore)

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		State:       monitor.State(alert),
		Healthy:     alert == nil,
		TotalReturn: total,
		Alert:       alert,
	})
}

func (h *handler) handleProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProject"

	var req projectRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	horizon := constants.DefaultHorizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}
	if horizon > constants.MaxRequestHorizon {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("horizon %d exceeds maximum of %d", horizon, constants.MaxRequestHorizon), op)
		return
	}

	domains := h.domains
	switch len(req.Domains) {
	case 0:
	case constants.DomainCount:
		copy(domains[:], req.Domains)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("expected %d domains, got %d", constants.DomainCount, len(req.Domains)), op)
		return
	}

	var warnings []string
	presetID := ""
	if req.Preset != "" {
		preset, found := h.catalog.Preset(req.Preset)
		if !found {
			warnings = append(warnings, fmt.Sprintf("preset %s not found, using %s", req.Preset, preset.ID))
		}
		presetID = preset.ID
		domains = projection.WithRates(domains, preset.Rates())
	}
	warnings = append(warnings, projection.Validate(domains, horizon)...)

	points := projection.Project(domains, horizon)
	if period, ok := firstNonFinite(points); ok {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("projection overflows at period %d; shorten the horizon or lower the rates", period), op)
		return
	}
	if req.Rounded {
		points = projection.Rounded(points)
	}
	h.metrics.RecordProjection(horizon)

	h.logger.Info("projection computed",
		zap.String("op", op),
		zap.Int("horizon", horizon),
		zap.String("preset", presetID),
		zap.Int("warnings", len(warnings)),
	)

	h.writeJSON(w, http.StatusOK, projectResponse{
		Preset:   presetID,
		Domains:  domains[:],
		Points:   points,
		Warnings: warnings,
	})
}

// firstNonFinite reports the first period holding a value JSON cannot carry.
func firstNonFinite(points []projection.Point) (int, bool) {
	for _, p := range points {
		if math.IsInf(p.Aggregate, 0) || math.IsNaN(p.Aggregate) {
			return p.Period, true
		}
		for _, v := range p.Values {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return p.Period, true
			}
		}
	}
	return 0, false
}

func (h *handler) handlePresets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Presets())
}

func (h *handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Projects())
}

func (h *handler) handleAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAssessment"

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid project id %q", chi.URLParam(r, "id")), op)
		return
	}
	project, ok := h.catalog.Project(id)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("project %d not found", id), op)
		return
	}

	assessment := catalog.Assess(project, h.thresholds, h.now())
	h.metrics.RecordEvaluation(assessment.State)
	h.writeJSON(w, http.StatusOK, assessment)
}

func (h *handler) handleAssessments(w http.ResponseWriter, r *http.Request) {
	assessments := h.catalog.AssessAll(h.thresholds, h.now())
	for _, a := range assessments {
		h.metrics.RecordEvaluation(a.State)
	}
	h.writeJSON(w, http.StatusOK, assessments)
}

func (h *handler) handleMandates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Mandates())
}

func (h *handler) handleEligibility(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEligibility"

	id := chi.URLParam(r, "id")
	mandate, ok := h.catalog.Mandate(id)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("mandate %s not found", id), op)
		return
	}

	var req eligibilityRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	eligible, unmet := mandate.Eligible(req.EligibilityInput)
	resp := eligibilityResponse{MandateID: mandate.ID, Eligible: eligible, Unmet: unmet}
	if eligible && len(req.Returns) > 0 {
		resp.BoostedReturns = mandate.BoostedReturns(req.Returns)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleSonify(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSonify"

	var req sonifyRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Metric == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "metric is required", op)
		return
	}

	seed := h.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	h.writeJSON(w, http.StatusOK, sonify.Metric(req.Metric, req.Delta, sonify.NewSource(seed)))
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	var req exportRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	preset, _ := h.catalog.Preset(req.Preset)
	in := export.Input{
		StewardID:    req.StewardID,
		QualityScore: req.QualityScore,
		Returns:      req.Returns,
		Preset:       preset,
		Mandates:     req.Mandates,
		Alignment:    req.Alignment,
	}
	if alert, ok := monitor.EvaluateWith(h.thresholds, req.Returns, req.QualityScore); ok {
		alert.Timestamp = h.now()
		in.Alert = &alert
	}

	snapshot := h.exporter.Build(in)
	body, err := snapshot.YAML()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.logger.Info("snapshot exported",
		zap.String("op", op),
		zap.String("exportId", snapshot.ID),
		zap.String("preset", preset.ID),
	)

	h.writeJSON(w, http.StatusOK, exportResponse{
		ID:           snapshot.ID,
		Filename:     snapshot.Filename(),
		Seal:         snapshot.Seal,
		SnapshotYAML: string(body),
	})
}
