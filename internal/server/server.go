package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/stewardship-forecast/internal/catalog"
	"github.com/iwvelando/stewardship-forecast/internal/export"
	"github.com/iwvelando/stewardship-forecast/internal/metrics"
	"github.com/iwvelando/stewardship-forecast/internal/monitor"
	"github.com/iwvelando/stewardship-forecast/internal/projection"
	"github.com/iwvelando/stewardship-forecast/pkg/constants"
	"go.uber.org/zap"
)

// Options configures the HTTP handler. Zero values fall back to defaults.
type Options struct {
	Logger         *zap.Logger
	Catalog        *catalog.Catalog
	Metrics        *metrics.Registry
	Thresholds     monitor.Thresholds
	Domains        [constants.DomainCount]projection.Domain
	MaxBodySize    int64
	AllowedOrigins []string
	Version        string
	Exporter       *export.Exporter
	Now            func() time.Time
}

type handler struct {
	logger      *zap.Logger
	catalog     *catalog.Catalog
	metrics     *metrics.Registry
	thresholds  monitor.Thresholds
	domains     [constants.DomainCount]projection.Domain
	maxBodySize int64
	version     string
	exporter    *export.Exporter
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the stewardship API.
func NewHandler(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cat := opts.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.New(nil, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("building default catalog: %w", err)
		}
	}

	reg := opts.Metrics
	if reg == nil {
		reg = metrics.NewRegistry(false)
	}

	thresholds := opts.Thresholds
	if thresholds == (monitor.Thresholds{}) {
		thresholds = monitor.DefaultThresholds()
	}

	domains := opts.Domains
	if domains == ([constants.DomainCount]projection.Domain{}) {
		domains = projection.DefaultDomains()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	exporter := opts.Exporter
	if exporter == nil {
		exporter = export.NewExporter()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{
		logger:      logger,
		catalog:     cat,
		metrics:     reg,
		thresholds:  thresholds,
		domains:     domains,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		exporter:    exporter,
		now:         now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusNotFound, "route not found", "server.NotFound")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.respondErrorWithOp(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "server.MethodNotAllowed")
	})

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", reg.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/evaluate", h.handleEvaluate)
		r.Post("/project", h.handleProject)
		r.Get("/presets", h.handlePresets)
		r.Get("/projects", h.handleProjects)
		r.Get("/projects/{id}/assessment", h.handleAssessment)
		r.Get("/assessments", h.handleAssessments)
		r.Get("/mandates", h.handleMandates)
		r.Post("/mandates/{id}/eligibility", h.handleEligibility)
		r.Post("/sonify", h.handleSonify)
		r.Post("/export", h.handleExport)
	})

	return r, nil
}

// instrument logs each request and counts it by route pattern.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.RecordRequest(route, status)

		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestId", middleware.GetReqID(r.Context())),
		)
	})
}

// decodeJSON reads a JSON body bounded by the configured limit. It writes the
// error response itself and reports whether decoding succeeded.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before writing the header so an encoding failure
// becomes a 500 rather than an empty response.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
