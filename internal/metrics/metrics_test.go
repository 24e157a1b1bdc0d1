package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEvaluation(t *testing.T) {
	r := NewRegistry(false)
	r.RecordEvaluation("healthy")
	r.RecordEvaluation("critical")
	r.RecordEvaluation("critical")

	if got := testutil.ToFloat64(r.Evaluations.WithLabelValues("critical")); got != 2 {
		t.Errorf("critical evaluations = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(r.Evaluations.WithLabelValues("healthy")); got != 1 {
		t.Errorf("healthy evaluations = %v, expected 1", got)
	}
}

func TestRecordProjection(t *testing.T) {
	r := NewRegistry(false)
	r.RecordProjection(5)
	r.RecordProjection(20)

	if got := testutil.ToFloat64(r.Projections); got != 2 {
		t.Errorf("projections = %v, expected 2", got)
	}
	if n := testutil.CollectAndCount(r.ProjectionHorizon); n != 1 {
		t.Errorf("expected one horizon histogram, got %d", n)
	}
}

func TestRecordRequest(t *testing.T) {
	r := NewRegistry(false)
	r.RecordRequest("/api/evaluate", http.StatusOK)
	r.RecordRequest("/api/evaluate", http.StatusBadRequest)
	r.RecordRequest("/api/evaluate", http.StatusOK)

	if got := testutil.ToFloat64(r.HTTPRequests.WithLabelValues("/api/evaluate", "200")); got != 2 {
		t.Errorf("200 requests = %v, expected 2", got)
	}
	if n := testutil.CollectAndCount(r.HTTPRequests); n != 2 {
		t.Errorf("expected 2 label combinations, got %d", n)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry(true)
	r.RecordEvaluation("warning")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, fragment := range []string{
		`stewardship_evaluations_total{state="warning"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), fragment) {
			t.Errorf("exposition missing %q", fragment)
		}
	}
}
