package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveHTTP("POST", "/v1/predictions", 200, 10*time.Millisecond)
	m.ObservePrediction(false, time.Second)
	m.ObservePrediction(true, time.Second)
	m.ObserveSearch("success", 12)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/predictions", "200")); got != 1 {
		t.Fatalf("http counter = %v", got)
	}
	if got := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("stopped")); got != 1 {
		t.Fatalf("stopped predictions = %v", got)
	}
	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("searches = %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RunsTotal.Add(3)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "enhancesim_runs_total 3") {
		t.Fatalf("runs counter missing from exposition")
	}
}
