package observe_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/voxmed/voxmed/internal/observe"
)

func TestMiddleware_RecordsDurationAndStatus(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)

	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want ok", got)
	}

	rm := collect(t, reader)
	met, ok := findMetric(rm, "voxmed.http.request.duration")
	if !ok {
		t.Fatal("voxmed.http.request.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("data type = %T, want Histogram[float64]", met.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("histogram datapoints = %+v, want one point with count 1", hist.DataPoints)
	}

	dp := hist.DataPoints[0]
	attrs := make(map[string]string)
	for _, kv := range dp.Attributes.ToSlice() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["method"] != http.MethodPost || attrs["path"] != "/api/sessions" {
		t.Errorf("attributes = %v, want method and path recorded", attrs)
	}
}

func TestMiddleware_DefaultStatusOK(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
