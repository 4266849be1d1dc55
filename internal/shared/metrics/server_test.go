package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthzOK(t *testing.T) {
	h := Handler(func(ctx context.Context) error { return nil })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestHealthzUnhealthy(t *testing.T) {
	h := Handler(func(ctx context.Context) error { return errors.New("pg down") })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pg down") {
		t.Errorf("Expected body to mention cause, got %q", rr.Body.String())
	}
}

func TestMetricsExposesCollectors(t *testing.T) {
	RecordResolution("assigned")
	RecordBetStatus("won")

	h := Handler(nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "event_resolutions_total") {
		t.Error("Expected event_resolutions_total in /metrics output")
	}
	if !strings.Contains(body, "bet_status_derived_total") {
		t.Error("Expected bet_status_derived_total in /metrics output")
	}
}
