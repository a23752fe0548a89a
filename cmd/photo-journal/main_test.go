package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photo-journal/internal/metrics"
)

func TestMetricsRouter(t *testing.T) {
	metrics.InitializeMetrics()
	r := metricsRouter(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"alive"}`))
	})

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{"/metrics", http.StatusOK, "photo_journal_http_requests_in_flight"},
		{"/health", http.StatusOK, "alive"},
		{"/api/timeline", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("GET", tt.path, http.NoBody))
			if rr.Code != tt.wantCode {
				t.Errorf("GET %s = %d, want %d", tt.path, rr.Code, tt.wantCode)
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("GET %s body missing %q", tt.path, tt.contains)
			}
		})
	}
}
