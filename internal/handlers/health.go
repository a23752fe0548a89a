package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"photo-journal/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Indexing     bool   `json:"indexing"`
	LastIndexed  string `json:"lastIndexed,omitempty"`
	IndexedCount int    `json:"indexedCount"`
	Error        string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Library summary
	TotalPhotos  int `json:"totalPhotos"`
	UsedPhotos   int `json:"usedPhotos"`
	DiaryEntries int `json:"diaryEntries"`
}

// HealthCheck returns the health status of the service. A database that
// does not answer a ping makes the service degraded.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.index != nil {
		response.Indexing = h.index.IsIndexing()
		if last, at := h.index.LastResult(); !at.IsZero() {
			response.LastIndexed = at.Format(time.RFC3339)
			response.IndexedCount = last.Photos
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
	} else {
		// Runs from before a restart are only recorded in the database.
		if response.LastIndexed == "" {
			if at, err := h.store.LastIndexRun(ctx); err == nil && !at.IsZero() {
				response.LastIndexed = at.Format(time.RFC3339)
			}
		}
		stats := h.store.GetStats()
		response.TotalPhotos = stats.TotalPhotos
		response.UsedPhotos = stats.UsedPhotos
		response.DiaryEntries = stats.DiaryEntries
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != statusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
