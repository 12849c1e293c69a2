package handlers

import (
	"time"

	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/pkg/api"
)

const serviceVersion = "1.0.0"

func (h *Handlers) HandleHealth(ctx *executioncontext.ExecutionContext, w http_wrappers.ResponseWrapper) {
	now := time.Now().UTC()
	response := api.HealthResponse{
		Status:     "healthy",
		Version:    serviceVersion,
		Timestamp:  &now,
		Uptime:     time.Since(h.startedAt),
		ActiveJobs: int(h.manager.ActiveJobs()),
		Components: map[string]map[string]any{},
	}

	if err := h.storage.Ping(2 * time.Second); err != nil {
		response.Status = "degraded"
		response.Components["storage"] = map[string]any{"status": "unavailable", "error": err.Error()}
	} else {
		response.Components["storage"] = map[string]any{"status": "healthy"}
	}

	w.WriteJSON(response, 200)
}
