package handlers

import (
	"time"

	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
)

func (h *Handlers) HandleStatus(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {

	w.WriteJSON(map[string]interface{}{
		"service":     "bench-hub",
		"version":     serviceVersion,
		"status":      "running",
		"active_jobs": h.manager.ActiveJobs(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}, 200)

}
