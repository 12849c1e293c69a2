package handlers

import (
	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// HandleListDatasets handles GET /api/v1/datasets
func (h *Handlers) HandleListDatasets(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	datasets, err := h.datasets.ListDatasets()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteJSON(api.DatasetResourceList{
		TotalCount: len(datasets),
		Items:      datasets,
	}, 200)
}
