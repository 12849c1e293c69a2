package handlers

import (
	"strconv"
	"strings"

	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serialization"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetEvaluationID extracts the job id from an evaluations path such as
// /api/v1/evaluations/123 or /api/v1/evaluations/123/logs.
func GetEvaluationID(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/evaluations")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if idx := strings.IndexAny(trimmed, "/?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// HandleSubmitEvaluation handles POST /api/v1/evaluations
func (h *Handlers) HandleSubmitEvaluation(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	body, err := r.BodyAsBytes()
	if err != nil {
		writeError(ctx, w, serviceerrors.NewServiceError(messages.InvalidJSONRequest, "Error", err.Error()))
		return
	}

	request := &api.EvaluationRequest{}
	if err := serialization.Unmarshal(h.validate, ctx, body, request); err != nil {
		writeError(ctx, w, err)
		return
	}

	if !request.Async {
		response, err := h.manager.RunSync(ctx.Ctx, request)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		w.WriteJSON(response, 200)
		return
	}

	job, err := h.manager.Submit(request)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	ctx.Logger.Info("Evaluation job submitted", "job_id", job.ID, "model_id", request.ModelID)
	w.WriteJSON(job, 202)
}

// HandleGetEvaluation handles GET /api/v1/evaluations/{id}
func (h *Handlers) HandleGetEvaluation(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	id := GetEvaluationID(r.Path())
	if id == "" {
		writeError(ctx, w, serviceerrors.NewServiceError(messages.MissingPathParameter, "ParameterName", "id"))
		return
	}

	job, err := h.manager.GetJob(id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteJSON(job, 200)
}

// HandleListEvaluations handles GET /api/v1/evaluations
func (h *Handlers) HandleListEvaluations(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	statusFilter := ""
	if values := r.Query("status"); len(values) > 0 && values[0] != "" {
		state, err := api.GetState(values[0])
		if err != nil {
			writeError(ctx, w, serviceerrors.NewServiceError(messages.QueryParameterInvalid,
				"ParameterName", "status", "Type", "job state", "Value", values[0]))
			return
		}
		statusFilter = state.String()
	}

	list, err := h.manager.ListJobs(page, pageSize, statusFilter)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteJSON(list, 200)
}

// HandleGetEvaluationLogs handles GET /api/v1/evaluations/{id}/logs
func (h *Handlers) HandleGetEvaluationLogs(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	id := GetEvaluationID(r.Path())
	if id == "" {
		writeError(ctx, w, serviceerrors.NewServiceError(messages.MissingPathParameter, "ParameterName", "id"))
		return
	}

	logs, err := h.manager.GetLogs(id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteJSON(logs, 200)
}

func queryInt(r http_wrappers.RequestWrapper, name string, fallback int) (int, error) {
	values := r.Query(name)
	if len(values) == 0 || values[0] == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(values[0])
	if err != nil || parsed < 1 {
		return 0, serviceerrors.NewServiceError(messages.QueryParameterInvalid,
			"ParameterName", name, "Type", "positive integer", "Value", values[0])
	}
	return parsed, nil
}
