// Package server wires the HTTP surface: routing, execution contexts and
// the middleware chain.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bench-hub/bench-hub/internal/config"
	"github.com/bench-hub/bench-hub/internal/constants"
	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/handlers"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
)

const requestIDHeader = "X-Global-Transaction-Id"

// handlerFunc is a request handler operating on the wrapped request and
// response with an execution context.
type handlerFunc func(*executioncontext.ExecutionContext, http_wrappers.RequestWrapper, http_wrappers.ResponseWrapper)

// New builds the service's http.Handler with the full middleware chain.
func New(h *handlers.Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	register := func(pattern string, handler handlerFunc) {
		mux.HandleFunc(pattern, adapt(logger, handler))
	}

	register("POST /api/v1/evaluations", h.HandleSubmitEvaluation)
	register("GET /api/v1/evaluations", h.HandleListEvaluations)
	register("GET /api/v1/evaluations/{id}", h.HandleGetEvaluation)
	register("GET /api/v1/evaluations/{id}/logs", h.HandleGetEvaluationLogs)
	register("GET /api/v1/providers", h.HandleListProviders)
	register("GET /api/v1/models", h.HandleListModels)
	register("GET /api/v1/datasets", h.HandleListDatasets)
	register("GET /api/v1/status", h.HandleStatus)

	mux.HandleFunc("GET /healthz", adapt(logger,
		func(ctx *executioncontext.ExecutionContext, _ http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
			h.HandleHealth(ctx, w)
		}))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := http_wrappers.NewResponseWrapper(w)
		err := serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "path", "ResourceId", r.URL.Path)
		response.Error(err.Error(), err.MessageCode().GetCode(), r.Header.Get(requestIDHeader))
	})

	return CorsMiddleware(Middleware(mux), cfg)
}

// adapt turns a handlerFunc into an http.HandlerFunc, building the
// request-scoped execution context and logging the request.
func adapt(logger *slog.Logger, handler handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		requestLogger := logger.With(
			constants.LOG_REQUEST_ID, requestID,
			constants.LOG_METHOD, r.Method,
			constants.LOG_URI, r.RequestURI,
		)
		requestLogger.Info("Handling request", constants.LOG_REMOTE_ADR, r.RemoteAddr)

		ctx := executioncontext.NewExecutionContext(r.Context(), requestID, requestLogger)
		handler(ctx, http_wrappers.NewRequestWrapper(r), http_wrappers.NewResponseWrapper(w))
	}
}

// ListenAddress formats the configured bind address.
func ListenAddress(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.Port)
}
