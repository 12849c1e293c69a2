package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/config"
	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/internal/jobs"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
)

// Contains the service state information that handlers can access
type Handlers struct {
	manager       *jobs.Manager
	storage       abstractions.Storage
	configStore   abstractions.ConfigStore
	datasets      abstractions.DatasetLoader
	validate      *validator.Validate
	serviceConfig *config.Config
	startedAt     time.Time
}

func New(manager *jobs.Manager, storage abstractions.Storage, configStore abstractions.ConfigStore,
	datasets abstractions.DatasetLoader, validate *validator.Validate, serviceConfig *config.Config) *Handlers {
	return &Handlers{
		manager:       manager,
		storage:       storage,
		configStore:   configStore,
		datasets:      datasets,
		validate:      validate,
		serviceConfig: serviceConfig,
		startedAt:     time.Now(),
	}
}

// writeError maps an error to the standard error payload, falling back
// to an internal server error for anything that is not a ServiceError.
func writeError(ctx *executioncontext.ExecutionContext, w http_wrappers.ResponseWrapper, err error) {
	var serviceError *serviceerrors.ServiceError
	if !errors.As(err, &serviceError) {
		serviceError = serviceerrors.NewServiceError(messages.UnknownError, "Error", err.Error())
	}
	ctx.Logger.Error("Request failed", "error", serviceError.Error())
	w.Error(serviceError.Error(), serviceError.MessageCode().GetCode(), ctx.RequestID)
}
