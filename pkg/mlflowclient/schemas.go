package mlflowclient

import (
	"errors"
	"strconv"
	"strings"
)

// APIError represents an error from the MLflow API
type APIError struct {
	StatusCode   int          `json:"status_code" validate:"required"`
	ResponseBody string       `json:"response_body,omitempty"`
	MLFlowError  *MLFlowError `json:"error,omitempty"`
}

type MLFlowError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	sb := strings.Builder{}
	sb.WriteString("MLflow API error")
	if e.ResponseBody != "" {
		sb.WriteString(" with response body: ")
		sb.WriteString(e.ResponseBody)
	}
	sb.WriteString(" with status code: ")
	sb.WriteString(strconv.Itoa(e.StatusCode))
	return sb.String()
}

func IsResourceAlreadyExistsError(err error) bool {
	apiError := &APIError{}
	if errors.As(err, &apiError) && (apiError.StatusCode == 400) {
		if apiError.MLFlowError != nil && apiError.MLFlowError.ErrorCode == "RESOURCE_ALREADY_EXISTS" {
			return true
		}
		if strings.Contains(apiError.ResponseBody, "RESOURCE_ALREADY_EXISTS") {
			return true
		}
	}
	return false
}

func IsResourceDoesNotExistError(err error) bool {
	apiError := &APIError{}
	if errors.As(err, &apiError) && (apiError.StatusCode == 404) {
		if apiError.MLFlowError != nil && apiError.MLFlowError.ErrorCode == "RESOURCE_DOES_NOT_EXIST" {
			return true
		}
		if strings.Contains(apiError.ResponseBody, "RESOURCE_DOES_NOT_EXIST") {
			return true
		}
	}
	return false
}

// ExperimentTag is a key/value annotation on an experiment
type ExperimentTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Experiment represents an MLflow experiment
type Experiment struct {
	ExperimentID     string          `json:"experiment_id"`
	Name             string          `json:"name"`
	ArtifactLocation string          `json:"artifact_location"`
	LifecycleStage   string          `json:"lifecycle_stage"`
	LastUpdateTime   int64           `json:"last_update_time"`
	CreationTime     int64           `json:"creation_time"`
	Tags             []ExperimentTag `json:"tags"`
}

// CreateExperimentRequest represents a request to create an experiment
type CreateExperimentRequest struct {
	Name             string          `json:"name" validate:"required"`
	ArtifactLocation string          `json:"artifact_location,omitempty" validate:"omitempty"`
	Tags             []ExperimentTag `json:"tags,omitempty" validate:"omitempty,dive"`
}

// CreateExperimentResponse represents the response from creating an experiment
type CreateExperimentResponse struct {
	ExperimentID string `json:"experiment_id" validate:"required"`
}

// GetExperimentByNameRequest represents a request to get an experiment by name
type GetExperimentByNameRequest struct {
	ExperimentName string `json:"experiment_name" validate:"required"`
}

// GetExperimentResponse represents the response from getting an experiment
type GetExperimentResponse struct {
	Experiment Experiment `json:"experiment" validate:"required"`
}

// RunInfo identifies one MLflow run
type RunInfo struct {
	RunID        string `json:"run_id"`
	ExperimentID string `json:"experiment_id"`
	RunName      string `json:"run_name"`
	Status       string `json:"status"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time,omitempty"`
}

// Run represents an MLflow run
type Run struct {
	Info RunInfo `json:"info"`
}

// CreateRunRequest represents a request to create a run
type CreateRunRequest struct {
	ExperimentID string          `json:"experiment_id" validate:"required"`
	RunName      string          `json:"run_name,omitempty"`
	StartTime    int64           `json:"start_time,omitempty"`
	Tags         []ExperimentTag `json:"tags,omitempty"`
}

// CreateRunResponse represents the response from creating a run
type CreateRunResponse struct {
	Run Run `json:"run" validate:"required"`
}

// Metric is one logged metric point
type Metric struct {
	Key       string  `json:"key" validate:"required"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// LogBatchRequest represents a request to log metrics against a run
type LogBatchRequest struct {
	RunID   string   `json:"run_id" validate:"required"`
	Metrics []Metric `json:"metrics,omitempty"`
}

// UpdateRunRequest represents a request to update a run's status
type UpdateRunRequest struct {
	RunID   string `json:"run_id" validate:"required"`
	Status  string `json:"status,omitempty"`
	EndTime int64  `json:"end_time,omitempty"`
}
