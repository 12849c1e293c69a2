package api

import (
	"fmt"
	"time"
)

// State represents the job state enum
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether a job in this state can still change.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func GetState(s string) (State, error) {
	switch s {
	case string(StatePending):
		return StatePending, nil
	case string(StateRunning):
		return StateRunning, nil
	case string(StateCompleted):
		return StateCompleted, nil
	case string(StateFailed):
		return StateFailed, nil
	default:
		return State(s), fmt.Errorf("invalid job state: %s", s)
	}
}

// LogLevel represents the level of a job log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// EvaluationRequest represents an evaluation submission. It is immutable
// once submitted and is stored verbatim as the job's request snapshot.
type EvaluationRequest struct {
	Datasets    []string       `json:"datasets" validate:"required,min=1,dive,required"`
	ProviderID  string         `json:"provider_id" validate:"required"`
	ModelID     string         `json:"model_id" validate:"required"`
	SampleCount int            `json:"sample_count" validate:"required,gt=0"`
	Shots       []int          `json:"shots" validate:"required,min=1,dive,gte=0"`
	Options     map[string]any `json:"options,omitempty"`
	Async       bool           `json:"async"`
}

// JobResult is the result snapshot persisted when a job completes.
type JobResult struct {
	Report           *EvaluationReport  `json:"report" validate:"required"`
	FlattenedMetrics map[string]float64 `json:"flattened_metrics,omitempty"`
}

// JobResource represents an evaluation job. The result snapshot is non-nil
// iff the job completed, the error message is non-nil iff it failed, and
// CompletedAt is stamped once on the first terminal transition.
type JobResource struct {
	Resource
	Status      State             `json:"status"`
	Request     EvaluationRequest `json:"request"`
	Result      *JobResult        `json:"result,omitempty"`
	Error       *string           `json:"error,omitempty"`
	Progress    int               `json:"progress"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// JobResourceList represents a page of jobs, newest first.
type JobResourceList struct {
	Page
	Items []JobResource `json:"items"`
}

// JobLogEntry is one append-only log line owned by a job.
type JobLogEntry struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// JobLogList represents the ordered log entries of one job.
type JobLogList struct {
	TotalCount int           `json:"total_count"`
	Items      []JobLogEntry `json:"items"`
}
