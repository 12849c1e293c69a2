package abstractions

import (
	"time"

	"github.com/bench-hub/bench-hub/pkg/api"
)

// QueryResults carries one page of items together with the total count.
type QueryResults[T any] struct {
	Items      []T
	TotalCount int
}

// Storage persists jobs and their log entries. Implementations must
// serialize concurrent writers safely; each mutation is atomic per record.
// No other place in the code should point directly at a database driver.
type Storage interface {
	CreateJob(job *api.JobResource) error
	GetJob(id string) (*api.JobResource, error)
	// GetJobs returns jobs ordered newest first.
	GetJobs(limit int, offset int, statusFilter string) (*QueryResults[api.JobResource], error)
	// UpdateJobStatus moves a job to a non-terminal status.
	UpdateJobStatus(id string, status api.State) error
	UpdateJobProgress(id string, progress int) error
	// CompleteJob stores the result snapshot and moves the job to
	// completed, stamping completed_at if it is not set yet.
	CompleteJob(id string, result *api.JobResult) error
	// FailJob stores the error message and moves the job to failed,
	// stamping completed_at if it is not set yet.
	FailJob(id string, errorMessage string) error
	AppendJobLog(entry *api.JobLogEntry) error
	// GetJobLogs returns the entries of one job in append order.
	GetJobLogs(jobID string) ([]api.JobLogEntry, error)
	Ping(timeout time.Duration) error
	Close() error
}
