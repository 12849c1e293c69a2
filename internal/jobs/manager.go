// Package jobs owns the evaluation job state machine. Submitted jobs run
// fire-and-forget in a goroutine per job; callers observe progress
// through the persisted store.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/engine"
	"github.com/bench-hub/bench-hub/internal/telemetry"
	"github.com/bench-hub/bench-hub/pkg/api"
)

type Manager struct {
	store        abstractions.Storage
	orchestrator *engine.Orchestrator
	dashboard    abstractions.Dashboard
	logger       *slog.Logger

	active  atomic.Int64
	running sync.WaitGroup
}

func NewManager(store abstractions.Storage, orchestrator *engine.Orchestrator,
	dashboard abstractions.Dashboard, logger *slog.Logger) *Manager {
	return &Manager{
		store:        store,
		orchestrator: orchestrator,
		dashboard:    dashboard,
		logger:       logger,
	}
}

// ActiveJobs reports the number of jobs currently executing.
func (m *Manager) ActiveJobs() int64 {
	return m.active.Load()
}

// Wait blocks until every in-flight job reached a terminal state.
func (m *Manager) Wait() {
	m.running.Wait()
}

// Submit persists a new pending job and schedules its execution. The
// returned job is always in pending; outcomes are observed by polling.
func (m *Manager) Submit(request *api.EvaluationRequest) (*api.JobResource, error) {
	now := time.Now().UTC()
	job := &api.JobResource{
		Resource: api.Resource{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Status:  api.StatePending,
		Request: *request,
	}

	if err := m.store.CreateJob(job); err != nil {
		return nil, err
	}
	m.appendLog(job.ID, api.LogLevelInfo,
		fmt.Sprintf("Evaluation job created for model %s on %d dataset(s)", request.ModelID, len(request.Datasets)))

	m.running.Add(1)
	go m.execute(job.ID, request)

	return job, nil
}

// RunSync executes the orchestrator inline for the blocking submission
// path, bypassing the job store entirely.
func (m *Manager) RunSync(ctx context.Context, request *api.EvaluationRequest) (*api.SyncEvaluationResponse, error) {
	report, err := m.orchestrator.Run(ctx, request, nil)
	if err != nil {
		return nil, err
	}
	return &api.SyncEvaluationResponse{
		ProviderID: report.ProviderID,
		ModelID:    report.ModelID,
		ModelName:  report.ModelName,
		Metrics:    engine.Flatten(report),
		Summary:    report.Summary,
	}, nil
}

func (m *Manager) GetJob(id string) (*api.JobResource, error) {
	return m.store.GetJob(id)
}

// ListJobs returns one page of jobs, newest first. Page numbers start
// at 1.
func (m *Manager) ListJobs(page int, pageSize int, statusFilter string) (*api.JobResourceList, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	results, err := m.store.GetJobs(pageSize, offset, statusFilter)
	if err != nil {
		return nil, err
	}

	list := &api.JobResourceList{
		Page: api.Page{
			Limit:      pageSize,
			TotalCount: results.TotalCount,
		},
		Items: results.Items,
	}
	if offset+len(results.Items) < results.TotalCount {
		list.Next = &api.HRef{Href: fmt.Sprintf("/api/v1/evaluations?page=%d&page_size=%d", page+1, pageSize)}
	}
	return list, nil
}

func (m *Manager) GetLogs(jobID string) (*api.JobLogList, error) {
	if _, err := m.store.GetJob(jobID); err != nil {
		return nil, err
	}
	entries, err := m.store.GetJobLogs(jobID)
	if err != nil {
		return nil, err
	}
	return &api.JobLogList{TotalCount: len(entries), Items: entries}, nil
}

// execute drives one job to a terminal state. Jobs are not cancellable;
// the background context runs until the job finishes or the process exits.
func (m *Manager) execute(jobID string, request *api.EvaluationRequest) {
	defer m.running.Done()
	m.active.Add(1)
	defer m.active.Add(-1)

	ctx := context.Background()
	logger := m.logger.With("job_id", jobID)

	if err := m.store.UpdateJobStatus(jobID, api.StateRunning); err != nil {
		logger.Error("Failed to mark job running", "error", err)
		m.fail(jobID, logger, err)
		return
	}
	m.appendLog(jobID, api.LogLevelInfo, "Evaluation started")

	progress := func(completed int, total int) {
		percent := completed * 100 / total
		if err := m.store.UpdateJobProgress(jobID, percent); err != nil {
			logger.Warn("Failed to update job progress", "error", err)
		}
		m.appendLog(jobID, api.LogLevelInfo,
			fmt.Sprintf("Completed %d of %d dataset/shot pairs", completed, total))
	}

	report, err := m.orchestrator.Run(ctx, request, progress)
	if err != nil {
		m.fail(jobID, logger, err)
		return
	}

	flattened := engine.Flatten(report)

	// A dashboard push failure is logged against the job but never
	// changes its status.
	if m.dashboard != nil {
		if err := m.dashboard.LogMetrics(ctx, report.ModelName, flattened); err != nil {
			logger.Warn("Dashboard push failed", "error", err)
			m.appendLog(jobID, api.LogLevelWarning,
				fmt.Sprintf("Failed to push metrics to dashboard: %s", err.Error()))
		}
	}

	result := &api.JobResult{Report: report, FlattenedMetrics: flattened}
	if err := m.store.CompleteJob(jobID, result); err != nil {
		logger.Error("Failed to persist job result", "error", err)
		m.fail(jobID, logger, err)
		return
	}
	m.appendLog(jobID, api.LogLevelInfo, "Evaluation completed")
	telemetry.JobsTotal.WithLabelValues(api.StateCompleted.String()).Inc()
	logger.Info("Job completed", "metrics", len(flattened))
}

func (m *Manager) fail(jobID string, logger *slog.Logger, cause error) {
	m.appendLog(jobID, api.LogLevelError, cause.Error())
	if err := m.store.FailJob(jobID, cause.Error()); err != nil {
		logger.Error("Failed to mark job failed", "error", err)
		return
	}
	telemetry.JobsTotal.WithLabelValues(api.StateFailed.String()).Inc()
	logger.Error("Job failed", "error", cause)
}

func (m *Manager) appendLog(jobID string, level api.LogLevel, message string) {
	entry := &api.JobLogEntry{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := m.store.AppendJobLog(entry); err != nil {
		m.logger.Warn("Failed to append job log entry", "job_id", jobID, "error", err)
	}
}
