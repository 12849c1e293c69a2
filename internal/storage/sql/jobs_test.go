package sql_test

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/storage/sql"
	"github.com/bench-hub/bench-hub/pkg/api"
)

func newTestStorage(t *testing.T) abstractions.Storage {
	t.Helper()
	config := map[string]any{
		"driver": "sqlite",
		"url":    filepath.Join(t.TempDir(), "test.db"),
	}
	storage, err := sql.NewStorage(config, slog.Default())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func newJob(id string, createdAt time.Time) *api.JobResource {
	return &api.JobResource{
		Resource: api.Resource{
			ID:        id,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		Status: api.StatePending,
		Request: api.EvaluationRequest{
			Datasets:    []string{"aio"},
			ProviderID:  "p1",
			ModelID:     "m1",
			SampleCount: 10,
			Shots:       []int{0, 2},
		},
	}
}

func TestJobLifecycle(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := storage.CreateJob(newJob("job-1", now)); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	job, err := storage.GetJob("job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if job.Status != api.StatePending || job.Progress != 0 {
		t.Errorf("unexpected fresh job: status=%s progress=%d", job.Status, job.Progress)
	}
	if job.Request.ModelID != "m1" || len(job.Request.Shots) != 2 {
		t.Errorf("request snapshot not preserved: %+v", job.Request)
	}
	if job.CompletedAt != nil {
		t.Error("fresh job must not have completed_at")
	}

	if err := storage.UpdateJobStatus("job-1", api.StateRunning); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	if err := storage.UpdateJobProgress("job-1", 50); err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}

	job, err = storage.GetJob("job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if job.Status != api.StateRunning || job.Progress != 50 {
		t.Errorf("unexpected running job: status=%s progress=%d", job.Status, job.Progress)
	}

	result := &api.JobResult{
		Report:           &api.EvaluationReport{ModelName: "gpt-test"},
		FlattenedMetrics: map[string]float64{"exact_match": 0.75},
	}
	if err := storage.CompleteJob("job-1", result); err != nil {
		t.Fatalf("failed to complete job: %v", err)
	}

	job, err = storage.GetJob("job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if job.Status != api.StateCompleted {
		t.Errorf("expected completed, got %s", job.Status)
	}
	if job.Result == nil || job.Result.FlattenedMetrics["exact_match"] != 0.75 {
		t.Errorf("result snapshot not preserved: %+v", job.Result)
	}
	if job.CompletedAt == nil {
		t.Fatal("completed job must have completed_at")
	}
}

func TestCompletedAtStampedOnce(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.CreateJob(newJob("job-1", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	if err := storage.FailJob("job-1", "first failure"); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}
	job, err := storage.GetJob("job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	first := job.CompletedAt
	if first == nil {
		t.Fatal("failed job must have completed_at")
	}
	if job.Error == nil || *job.Error != "first failure" {
		t.Errorf("error message not preserved: %+v", job.Error)
	}

	time.Sleep(10 * time.Millisecond)
	if err := storage.CompleteJob("job-1", &api.JobResult{Report: &api.EvaluationReport{}}); err != nil {
		t.Fatalf("failed to finalize again: %v", err)
	}

	job, err = storage.GetJob("job-1")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if !job.CompletedAt.Equal(*first) {
		t.Errorf("completed_at changed on second finalize: %v vs %v", job.CompletedAt, first)
	}
}

func TestGetJobNotFound(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.GetJob("nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
	if err := storage.UpdateJobStatus("nope", api.StateRunning); err == nil {
		t.Fatal("expected error updating unknown job")
	}
	if err := storage.CompleteJob("nope", &api.JobResult{}); err == nil {
		t.Fatal("expected error completing unknown job")
	}
}

func TestGetJobsPaginatesNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		if err := storage.CreateJob(newJob(fmt.Sprintf("job-%02d", i), created)); err != nil {
			t.Fatalf("failed to create job %d: %v", i, err)
		}
	}

	page, err := storage.GetJobs(10, 10, "")
	if err != nil {
		t.Fatalf("failed to list jobs: %v", err)
	}
	if page.TotalCount != 25 {
		t.Errorf("expected 25 total, got %d", page.TotalCount)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(page.Items))
	}
	if page.Items[0].ID != "job-14" || page.Items[9].ID != "job-05" {
		t.Errorf("unexpected page order: first=%s last=%s", page.Items[0].ID, page.Items[9].ID)
	}

	tail, err := storage.GetJobs(10, 20, "")
	if err != nil {
		t.Fatalf("failed to list tail: %v", err)
	}
	if len(tail.Items) != 5 || tail.Items[4].ID != "job-00" {
		t.Errorf("unexpected tail: %d items", len(tail.Items))
	}
}

func TestGetJobsStatusFilter(t *testing.T) {
	storage := newTestStorage(t)
	base := time.Now().UTC()
	for i := 0; i < 4; i++ {
		if err := storage.CreateJob(newJob(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("failed to create job %d: %v", i, err)
		}
	}
	if err := storage.FailJob("job-1", "boom"); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}
	if err := storage.FailJob("job-3", "boom"); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}

	failed, err := storage.GetJobs(10, 0, string(api.StateFailed))
	if err != nil {
		t.Fatalf("failed to list failed jobs: %v", err)
	}
	if failed.TotalCount != 2 || len(failed.Items) != 2 {
		t.Fatalf("expected 2 failed jobs, got total=%d items=%d", failed.TotalCount, len(failed.Items))
	}
	if failed.Items[0].ID != "job-3" {
		t.Errorf("expected newest failed job first, got %s", failed.Items[0].ID)
	}
}

func TestJobLogsKeepAppendOrder(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.CreateJob(newJob("job-1", time.Now().UTC())); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		entry := &api.JobLogEntry{
			ID:        fmt.Sprintf("log-%d", i),
			JobID:     "job-1",
			Level:     api.LogLevelInfo,
			Message:   fmt.Sprintf("line %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := storage.AppendJobLog(entry); err != nil {
			t.Fatalf("failed to append log %d: %v", i, err)
		}
	}

	entries, err := storage.GetJobLogs("job-1")
	if err != nil {
		t.Fatalf("failed to get logs: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Message != fmt.Sprintf("line %d", i) {
			t.Errorf("entry %d out of order: %s", i, entry.Message)
		}
		if entry.Level != api.LogLevelInfo {
			t.Errorf("entry %d level: %s", i, entry.Level)
		}
	}
}
