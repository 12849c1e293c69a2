package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/batch"
	"github.com/bench-hub/bench-hub/internal/engine"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/jobs"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/metricsreg"
	"github.com/bench-hub/bench-hub/internal/retry"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// memStorage is an in-memory Storage for manager tests. Terminal
// transitions stamp CompletedAt only once, matching the SQL store.
type memStorage struct {
	mu   sync.Mutex
	jobs map[string]*api.JobResource
	logs map[string][]api.JobLogEntry
}

func newMemStorage() *memStorage {
	return &memStorage{
		jobs: map[string]*api.JobResource{},
		logs: map[string][]api.JobLogEntry{},
	}
}

func (s *memStorage) CreateJob(job *api.JobResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memStorage) GetJob(id string) (*api.JobResource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
	}
	copied := *job
	return &copied, nil
}

func (s *memStorage) GetJobs(limit int, offset int, statusFilter string) (*abstractions.QueryResults[api.JobResource], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []api.JobResource
	for _, job := range s.jobs {
		if statusFilter != "" && string(job.Status) != statusFilter {
			continue
		}
		all = append(all, *job)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &abstractions.QueryResults[api.JobResource]{Items: all[offset:end], TotalCount: total}, nil
}

func (s *memStorage) UpdateJobStatus(id string, status api.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
	}
	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStorage) UpdateJobProgress(id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStorage) CompleteJob(id string, result *api.JobResult) error {
	return s.finalize(id, api.StateCompleted, result, nil)
}

func (s *memStorage) FailJob(id string, errorMessage string) error {
	return s.finalize(id, api.StateFailed, nil, &errorMessage)
}

func (s *memStorage) finalize(id string, status api.State, result *api.JobResult, errorMessage *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
	}
	job.Status = status
	job.Result = result
	job.Error = errorMessage
	job.UpdatedAt = time.Now().UTC()
	if job.CompletedAt == nil {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	return nil
}

func (s *memStorage) AppendJobLog(entry *api.JobLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[entry.JobID] = append(s.logs[entry.JobID], *entry)
	return nil
}

func (s *memStorage) GetJobLogs(jobID string) ([]api.JobLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.JobLogEntry(nil), s.logs[jobID]...), nil
}

func (s *memStorage) Ping(time.Duration) error { return nil }
func (s *memStorage) Close() error             { return nil }

type fakeConfigStore struct {
	providers map[string]api.ProviderResource
	models    map[string]api.ModelResource
}

func (f *fakeConfigStore) GetProviderByID(id string) (*api.ProviderResource, error) {
	if p, ok := f.providers[id]; ok {
		return &p, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", id)
}

func (f *fakeConfigStore) GetProviderByName(name string) (*api.ProviderResource, error) {
	for _, p := range f.providers {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", name)
}

func (f *fakeConfigStore) GetModelByID(id string) (*api.ModelResource, error) {
	if m, ok := f.models[id]; ok {
		return &m, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "model", "ResourceId", id)
}

func (f *fakeConfigStore) ListProviders() []api.ProviderResource { return nil }
func (f *fakeConfigStore) ListModels() []api.ModelResource       { return nil }

type memLoader struct {
	datasets map[string]*api.Dataset
}

func (l *memLoader) LoadDataset(name string) (*api.Dataset, error) {
	if ds, ok := l.datasets[name]; ok {
		return ds, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "dataset", "ResourceId", name)
}

func (l *memLoader) LoadFewShot(name string, n int) ([]api.FewShotPair, error) {
	return nil, nil
}

func (l *memLoader) ListDatasets() ([]api.DatasetResource, error) { return nil, nil }

// answerBackend flips each question (q3) into the expected answer (a3).
type answerBackend struct{}

func (b *answerBackend) Complete(_ context.Context, req *abstractions.CompletionRequest) (*abstractions.CompletionResult, error) {
	input := req.Messages[len(req.Messages)-1].Content
	return &abstractions.CompletionResult{Text: "a" + input[1:], Provider: req.Provider, Model: req.Model}, nil
}

func (b *answerBackend) BatchComplete(ctx context.Context, reqs []*abstractions.CompletionRequest) ([]*abstractions.CompletionResult, error) {
	results := make([]*abstractions.CompletionResult, 0, len(reqs))
	for _, req := range reqs {
		result, err := b.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

type failingDashboard struct {
	calls int
}

func (d *failingDashboard) LogMetrics(context.Context, string, map[string]float64) error {
	d.calls++
	return errors.New("dashboard unreachable")
}

func key(s string) *string { return &s }

func newManager(t *testing.T, store abstractions.Storage, dashboard abstractions.Dashboard) *jobs.Manager {
	t.Helper()

	samples := make([]api.DatasetSample, 0, 4)
	for i := 0; i < 4; i++ {
		samples = append(samples, api.DatasetSample{
			Input:    fmt.Sprintf("q%d", i),
			Expected: fmt.Sprintf("a%d", i),
		})
	}
	loader := &memLoader{datasets: map[string]*api.Dataset{
		"aio": {
			Name:         "aio",
			Instruction:  "Answer.",
			OutputLength: 32,
			Metrics:      []api.MetricSpec{{Name: "exact_match"}},
			Samples:      samples,
		},
	}}
	configStore := &fakeConfigStore{
		providers: map[string]api.ProviderResource{
			"p1": {ID: "p1", Name: "openai", APIKey: key("k1"), IsActive: true},
		},
		models: map[string]api.ModelResource{
			"m1": {ID: "m1", Name: "gpt-test", ProviderID: "p1", IsActive: true},
		},
	}

	resolver := routing.NewResolver(configStore)
	client := invoke.NewClient(&answerBackend{}, time.Second)
	direct := invoke.NewDirectStrategy(client)
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Millisecond}
	executor := retry.NewController(resolver, direct, nil, policy, nil, slog.Default())
	batches := batch.NewController(executor, client, resolver, 2, nil, slog.Default())
	runner := engine.NewRunner(loader, metricsreg.NewRegistry(), batches, slog.Default())
	orchestrator := engine.NewOrchestrator(runner, configStore, slog.Default())

	return jobs.NewManager(store, orchestrator, dashboard, slog.Default())
}

func testRequest() *api.EvaluationRequest {
	return &api.EvaluationRequest{
		Datasets:    []string{"aio"},
		ProviderID:  "p1",
		ModelID:     "m1",
		SampleCount: 4,
		Shots:       []int{0, 0},
		Async:       true,
	}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	job, err := manager.Submit(testRequest())
	require.NoError(t, err)
	assert.Equal(t, api.StatePending, job.Status)
	assert.NotEmpty(t, job.ID)

	manager.Wait()

	final, err := manager.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StateCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.CompletedAt)
	require.NotNil(t, final.Result)
	assert.Equal(t, 1.0, final.Result.FlattenedMetrics["aio_0shot_exact_match"])
	assert.Equal(t, 1.0, final.Result.FlattenedMetrics["exact_match"])
	assert.Nil(t, final.Error)
}

func TestJobLogsRecordLifecycle(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	job, err := manager.Submit(testRequest())
	require.NoError(t, err)
	manager.Wait()

	logs, err := manager.GetLogs(job.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, logs.TotalCount, 4)
	assert.Contains(t, logs.Items[0].Message, "Evaluation job created")
	assert.Equal(t, "Evaluation started", logs.Items[1].Message)
	assert.Equal(t, "Evaluation completed", logs.Items[len(logs.Items)-1].Message)
}

func TestFailedJobKeepsErrorMessage(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	request := testRequest()
	request.Datasets = []string{"missing"}

	job, err := manager.Submit(request)
	require.NoError(t, err)
	manager.Wait()

	final, err := manager.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StateFailed, final.Status)
	require.NotNil(t, final.Error)
	assert.Contains(t, *final.Error, "missing")
	require.NotNil(t, final.CompletedAt)
	assert.Nil(t, final.Result)

	logs, err := manager.GetLogs(job.ID)
	require.NoError(t, err)
	last := logs.Items[len(logs.Items)-1]
	assert.Equal(t, api.LogLevelError, last.Level)
	assert.Equal(t, *final.Error, last.Message)
}

func TestDashboardFailureDoesNotFailJob(t *testing.T) {
	store := newMemStorage()
	dashboard := &failingDashboard{}
	manager := newManager(t, store, dashboard)

	job, err := manager.Submit(testRequest())
	require.NoError(t, err)
	manager.Wait()

	final, err := manager.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, api.StateCompleted, final.Status)
	assert.Equal(t, 1, dashboard.calls)

	logs, err := manager.GetLogs(job.ID)
	require.NoError(t, err)
	var warned bool
	for _, entry := range logs.Items {
		if entry.Level == api.LogLevelWarning {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning log entry for the dashboard push")
}

func TestRunSyncFlattensMetrics(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	response, err := manager.RunSync(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "p1", response.ProviderID)
	assert.Equal(t, "gpt-test", response.ModelName)
	assert.Equal(t, 1.0, response.Metrics["aio_0shot_exact_match"])
	assert.Equal(t, 1.0, response.Metrics["exact_match"])
	assert.Len(t, response.Summary, 2)

	// No job record for synchronous runs.
	listed, err := manager.ListJobs(1, 10, "")
	require.NoError(t, err)
	assert.Zero(t, listed.TotalCount)
}

func TestListJobsPaginatesNewestFirst(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		job := &api.JobResource{
			Resource: api.Resource{ID: fmt.Sprintf("job-%02d", i), CreatedAt: created, UpdatedAt: created},
			Status:   api.StateCompleted,
			Request:  *testRequest(),
		}
		require.NoError(t, store.CreateJob(job))
	}

	page2, err := manager.ListJobs(2, 10, "")
	require.NoError(t, err)
	require.Len(t, page2.Items, 10)
	assert.Equal(t, 25, page2.TotalCount)
	assert.Equal(t, "job-14", page2.Items[0].ID)
	require.NotNil(t, page2.Next)
	assert.Contains(t, page2.Next.Href, "page=3")

	page3, err := manager.ListJobs(3, 10, "")
	require.NoError(t, err)
	require.Len(t, page3.Items, 5)
	assert.Equal(t, "job-00", page3.Items[4].ID)
	assert.Nil(t, page3.Next)
}

func TestGetLogsUnknownJob(t *testing.T) {
	store := newMemStorage()
	manager := newManager(t, store, nil)

	_, err := manager.GetLogs("nope")
	require.Error(t, err)

	var serviceError *serviceerrors.ServiceError
	assert.ErrorAs(t, err, &serviceError)
}
