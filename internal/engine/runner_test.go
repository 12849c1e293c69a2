package engine_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/batch"
	"github.com/bench-hub/bench-hub/internal/engine"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/metricsreg"
	"github.com/bench-hub/bench-hub/internal/retry"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

type fakeStore struct {
	providers map[string]api.ProviderResource
	models    map[string]api.ModelResource
}

func (f *fakeStore) GetProviderByID(id string) (*api.ProviderResource, error) {
	if p, ok := f.providers[id]; ok {
		return &p, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", id)
}

func (f *fakeStore) GetProviderByName(name string) (*api.ProviderResource, error) {
	for _, p := range f.providers {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", name)
}

func (f *fakeStore) GetModelByID(id string) (*api.ModelResource, error) {
	if m, ok := f.models[id]; ok {
		return &m, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "model", "ResourceId", id)
}

func (f *fakeStore) ListProviders() []api.ProviderResource { return nil }
func (f *fakeStore) ListModels() []api.ModelResource       { return nil }

// memLoader serves datasets from memory.
type memLoader struct {
	datasets map[string]*api.Dataset
	fewShot  map[string][]api.FewShotPair
}

func (l *memLoader) LoadDataset(name string) (*api.Dataset, error) {
	if ds, ok := l.datasets[name]; ok {
		return ds, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "dataset", "ResourceId", name)
}

func (l *memLoader) LoadFewShot(name string, n int) ([]api.FewShotPair, error) {
	if n <= 0 {
		return nil, nil
	}
	pairs, ok := l.fewShot[name]
	if !ok {
		return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "dataset", "ResourceId", name)
	}
	if n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs, nil
}

func (l *memLoader) ListDatasets() ([]api.DatasetResource, error) { return nil, nil }

// answerBackend answers with the sample's question flipped to an answer
// (q3 -> a3) so exact_match scores 1; inputs in failInputs error instead.
type answerBackend struct {
	failInputs map[string]bool
}

func (b *answerBackend) Complete(_ context.Context, req *abstractions.CompletionRequest) (*abstractions.CompletionResult, error) {
	input := req.Messages[len(req.Messages)-1].Content
	if b.failInputs[input] {
		return nil, errors.New("backend exploded")
	}
	return &abstractions.CompletionResult{
		Text:     "a" + input[1:],
		Provider: req.Provider,
		Model:    req.Model,
	}, nil
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

func key(s string) *string { return &s }

func makeSamples(n int) []api.DatasetSample {
	samples := make([]api.DatasetSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, api.DatasetSample{
			Input:    fmt.Sprintf("q%d", i),
			Expected: fmt.Sprintf("a%d", i),
		})
	}
	return samples
}

func newTestRunner(backend abstractions.Backend, loader *memLoader) (*engine.Runner, *fakeStore) {
	store := &fakeStore{
		providers: map[string]api.ProviderResource{
			"p1": {ID: "p1", Name: "openai", APIKey: key("k1"), IsActive: true},
		},
		models: map[string]api.ModelResource{
			"m1": {ID: "m1", Name: "gpt-test", ProviderID: "p1", IsActive: true},
		},
	}
	resolver := routing.NewResolver(store)
	client := invoke.NewClient(backend, time.Second)
	direct := invoke.NewDirectStrategy(client)
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 5 * time.Millisecond}
	executor := retry.NewController(resolver, direct, nil, policy, nil, slog.Default())
	batches := batch.NewController(executor, client, resolver, 5, nil, slog.Default())
	runner := engine.NewRunner(loader, metricsreg.NewRegistry(), batches, slog.Default())
	return runner, store
}

func aioLoader(sampleCount int) *memLoader {
	return &memLoader{
		datasets: map[string]*api.Dataset{
			"aio": {
				Name:         "aio",
				Instruction:  "Answer.",
				OutputLength: 32,
				Metrics:      []api.MetricSpec{{Name: "exact_match"}},
				Samples:      makeSamples(sampleCount),
			},
		},
		fewShot: map[string][]api.FewShotPair{
			"aio": {{User: "ex1", Assistant: "ans1"}, {User: "ex2", Assistant: "ans2"}},
		},
	}
}

func TestRunnerDetailKeysAndAverage(t *testing.T) {
	runner, _ := newTestRunner(&answerBackend{}, aioLoader(10))

	result, err := runner.Run(context.Background(), "p1", "m1", "aio", 0, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, result.SampleCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 1.0, result.Averages["exact_match"])
	assert.Equal(t, 10, result.ProviderTally["openai"])

	assert.Contains(t, result.Details, "aio_0shot_exact_match")
	assert.Contains(t, result.Details, "aio_0shot_details")
	assert.Equal(t, 1.0, result.Details["aio_0shot_exact_match"])
}

func TestRunnerCapsSamples(t *testing.T) {
	runner, _ := newTestRunner(&answerBackend{}, aioLoader(10))

	result, err := runner.Run(context.Background(), "p1", "m1", "aio", 0, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, result.SampleCount)
}

func TestRunnerAveragesOverNonErrorSamplesOnly(t *testing.T) {
	// 3 of 10 samples fail; exact_match averages over the 7 survivors.
	backend := &answerBackend{failInputs: map[string]bool{"q1": true, "q4": true, "q7": true}}
	runner, _ := newTestRunner(backend, aioLoader(10))

	result, err := runner.Run(context.Background(), "p1", "m1", "aio", 0, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ErrorCount)
	assert.Equal(t, 1.0, result.Averages["exact_match"])
	assert.Equal(t, 7, result.ProviderTally["openai"])
}

func TestRunnerAllErroredAveragesZero(t *testing.T) {
	failAll := map[string]bool{}
	for i := 0; i < 5; i++ {
		failAll[fmt.Sprintf("q%d", i)] = true
	}
	runner, _ := newTestRunner(&answerBackend{failInputs: failAll}, aioLoader(5))

	result, err := runner.Run(context.Background(), "p1", "m1", "aio", 0, 5, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.ErrorCount)
	assert.Equal(t, 0.0, result.Averages["exact_match"])
	assert.Empty(t, result.ProviderTally)
}

func TestRunnerParamsEcho(t *testing.T) {
	loader := aioLoader(3)
	loader.datasets["aio"].Metrics = []api.MetricSpec{
		{Name: "exact_match", Params: map[string]any{"case_sensitive": false}},
	}
	runner, _ := newTestRunner(&answerBackend{}, loader)

	result, err := runner.Run(context.Background(), "p1", "m1", "aio", 2, 3, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Details, "aio_2shot_exact_match_params")
}
