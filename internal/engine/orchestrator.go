package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// ProgressFunc receives the number of completed dataset × shot-count
// pairs out of the total after every pair.
type ProgressFunc func(completed int, total int)

type Orchestrator struct {
	runner *Runner
	store  abstractions.ConfigStore
	logger *slog.Logger
}

func NewOrchestrator(runner *Runner, store abstractions.ConfigStore, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{runner: runner, store: store, logger: logger}
}

// Run executes every dataset × shot-count pair of the request
// sequentially and merges the runs into one report. A failing pair fails
// the whole evaluation; per-sample failures do not.
func (o *Orchestrator) Run(ctx context.Context, req *api.EvaluationRequest, progress ProgressFunc) (*api.EvaluationReport, error) {
	provider, model, err := o.resolveTargets(req)
	if err != nil {
		return nil, err
	}

	report := &api.EvaluationReport{
		ProviderID: provider.ID,
		ModelID:    model.ID,
		ModelName:  model.Name,
		Results:    map[string][]api.RunResult{},
	}

	total := len(req.Datasets) * len(req.Shots)
	completed := 0
	for _, dataset := range req.Datasets {
		for _, shots := range req.Shots {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			run, err := o.runner.Run(ctx, provider.ID, model.ID, dataset, shots, req.SampleCount, req.Options)
			if err != nil {
				return nil, serviceerrors.NewServiceError(messages.EvaluationFailed,
					"Dataset", dataset, "Error", err.Error())
			}
			report.Results[dataset] = append(report.Results[dataset], *run)
			report.Summary = append(report.Summary, api.SummaryRow{
				Dataset:     dataset,
				Model:       model.Name,
				Shots:       shots,
				SampleCount: run.SampleCount,
				Metrics:     run.Averages,
			})

			completed++
			if progress != nil {
				progress(completed, total)
			}
		}
	}
	return report, nil
}

// resolveTargets validates that the requested provider is active and the
// requested model belongs to it.
func (o *Orchestrator) resolveTargets(req *api.EvaluationRequest) (*api.ProviderResource, *api.ModelResource, error) {
	provider, err := o.store.GetProviderByID(req.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	if !provider.IsActive {
		return nil, nil, serviceerrors.NewServiceError(messages.ProviderInactive, "ProviderId", provider.ID)
	}

	model, err := o.store.GetModelByID(req.ModelID)
	if err != nil {
		return nil, nil, err
	}
	if model.ProviderID != provider.ID {
		return nil, nil, serviceerrors.NewServiceError(messages.ModelProviderMismatch,
			"ModelId", model.ID, "ProviderId", provider.ID)
	}
	return provider, model, nil
}

// Flatten collapses a report into one metric map. Every metric appears
// under its scenario-qualified name and under its short name; when
// several runs share a short name the later pair wins.
func Flatten(report *api.EvaluationReport) map[string]float64 {
	flattened := map[string]float64{}

	datasetNames := make([]string, 0, len(report.Results))
	for name := range report.Results {
		datasetNames = append(datasetNames, name)
	}
	sort.Strings(datasetNames)

	for _, dataset := range datasetNames {
		for _, run := range report.Results[dataset] {
			for metric, value := range run.Averages {
				flattened[fmt.Sprintf("%s_%dshot_%s", dataset, run.Shots, metric)] = value
				flattened[metric] = value
			}
		}
	}
	return flattened
}
