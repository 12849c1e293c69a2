// Package engine drives evaluations: the runner executes one dataset
// with one shot-count, the orchestrator fans a request out over every
// dataset × shot-count pair.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/PaesslerAG/jsonpath"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/batch"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/prompt"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// answerPathParam names the optional JSONPath metric parameter that
// extracts the answer from structured model output.
const answerPathParam = "answer_path"

type Runner struct {
	loader  abstractions.DatasetLoader
	metrics abstractions.MetricRegistry
	batches *batch.Controller
	logger  *slog.Logger
}

func NewRunner(loader abstractions.DatasetLoader, metrics abstractions.MetricRegistry,
	batches *batch.Controller, logger *slog.Logger) *Runner {
	return &Runner{loader: loader, metrics: metrics, batches: batches, logger: logger}
}

// Run evaluates one dataset with one shot-count: samples are capped,
// executed through the batch controller, post-processed and averaged per
// metric over the non-error samples.
func (r *Runner) Run(ctx context.Context, providerID string, modelID string,
	dataset string, shots int, sampleCount int, options map[string]any) (*api.RunResult, error) {
	ds, err := r.loader.LoadDataset(dataset)
	if err != nil {
		return nil, err
	}

	samples := ds.Samples
	if sampleCount > 0 && sampleCount < len(samples) {
		samples = samples[:sampleCount]
	}

	var fewShot []api.FewShotPair
	if shots > 0 {
		fewShot, err = r.loader.LoadFewShot(dataset, shots)
		if err != nil {
			return nil, err
		}
	}

	metricFuncs, err := r.metrics.GetMetricFunctions(ds.Metrics)
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, 0, len(samples))
	for _, sample := range samples {
		items = append(items, batch.Item{
			Sample:   sample,
			Messages: prompt.Assemble(ds.Instruction, fewShot, sample.Input),
		})
	}

	params, overrides := splitOptions(ds.OutputLength, options)

	r.logger.Info("Running evaluation", "dataset", dataset, "shots", shots, "samples", len(items))
	records := r.batches.Process(ctx, providerID, modelID, items, params, overrides)

	postProcess(records, ds.Metrics)

	result := &api.RunResult{
		Dataset:       dataset,
		Shots:         shots,
		SampleCount:   len(records),
		Averages:      map[string]float64{},
		Details:       map[string]any{},
		ProviderTally: map[string]int{},
		Records:       records,
	}

	for i := range records {
		if batch.IsErrorRecord(&records[i]) {
			result.ErrorCount++
			continue
		}
		result.ProviderTally[records[i].Provider]++
	}

	keyPrefix := fmt.Sprintf("%s_%dshot", dataset, shots)
	for _, spec := range ds.Metrics {
		scorer := metricFuncs[spec.Name]
		average := averageScore(records, scorer)
		result.Averages[spec.Name] = average
		result.Details[fmt.Sprintf("%s_%s", keyPrefix, spec.Name)] = average
		if len(spec.Params) > 0 {
			result.Details[fmt.Sprintf("%s_%s_params", keyPrefix, spec.Name)] = spec.Params
		}
	}
	result.Details[keyPrefix+"_details"] = records

	if result.ErrorCount > 0 {
		r.logger.Warn("Samples failed during evaluation",
			"dataset", dataset, "shots", shots, "errors", result.ErrorCount)
	}
	return result, nil
}

// averageScore averages a metric over the non-error records only. All
// errored or no records averages to 0.
func averageScore(records []api.SampleRecord, scorer abstractions.MetricFunc) float64 {
	sum := 0.0
	count := 0
	for i := range records {
		if batch.IsErrorRecord(&records[i]) {
			continue
		}
		sum += scorer(records[i].ProcessedOutput, records[i].Expected)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// splitOptions separates the engine-understood invocation options from
// the opaque passthrough ones.
func splitOptions(outputLength int, options map[string]any) (invoke.Params, *routing.Overrides) {
	params := invoke.Params{MaxTokens: outputLength}
	var overrides *routing.Overrides

	passthrough := map[string]any{}
	for key, value := range options {
		switch key {
		case "temperature":
			if f, ok := toFloat(value); ok {
				params.Temperature = f
			}
		case "max_tokens":
			if f, ok := toFloat(value); ok && f > 0 {
				params.MaxTokens = int(f)
			}
		case "api_key":
			if s, ok := value.(string); ok && s != "" {
				if overrides == nil {
					overrides = &routing.Overrides{}
				}
				overrides.APIKey = s
			}
		case "base_url":
			if s, ok := value.(string); ok && s != "" {
				if overrides == nil {
					overrides = &routing.Overrides{}
				}
				overrides.BaseURL = s
			}
		default:
			passthrough[key] = value
		}
	}
	if len(passthrough) > 0 {
		params.Options = passthrough
	}
	return params, overrides
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// postProcess applies the answer_path extraction of the first metric
// that configures one. Extraction failures keep the trimmed raw output
// rather than error-marking an otherwise successful sample.
func postProcess(records []api.SampleRecord, specs []api.MetricSpec) {
	path := ""
	for _, spec := range specs {
		if p, ok := spec.Params[answerPathParam].(string); ok && p != "" {
			path = p
			break
		}
	}
	if path == "" {
		return
	}

	for i := range records {
		if batch.IsErrorRecord(&records[i]) {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(records[i].RawOutput), &doc); err != nil {
			continue
		}
		value, err := jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		if s, ok := value.(string); ok {
			records[i].ProcessedOutput = s
		}
	}
}
