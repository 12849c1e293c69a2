// Package batch partitions a sample list into fixed-size batches and
// executes each sample under the retry and fallback policy. One failing
// sample never aborts its batch.
package batch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/retry"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// ErrorPrefix marks the processed output of a sample whose invocation
// failed after retries and fallback.
const ErrorPrefix = "ERROR: "

// DefaultBatchSize is used when the configuration does not set one.
const DefaultBatchSize = 5

// IsErrorRecord reports whether a sample record carries a failure marker.
func IsErrorRecord(record *api.SampleRecord) bool {
	return strings.HasPrefix(record.ProcessedOutput, ErrorPrefix)
}

// Item pairs one sample with its assembled prompt.
type Item struct {
	Sample   api.DatasetSample
	Messages []abstractions.ChatMessage
}

type Controller struct {
	executor      *retry.Controller
	client        *invoke.Client
	resolver      *routing.Resolver
	batchSize     int
	bulkProviders map[string]bool
	logger        *slog.Logger
}

func NewController(executor *retry.Controller, client *invoke.Client, resolver *routing.Resolver,
	batchSize int, bulkProviders []string, logger *slog.Logger) *Controller {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	bulk := make(map[string]bool, len(bulkProviders))
	for _, name := range bulkProviders {
		bulk[name] = true
	}
	return &Controller{
		executor:      executor,
		client:        client,
		resolver:      resolver,
		batchSize:     batchSize,
		bulkProviders: bulk,
		logger:        logger,
	}
}

// Process runs every item and returns exactly one record per item, in the
// original order.
func (c *Controller) Process(ctx context.Context, providerID string, modelID string,
	items []Item, params invoke.Params, overrides *routing.Overrides) []api.SampleRecord {
	records := make([]api.SampleRecord, 0, len(items))

	for start := 0; start < len(items); start += c.batchSize {
		end := min(start+c.batchSize, len(items))
		records = append(records, c.processBatch(ctx, providerID, modelID, items[start:end], params, overrides)...)
	}
	return records
}

func (c *Controller) processBatch(ctx context.Context, providerID string, modelID string,
	items []Item, params invoke.Params, overrides *routing.Overrides) []api.SampleRecord {
	if bulkRecords, ok := c.tryBulk(ctx, providerID, modelID, items, params, overrides); ok {
		return bulkRecords
	}

	records := make([]api.SampleRecord, 0, len(items))
	for _, item := range items {
		records = append(records, c.processItem(ctx, providerID, modelID, item, params, overrides))
	}
	return records
}

func (c *Controller) processItem(ctx context.Context, providerID string, modelID string,
	item Item, params invoke.Params, overrides *routing.Overrides) api.SampleRecord {
	record := api.SampleRecord{
		Input:    item.Sample.Input,
		Expected: item.Sample.Expected,
	}

	started := time.Now()
	result, err := c.executor.Execute(ctx, &retry.Request{
		ProviderID: providerID,
		ModelID:    modelID,
		Messages:   item.Messages,
		Params:     params,
		Overrides:  overrides,
	})
	record.LatencyMS = time.Since(started).Milliseconds()

	if err != nil {
		c.logger.Warn("Sample failed after retries and fallback", "provider_id", providerID, "error", err)
		record.ProcessedOutput = ErrorPrefix + err.Error()
		return record
	}

	record.RawOutput = result.Text
	record.ProcessedOutput = strings.TrimSpace(result.Text)
	record.Provider = result.Provider
	record.Model = result.Model
	return record
}

// tryBulk dispatches the whole batch as one multi-prompt call when the
// resolved provider is on the bulk-capable allow-list. Responses map back
// to samples positionally; on failure the caller falls back to the
// per-sample path.
func (c *Controller) tryBulk(ctx context.Context, providerID string, modelID string,
	items []Item, params invoke.Params, overrides *routing.Overrides) ([]api.SampleRecord, bool) {
	route, err := c.resolver.ResolveByID(providerID, modelID, overrides)
	if err != nil || !c.bulkProviders[route.Provider] {
		return nil, false
	}

	prompts := make([][]abstractions.ChatMessage, 0, len(items))
	for _, item := range items {
		prompts = append(prompts, item.Messages)
	}

	started := time.Now()
	results, err := c.client.BatchInvoke(ctx, route, prompts, params)
	if err != nil {
		c.logger.Warn("Bulk invocation failed, falling back to per-sample processing",
			"provider", route.Provider, "error", err)
		return nil, false
	}
	latency := time.Since(started).Milliseconds()

	records := make([]api.SampleRecord, 0, len(items))
	for i, item := range items {
		record := api.SampleRecord{
			Input:     item.Sample.Input,
			Expected:  item.Sample.Expected,
			LatencyMS: latency,
		}
		if i < len(results) && results[i] != nil {
			record.RawOutput = results[i].Text
			record.ProcessedOutput = strings.TrimSpace(results[i].Text)
			record.Provider = results[i].Provider
			record.Model = results[i].Model
		} else {
			// A short response list leaves the tail uncovered.
			record.ProcessedOutput = ErrorPrefix + "bulk response missing for sample"
		}
		records = append(records, record)
	}
	return records, true
}
