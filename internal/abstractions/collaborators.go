package abstractions

import (
	"context"

	"github.com/bench-hub/bench-hub/pkg/api"
)

// ChatMessage is one entry of an assembled prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest is one call to a model backend.
type CompletionRequest struct {
	Provider    string
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	APIKey      string
	BaseURL     string
	Options     map[string]any
}

// CompletionResult reports the output text and the backend that actually
// served the call, which routing layers may have substituted.
type CompletionResult struct {
	Text     string
	Provider string
	Model    string
}

// Backend is the generic multi-provider completion client.
type Backend interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
	// BatchComplete submits many prompts in one call. Responses correlate
	// positionally to requests. Only bulk-capable providers support it.
	BatchComplete(ctx context.Context, reqs []*CompletionRequest) ([]*CompletionResult, error)
}

// ConfigStore resolves provider and model configuration records. Callers
// must not cache results beyond one resolution; records may change at any
// time under them.
type ConfigStore interface {
	GetProviderByID(id string) (*api.ProviderResource, error)
	GetProviderByName(name string) (*api.ProviderResource, error)
	GetModelByID(id string) (*api.ModelResource, error)
	ListProviders() []api.ProviderResource
	ListModels() []api.ModelResource
}

// DatasetLoader turns stored dataset files into in-memory sample lists.
type DatasetLoader interface {
	LoadDataset(name string) (*api.Dataset, error)
	// LoadFewShot returns the first n exemplar pairs of the auxiliary
	// n-shot dataset of the same family.
	LoadFewShot(name string, n int) ([]api.FewShotPair, error)
	ListDatasets() ([]api.DatasetResource, error)
}

// MetricFunc scores a hypothesis against a reference.
type MetricFunc func(hypothesis string, reference string) float64

// MetricRegistry supplies named, parameterized scoring functions.
type MetricRegistry interface {
	GetMetricFunctions(specs []api.MetricSpec) (map[string]MetricFunc, error)
}

// Dashboard receives the flattened metrics of a completed job. Push
// failures must never change the job status.
type Dashboard interface {
	LogMetrics(ctx context.Context, modelName string, metrics map[string]float64) error
}
