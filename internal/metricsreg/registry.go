// Package metricsreg is the statically linked registry of named scoring
// functions. Metrics are compiled in; there is no dynamic plugin loading.
package metricsreg

import (
	"strings"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// factory builds a scoring function from its parameters.
type factory func(params map[string]any) abstractions.MetricFunc

type Registry struct {
	factories map[string]factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]factory{
			"exact_match":       exactMatch,
			"quasi_exact_match": quasiExactMatch,
			"contains":          contains,
			"f1":                tokenF1,
			"char_f1":           charF1,
		},
	}
}

var _ abstractions.MetricRegistry = (*Registry)(nil)

// GetMetricFunctions resolves every spec to a scoring closure, applying
// per-metric parameters. Unknown names fail the whole resolution.
func (r *Registry) GetMetricFunctions(specs []api.MetricSpec) (map[string]abstractions.MetricFunc, error) {
	out := make(map[string]abstractions.MetricFunc, len(specs))
	for _, spec := range specs {
		build, ok := r.factories[spec.Name]
		if !ok {
			return nil, serviceerrors.NewServiceError(messages.ResourceNotFound,
				"Type", "metric", "ResourceId", spec.Name)
		}
		out[spec.Name] = build(spec.Params)
	}
	return out, nil
}

// Names lists the registered metric names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if params == nil {
		return fallback
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func exactMatch(params map[string]any) abstractions.MetricFunc {
	caseSensitive := boolParam(params, "case_sensitive", true)
	return func(hypothesis, reference string) float64 {
		h, r := strings.TrimSpace(hypothesis), strings.TrimSpace(reference)
		if !caseSensitive {
			h, r = strings.ToLower(h), strings.ToLower(r)
		}
		if h == r {
			return 1
		}
		return 0
	}
}

// quasiExactMatch ignores case, surrounding whitespace and trailing
// punctuation.
func quasiExactMatch(_ map[string]any) abstractions.MetricFunc {
	normalize := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.TrimRight(s, ".,;:!?")
	}
	return func(hypothesis, reference string) float64 {
		if normalize(hypothesis) == normalize(reference) {
			return 1
		}
		return 0
	}
}

func contains(params map[string]any) abstractions.MetricFunc {
	caseSensitive := boolParam(params, "case_sensitive", false)
	return func(hypothesis, reference string) float64 {
		h, r := hypothesis, strings.TrimSpace(reference)
		if !caseSensitive {
			h, r = strings.ToLower(h), strings.ToLower(r)
		}
		if r != "" && strings.Contains(h, r) {
			return 1
		}
		return 0
	}
}

// tokenF1 is the harmonic mean of token precision and recall.
func tokenF1(_ map[string]any) abstractions.MetricFunc {
	return func(hypothesis, reference string) float64 {
		hypTokens := strings.Fields(strings.ToLower(hypothesis))
		refTokens := strings.Fields(strings.ToLower(reference))
		return f1(hypTokens, refTokens)
	}
}

// charF1 computes F1 over characters, which behaves better than token F1
// for languages written without spaces.
func charF1(_ map[string]any) abstractions.MetricFunc {
	return func(hypothesis, reference string) float64 {
		hypChars := strings.Split(strings.TrimSpace(hypothesis), "")
		refChars := strings.Split(strings.TrimSpace(reference), "")
		return f1(hypChars, refChars)
	}
}

func f1(hyp, ref []string) float64 {
	if len(hyp) == 0 || len(ref) == 0 {
		return 0
	}

	refCounts := make(map[string]int, len(ref))
	for _, tok := range ref {
		refCounts[tok]++
	}
	overlap := 0
	for _, tok := range hyp {
		if refCounts[tok] > 0 {
			refCounts[tok]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(hyp))
	recall := float64(overlap) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}
