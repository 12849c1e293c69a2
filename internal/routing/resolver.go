// Package routing resolves which credential, endpoint and default options
// one invocation attempt uses. The resolver is the only path to an API
// key; ambient process state is never consulted.
package routing

import (
	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// APIKeyUnset marks a route for which no credential resolved. The
// invocation client must turn it into an authentication failure instead
// of sending an unauthenticated request.
const APIKeyUnset = "__unset__"

// ResolvedRoute is the (credential, endpoint, options) triple used for one
// invocation attempt. It is computed fresh per attempt and never persisted.
type ResolvedRoute struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Options  map[string]any
}

// HasAPIKey reports whether a real credential resolved.
func (r *ResolvedRoute) HasAPIKey() bool {
	return r.APIKey != "" && r.APIKey != APIKeyUnset
}

// Overrides are caller-supplied values that win over the configured ones.
type Overrides struct {
	APIKey  string
	BaseURL string
}

type Resolver struct {
	store abstractions.ConfigStore
}

func NewResolver(store abstractions.ConfigStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveByID resolves the route for a provider/model pair by record ID.
// Precedence for key and endpoint: caller override, then model-level,
// then provider-level, then the unset sentinel. Configuration is read at
// call time; results must not be cached across attempts.
func (r *Resolver) ResolveByID(providerID string, modelID string, overrides *Overrides) (*ResolvedRoute, error) {
	provider, err := r.store.GetProviderByID(providerID)
	if err != nil {
		return nil, err
	}
	model, err := r.store.GetModelByID(modelID)
	if err != nil {
		return nil, err
	}
	return resolve(provider, model, overrides), nil
}

// ResolveByName resolves a fallback route: the provider is looked up by
// name and the model name string is reused as-is, since fallback
// providers carry no model mapping.
func (r *Resolver) ResolveByName(providerName string, modelName string, overrides *Overrides) (*ResolvedRoute, error) {
	provider, err := r.store.GetProviderByName(providerName)
	if err != nil {
		return nil, err
	}
	route := resolve(provider, nil, overrides)
	route.Model = modelName
	return route, nil
}

func resolve(provider *api.ProviderResource, model *api.ModelResource, overrides *Overrides) *ResolvedRoute {
	route := &ResolvedRoute{
		Provider: provider.Name,
		APIKey:   APIKeyUnset,
	}

	if model != nil {
		route.Model = model.Name
		if model.APIKey != nil && *model.APIKey != "" {
			route.APIKey = *model.APIKey
		}
		if model.Endpoint != nil && *model.Endpoint != "" {
			route.BaseURL = *model.Endpoint
		}
	}

	if route.APIKey == APIKeyUnset && provider.APIKey != nil && *provider.APIKey != "" {
		route.APIKey = *provider.APIKey
	}
	if route.BaseURL == "" && provider.Endpoint != nil && *provider.Endpoint != "" {
		route.BaseURL = *provider.Endpoint
	}

	if len(provider.Options) > 0 {
		route.Options = make(map[string]any, len(provider.Options))
		for k, v := range provider.Options {
			route.Options[k] = v
		}
	}

	if overrides != nil {
		if overrides.APIKey != "" {
			route.APIKey = overrides.APIKey
		}
		if overrides.BaseURL != "" {
			route.BaseURL = overrides.BaseURL
		}
	}

	return route
}
