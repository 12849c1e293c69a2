package handlers

import (
	"github.com/bench-hub/bench-hub/internal/executioncontext"
	"github.com/bench-hub/bench-hub/internal/http_wrappers"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// HandleListProviders handles GET /api/v1/providers
func (h *Handlers) HandleListProviders(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {

	providerIdParam := r.Query("id")
	providerId := ""
	if len(providerIdParam) > 0 {
		providerId = providerIdParam[0]
	}

	providers := []api.ProviderResource{}
	for _, p := range h.configStore.ListProviders() {
		if providerId != "" && p.ID != providerId {
			continue
		}
		providers = append(providers, p)
	}

	w.WriteJSON(api.ProviderResourceList{
		TotalCount: len(providers),
		Items:      providers,
	}, 200)

}

// HandleListModels handles GET /api/v1/models
func (h *Handlers) HandleListModels(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {

	providerIdParam := r.Query("provider_id")
	providerId := ""
	if len(providerIdParam) > 0 {
		providerId = providerIdParam[0]
	}

	models := []api.ModelResource{}
	for _, m := range h.configStore.ListModels() {
		if providerId != "" && m.ProviderID != providerId {
			continue
		}
		models = append(models, m)
	}

	w.WriteJSON(api.ModelResourceList{
		TotalCount: len(models),
		Items:      models,
	}, 200)

}
