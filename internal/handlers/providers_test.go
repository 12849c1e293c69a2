package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/bench-hub/bench-hub/internal/handlers"
	"github.com/bench-hub/bench-hub/pkg/api"
)

type stubConfigStore struct {
	providers []api.ProviderResource
	models    []api.ModelResource
}

func (s *stubConfigStore) GetProviderByID(string) (*api.ProviderResource, error)   { return nil, nil }
func (s *stubConfigStore) GetProviderByName(string) (*api.ProviderResource, error) { return nil, nil }
func (s *stubConfigStore) GetModelByID(string) (*api.ModelResource, error)         { return nil, nil }
func (s *stubConfigStore) ListProviders() []api.ProviderResource                   { return s.providers }
func (s *stubConfigStore) ListModels() []api.ModelResource                         { return s.models }

func newProviderHandlers() *handlers.Handlers {
	store := &stubConfigStore{
		providers: []api.ProviderResource{
			{ID: "p1", Name: "openai", IsActive: true},
			{ID: "p2", Name: "anthropic", IsActive: true},
		},
		models: []api.ModelResource{
			{ID: "m1", Name: "gpt-test", ProviderID: "p1", IsActive: true},
			{ID: "m2", Name: "claude-test", ProviderID: "p2", IsActive: true},
		},
	}
	return handlers.New(nil, nil, store, nil, nil, nil)
}

func TestHandleListProviders(t *testing.T) {
	h := newProviderHandlers()

	req := &listRequest{
		MockRequest: createMockRequest("GET", "/api/v1/providers"),
		queryValues: map[string][]string{},
	}
	recorder := httptest.NewRecorder()

	h.HandleListProviders(createExecutionContext(), req, MockResponseWrapper{recorder: recorder})

	if recorder.Code != 200 {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var body api.ProviderResourceList
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.TotalCount != 2 {
		t.Fatalf("expected total_count 2, got %d", body.TotalCount)
	}
}

func TestHandleListProvidersFiltersByID(t *testing.T) {
	h := newProviderHandlers()

	req := &listRequest{
		MockRequest: createMockRequest("GET", "/api/v1/providers?id=p2"),
		queryValues: map[string][]string{"id": {"p2"}},
	}
	recorder := httptest.NewRecorder()

	h.HandleListProviders(createExecutionContext(), req, MockResponseWrapper{recorder: recorder})

	var body api.ProviderResourceList
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.TotalCount != 1 || body.Items[0].ID != "p2" {
		t.Fatalf("expected only p2, got %+v", body.Items)
	}
}

func TestHandleListProvidersUnknownIDReturnsEmpty(t *testing.T) {
	h := newProviderHandlers()

	req := &listRequest{
		MockRequest: createMockRequest("GET", "/api/v1/providers?id=unknown"),
		queryValues: map[string][]string{"id": {"unknown"}},
	}
	recorder := httptest.NewRecorder()

	h.HandleListProviders(createExecutionContext(), req, MockResponseWrapper{recorder: recorder})

	var body api.ProviderResourceList
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.TotalCount != 0 {
		t.Fatalf("expected total_count 0, got %d", body.TotalCount)
	}
}

func TestHandleListModelsFiltersByProvider(t *testing.T) {
	h := newProviderHandlers()

	req := &listRequest{
		MockRequest: createMockRequest("GET", "/api/v1/models?provider_id=p1"),
		queryValues: map[string][]string{"provider_id": {"p1"}},
	}
	recorder := httptest.NewRecorder()

	h.HandleListModels(createExecutionContext(), req, MockResponseWrapper{recorder: recorder})

	var body api.ModelResourceList
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.TotalCount != 1 || body.Items[0].ID != "m1" {
		t.Fatalf("expected only m1, got %+v", body.Items)
	}
}
