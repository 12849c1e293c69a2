// Package registry holds the provider and model configuration records the
// engine resolves credentials and routes from. The backing file may be
// rewritten at any time by external tooling; readers always see the
// latest loaded state.
package registry

import (
	"log/slog"
	"sync"

	"github.com/spf13/viper"

	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	providers map[string]api.ProviderResource
	models    map[string]api.ModelResource
}

type registryFile struct {
	Providers []api.ProviderResource `mapstructure:"providers"`
	Models    []api.ModelResource    `mapstructure:"models"`
}

// NewStore loads the registry file and returns the store. Call Watch to
// keep it in sync with file changes.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:      path,
		logger:    logger,
		providers: map[string]api.ProviderResource{},
		models:    map[string]api.ModelResource{},
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the registry file and swaps the in-memory records.
func (s *Store) Reload() error {
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
	}

	var file registryFile
	if err := v.Unmarshal(&file); err != nil {
		return serviceerrors.NewServiceError(messages.ConfigurationFailed, "Error", err.Error())
	}

	providers := make(map[string]api.ProviderResource, len(file.Providers))
	for _, p := range file.Providers {
		providers[p.ID] = p
	}
	models := make(map[string]api.ModelResource, len(file.Models))
	for _, m := range file.Models {
		models[m.ID] = m
	}

	s.mu.Lock()
	s.providers = providers
	s.models = models
	s.mu.Unlock()

	s.logger.Info("Loaded registry", "path", s.path, "providers", len(providers), "models", len(models))
	return nil
}

func (s *Store) GetProviderByID(id string) (*api.ProviderResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.providers[id]; ok {
		return &p, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", id)
}

func (s *Store) GetProviderByName(name string) (*api.ProviderResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "provider", "ResourceId", name)
}

func (s *Store) GetModelByID(id string) (*api.ModelResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.models[id]; ok {
		return &m, nil
	}
	return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "model", "ResourceId", id)
}

func (s *Store) ListProviders() []api.ProviderResource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.ProviderResource, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	return out
}

func (s *Store) ListModels() []api.ModelResource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.ModelResource, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	return out
}
