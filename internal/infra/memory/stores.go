package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ConfigStore struct {
	mu      sync.RWMutex
	configs map[string]models.AvailabilityConfig
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{configs: make(map[string]models.AvailabilityConfig)}
}

func (s *ConfigStore) GetConfig(_ context.Context, providerID string) (*models.AvailabilityConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.configs[providerID]
	if !ok {
		return nil, httperr.ErrNotFound("availability config")
	}
	return &row, nil
}

func (s *ConfigStore) SaveConfig(_ context.Context, cfg *models.AvailabilityConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if prev, ok := s.configs[cfg.ProviderID]; ok {
		cfg.Version = prev.Version + 1
		cfg.CreatedAt = prev.CreatedAt
	} else {
		cfg.Version = 1
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	s.configs[cfg.ProviderID] = *cfg
	return nil
}

type ProviderDirectory struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
}

func NewProviderDirectory() *ProviderDirectory {
	return &ProviderDirectory{providers: make(map[string]models.Provider)}
}

func (d *ProviderDirectory) GetProvider(_ context.Context, providerID string) (*models.Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.providers[providerID]
	if !ok {
		return nil, httperr.ErrNotFound("provider")
	}
	return &p, nil
}

func (d *ProviderDirectory) ListProviders(_ context.Context, specialization string) ([]models.Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []models.Provider{}
	for _, p := range d.providers {
		if specialization != "" && !strings.EqualFold(p.Specialization, specialization) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (d *ProviderDirectory) SaveProvider(_ context.Context, p *models.Provider) error {
	if p.ID == "" {
		return httperr.ErrValidation("provider id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if prev, ok := d.providers[p.ID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	d.providers[p.ID] = *p
	return nil
}

var (
	_ domain.ConfigStore       = (*ConfigStore)(nil)
	_ domain.ProviderDirectory = (*ProviderDirectory)(nil)
)
