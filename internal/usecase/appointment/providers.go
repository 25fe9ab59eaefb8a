package appointment

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ListProviders struct {
	deps Deps
}

func NewListProviders(deps Deps) *ListProviders {
	return &ListProviders{deps: deps}
}

func (uc *ListProviders) Execute(
	ctx context.Context,
	specialization string,
) ([]models.Provider, error) {
	return uc.deps.Providers.ListProviders(ctx, strings.TrimSpace(specialization))
}

// RegisterProvider creates or updates a directory entry. Profile editing
// lives elsewhere; this exists for operators seeding the directory.
type RegisterProvider struct {
	deps Deps
}

func NewRegisterProvider(deps Deps) *RegisterProvider {
	return &RegisterProvider{deps: deps}
}

func (uc *RegisterProvider) Execute(
	ctx context.Context,
	p models.Provider,
) (*models.Provider, error) {

	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)

	if p.ID == "" {
		return nil, httperr.ErrValidation("provider id is required")
	}
	if p.Name == "" {
		return nil, httperr.ErrValidation("provider name is required")
	}
	if p.Timezone == "" {
		p.Timezone = timezone.Location("").String()
	}
	if !timezone.IsValid(p.Timezone) {
		return nil, httperr.ErrValidation("unknown timezone " + p.Timezone)
	}

	if err := uc.deps.Providers.SaveProvider(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
