package agent

import (
	"context"

	"ritel/internal/core/apperror"
	"ritel/internal/core/id"
	"ritel/internal/domain"
)

// Service provides business operations for the Agent catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Agent service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new agent.
func (s *Service) Create(ctx context.Context, a *Agent) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}

	if a.Code != "" {
		if existing, err := s.repo.GetByCode(ctx, a.Code); err == nil && existing != nil {
			return apperror.NewDuplicate("agent", "code", a.Code)
		}
	}

	return s.repo.Create(ctx, a)
}

// Update modifies agent fields.
func (s *Service) Update(ctx context.Context, a *Agent) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

// GetByID retrieves an agent.
func (s *Service) GetByID(ctx context.Context, agentID id.ID) (*Agent, error) {
	return s.repo.GetByID(ctx, agentID)
}

// List retrieves agents with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Agent], error) {
	return s.repo.List(ctx, filter)
}

// Delete soft-deletes an agent.
func (s *Service) Delete(ctx context.Context, agentID id.ID) error {
	return s.repo.Delete(ctx, agentID)
}
