// Package template stores reusable subject+body pairs and renders
// per-recipient merge fields with the Liquid template language.
package template

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/emailpro/internal/domain"
)

// Service implements template persistence on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a template service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SaveInput holds the fields for saving a composed message as a template.
type SaveInput struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Save persists a composed message for later reuse.
func (s *Service) Save(ctx context.Context, ownerID string, in SaveInput) (*domain.EmailTemplate, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Body) == "" {
		return nil, ErrInvalidContent
	}
	t := &domain.EmailTemplate{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Subject:   in.Subject,
		Body:      in.Body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the owner's saved templates, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.EmailTemplate, error) {
	return s.repo.List(ctx, ownerID)
}

// Delete removes a saved template.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}
