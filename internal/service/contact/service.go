package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/emailpro/internal/domain"
)

// Service implements contact business logic on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a contact service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for adding a new contact.
type CreateInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Create validates and persists a new contact for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Contact, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &domain.Contact{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a single contact.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's contacts, optionally filtered by a search term.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) ([]domain.Contact, error) {
	return s.repo.List(ctx, ownerID, f)
}

// Update modifies a contact's mutable fields (name parts and email).
func (s *Service) Update(ctx context.Context, ownerID, id string, u UpdateFields) error {
	if u.Email != nil {
		email, err := normalizeEmail(*u.Email)
		if err != nil {
			return err
		}
		u.Email = &email
	}
	return s.repo.Update(ctx, ownerID, id, u)
}

// Delete removes a contact. Past delivery records are untouched: they carry
// a denormalized snapshot of the address used at send time.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// normalizeEmail lowercases and trims the address and applies the minimal
// shape check; full deliverability is the transport's problem.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
