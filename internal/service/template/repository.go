package template

import (
	"context"

	"github.com/ignite/emailpro/internal/domain"
)

// Repository defines the data access contract for saved email templates.
type Repository interface {
	// Create inserts a new template.
	Create(ctx context.Context, t *domain.EmailTemplate) error

	// List returns the owner's templates, newest first.
	List(ctx context.Context, ownerID string) ([]domain.EmailTemplate, error)

	// Delete removes a template. Returns ErrNotFound if it doesn't exist or
	// belongs to a different owner.
	Delete(ctx context.Context, ownerID, id string) error
}
