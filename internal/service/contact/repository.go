package contact

import (
	"context"

	"github.com/ignite/emailpro/internal/domain"
)

// Repository defines the data access contract for contacts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new contact. Returns ErrDuplicateEmail when the owner
	// already has a contact with this email address.
	Create(ctx context.Context, c *domain.Contact) error

	// Get returns a single contact. Returns ErrNotFound if it doesn't exist
	// or belongs to a different owner.
	Get(ctx context.Context, ownerID, id string) (*domain.Contact, error)

	// List returns contacts matching the filter, ordered by created_at DESC
	// (newest first, matching the contacts screen).
	List(ctx context.Context, ownerID string, f ListFilter) ([]domain.Contact, error)

	// Update modifies name and email. Returns ErrNotFound or
	// ErrDuplicateEmail.
	Update(ctx context.Context, ownerID, id string, u UpdateFields) error

	// Delete removes a contact. Historical delivery records keep their email
	// snapshot, so deletion never rewrites campaign history.
	Delete(ctx context.Context, ownerID, id string) error
}

// ListFilter controls contact list filtering.
type ListFilter struct {
	Search string // matches email or name, case-insensitive substring
}

// UpdateFields holds the mutable contact fields. Nil fields are not applied.
type UpdateFields struct {
	Email     *string
	FirstName *string
	LastName  *string
}
