package campaign

import (
	"context"
	"time"

	"github.com/ignite/emailpro/internal/domain"
)

// Store defines the durable record of campaigns and their delivery records.
// Implementations must be safe for concurrent use: delivery record updates
// for different records of the same campaign arrive from multiple workers
// while the aggregate counts may be read concurrently.
type Store interface {
	// CreateCampaign atomically inserts the campaign and one delivery record
	// per recipient. Returns ErrConflict if the campaign id already exists.
	// Once this commits, the campaign is discoverable and its recipient set
	// is fixed.
	CreateCampaign(ctx context.Context, c *domain.Campaign, records []domain.DeliveryRecord) error

	// UpdateDeliveryRecord applies the outcome of one delivery attempt.
	// Each record is written by exactly one worker per attempt.
	UpdateDeliveryRecord(ctx context.Context, id string, upd DeliveryUpdate) error

	// UpdateCampaignStatus transitions the campaign status. completedAt is
	// nil while the campaign is (re-)dispatching.
	UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus, completedAt *time.Time) error

	// GetCampaign returns a single campaign. Returns ErrNotFound if it does
	// not exist or belongs to a different owner.
	GetCampaign(ctx context.Context, ownerID, id string) (*domain.Campaign, error)

	// GetCampaignCounts aggregates the campaign's delivery record statuses.
	// Valid at any time during or after dispatch.
	GetCampaignCounts(ctx context.Context, id string) (domain.DeliveryCounts, error)

	// ListCampaigns returns the owner's campaigns ordered by created_at DESC.
	ListCampaigns(ctx context.Context, ownerID string) ([]domain.Campaign, error)

	// ListDeliveries returns all delivery records for a campaign. Returns
	// ErrNotFound if the campaign does not exist or belongs to a different
	// owner.
	ListDeliveries(ctx context.Context, ownerID, campaignID string) ([]domain.DeliveryRecord, error)
}

// DeliveryUpdate holds the new values for one delivery record after an
// attempt has concluded. Attempts is the new absolute count.
type DeliveryUpdate struct {
	Status      domain.DeliveryStatus
	LastError   string
	Attempts    int
	CompletedAt time.Time
}

// ContactSource provides the owner's contacts for recipient resolution,
// ordered by creation time ascending so the resolved recipient order (and
// therefore delivery record creation order) is deterministic.
type ContactSource interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error)
}

// Selection is the caller's specification of who should receive a campaign:
// every contact the owner has, or an explicit set of contact ids.
type Selection struct {
	All        bool     `json:"all"`
	ContactIDs []string `json:"contact_ids,omitempty"`
}
