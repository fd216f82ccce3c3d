package domain

import "time"

// DeliveryStatus enumerates the lifecycle of a single recipient's delivery.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryRecord is the per-recipient outcome ledger entry for a campaign.
// One record exists per (campaign, contact) pair, created atomically with
// the campaign and mutated exactly once per delivery attempt. The email
// address is a snapshot taken at send time, so deleting the contact later
// does not rewrite history.
type DeliveryRecord struct {
	ID          string         `json:"id" db:"id"`
	CampaignID  string         `json:"campaign_id" db:"campaign_id"`
	ContactID   string         `json:"contact_id" db:"contact_id"`
	Email       string         `json:"email" db:"email"`
	Status      DeliveryStatus `json:"status" db:"status"`
	Attempts    int            `json:"attempts" db:"attempts"`
	LastError   string         `json:"last_error,omitempty" db:"last_error"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// Concluded reports whether this record has reached a final status.
func (r *DeliveryRecord) Concluded() bool {
	return r.Status == DeliverySent || r.Status == DeliveryFailed
}
