package domain

import (
	"strings"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
//
// A campaign is created in CampaignDispatching and moves to exactly one
// terminal state once every delivery record has concluded. There is no
// pending-only terminal state: the campaign stays dispatching until the
// last record settles.
type CampaignStatus string

const (
	CampaignDraft           CampaignStatus = "draft"
	CampaignDispatching     CampaignStatus = "dispatching"
	CampaignCompleted       CampaignStatus = "completed"
	CampaignPartiallyFailed CampaignStatus = "partially_failed"
	CampaignFailed          CampaignStatus = "failed"
)

// Campaign is one dispatch attempt of a single message to a resolved
// recipient set. The message is embedded at creation; status transitions
// are the only mutation afterwards.
type Campaign struct {
	ID          string         `json:"id" db:"id"`
	OwnerID     string         `json:"owner_id" db:"owner_id"`
	Subject     string         `json:"subject" db:"subject"`
	Body        string         `json:"body" db:"body"`
	Status      CampaignStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted || c.Status == CampaignPartiallyFailed || c.Status == CampaignFailed
}

// ValidateMessage checks the embedded message is sendable: the subject must
// be non-empty after trimming, and subject+body together must be non-trivial.
func (c *Campaign) ValidateMessage() bool {
	return strings.TrimSpace(c.Subject) != ""
}

// DeliveryCounts aggregates per-recipient outcomes for one campaign.
type DeliveryCounts struct {
	Sent    int `json:"sent_count"`
	Failed  int `json:"failed_count"`
	Pending int `json:"pending_count"`
}

// Total returns the fixed recipient count of the campaign.
func (dc DeliveryCounts) Total() int { return dc.Sent + dc.Failed + dc.Pending }

// Concluded reports whether every delivery record has settled.
func (dc DeliveryCounts) Concluded() bool { return dc.Pending == 0 }

// StatusFor derives the campaign status that corresponds to these counts.
// The campaign status is a pure function of its delivery records: while any
// record is pending the campaign is still dispatching; afterwards the
// sent/failed split picks the terminal state.
func (dc DeliveryCounts) StatusFor() CampaignStatus {
	switch {
	case dc.Pending > 0:
		return CampaignDispatching
	case dc.Failed == 0:
		return CampaignCompleted
	case dc.Sent == 0:
		return CampaignFailed
	default:
		return CampaignPartiallyFailed
	}
}
