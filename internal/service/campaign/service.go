package campaign

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/pkg/logger"
)

// Service exposes the campaign dispatch API: submit, status, list, cancel,
// retry. All methods are safe for concurrent use if the underlying Store is.
type Service struct {
	store       Store
	contacts    ContactSource
	coord       *Coordinator
	maxAttempts int

	mu         sync.Mutex
	dispatches map[string]*Dispatch // campaign id -> in-flight dispatch
}

// NewService creates a campaign service. maxAttempts bounds retries per
// delivery record; values below 1 are treated as the single-attempt baseline.
func NewService(store Store, contacts ContactSource, coord *Coordinator, maxAttempts int) *Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Service{
		store:       store,
		contacts:    contacts,
		coord:       coord,
		maxAttempts: maxAttempts,
		dispatches:  make(map[string]*Dispatch),
	}
}

// SubmitInput holds the composed message and recipient selection.
type SubmitInput struct {
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Recipients Selection `json:"recipients"`
}

// Submit validates the message, resolves recipients, durably records the
// campaign with one pending delivery record per recipient, and launches
// delivery. Validation and resolution failures are returned before anything
// is persisted; a failed submission never leaves a campaign behind.
//
// The returned Dispatch lets the caller await completion; callers that want
// fire-and-forget semantics simply drop it and poll Status.
func (s *Service) Submit(ctx context.Context, ownerID string, in SubmitInput) (*domain.Campaign, *Dispatch, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, nil, ErrInvalidMessage
	}

	ownerContacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list contacts: %w", err)
	}
	recipients, err := Resolve(in.Recipients, ownerContacts)
	if err != nil {
		return nil, nil, err
	}

	c := &domain.Campaign{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Subject:   in.Subject,
		Body:      in.Body,
		Status:    domain.CampaignDispatching,
		CreatedAt: time.Now(),
	}

	records := make([]domain.DeliveryRecord, 0, len(recipients))
	byID := make(map[string]domain.Contact, len(recipients))
	for _, contact := range recipients {
		records = append(records, domain.DeliveryRecord{
			ID:         uuid.New().String(),
			CampaignID: c.ID,
			ContactID:  contact.ID,
			Email:      contact.Email,
			Status:     domain.DeliveryPending,
			CreatedAt:  c.CreatedAt,
		})
		byID[contact.ID] = contact
	}

	// Durability checkpoint: once this commits the campaign is discoverable
	// and its recipient set is fixed.
	if err := s.store.CreateCampaign(ctx, c, records); err != nil {
		return nil, nil, err
	}

	d := s.coord.Start(c, records, byID)
	s.track(d)

	logger.Info("campaign submitted",
		"campaign_id", c.ID, "owner_id", ownerID, "recipients", len(records))
	return c, d, nil
}

// StatusView is the progress snapshot for one campaign.
type StatusView struct {
	Status domain.CampaignStatus `json:"status"`
	domain.DeliveryCounts
}

// Status returns the campaign's current status and delivery counts. Valid
// at any time: mid-dispatch it reports partial counts with the campaign
// still dispatching. The status is derived from the counts, not read from
// the stored row, so it is never stale.
func (s *Service) Status(ctx context.Context, ownerID, campaignID string) (*StatusView, error) {
	if _, err := s.store.GetCampaign(ctx, ownerID, campaignID); err != nil {
		return nil, err
	}
	counts, err := s.store.GetCampaignCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &StatusView{Status: counts.StatusFor(), DeliveryCounts: counts}, nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, ownerID, campaignID string) (*domain.Campaign, error) {
	return s.store.GetCampaign(ctx, ownerID, campaignID)
}

// List returns the owner's campaigns, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Campaign, error) {
	return s.store.ListCampaigns(ctx, ownerID)
}

// Deliveries returns the per-recipient ledger for one campaign.
func (s *Service) Deliveries(ctx context.Context, ownerID, campaignID string) ([]domain.DeliveryRecord, error) {
	return s.store.ListDeliveries(ctx, ownerID, campaignID)
}

// Cancel stops an in-flight dispatch. Returns ErrNotDispatching when the
// campaign has no dispatch running in this process.
func (s *Service) Cancel(ctx context.Context, ownerID, campaignID string) error {
	if _, err := s.store.GetCampaign(ctx, ownerID, campaignID); err != nil {
		return err
	}
	s.mu.Lock()
	d, ok := s.dispatches[campaignID]
	s.mu.Unlock()
	if !ok {
		return ErrNotDispatching
	}
	d.Cancel()
	return nil
}

// RetryFailed re-dispatches the failed delivery records of a concluded
// campaign, bounded by the max-attempts configuration. Sent records are
// never re-attempted; eligibility is decided purely by record status.
func (s *Service) RetryFailed(ctx context.Context, ownerID, campaignID string) (*Dispatch, error) {
	c, err := s.store.GetCampaign(ctx, ownerID, campaignID)
	if err != nil {
		return nil, err
	}
	if !c.IsTerminal() {
		return nil, ErrStillDispatching
	}

	records, err := s.store.ListDeliveries(ctx, ownerID, campaignID)
	if err != nil {
		return nil, err
	}
	var retry []domain.DeliveryRecord
	for _, rec := range records {
		if rec.Status == domain.DeliveryFailed && rec.Attempts < s.maxAttempts {
			retry = append(retry, rec)
		}
	}
	if len(retry) == 0 {
		return nil, ErrNoRecipients
	}

	ownerContacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	byID := make(map[string]domain.Contact, len(ownerContacts))
	for _, contact := range ownerContacts {
		byID[contact.ID] = contact
	}

	// Reopen the campaign, then reset the retried records to pending so the
	// aggregate counts reflect the wave in flight.
	if err := s.store.UpdateCampaignStatus(ctx, campaignID, domain.CampaignDispatching, nil); err != nil {
		return nil, err
	}
	for _, rec := range retry {
		err := s.store.UpdateDeliveryRecord(ctx, rec.ID, DeliveryUpdate{
			Status:   domain.DeliveryPending,
			Attempts: rec.Attempts,
		})
		if err != nil {
			return nil, fmt.Errorf("reset delivery record: %w", err)
		}
	}

	d := s.coord.Start(c, retry, byID)
	s.track(d)

	logger.Info("campaign retry started",
		"campaign_id", campaignID, "owner_id", ownerID, "records", len(retry))
	return d, nil
}

// track registers an in-flight dispatch for Cancel and removes it once done.
func (s *Service) track(d *Dispatch) {
	s.mu.Lock()
	s.dispatches[d.CampaignID] = d
	s.mu.Unlock()

	go func() {
		<-d.Done()
		s.mu.Lock()
		delete(s.dispatches, d.CampaignID)
		s.mu.Unlock()
	}()
}
