package campaign

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/pkg/logger"
	"github.com/ignite/emailpro/internal/transport"
)

// RenderedMessage is the per-recipient content produced by a Renderer.
type RenderedMessage struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer produces per-recipient message content: merge-field substitution
// plus the HTML scaffold around the plain body.
type Renderer interface {
	Render(subject, body string, contact domain.Contact) (RenderedMessage, error)
}

// Coordinator drives delivery of one campaign across a bounded worker pool.
// Workers share nothing but the Store, and each worker only ever writes its
// own delivery record, so a failing or slow recipient cannot block or
// corrupt the others.
type Coordinator struct {
	store       Store
	sender      transport.Sender
	renderer    Renderer
	fromName    string
	fromEmail   string
	workers     int
	sendTimeout time.Duration
}

// CoordinatorConfig holds the tunables for a Coordinator.
type CoordinatorConfig struct {
	FromName    string
	FromEmail   string
	Workers     int           // concurrency bound; default 8
	SendTimeout time.Duration // per-delivery timeout; default 30s
}

// NewCoordinator creates a dispatch coordinator. renderer may be nil, in
// which case the campaign body is sent as-is for every recipient.
func NewCoordinator(store Store, sender transport.Sender, renderer Renderer, cfg CoordinatorConfig) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		store:       store,
		sender:      sender,
		renderer:    renderer,
		fromName:    cfg.FromName,
		fromEmail:   cfg.FromEmail,
		workers:     workers,
		sendTimeout: timeout,
	}
}

// Dispatch is a handle on one in-flight dispatch. The caller may await
// completion, poll campaign counts while it runs, or cancel it.
type Dispatch struct {
	CampaignID string

	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed once every delivery record has concluded and the campaign
// status has been recomputed.
func (d *Dispatch) Done() <-chan struct{} { return d.done }

// Wait blocks until the dispatch concludes or ctx expires.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops handing out pending records. In-flight transport calls run to
// completion (aborting mid-send risks duplicate delivery on retry); records
// that never reached a worker are marked failed with a cancelled reason.
func (d *Dispatch) Cancel() { d.cancel() }

// Start launches delivery of the given records and returns immediately.
// contacts maps contact id to the contact snapshot used for rendering;
// records whose contact is missing (deleted since creation) are rendered
// from the email snapshot alone.
func (c *Coordinator) Start(campaign *domain.Campaign, records []domain.DeliveryRecord, contacts map[string]domain.Contact) *Dispatch {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatch{CampaignID: campaign.ID, cancel: cancel, done: make(chan struct{})}
	go c.run(ctx, d, campaign, records, contacts)
	return d
}

func (c *Coordinator) run(ctx context.Context, d *Dispatch, campaign *domain.Campaign, records []domain.DeliveryRecord, contacts map[string]domain.Contact) {
	defer close(d.done)

	// Unbuffered: a record is either handed to a worker or still with the
	// feeder, so cancellation can account for every record exactly once.
	jobs := make(chan domain.DeliveryRecord)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if ctx.Err() != nil {
					c.markCancelled(rec)
					continue
				}
				c.attempt(ctx, campaign, rec, contacts)
			}
		}()
	}

	for _, rec := range records {
		select {
		case <-ctx.Done():
			c.markCancelled(rec)
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()

	c.finalize(campaign.ID)
}

// attempt performs exactly one delivery attempt for one record.
func (c *Coordinator) attempt(ctx context.Context, campaign *domain.Campaign, rec domain.DeliveryRecord, contacts map[string]domain.Contact) {
	contact, ok := contacts[rec.ContactID]
	if !ok {
		contact = domain.Contact{ID: rec.ContactID, Email: rec.Email}
	}

	msg := &transport.Message{
		CampaignID: campaign.ID,
		DeliveryID: rec.ID,
		To:         rec.Email,
		FromName:   c.fromName,
		FromEmail:  c.fromEmail,
		Subject:    campaign.Subject,
		HTMLBody:   campaign.Body,
		TextBody:   campaign.Body,
	}
	if c.renderer != nil {
		rendered, err := c.renderer.Render(campaign.Subject, campaign.Body, contact)
		if err != nil {
			logger.Warn("render failed, sending raw content",
				"campaign_id", campaign.ID, "delivery_id", rec.ID, "error", err.Error())
		} else {
			msg.Subject = rendered.Subject
			msg.HTMLBody = rendered.HTML
			msg.TextBody = rendered.Text
		}
	}

	// The send context carries the per-delivery timeout but is detached from
	// the cancel signal: an in-flight send runs to completion.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sendTimeout)
	defer cancel()

	result, err := c.sender.Send(sendCtx, msg)
	now := time.Now()

	switch {
	case err != nil:
		c.recordOutcome(rec.ID, DeliveryUpdate{
			Status:      domain.DeliveryFailed,
			LastError:   string(transport.FailureUnknown) + ": " + err.Error(),
			Attempts:    rec.Attempts + 1,
			CompletedAt: now,
		})
	case result.Delivered:
		c.recordOutcome(rec.ID, DeliveryUpdate{
			Status:      domain.DeliverySent,
			Attempts:    rec.Attempts,
			CompletedAt: now,
		})
	default:
		detail := string(result.Reason)
		if result.Detail != "" {
			detail += ": " + result.Detail
		}
		c.recordOutcome(rec.ID, DeliveryUpdate{
			Status:      domain.DeliveryFailed,
			LastError:   detail,
			Attempts:    rec.Attempts + 1,
			CompletedAt: now,
		})
	}
}

// markCancelled settles a record that never reached a worker. No transport
// call happened, so the attempt count is left alone.
func (c *Coordinator) markCancelled(rec domain.DeliveryRecord) {
	c.recordOutcome(rec.ID, DeliveryUpdate{
		Status:      domain.DeliveryFailed,
		LastError:   string(transport.FailureCancelled),
		Attempts:    rec.Attempts,
		CompletedAt: time.Now(),
	})
}

func (c *Coordinator) recordOutcome(recordID string, upd DeliveryUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.store.UpdateDeliveryRecord(ctx, recordID, upd); err != nil {
		logger.Error("update delivery record failed", "record_id", recordID, "error", err.Error())
	}
}

// finalize recomputes the campaign status once every record has concluded.
// The status is derived from the delivery record counts and nothing else.
func (c *Coordinator) finalize(campaignID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := c.store.GetCampaignCounts(ctx, campaignID)
	if err != nil {
		logger.Error("aggregate delivery counts failed", "campaign_id", campaignID, "error", err.Error())
		return
	}

	status := counts.StatusFor()
	var completedAt *time.Time
	if counts.Concluded() {
		now := time.Now()
		completedAt = &now
	}
	if err := c.store.UpdateCampaignStatus(ctx, campaignID, status, completedAt); err != nil {
		logger.Error("update campaign status failed", "campaign_id", campaignID, "error", err.Error())
		return
	}

	logger.Info("campaign dispatch concluded",
		"campaign_id", campaignID,
		"status", string(status),
		"sent", counts.Sent,
		"failed", counts.Failed,
	)
}
