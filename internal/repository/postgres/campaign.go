package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/campaign"
)

// CampaignStore implements campaign.Store against PostgreSQL.
type CampaignStore struct{ db *sql.DB }

// NewCampaignStore creates a Postgres-backed campaign store.
func NewCampaignStore(db *sql.DB) *CampaignStore { return &CampaignStore{db: db} }

// CreateCampaign inserts the campaign and all of its delivery records in one
// transaction. Either the campaign exists with its full recipient set or it
// does not exist at all.
func (s *CampaignStore) CreateCampaign(ctx context.Context, c *domain.Campaign, records []domain.DeliveryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create campaign: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO campaigns (id, owner_id, subject, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.OwnerID, c.Subject, c.Body, c.Status, c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return campaign.ErrConflict
		}
		return fmt.Errorf("insert campaign: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO delivery_records (id, campaign_id, contact_id, email, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("prepare delivery insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.CampaignID, rec.ContactID, rec.Email, rec.Status, rec.Attempts, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert delivery record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create campaign: %w", err)
	}
	return nil
}

func (s *CampaignStore) UpdateDeliveryRecord(ctx context.Context, id string, u campaign.DeliveryUpdate) error {
	var completedAt sql.NullTime
	if !u.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: u.CompletedAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE delivery_records
		SET status = $1, last_error = $2, attempts = $3, completed_at = $4
		WHERE id = $5
	`, u.Status, u.LastError, u.Attempts, completedAt, id)
	if err != nil {
		return fmt.Errorf("update delivery record: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (s *CampaignStore) UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus, completedAt *time.Time) error {
	var done sql.NullTime
	if completedAt != nil {
		done = sql.NullTime{Time: *completedAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, completed_at = $2 WHERE id = $3
	`, status, done, id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (s *CampaignStore) GetCampaign(ctx context.Context, ownerID, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, subject, body, status, created_at, completed_at
		FROM campaigns
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(
		&c.ID, &c.OwnerID, &c.Subject, &c.Body, &c.Status, &c.CreatedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return c, nil
}

func (s *CampaignStore) GetCampaignCounts(ctx context.Context, id string) (domain.DeliveryCounts, error) {
	var counts domain.DeliveryCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM delivery_records
		WHERE campaign_id = $1
	`, id).Scan(&counts.Sent, &counts.Failed, &counts.Pending)
	if err != nil {
		return domain.DeliveryCounts{}, fmt.Errorf("count deliveries: %w", err)
	}
	return counts, nil
}

func (s *CampaignStore) ListCampaigns(ctx context.Context, ownerID string) ([]domain.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, subject, body, status, created_at, completed_at
		FROM campaigns
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var completedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Subject, &c.Body, &c.Status, &c.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			c.CompletedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CampaignStore) ListDeliveries(ctx context.Context, ownerID, campaignID string) ([]domain.DeliveryRecord, error) {
	// Ownership check first so a foreign campaign id reads as not found
	// rather than an empty list.
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1 AND owner_id = $2)
	`, campaignID, ownerID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check campaign: %w", err)
	}
	if !exists {
		return nil, campaign.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_id, contact_id, email, status, attempts, COALESCE(last_error, ''), created_at, completed_at
		FROM delivery_records
		WHERE campaign_id = $1
		ORDER BY created_at ASC, id ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []domain.DeliveryRecord
	for rows.Next() {
		var rec domain.DeliveryRecord
		var completedAt sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.ContactID, &rec.Email,
			&rec.Status, &rec.Attempts, &rec.LastError, &rec.CreatedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			rec.CompletedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
