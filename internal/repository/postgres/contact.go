package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/contact"
)

// ContactRepo implements contact.Repository against PostgreSQL. It also
// satisfies campaign.ContactSource via ListByOwner.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, owner_id, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.OwnerID, c.Email, c.FirstName, c.LastName, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return contact.ErrDuplicateEmail
		}
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *ContactRepo) Get(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, email, first_name, last_name, created_at, updated_at
		FROM contacts
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID).Scan(
		&c.ID, &c.OwnerID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, contact.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) List(ctx context.Context, ownerID string, f contact.ListFilter) ([]domain.Contact, error) {
	q := `
		SELECT id, owner_id, email, first_name, last_name, created_at, updated_at
		FROM contacts
		WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if f.Search != "" {
		q += ` AND (email ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)`
		args = append(args, "%"+f.Search+"%")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ListByOwner returns every contact of the owner in creation order, oldest
// first. Campaign recipient resolution depends on this ordering.
func (r *ContactRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, email, first_name, last_name, created_at, updated_at
		FROM contacts
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts by owner: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (r *ContactRepo) Update(ctx context.Context, ownerID, id string, u contact.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE contacts SET %s WHERE id = $%d AND owner_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, ownerID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return contact.ErrDuplicateEmail
		}
		return fmt.Errorf("update contact: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return contact.ErrNotFound
	}
	return nil
}

func (r *ContactRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM contacts WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return contact.ErrNotFound
	}
	return nil
}

func scanContacts(rows *sql.Rows) ([]domain.Contact, error) {
	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
