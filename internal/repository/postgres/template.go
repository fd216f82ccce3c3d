package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/template"
)

// TemplateRepo implements template.Repository against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template repository.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

func (r *TemplateRepo) Create(ctx context.Context, t *domain.EmailTemplate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_templates (id, owner_id, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.OwnerID, t.Subject, t.Body, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) List(ctx context.Context, ownerID string) ([]domain.EmailTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, subject, body, created_at
		FROM email_templates
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailTemplate
	for rows.Next() {
		var t domain.EmailTemplate
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Subject, &t.Body, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM email_templates WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return template.ErrNotFound
	}
	return nil
}
