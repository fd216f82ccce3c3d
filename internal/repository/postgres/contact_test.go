package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/contact"
)

func TestContactRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepo(db)

	mock.ExpectExec("INSERT INTO contacts").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &domain.Contact{
		ID:      "ct-1",
		OwnerID: "owner-1",
		Email:   "dup@example.com",
	})
	if !errors.Is(err, contact.ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestContactRepo_List_Search(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepo(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "email", "first_name", "last_name", "created_at", "updated_at"}).
		AddRow("ct-2", "owner-1", "jane@example.com", "Jane", "Doe", now, now)
	mock.ExpectQuery("SELECT id, owner_id, email").
		WithArgs("owner-1", "%jane%").
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), "owner-1", contact.ListFilter{Search: "jane"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(out) != 1 || out[0].Email != "jane@example.com" {
		t.Errorf("List() = %+v, want one row for jane", out)
	}
}

func TestContactRepo_ListByOwner_AscendingOrder(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepo(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "email", "first_name", "last_name", "created_at", "updated_at"}).
		AddRow("ct-1", "owner-1", "first@example.com", "", "", now.Add(-time.Hour), now).
		AddRow("ct-2", "owner-1", "second@example.com", "", "", now, now)
	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs("owner-1").
		WillReturnRows(rows)

	out, err := repo.ListByOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("ListByOwner() error: %v", err)
	}
	if len(out) != 2 || out[0].ID != "ct-1" {
		t.Errorf("ListByOwner() order = %+v, want ct-1 first", out)
	}
}

func TestContactRepo_Update_NoFields(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepo(db)

	// No expectations: an empty update must not touch the database.
	if err := repo.Update(context.Background(), "owner-1", "ct-1", contact.UpdateFields{}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestContactRepo_Delete_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewContactRepo(db)

	mock.ExpectExec("DELETE FROM contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "owner-1", "missing")
	if !errors.Is(err, contact.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
