package template_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/template"
)

// memRepo is an in-memory template repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.EmailTemplate
}

func newMemRepo() *memRepo {
	return &memRepo{templates: make(map[string]*domain.EmailTemplate)}
}

func (m *memRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memRepo) List(_ context.Context, ownerID string) ([]domain.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EmailTemplate
	for _, t := range m.templates {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.OwnerID != ownerID {
		return template.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

const testOwner = "owner-1"

func TestSaveAndList(t *testing.T) {
	svc := template.NewService(newMemRepo())

	saved, err := svc.Save(context.Background(), testOwner, template.SaveInput{
		Subject: "Welcome {{ first_name }}",
		Body:    "Thanks for joining.",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("saved template has no id")
	}

	list, err := svc.List(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Subject != "Welcome {{ first_name }}" {
		t.Fatalf("list = %+v, want the saved template", list)
	}
}

func TestSaveRejectsBlankContent(t *testing.T) {
	svc := template.NewService(newMemRepo())

	for _, in := range []template.SaveInput{
		{Subject: "", Body: "body"},
		{Subject: "subject", Body: "  "},
	} {
		_, err := svc.Save(context.Background(), testOwner, in)
		if !errors.Is(err, template.ErrInvalidContent) {
			t.Errorf("Save(%+v) error = %v, want ErrInvalidContent", in, err)
		}
	}
}

func TestDeleteForeignOwner(t *testing.T) {
	svc := template.NewService(newMemRepo())

	saved, _ := svc.Save(context.Background(), testOwner, template.SaveInput{Subject: "s", Body: "b"})

	err := svc.Delete(context.Background(), "other-owner", saved.ID)
	if !errors.Is(err, template.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
