package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ignite/emailpro/internal/api"
	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/campaign"
	"github.com/ignite/emailpro/internal/service/contact"
	"github.com/ignite/emailpro/internal/service/template"
	"github.com/ignite/emailpro/internal/transport"
)

// ---- In-memory fixtures ----

type memContactRepo struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{contacts: make(map[string]*domain.Contact)}
}

func (m *memContactRepo) Create(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.contacts {
		if ex.OwnerID == c.OwnerID && ex.Email == c.Email {
			return contact.ErrDuplicateEmail
		}
	}
	cp := *c
	m.contacts[cp.ID] = &cp
	return nil
}

func (m *memContactRepo) Get(_ context.Context, ownerID, id string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, contact.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memContactRepo) List(_ context.Context, ownerID string, _ contact.ListFilter) ([]domain.Contact, error) {
	return m.byOwner(ownerID), nil
}

func (m *memContactRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Contact, error) {
	return m.byOwner(ownerID), nil
}

func (m *memContactRepo) byOwner(ownerID string) []domain.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contact
	for _, c := range m.contacts {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memContactRepo) Update(_ context.Context, ownerID, id string, u contact.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return contact.ErrNotFound
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	return nil
}

func (m *memContactRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return contact.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.EmailTemplate
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{templates: make(map[string]*domain.EmailTemplate)}
}

func (m *memTemplateRepo) Create(_ context.Context, t *domain.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memTemplateRepo) List(_ context.Context, ownerID string) ([]domain.EmailTemplate, error) {
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

func (m *memTemplateRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.OwnerID != ownerID {
		return template.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

type memCampaignStore struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	records   map[string]*domain.DeliveryRecord
	order     []string
}

func newMemCampaignStore() *memCampaignStore {
	return &memCampaignStore{
		campaigns: make(map[string]*domain.Campaign),
		records:   make(map[string]*domain.DeliveryRecord),
	}
}

func (m *memCampaignStore) CreateCampaign(_ context.Context, c *domain.Campaign, records []domain.DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; ok {
		return campaign.ErrConflict
	}
	cp := *c
	m.campaigns[cp.ID] = &cp
	for _, rec := range records {
		rc := rec
		m.records[rc.ID] = &rc
		m.order = append(m.order, rc.ID)
	}
	return nil
}

func (m *memCampaignStore) UpdateDeliveryRecord(_ context.Context, id string, u campaign.DeliveryUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return campaign.ErrNotFound
	}
	rec.Status = u.Status
	rec.LastError = u.LastError
	rec.Attempts = u.Attempts
	if u.CompletedAt.IsZero() {
		rec.CompletedAt = nil
	} else {
		t := u.CompletedAt
		rec.CompletedAt = &t
	}
	return nil
}

func (m *memCampaignStore) UpdateCampaignStatus(_ context.Context, id string, status domain.CampaignStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.Status = status
	c.CompletedAt = completedAt
	return nil
}

func (m *memCampaignStore) GetCampaign(_ context.Context, ownerID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OwnerID != ownerID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaignStore) GetCampaignCounts(_ context.Context, id string) (domain.DeliveryCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts domain.DeliveryCounts
	for _, rec := range m.records {
		if rec.CampaignID != id {
			continue
		}
		switch rec.Status {
		case domain.DeliverySent:
			counts.Sent++
		case domain.DeliveryFailed:
			counts.Failed++
		default:
			counts.Pending++
		}
	}
	return counts, nil
}

func (m *memCampaignStore) ListCampaigns(_ context.Context, ownerID string) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCampaignStore) ListDeliveries(_ context.Context, ownerID, campaignID string) ([]domain.DeliveryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.OwnerID != ownerID {
		return nil, campaign.ErrNotFound
	}
	var out []domain.DeliveryRecord
	for _, id := range m.order {
		if rec := m.records[id]; rec.CampaignID == campaignID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type instantSender struct{}

func (instantSender) Send(_ context.Context, _ *transport.Message) (*transport.Result, error) {
	return &transport.Result{Delivered: true, MessageID: "mid", SentAt: time.Now()}, nil
}

func newTestHandler() http.Handler {
	contactRepo := newMemContactRepo()
	store := newMemCampaignStore()

	contactSvc := contact.NewService(contactRepo)
	templateSvc := template.NewService(newMemTemplateRepo())
	coord := campaign.NewCoordinator(store, instantSender{}, template.NewRenderer(), campaign.CoordinatorConfig{
		FromName: "Test", FromEmail: "test@example.com", Workers: 2,
	})
	campaignSvc := campaign.NewService(store, contactRepo, coord, 1)

	h := api.NewHandlers(contactSvc, templateSvc, campaignSvc)
	return api.SetupRoutes(h, nil)
}

const testOwner = "owner-1"

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", testOwner)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ---- Tests ----

func TestHealthNoAuth(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("health = %d, want 200", rr.Code)
	}
}

func TestAPIRequiresOwner(t *testing.T) {
	handler := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without owner identity", rr.Code)
	}
}

func TestContactCRUD(t *testing.T) {
	handler := newTestHandler()

	rr := doJSON(t, handler, http.MethodPost, "/api/contacts", map[string]string{
		"email": "jane@example.com", "first_name": "Jane",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rr.Code, rr.Body.String())
	}
	var created domain.Contact
	json.Unmarshal(rr.Body.Bytes(), &created)

	// Duplicate email conflicts.
	rr = doJSON(t, handler, http.MethodPost, "/api/contacts", map[string]string{"email": "jane@example.com"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate = %d, want 409", rr.Code)
	}

	// Invalid email is a bad request.
	rr = doJSON(t, handler, http.MethodPost, "/api/contacts", map[string]string{"email": "nope"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid email = %d, want 400", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodGet, "/api/contacts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list = %d", rr.Code)
	}
	var listResp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rr.Body.Bytes(), &listResp)
	if listResp.Total != 1 {
		t.Fatalf("total = %d, want 1", listResp.Total)
	}

	rr = doJSON(t, handler, http.MethodDelete, "/api/contacts/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete = %d", rr.Code)
	}
	rr = doJSON(t, handler, http.MethodGet, "/api/contacts/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rr.Code)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	handler := newTestHandler()

	rr := doJSON(t, handler, http.MethodPost, "/api/templates", map[string]string{
		"subject": "Welcome", "body": "Hi {{ first_name }}",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("save = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, handler, http.MethodPost, "/api/templates", map[string]string{"subject": "", "body": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank template = %d, want 400", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodDelete, "/api/templates/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing = %d, want 404", rr.Code)
	}
}

func TestCampaignLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		rr := doJSON(t, handler, http.MethodPost, "/api/contacts", map[string]string{"email": email})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create contact = %d", rr.Code)
		}
	}

	rr := doJSON(t, handler, http.MethodPost, "/api/campaigns", map[string]any{
		"subject":    "Hello {{ first_name }}",
		"body":       "Body",
		"recipients": map[string]any{"all": true},
	})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("submit = %d: %s", rr.Code, rr.Body.String())
	}
	var c domain.Campaign
	json.Unmarshal(rr.Body.Bytes(), &c)
	if c.ID == "" {
		t.Fatal("submitted campaign has no id")
	}

	// Dispatch runs in the background; poll until it concludes.
	deadline := time.Now().Add(5 * time.Second)
	var view campaign.StatusView
	for {
		rr = doJSON(t, handler, http.MethodGet, "/api/campaigns/"+c.ID+"/status", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		json.Unmarshal(rr.Body.Bytes(), &view)
		if view.Status != domain.CampaignDispatching {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("campaign never concluded")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if view.Status != domain.CampaignCompleted || view.Sent != 2 {
		t.Fatalf("final view = %+v, want completed with 2 sent", view)
	}

	rr = doJSON(t, handler, http.MethodGet, "/api/campaigns/"+c.ID+"/deliveries", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("deliveries = %d", rr.Code)
	}

	// Campaign detail includes the per-recipient ledger.
	rr = doJSON(t, handler, http.MethodGet, "/api/campaigns/"+c.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get campaign = %d", rr.Code)
	}
	var detail struct {
		Campaign   domain.Campaign         `json:"campaign"`
		Deliveries []domain.DeliveryRecord `json:"deliveries"`
	}
	json.Unmarshal(rr.Body.Bytes(), &detail)
	if detail.Campaign.ID != c.ID || len(detail.Deliveries) != 2 {
		t.Fatalf("detail = %+v, want campaign with 2 deliveries", detail)
	}

	// Retry with nothing failed is a bad request.
	rr = doJSON(t, handler, http.MethodPost, "/api/campaigns/"+c.ID+"/retry", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("retry = %d, want 400 when nothing is eligible", rr.Code)
	}

	// Cancel after conclusion conflicts.
	rr = doJSON(t, handler, http.MethodPost, "/api/campaigns/"+c.ID+"/cancel", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("cancel = %d, want 409 after conclusion", rr.Code)
	}
}

func TestSubmitCampaignValidation(t *testing.T) {
	handler := newTestHandler()

	rr := doJSON(t, handler, http.MethodPost, "/api/campaigns", map[string]any{
		"subject":    "  ",
		"recipients": map[string]any{"all": true},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("blank subject = %d, want 400", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, "/api/campaigns", map[string]any{
		"subject":    "Hello",
		"recipients": map[string]any{"all": true},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("no contacts = %d, want 400", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	handler := newTestHandler()

	doJSON(t, handler, http.MethodPost, "/api/contacts", map[string]string{"email": "a@example.com"})

	rr := doJSON(t, handler, http.MethodGet, "/api/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard = %d", rr.Code)
	}
	var stats struct {
		TotalContacts  int `json:"total_contacts"`
		TotalCampaigns int `json:"total_campaigns"`
	}
	json.Unmarshal(rr.Body.Bytes(), &stats)
	if stats.TotalContacts != 1 || stats.TotalCampaigns != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}
