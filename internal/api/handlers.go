package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/emailpro/internal/pkg/logger"
	"github.com/ignite/emailpro/internal/service/campaign"
	"github.com/ignite/emailpro/internal/service/contact"
	"github.com/ignite/emailpro/internal/service/template"
)

// Handlers holds the service dependencies for all HTTP handlers.
type Handlers struct {
	contacts  *contact.Service
	templates *template.Service
	campaigns *campaign.Service
}

// NewHandlers creates the handler set.
func NewHandlers(contacts *contact.Service, templates *template.Service, campaigns *campaign.Service) *Handlers {
	return &Handlers{contacts: contacts, templates: templates, campaigns: campaigns}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---- Contacts ----

func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var in contact.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.contacts.Create(r.Context(), OwnerFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	f := contact.ListFilter{Search: r.URL.Query().Get("search")}
	out, err := h.contacts.List(r.Context(), OwnerFromContext(r.Context()), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"contacts": out, "total": len(out)})
}

func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.contacts.Get(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u := contact.UpdateFields{Email: body.Email, FirstName: body.FirstName, LastName: body.LastName}

	if err := h.contacts.Update(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), u); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- Templates ----

func (h *Handlers) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var in template.SaveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := h.templates.Save(r.Context(), OwnerFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := h.templates.List(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": out, "total": len(out)})
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.Delete(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---- Campaigns ----

// SubmitCampaign accepts a composed message and recipient selection, records
// the campaign, and starts delivery in the background. It returns 202 with
// the campaign snapshot; callers poll the status endpoint for progress.
func (h *Handlers) SubmitCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, _, err := h.campaigns.Submit(r.Context(), OwnerFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, c)
}

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	out, err := h.campaigns.List(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"campaigns": out, "total": len(out)})
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	ownerID := OwnerFromContext(r.Context())
	id := chi.URLParam(r, "id")

	c, err := h.campaigns.Get(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	deliveries, err := h.campaigns.Deliveries(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"campaign":   c,
		"deliveries": deliveries,
	})
}

func (h *Handlers) GetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.campaigns.Status(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) ListCampaignDeliveries(w http.ResponseWriter, r *http.Request) {
	out, err := h.campaigns.Deliveries(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deliveries": out, "total": len(out)})
}

func (h *Handlers) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Cancel(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (h *Handlers) RetryCampaign(w http.ResponseWriter, r *http.Request) {
	_, err := h.campaigns.RetryFailed(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "retrying"})
}

// ---- Dashboard ----

// GetDashboard aggregates the owner's headline numbers in one call.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := OwnerFromContext(ctx)

	contacts, err := h.contacts.List(ctx, ownerID, contact.ListFilter{})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	campaigns, err := h.campaigns.List(ctx, ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	totalSent, totalFailed := 0, 0
	dispatching := 0
	for _, c := range campaigns {
		view, err := h.campaigns.Status(ctx, ownerID, c.ID)
		if err != nil {
			continue
		}
		totalSent += view.Sent
		totalFailed += view.Failed
		if !c.IsTerminal() {
			dispatching++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total_contacts":        len(contacts),
		"total_campaigns":       len(campaigns),
		"campaigns_dispatching": dispatching,
		"emails_sent":           totalSent,
		"emails_failed":         totalFailed,
	})
}

// ---- Helpers ----

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service-layer sentinel errors to HTTP statuses.
// Unknown errors become 500 with a generic message so internals never leak.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, contact.ErrNotFound),
		errors.Is(err, template.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, campaign.ErrInvalidMessage),
		errors.Is(err, campaign.ErrInvalidRecipient),
		errors.Is(err, campaign.ErrNoRecipients),
		errors.Is(err, contact.ErrInvalidEmail),
		errors.Is(err, template.ErrInvalidContent):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contact.ErrDuplicateEmail),
		errors.Is(err, campaign.ErrConflict),
		errors.Is(err, campaign.ErrNotDispatching),
		errors.Is(err, campaign.ErrStillDispatching):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
