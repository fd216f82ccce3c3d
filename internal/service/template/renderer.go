package template

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/campaign"
)

// Renderer renders merge fields ({{ first_name }}, {{ last_name }},
// {{ email }}, {{ display_name }}) into a campaign's subject and body and
// wraps the plain-text body in the standard HTML scaffold. Parsed templates
// are cached since one campaign renders the same source once per recipient.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a merge-field renderer.
func NewRenderer() *Renderer {
	return &Renderer{engine: liquid.NewEngine()}
}

// Render implements campaign.Renderer.
func (r *Renderer) Render(subject, body string, contact domain.Contact) (campaign.RenderedMessage, error) {
	bindings := map[string]any{
		"first_name":   contact.FirstName,
		"last_name":    contact.LastName,
		"email":        contact.Email,
		"display_name": contact.DisplayName(),
	}

	renderedSubject, err := r.renderString(subject, bindings)
	if err != nil {
		return campaign.RenderedMessage{}, fmt.Errorf("render subject: %w", err)
	}
	renderedBody, err := r.renderString(body, bindings)
	if err != nil {
		return campaign.RenderedMessage{}, fmt.Errorf("render body: %w", err)
	}

	return campaign.RenderedMessage{
		Subject: renderedSubject,
		HTML:    wrapHTML(renderedSubject, renderedBody, contact),
		Text:    renderedBody,
	}, nil
}

func (r *Renderer) renderString(source string, bindings map[string]any) (string, error) {
	if !strings.Contains(source, "{{") && !strings.Contains(source, "{%") {
		return source, nil
	}

	var tpl *liquid.Template
	if cached, ok := r.cache.Load(source); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(source)
		if err != nil {
			return "", err
		}
		r.cache.Store(source, parsed)
		tpl = parsed
	}

	return tpl.RenderString(bindings)
}

// wrapHTML produces the email HTML around a plain-text body: subject
// heading, pre-wrap body, and the signature footer with a personal greeting
// when a first name is known.
func wrapHTML(subject, body string, contact domain.Contact) string {
	greeting := "Hello!"
	if contact.FirstName != "" {
		greeting = fmt.Sprintf("Hi %s!", html.EscapeString(contact.FirstName))
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">%s</h2>
  <div style="white-space: pre-wrap; line-height: 1.6;">%s</div>
  <hr style="margin: 20px 0; border: none; border-top: 1px solid #eee;">
  <p style="color: #666; font-size: 12px;">This email was sent from EmailPro. %s</p>
</div>`, html.EscapeString(subject), html.EscapeString(body), greeting)
}
