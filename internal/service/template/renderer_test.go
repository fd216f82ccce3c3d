package template_test

import (
	"strings"
	"testing"

	"github.com/ignite/emailpro/internal/domain"
	"github.com/ignite/emailpro/internal/service/template"
)

func testContact() domain.Contact {
	return domain.Contact{
		ID:        "ct-1",
		Email:     "jane.doe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestRenderMergeFields(t *testing.T) {
	r := template.NewRenderer()

	out, err := r.Render("Hello {{ first_name }}", "Dear {{ display_name }}, your address is {{ email }}.", testContact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Subject != "Hello Jane" {
		t.Errorf("subject = %q", out.Subject)
	}
	if !strings.Contains(out.Text, "Dear Jane Doe") || !strings.Contains(out.Text, "jane.doe@example.com") {
		t.Errorf("text = %q", out.Text)
	}
}

func TestRenderWithoutMergeFieldsPassesThrough(t *testing.T) {
	r := template.NewRenderer()

	out, err := r.Render("Plain subject", "Plain body", testContact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Subject != "Plain subject" || out.Text != "Plain body" {
		t.Errorf("rendered = %+v, want passthrough", out)
	}
}

func TestRenderHTMLGreeting(t *testing.T) {
	r := template.NewRenderer()

	out, err := r.Render("Subject", "Body", testContact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.HTML, "Hi Jane!") {
		t.Errorf("HTML missing personal greeting: %q", out.HTML)
	}

	anon := domain.Contact{ID: "ct-2", Email: "anon@example.com"}
	out, _ = r.Render("Subject", "Body", anon)
	if !strings.Contains(out.HTML, "Hello!") {
		t.Errorf("HTML missing fallback greeting: %q", out.HTML)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	r := template.NewRenderer()

	out, err := r.Render("Subject", `<script>alert("x")</script>`, testContact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out.HTML, "<script>") {
		t.Error("body must be escaped in the HTML scaffold")
	}
	if !strings.Contains(out.HTML, "&lt;script&gt;") {
		t.Errorf("escaped body missing: %q", out.HTML)
	}
}

func TestRenderInvalidTemplate(t *testing.T) {
	r := template.NewRenderer()

	_, err := r.Render("{{ broken", "Body", testContact())
	if err == nil {
		t.Fatal("expected parse error for unterminated merge field")
	}
}
