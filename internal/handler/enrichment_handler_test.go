package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/service"
)

func TestEnrichmentHandler_Lookup(t *testing.T) {
	e := echo.New()

	t.Run("missing identifier", func(t *testing.T) {
		c, rec := jsonContext(e, http.MethodGet, "/api/reverse-contact", "")
		if err := NewEnrichmentHandler(&stubLookup{}).Lookup(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns provider payload", func(t *testing.T) {
		stub := &stubLookup{data: entity.ContactData{"success": true, "person": map[string]any{"firstName": "Ada"}}}
		c, rec := jsonContext(e, http.MethodGet, "/api/reverse-contact?email=ada%2Btest%40example.com", "")
		if err := NewEnrichmentHandler(stub).Lookup(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.lastID.Value != "ada+test@example.com" {
			t.Fatalf("expected decoded email, got %q", stub.lastID.Value)
		}

		var got map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["success"] != true {
			t.Fatalf("unexpected body %v", got)
		}
	})

	t.Run("linkedin url", func(t *testing.T) {
		stub := &stubLookup{data: entity.ContactData{"success": true}}
		c, _ := jsonContext(e, http.MethodGet, "/api/reverse-contact?linkedInUrl=https%3A%2F%2Flinkedin.com%2Fin%2Fada", "")
		if err := NewEnrichmentHandler(stub).Lookup(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stub.lastID.Kind != entity.KindLinkedInURL {
			t.Fatalf("expected linkedin identifier, got %+v", stub.lastID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		c, rec := jsonContext(e, http.MethodGet, "/api/reverse-contact?email=a@b.com", "")
		if err := NewEnrichmentHandler(&stubLookup{err: service.ErrContactNotFound}).Lookup(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := decodeError(t, rec); got != "No ReverseContact data found for that email" {
			t.Fatalf("unexpected error %q", got)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", service.ErrUpstream, errors.New("boom"))
		c, rec := jsonContext(e, http.MethodGet, "/api/reverse-contact?email=a@b.com", "")
		if err := NewEnrichmentHandler(&stubLookup{err: err}).Lookup(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
