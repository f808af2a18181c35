package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractTenantID_Priority(t *testing.T) {
	e := echo.New()

	// Header beats query param
	req := httptest.NewRequest(http.MethodGet, "/?org_id=fromquery", nil)
	req.Header.Set("X-Organization-ID", "fromheader")
	c := e.NewContext(req, httptest.NewRecorder())
	if got := extractTenantID(c, "default"); got != "fromheader" {
		t.Errorf("expected header to win, got %s", got)
	}

	// JWT claim beats everything
	c.Set("jwt_org_id", "fromjwt")
	if got := extractTenantID(c, "default"); got != "fromjwt" {
		t.Errorf("expected jwt claim to win, got %s", got)
	}

	// Query param alone
	req2 := httptest.NewRequest(http.MethodGet, "/?org_id=fromquery", nil)
	c2 := e.NewContext(req2, httptest.NewRecorder())
	if got := extractTenantID(c2, "default"); got != "fromquery" {
		t.Errorf("expected query param, got %s", got)
	}

	// Fallback to default
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	c3 := e.NewContext(req3, httptest.NewRecorder())
	if got := extractTenantID(c3, "default"); got != "default" {
		t.Errorf("expected default tenant, got %s", got)
	}
}

func TestTenantIDPattern(t *testing.T) {
	valid := []string{"default", "clinic_01", "Acme", "a"}
	for _, id := range valid {
		if !tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{"", "has-dash", "has space", "x; DROP SCHEMA public", "a.b"}
	for _, id := range invalid {
		if tenantIDPattern.MatchString(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}

func TestTenantFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TenantIDKey, "clinic_01")
	if got := TenantFromContext(ctx); got != "clinic_01" {
		t.Errorf("expected clinic_01, got %s", got)
	}

	if got := TenantFromContext(context.Background()); got != "" {
		t.Errorf("expected empty string for missing tenant, got %s", got)
	}
}

func TestConnFromContext_Missing(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Error("expected nil connection for bare context")
	}
}

func TestTxFromContext_Missing(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil transaction for bare context")
	}
}
