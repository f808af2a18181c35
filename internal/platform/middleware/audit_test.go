package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestAudit_RecordsAPIAccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/550e8400-e29b-41d4-a716-446655440000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-1")

	var captured AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		captured = entry
		return nil
	})

	h := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Resource != "patients" {
		t.Errorf("expected resource patients, got %s", captured.Resource)
	}
	if captured.PatientID != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("expected patient id from path, got %s", captured.PatientID)
	}
	if captured.Action != "read" {
		t.Errorf("expected action read, got %s", captured.Action)
	}
	if captured.RequestID != "req-1" {
		t.Errorf("expected request id req-1, got %s", captured.RequestID)
	}
}

func TestAudit_SkipsNonAPIRoutes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		called = true
		return nil
	})

	h := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if called {
		t.Error("expected recorder not to be called for non-API route")
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s: got %s, want %s", method, got, want)
		}
	}
}

func TestExtractPatientID_QueryParam(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?patient_id=p-77", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := extractPatientID(c); got != "p-77" {
		t.Errorf("expected p-77, got %s", got)
	}
}
