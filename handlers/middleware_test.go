package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"quoteengine/testhelpers"
)

func TestGetActiveCompany_FromContext(t *testing.T) {
	expected := &ActiveCompany{ID: "c123", Name: "Batimax", Country: "MA", Currency: "MAD"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ActiveCompanyKey, expected)
	req = req.WithContext(ctx)

	got := GetActiveCompany(req)
	if got == nil {
		t.Fatal("expected active company, got nil")
	}
	if got.ID != expected.ID || got.Currency != "MAD" {
		t.Errorf("unexpected company: %+v", got)
	}
}

func TestGetActiveCompany_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetActiveCompany(req); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestActiveCompanyMiddleware_WithCookie(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Cookie MW Company", "MA")

	middleware := ActiveCompanyMiddleware(app)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "active_company", Value: company.Id})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	// e.Next() with no handler set is a no-op in PocketBase.
	_ = middleware(e)

	active := GetActiveCompany(e.Request)
	if active == nil {
		t.Fatal("expected active company in context after middleware")
	}
	if active.Name != "Cookie MW Company" {
		t.Errorf("expected 'Cookie MW Company', got %q", active.Name)
	}
	if active.Country != "MA" {
		t.Errorf("expected country MA, got %q", active.Country)
	}
}

func TestActiveCompanyMiddleware_StaleCookie(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	middleware := ActiveCompanyMiddleware(app)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "active_company", Value: "nonexistent_id"})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = middleware(e)

	if active := GetActiveCompany(e.Request); active != nil {
		t.Error("expected nil active company for stale cookie")
	}

	// The stale cookie must be expired on the response.
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "active_company" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the stale cookie to be cleared")
	}
}

func TestActiveCompanyMiddleware_NoCookie(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	middleware := ActiveCompanyMiddleware(app)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = middleware(e)

	if active := GetActiveCompany(e.Request); active != nil {
		t.Error("expected nil active company without a cookie")
	}
}
