package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quoteengine/services"
	"quoteengine/testhelpers"
)

func TestHandleQuoteGenerate_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Standard", "STD", 1.0, true)
	proj := testhelpers.CreateTestProject(t, app, company.Id, "Villa Anfa", "construction")
	testhelpers.CreateTestRoom(t, app, proj.Id, "Salon", 30)
	testhelpers.CreateTestRoom(t, app, proj.Id, "Chambre", 20)

	handler := HandleQuoteGenerate(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/quotes", proj.Id), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	testhelpers.AssertJSONContains(t, rec.Body.String(), "DEV-", "quote_id")

	quotes, err := app.FindRecordsByFilter("quotes", "project = {:project}", "", 0, 0,
		map[string]any{"project": proj.Id})
	if err != nil || len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d (err %v)", len(quotes), err)
	}
	quote := quotes[0]
	if quote.GetString("status") != "draft" {
		t.Errorf("status = %q, want draft", quote.GetString("status"))
	}
	if quote.GetInt("current_version") != 1 {
		t.Errorf("current_version = %d, want 1", quote.GetInt("current_version"))
	}

	version, err := services.CurrentVersion(app, quote)
	if err != nil {
		t.Fatalf("load version: %v", err)
	}
	lines, err := services.VersionLines(app, version.Id)
	if err != nil {
		t.Fatalf("load lines: %v", err)
	}
	// Construction: foundations, walls, plumbing, electricity, floor.
	if len(lines) != 5 {
		t.Errorf("expected 5 generated lines, got %d", len(lines))
	}
	if version.GetFloat("total_ttc") == 0 {
		t.Error("generated version has zero total")
	}
}

func TestHandleQuoteGenerate_SeedsDefaultTiers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	proj := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")

	// No tier exists yet; generation provisions the standard triple
	// instead of failing.
	handler := HandleQuoteGenerate(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/quotes", proj.Id), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a tierless company, got %d: %s", rec.Code, rec.Body.String())
	}

	tiers, err := app.FindRecordsByFilter("pricing_tiers",
		"company = {:company}", "sort_order", 0, 0,
		map[string]any{"company": company.Id})
	if err != nil {
		t.Fatalf("query tiers: %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("expected the default tier triple, got %d tiers", len(tiers))
	}
	if !tiers[1].GetBool("is_default") || tiers[1].GetString("code") != "STD" {
		t.Errorf("expected Standard as the default tier, got %q", tiers[1].GetString("code"))
	}
}

func TestHandleQuoteGenerate_NoOrphanQuoteOnFailure(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Standard", "STD", 1.0, true)
	proj := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")

	// Break the version write path after lines would have been saved.
	assumptionsCol, err := app.FindCollectionByNameOrId("quote_assumptions")
	if err != nil {
		t.Fatalf("find quote_assumptions: %v", err)
	}
	if err := app.Delete(assumptionsCol); err != nil {
		t.Fatalf("drop quote_assumptions: %v", err)
	}

	handler := HandleQuoteGenerate(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/quotes", proj.Id), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	quotes, err := app.FindRecordsByFilter("quotes",
		"project = {:project}", "", 0, 0,
		map[string]any{"project": proj.Id})
	if err != nil {
		t.Fatalf("query quotes: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("expected the quote to roll back, found %d", len(quotes))
	}
	versions, err := app.FindAllRecords("quote_versions")
	if err != nil {
		t.Fatalf("query versions: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("expected no version rows, found %d", len(versions))
	}
}

func TestHandleQuoteGenerate_ProjectNotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	handler := HandleQuoteGenerate(app)
	req := httptest.NewRequest(http.MethodPost, "/api/projects/nonexistent/quotes", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("projectId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleQuoteGenerate_ExplicitTier(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Standard", "STD", 1.0, true)
	premium := testhelpers.CreateTestTier(t, app, company.Id, "Premium", "PREM", 1.3, false)
	proj := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "renovation")
	testhelpers.CreateTestRoom(t, app, proj.Id, "Salon", 10)

	handler := HandleQuoteGenerate(app)
	body := fmt.Sprintf(`{"tier_id": %q}`, premium.Id)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%s/quotes", proj.Id), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("projectId", proj.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	quotes, _ := app.FindRecordsByFilter("quotes", "project = {:project}", "", 0, 0,
		map[string]any{"project": proj.Id})
	version, err := services.CurrentVersion(app, quotes[0])
	if err != nil {
		t.Fatalf("load version: %v", err)
	}
	if version.GetString("tier") != premium.Id {
		t.Errorf("version tier = %q, want the explicit premium tier", version.GetString("tier"))
	}
}

func TestHandleQuoteRegenerate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Standard", "STD", 1.0, true)
	proj := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "renovation")
	testhelpers.CreateTestRoom(t, app, proj.Id, "Salon", 25)
	quote := testhelpers.CreateTestQuote(t, app, proj.Id, "DEV-2026-0001", 1)
	v1 := testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)
	testhelpers.CreateTestLine(t, app, v1.Id, "Ancienne ligne", 10, 100, 0)

	handler := HandleQuoteRegenerate(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/quotes/%s/regenerate", quote.Id), strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("quoteId", quote.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	refreshed, err := app.FindRecordById("quotes", quote.Id)
	if err != nil {
		t.Fatalf("reload quote: %v", err)
	}
	if refreshed.GetInt("current_version") != 2 {
		t.Errorf("current_version = %d, want 2", refreshed.GetInt("current_version"))
	}

	// Version 1 keeps its original lines.
	original, err := services.VersionLines(app, v1.Id)
	if err != nil {
		t.Fatalf("load original lines: %v", err)
	}
	if len(original) != 1 || original[0].GetString("designation") != "Ancienne ligne" {
		t.Errorf("version 1 was modified: %d lines", len(original))
	}
}
