package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quoteengine/services"
	"quoteengine/testhelpers"
)

func TestHandleQuoteList(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")

	quote := testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 1)
	version := testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)
	testhelpers.CreateTestLine(t, app, version.Id, "Fondations", 10, 100, 0)
	if err := services.RecomputeVersionTotals(app, version); err != nil {
		t.Fatalf("recompute totals: %v", err)
	}
	testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0002", 1)

	handler := HandleQuoteList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+project.Id+"/quotes", nil)
	req.SetPathValue("projectId", project.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Quotes []struct {
			Reference      string  `json:"reference"`
			Status         string  `json:"status"`
			CurrentVersion int     `json:"current_version"`
			TotalTTC       float64 `json:"total_ttc"`
		} `json:"quotes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(payload.Quotes))
	}

	var found bool
	for _, q := range payload.Quotes {
		if q.Reference == "DEV-2026-0001" {
			found = true
			if q.Status != "draft" {
				t.Errorf("expected status draft, got %q", q.Status)
			}
			// 10 * 100 HT plus 20% VAT.
			if q.TotalTTC != 1200 {
				t.Errorf("expected total_ttc 1200, got %v", q.TotalTTC)
			}
		}
	}
	if !found {
		t.Error("DEV-2026-0001 missing from listing")
	}
}

func TestHandleQuoteListProjectNotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	handler := HandleQuoteList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/missing/quotes", nil)
	req.SetPathValue("projectId", "missing")
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleQuoteView(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")
	quote := testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 2)

	v1 := testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)
	testhelpers.CreateTestLine(t, app, v1.Id, "Fondations", 10, 100, 0)

	v2 := testhelpers.CreateTestVersion(t, app, quote.Id, 2, 20)
	testhelpers.CreateTestLine(t, app, v2.Id, "Fondations", 10, 100, 0)
	testhelpers.CreateTestLine(t, app, v2.Id, "Plomberie", 1, 500, 1)
	if err := services.RecomputeVersionTotals(app, v2); err != nil {
		t.Fatalf("recompute totals: %v", err)
	}

	handler := HandleQuoteView(app)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+quote.Id, nil)
	req.SetPathValue("quoteId", quote.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Reference string `json:"reference"`
		Version   struct {
			Number    int     `json:"number"`
			Label     string  `json:"label"`
			IsCurrent bool    `json:"is_current"`
			TotalTTC  float64 `json:"total_ttc"`
		} `json:"version"`
		Lines []struct {
			Designation string  `json:"designation"`
			TotalPrice  float64 `json:"total_price"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload.Reference != "DEV-2026-0001" {
		t.Errorf("expected reference DEV-2026-0001, got %q", payload.Reference)
	}
	if payload.Version.Number != 2 || payload.Version.Label != "V2" {
		t.Errorf("expected current version V2, got number=%d label=%q",
			payload.Version.Number, payload.Version.Label)
	}
	if !payload.Version.IsCurrent {
		t.Error("expected is_current true for the current version")
	}
	if payload.Version.TotalTTC != 1800 {
		t.Errorf("expected total_ttc 1800, got %v", payload.Version.TotalTTC)
	}
	if len(payload.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(payload.Lines))
	}
	if payload.Lines[0].Designation != "Fondations" || payload.Lines[1].Designation != "Plomberie" {
		t.Errorf("lines out of order: %+v", payload.Lines)
	}
}

func TestHandleQuoteViewNamedVersion(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")
	quote := testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 2)

	v1 := testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)
	testhelpers.CreateTestLine(t, app, v1.Id, "Fondations", 10, 100, 0)
	testhelpers.CreateTestVersion(t, app, quote.Id, 2, 20)

	handler := HandleQuoteView(app)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+quote.Id+"?version=1", nil)
	req.SetPathValue("quoteId", quote.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Version struct {
			Number    int  `json:"number"`
			IsCurrent bool `json:"is_current"`
		} `json:"version"`
		Lines []struct {
			Designation string `json:"designation"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Version.Number != 1 {
		t.Errorf("expected version 1, got %d", payload.Version.Number)
	}
	if payload.Version.IsCurrent {
		t.Error("version 1 should not be current")
	}
	if len(payload.Lines) != 1 || payload.Lines[0].Designation != "Fondations" {
		t.Errorf("unexpected lines: %+v", payload.Lines)
	}
}

func TestHandleQuoteViewVersionNotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")
	quote := testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 1)
	testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)

	handler := HandleQuoteView(app)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+quote.Id+"?version=9", nil)
	req.SetPathValue("quoteId", quote.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	testhelpers.AssertJSONContains(t, rec.Body.String(), "Version not found")
}

func TestHandleQuoteVersionList(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")
	quote := testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 3)

	testhelpers.CreateTestVersion(t, app, quote.Id, 1, 20)
	testhelpers.CreateTestVersion(t, app, quote.Id, 2, 20)
	testhelpers.CreateTestVersion(t, app, quote.Id, 3, 20)

	handler := HandleQuoteVersionList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+quote.Id+"/versions", nil)
	req.SetPathValue("quoteId", quote.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Versions []struct {
			Number    int    `json:"number"`
			Label     string `json:"label"`
			IsCurrent bool   `json:"is_current"`
		} `json:"versions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(payload.Versions))
	}
	for i, want := range []int{3, 2, 1} {
		if payload.Versions[i].Number != want {
			t.Errorf("position %d: expected version %d, got %d", i, want, payload.Versions[i].Number)
		}
	}
	if !payload.Versions[0].IsCurrent {
		t.Error("newest version should be current")
	}
	if payload.Versions[2].IsCurrent {
		t.Error("version 1 should not be current")
	}
	if payload.Versions[0].Label != "V3" {
		t.Errorf("expected label V3, got %q", payload.Versions[0].Label)
	}
}
