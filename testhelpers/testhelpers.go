// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestCompany creates a company record and returns it.
func CreateTestCompany(t *testing.T, app *pocketbase.PocketBase, name, country string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("companies")
	if err != nil {
		t.Fatalf("failed to find companies collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("slug", strings.ToLower(strings.ReplaceAll(name, " ", "-")))
	record.Set("country", country)
	record.Set("currency", "MAD")
	record.Set("is_active", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test company: %v", err)
	}

	return record
}

// CreateTestTier creates a pricing tier for a company.
func CreateTestTier(t *testing.T, app *pocketbase.PocketBase, companyID, name, code string, coefficient float64, isDefault bool) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("pricing_tiers")
	if err != nil {
		t.Fatalf("failed to find pricing_tiers collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("company", companyID)
	record.Set("name", name)
	record.Set("code", code)
	record.Set("coefficient", coefficient)
	record.Set("rounding", 2)
	record.Set("is_default", isDefault)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test tier: %v", err)
	}

	return record
}

// CreateTestProject creates a project record linked to a company.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, companyID, name, projectType string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("company", companyID)
	record.Set("name", name)
	record.Set("project_type", projectType)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// CreateTestPlan creates a plan record linked to a project.
func CreateTestPlan(t *testing.T, app *pocketbase.PocketBase, projectID, name string, scale float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("project_plans")
	if err != nil {
		t.Fatalf("failed to find project_plans collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("name", name)
	if scale > 0 {
		record.Set("scale_factor", scale)
		record.Set("is_calibrated", true)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test plan: %v", err)
	}

	return record
}

// CreateTestRoom creates a room record with a cached area.
func CreateTestRoom(t *testing.T, app *pocketbase.PocketBase, projectID, name string, area float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("rooms")
	if err != nil {
		t.Fatalf("failed to find rooms collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("name", name)
	record.Set("area", area)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test room: %v", err)
	}

	return record
}

// CreateTestAnswer creates a questionnaire answer for a project.
func CreateTestAnswer(t *testing.T, app *pocketbase.PocketBase, projectID, questionCode, value string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("project_answers")
	if err != nil {
		t.Fatalf("failed to find project_answers collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("question_code", questionCode)
	record.Set("question_text", "Question "+questionCode)
	record.Set("category", "Technique")
	record.Set("answer_value", value)
	record.Set("is_confirmed", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test answer: %v", err)
	}

	return record
}

// CreateTestQuote creates a quote record linked to a project.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, projectID, reference string, currentVersion int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("reference", reference)
	record.Set("status", "draft")
	record.Set("current_version", currentVersion)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// CreateTestVersion creates a quote version record.
func CreateTestVersion(t *testing.T, app *pocketbase.PocketBase, quoteID string, number int, vatRate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quote_versions")
	if err != nil {
		t.Fatalf("failed to find quote_versions collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quote", quoteID)
	record.Set("version_number", number)
	record.Set("vat_rate", vatRate)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test version: %v", err)
	}

	return record
}

// CreateTestLine creates a quote line on a version.
func CreateTestLine(t *testing.T, app *pocketbase.PocketBase, versionID, designation string, qty, unitPrice float64, sortOrder int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quote_lines")
	if err != nil {
		t.Fatalf("failed to find quote_lines collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("version", versionID)
	record.Set("category", "Second Œuvre")
	record.Set("designation", designation)
	record.Set("unit", "m²")
	record.Set("quantity", qty)
	record.Set("unit_price", unitPrice)
	record.Set("total_price", qty*unitPrice)
	record.Set("quantity_source", "calculated")
	record.Set("sort_order", sortOrder)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test line: %v", err)
	}

	return record
}

// CreateTestLibrary creates an active BPU library for a country.
func CreateTestLibrary(t *testing.T, app *pocketbase.PocketBase, country, version string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("bpu_libraries")
	if err != nil {
		t.Fatalf("failed to find bpu_libraries collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("country", country)
	record.Set("version", version)
	record.Set("name", "BPU Standard "+country)
	record.Set("is_active", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test library: %v", err)
	}

	return record
}

// CreateTestArticle creates a library article with the three tier prices.
func CreateTestArticle(t *testing.T, app *pocketbase.PocketBase, libraryID, code, designation string, eco, standard, premium float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("bpu_articles")
	if err != nil {
		t.Fatalf("failed to find bpu_articles collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("library", libraryID)
	record.Set("code", code)
	record.Set("category", "Second Œuvre")
	record.Set("designation", designation)
	record.Set("unit", "m²")
	record.Set("price_eco", eco)
	record.Set("price_standard", standard)
	record.Set("price_premium", premium)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test article: %v", err)
	}

	return record
}

// CreateTestCustomArticle creates a company custom article.
func CreateTestCustomArticle(t *testing.T, app *pocketbase.PocketBase, companyID, code, designation string, standard float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("company_bpu_articles")
	if err != nil {
		t.Fatalf("failed to find company_bpu_articles collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("company", companyID)
	record.Set("code", code)
	record.Set("category", "Second Œuvre")
	record.Set("designation", designation)
	record.Set("unit", "m²")
	record.Set("price_standard", standard)
	record.Set("is_active", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test custom article: %v", err)
	}

	return record
}

// AssertJSONContains checks that body contains all specified fragments.
func AssertJSONContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected response to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
