package services

import (
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/testhelpers"
)

func TestActiveLibrary(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestLibrary(t, app, "MA", "2024.1")
	newest := testhelpers.CreateTestLibrary(t, app, "MA", "2025.1")
	testhelpers.CreateTestLibrary(t, app, "FR", "2025.1")

	library, err := ActiveLibrary(app, "MA")
	if err != nil {
		t.Fatalf("ActiveLibrary() error: %v", err)
	}
	if library == nil {
		t.Fatal("expected a library for MA")
	}
	if library.Id != newest.Id {
		t.Errorf("active library version = %q, want highest 2025.1", library.GetString("version"))
	}
}

func TestActiveLibrary_NoneForCountry(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestLibrary(t, app, "FR", "2025.1")

	library, err := ActiveLibrary(app, "MA")
	if err != nil {
		t.Fatalf("ActiveLibrary() error: %v", err)
	}
	if library != nil {
		t.Errorf("expected nil library, got %q", library.GetString("country"))
	}
}

func TestLoadCatalog(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	library := testhelpers.CreateTestLibrary(t, app, "MA", "2025.1")
	article := testhelpers.CreateTestArticle(t, app, library.Id, "SO-PLOMB", "Plomberie", 38, 45, 60)
	testhelpers.CreateTestCustomArticle(t, app, company.Id, "PERSO-01", "Article maison", 99)

	overridesCol, err := app.FindCollectionByNameOrId("company_bpu_overrides")
	if err != nil {
		t.Fatalf("overrides collection: %v", err)
	}
	override := core.NewRecord(overridesCol)
	override.Set("company", company.Id)
	override.Set("article", article.Id)
	override.Set("price_standard", 40)
	if err := app.Save(override); err != nil {
		t.Fatalf("save override: %v", err)
	}

	cat, err := LoadCatalog(app, company.Id, "MA")
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}

	custom, ok := cat.Customs["PERSO-01"]
	if !ok {
		t.Fatal("custom article missing from catalog")
	}
	if custom.PriceStandard == nil || custom.PriceStandard.String() != "99" {
		t.Errorf("custom standard price = %v", custom.PriceStandard)
	}
	// Zero-stored columns come back as nil, meaning "not priced".
	if custom.PriceEco != nil {
		t.Errorf("custom eco price = %v, want nil", custom.PriceEco)
	}

	lib, ok := cat.Library["SO-PLOMB"]
	if !ok {
		t.Fatal("library article missing from catalog")
	}
	if lib.PriceEco == nil || lib.PriceEco.String() != "38" {
		t.Errorf("library eco price = %v", lib.PriceEco)
	}

	ov, ok := cat.Overrides[article.Id]
	if !ok {
		t.Fatal("override missing from catalog")
	}
	if ov.PriceStandard == nil || ov.PriceStandard.String() != "40" {
		t.Errorf("override standard price = %v", ov.PriceStandard)
	}
	if ov.PriceEco != nil {
		t.Errorf("override eco price = %v, want nil", ov.PriceEco)
	}
}

func TestLoadCatalog_NoLibrary(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestCustomArticle(t, app, company.Id, "PERSO-01", "Article maison", 99)

	cat, err := LoadCatalog(app, company.Id, "MA")
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}
	if len(cat.Customs) != 1 {
		t.Errorf("customs = %d, want 1", len(cat.Customs))
	}
	if len(cat.Library) != 0 {
		t.Errorf("library = %d, want empty without an active library", len(cat.Library))
	}
}

func TestLoadTiers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Économique", "ECO", 0.85, false)
	testhelpers.CreateTestTier(t, app, company.Id, "Standard", "STD", 1.0, true)

	tiers, err := LoadTiers(app, company.Id)
	if err != nil {
		t.Fatalf("LoadTiers() error: %v", err)
	}
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}

	var foundDefault bool
	for _, tier := range tiers {
		if tier.IsDefault {
			foundDefault = true
			if tier.Name != "Standard" {
				t.Errorf("default tier = %q", tier.Name)
			}
		}
	}
	if !foundDefault {
		t.Error("no default tier loaded")
	}
}

func TestCompanyVATRate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")

	// No tax profile: 20% default.
	if got := CompanyVATRate(app, company.Id); got.String() != "20" {
		t.Errorf("VAT without profile = %s, want 20", got)
	}

	createTaxProfile(t, app, company.Id, 7.7)
	if got := CompanyVATRate(app, company.Id); got.String() != "7.7" {
		t.Errorf("VAT with profile = %s, want 7.7", got)
	}
}

func TestCompanyVATRate_UnsetRate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "BTP Co", "MA")
	createTaxProfile(t, app, company.Id, 0)

	if got := CompanyVATRate(app, company.Id); got.String() != "20" {
		t.Errorf("VAT with zero rate = %s, want 20 fallback", got)
	}
}

func createTaxProfile(t *testing.T, app *pocketbase.PocketBase, companyID string, vatRate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("tax_profiles")
	if err != nil {
		t.Fatalf("tax_profiles collection: %v", err)
	}
	rec := core.NewRecord(col)
	rec.Set("company", companyID)
	rec.Set("default_vat_rate", vatRate)
	if err := app.Save(rec); err != nil {
		t.Fatalf("save tax profile: %v", err)
	}
	return rec
}
