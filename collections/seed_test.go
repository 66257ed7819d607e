package collections_test

import (
	"testing"

	"quoteengine/collections"
	"quoteengine/testhelpers"
)

func TestSeed_CreatesStandardLibrary(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	libraries, err := app.FindRecordsByFilter(
		"bpu_libraries", "country = 'MA'", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("query libraries error: %v", err)
	}
	if len(libraries) != 1 {
		t.Fatalf("expected 1 MA library, got %d", len(libraries))
	}
	if !libraries[0].GetBool("is_active") {
		t.Error("seeded library should be active")
	}

	articles, err := app.FindRecordsByFilter(
		"bpu_articles", "library = {:library}", "", 0, 0,
		map[string]any{"library": libraries[0].Id})
	if err != nil {
		t.Fatalf("query articles error: %v", err)
	}
	if len(articles) == 0 {
		t.Fatal("expected seeded articles")
	}

	// The generation pipeline resolves against these codes.
	required := map[string]float64{
		"GO-FOND":     350,
		"GO-MUR":      450,
		"DEMO-01":     80,
		"SO-PLOMB":    45,
		"SO-ELEC":     55,
		"SO-SOL-CARR": 120,
		"CVC-SPLIT":   8500,
		"EXT-PISCINE": 3500,
	}
	byCode := make(map[string]float64, len(articles))
	for _, a := range articles {
		byCode[a.GetString("code")] = a.GetFloat("price_standard")
	}
	for code, want := range required {
		got, ok := byCode[code]
		if !ok {
			t.Errorf("seeded library missing article %s", code)
			continue
		}
		if got != want {
			t.Errorf("article %s: price_standard = %v, want %v", code, got, want)
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	libraries, err := app.FindRecordsByFilter(
		"bpu_libraries", "country = 'MA'", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("query libraries error: %v", err)
	}
	if len(libraries) != 1 {
		t.Errorf("expected 1 MA library after idempotent seed, got %d", len(libraries))
	}
}

func TestEnsureDefaultTiers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")

	if err := collections.EnsureDefaultTiers(app, company.Id); err != nil {
		t.Fatalf("EnsureDefaultTiers() error: %v", err)
	}

	tiers, err := app.FindRecordsByFilter(
		"pricing_tiers", "company = {:company}", "sort_order", 0, 0,
		map[string]any{"company": company.Id})
	if err != nil {
		t.Fatalf("query tiers error: %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}

	if tiers[0].GetString("code") != "ECO" || tiers[0].GetFloat("coefficient") != 0.85 {
		t.Errorf("unexpected first tier: %s / %v",
			tiers[0].GetString("code"), tiers[0].GetFloat("coefficient"))
	}
	if !tiers[1].GetBool("is_default") {
		t.Error("Standard tier should be the default")
	}
	if tiers[2].GetString("code") != "PREM" || tiers[2].GetFloat("coefficient") != 1.25 {
		t.Errorf("unexpected third tier: %s / %v",
			tiers[2].GetString("code"), tiers[2].GetFloat("coefficient"))
	}
}

func TestEnsureDefaultTiers_SkipsCompanyWithTiers(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	testhelpers.CreateTestTier(t, app, company.Id, "Sur mesure", "CUSTOM", 1.1, true)

	if err := collections.EnsureDefaultTiers(app, company.Id); err != nil {
		t.Fatalf("EnsureDefaultTiers() error: %v", err)
	}

	tiers, err := app.FindRecordsByFilter(
		"pricing_tiers", "company = {:company}", "", 0, 0,
		map[string]any{"company": company.Id})
	if err != nil {
		t.Fatalf("query tiers error: %v", err)
	}
	if len(tiers) != 1 {
		t.Errorf("company with existing tiers should be left untouched, got %d tiers", len(tiers))
	}
}

func TestEnsureDefaultTiers_PerCompany(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.CreateTestCompany(t, app, "Batimax", "MA")
	b := testhelpers.CreateTestCompany(t, app, "Construx", "FR")

	if err := collections.EnsureDefaultTiers(app, a.Id); err != nil {
		t.Fatalf("EnsureDefaultTiers(a) error: %v", err)
	}
	if err := collections.EnsureDefaultTiers(app, b.Id); err != nil {
		t.Fatalf("EnsureDefaultTiers(b) error: %v", err)
	}

	for _, company := range []string{a.Id, b.Id} {
		tiers, err := app.FindRecordsByFilter(
			"pricing_tiers", "company = {:company}", "", 0, 0,
			map[string]any{"company": company})
		if err != nil {
			t.Fatalf("query tiers error: %v", err)
		}
		if len(tiers) != 3 {
			t.Errorf("company %s: expected 3 tiers, got %d", company, len(tiers))
		}
	}
}
