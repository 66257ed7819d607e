package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type tierDef struct {
	name        string
	code        string
	coefficient float64
	isDefault   bool
	sortOrder   int
}

type articleDef struct {
	code        string
	category    string
	subcategory string
	designation string
	unit        string
	eco         float64
	std         float64
	prem        float64
}

// defaultTiers is the tier triple every company starts with. Callers of
// the generation pipeline expect at least one default tier to exist.
var defaultTiers = []tierDef{
	{name: "Économique", code: "ECO", coefficient: 0.85, isDefault: false, sortOrder: 1},
	{name: "Standard", code: "STD", coefficient: 1.00, isDefault: true, sortOrder: 2},
	{name: "Premium", code: "PREM", coefficient: 1.25, isDefault: false, sortOrder: 3},
}

// standardArticles is the reference BPU for the MA library, including
// the article codes the quote generator resolves against.
var standardArticles = []articleDef{
	{"GO-FOND", "Gros Œuvre", "Fondations", "Fondations et infrastructure", "m²", 280, 350, 450},
	{"GO-MUR", "Gros Œuvre", "Structure", "Élévation des murs et structure", "m²", 360, 450, 580},
	{"GO-001", "Gros Œuvre", "Fondations", "Fouilles en rigoles", "m³", 150, 180, 220},
	{"GO-002", "Gros Œuvre", "Fondations", "Béton armé pour semelles", "m³", 2200, 2600, 3200},
	{"GO-010", "Gros Œuvre", "Structure", "Murs en agglos 20x20x50", "m²", 280, 350, 450},
	{"GO-020", "Gros Œuvre", "Dalle", "Plancher corps creux 16+5", "m²", 380, 450, 550},
	{"DEMO-01", "Démolition", "Gros œuvre", "Démolition et évacuation des gravats", "m²", 65, 80, 105},
	{"SO-PLOMB", "Second Œuvre", "Plomberie", "Plomberie et sanitaires (ratio)", "m²", 38, 45, 60},
	{"SO-ELEC", "Second Œuvre", "Électricité", "Électricité générale (ratio)", "m²", 45, 55, 72},
	{"SO-SOL-CARR", "Second Œuvre", "Revêtements sols", "Carrelage grès cérame 60x60", "m²", 95, 120, 180},
	{"SO-SOL-PARQ", "Second Œuvre", "Revêtements sols", "Parquet contrecollé", "m²", 140, 180, 260},
	{"SO-SOL-MARB", "Second Œuvre", "Revêtements sols", "Carrelage marbre", "m²", 280, 350, 520},
	{"SO-SOL-BETON", "Second Œuvre", "Revêtements sols", "Béton ciré", "m²", 120, 150, 210},
	{"SO-001", "Second Œuvre", "Enduits", "Enduit intérieur au mortier", "m²", 45, 55, 70},
	{"SO-020", "Second Œuvre", "Peinture", "Peinture acrylique murs", "m²", 35, 50, 75},
	{"CVC-SPLIT", "CVC", "Climatisation", "Climatisation split", "u", 6500, 8500, 12000},
	{"CVC-GAIN", "CVC", "Climatisation", "Climatisation gainable", "u", 19000, 25000, 38000},
	{"CV-010", "CVC", "Chauffage", "Chauffe-eau solaire 200L", "u", 8000, 12000, 18000},
	{"EXT-PISCINE", "Piscine", "Structure", "Piscine complète (structure, filtration, revêtement)", "m²", 2800, 3500, 5200},
	{"PI-010", "Piscine", "Équipement", "Système filtration complet", "u", 15000, 25000, 45000},
	{"MN-001", "Menuiserie", "Portes", "Porte intérieure isoplane", "u", 1200, 1800, 2800},
	{"MN-010", "Menuiserie", "Fenêtres", "Fenêtre aluminium double vitrage", "m²", 1800, 2400, 3500},
	{"PL-001", "Plomberie", "Sanitaires", "WC suspendu complet", "u", 3500, 5500, 9000},
	{"EL-001", "Électricité", "Installation", "Point lumineux", "u", 350, 450, 650},
	{"EL-010", "Électricité", "Tableau", "Tableau électrique complet", "u", 3500, 5500, 9000},
}

// Seed populates the standard MA BPU library on first startup. Company
// tiers are seeded per company through EnsureDefaultTiers.
func Seed(app *pocketbase.PocketBase) error {
	return seedStandardLibrary(app, "MA", "2024.1", "BPU Maroc construction")
}

// EnsureDefaultTiers creates the Économique/Standard/Premium triple for
// a company that has no pricing tier yet. Companies with any tier are
// left untouched.
func EnsureDefaultTiers(app *pocketbase.PocketBase, companyID string) error {
	existing, err := app.FindRecordsByFilter(
		"pricing_tiers",
		"company = {:company}",
		"", 1, 0,
		map[string]any{"company": companyID},
	)
	if err == nil && len(existing) > 0 {
		return nil
	}

	col, err := app.FindCollectionByNameOrId("pricing_tiers")
	if err != nil {
		return fmt.Errorf("pricing_tiers collection: %w", err)
	}

	for _, def := range defaultTiers {
		record := core.NewRecord(col)
		record.Set("company", companyID)
		record.Set("name", def.name)
		record.Set("code", def.code)
		record.Set("coefficient", def.coefficient)
		record.Set("rounding", 2)
		record.Set("is_default", def.isDefault)
		record.Set("sort_order", def.sortOrder)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed tier %s: %w", def.code, err)
		}
	}
	return nil
}

func seedStandardLibrary(app *pocketbase.PocketBase, country, version, name string) error {
	existing, err := app.FindRecordsByFilter(
		"bpu_libraries",
		"country = {:country}",
		"", 1, 0,
		map[string]any{"country": country},
	)
	if err == nil && len(existing) > 0 {
		return nil
	}

	libCol, err := app.FindCollectionByNameOrId("bpu_libraries")
	if err != nil {
		return fmt.Errorf("bpu_libraries collection: %w", err)
	}

	library := core.NewRecord(libCol)
	library.Set("country", country)
	library.Set("version", version)
	library.Set("name", name)
	library.Set("is_active", true)
	if err := app.Save(library); err != nil {
		return fmt.Errorf("seed library %s: %w", country, err)
	}

	artCol, err := app.FindCollectionByNameOrId("bpu_articles")
	if err != nil {
		return fmt.Errorf("bpu_articles collection: %w", err)
	}

	for i, def := range standardArticles {
		record := core.NewRecord(artCol)
		record.Set("library", library.Id)
		record.Set("code", def.code)
		record.Set("category", def.category)
		record.Set("subcategory", def.subcategory)
		record.Set("designation", def.designation)
		record.Set("unit", def.unit)
		record.Set("price_eco", def.eco)
		record.Set("price_standard", def.std)
		record.Set("price_premium", def.prem)
		record.Set("sort_order", i)
		if err := app.Save(record); err != nil {
			return fmt.Errorf("seed article %s: %w", def.code, err)
		}
	}
	return nil
}
