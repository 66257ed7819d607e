package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ActiveLibrary returns the standard BPU library currently in force for
// a country: flagged active, highest version first. Nil when the
// country has no library.
func ActiveLibrary(app *pocketbase.PocketBase, country string) (*core.Record, error) {
	libraries, err := app.FindRecordsByFilter(
		"bpu_libraries",
		"country = {:country} && is_active = true",
		"-version",
		1,
		0,
		map[string]any{"country": country},
	)
	if err != nil {
		return nil, fmt.Errorf("active library for %s: %w", country, err)
	}
	if len(libraries) == 0 {
		return nil, nil
	}
	return libraries[0], nil
}

// LoadCatalog assembles the three collections the price cascade walks
// for one company: its active custom articles by code, the active
// library's articles by code, and its overrides by article id.
func LoadCatalog(app *pocketbase.PocketBase, companyID, country string) (Catalog, error) {
	cat := Catalog{
		Customs:   map[string]CustomArticle{},
		Library:   map[string]LibraryArticle{},
		Overrides: map[string]ArticleOverride{},
	}

	customs, err := app.FindRecordsByFilter(
		"company_bpu_articles",
		"company = {:company} && is_active = true",
		"sort_order",
		0,
		0,
		map[string]any{"company": companyID},
	)
	if err != nil {
		return cat, fmt.Errorf("load custom articles: %w", err)
	}
	for _, rec := range customs {
		cat.Customs[rec.GetString("code")] = CustomArticle{
			ID:            rec.Id,
			Code:          rec.GetString("code"),
			Category:      rec.GetString("category"),
			Designation:   rec.GetString("designation"),
			Unit:          rec.GetString("unit"),
			PriceEco:      priceColumn(rec, "price_eco"),
			PriceStandard: priceColumn(rec, "price_standard"),
			PricePremium:  priceColumn(rec, "price_premium"),
		}
	}

	library, err := ActiveLibrary(app, country)
	if err != nil {
		return cat, err
	}
	if library == nil {
		return cat, nil
	}

	articles, err := app.FindRecordsByFilter(
		"bpu_articles",
		"library = {:library}",
		"sort_order",
		0,
		0,
		map[string]any{"library": library.Id},
	)
	if err != nil {
		return cat, fmt.Errorf("load library articles: %w", err)
	}
	for _, rec := range articles {
		cat.Library[rec.GetString("code")] = LibraryArticle{
			ID:            rec.Id,
			Code:          rec.GetString("code"),
			Category:      rec.GetString("category"),
			Designation:   rec.GetString("designation"),
			Unit:          rec.GetString("unit"),
			PriceEco:      priceColumn(rec, "price_eco"),
			PriceStandard: priceColumn(rec, "price_standard"),
			PricePremium:  priceColumn(rec, "price_premium"),
		}
	}

	overrides, err := app.FindRecordsByFilter(
		"company_bpu_overrides",
		"company = {:company}",
		"",
		0,
		0,
		map[string]any{"company": companyID},
	)
	if err != nil {
		return cat, fmt.Errorf("load overrides: %w", err)
	}
	for _, rec := range overrides {
		articleID := rec.GetString("article")
		cat.Overrides[articleID] = ArticleOverride{
			ArticleID:           articleID,
			DesignationOverride: rec.GetString("designation_override"),
			PriceEco:            priceColumn(rec, "price_eco"),
			PriceStandard:       priceColumn(rec, "price_standard"),
			PricePremium:        priceColumn(rec, "price_premium"),
			Disabled:            rec.GetBool("is_disabled"),
		}
	}

	return cat, nil
}

// LoadTiers returns a company's pricing tiers in catalog order.
func LoadTiers(app *pocketbase.PocketBase, companyID string) ([]Tier, error) {
	records, err := app.FindRecordsByFilter(
		"pricing_tiers",
		"company = {:company}",
		"sort_order",
		0,
		0,
		map[string]any{"company": companyID},
	)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}

	tiers := make([]Tier, 0, len(records))
	for _, rec := range records {
		tiers = append(tiers, Tier{
			ID:          rec.Id,
			Name:        rec.GetString("name"),
			Code:        rec.GetString("code"),
			Coefficient: decimal.NewFromFloat(rec.GetFloat("coefficient")),
			Rounding:    rec.GetInt("rounding"),
			IsDefault:   rec.GetBool("is_default"),
		})
	}
	return tiers, nil
}

// CompanyVATRate reads the company's configured VAT rate from its tax
// profile; 20% when no profile exists or the rate is unset.
func CompanyVATRate(app *pocketbase.PocketBase, companyID string) decimal.Decimal {
	profiles, err := app.FindRecordsByFilter(
		"tax_profiles",
		"company = {:company}",
		"",
		1,
		0,
		map[string]any{"company": companyID},
	)
	if err != nil || len(profiles) == 0 {
		return decimal.NewFromInt(20)
	}
	rate := profiles[0].GetFloat("default_vat_rate")
	if rate == 0 {
		return decimal.NewFromInt(20)
	}
	return decimal.NewFromFloat(rate)
}

// priceColumn maps a record's price field to the cascade's nullable
// representation. PocketBase number fields have no null, so an unset
// tier price is stored as zero and treated as "column not priced".
func priceColumn(rec *core.Record, field string) *decimal.Decimal {
	v := rec.GetFloat(field)
	if v == 0 {
		return nil
	}
	d := decimal.NewFromFloat(v)
	return &d
}
