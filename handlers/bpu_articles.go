package handlers

import (
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quoteengine/services"
)

type customArticleForm struct {
	Code          string   `json:"code" form:"code"`
	Category      string   `json:"category" form:"category"`
	Designation   string   `json:"designation" form:"designation"`
	Unit          string   `json:"unit" form:"unit"`
	PriceEco      *float64 `json:"price_eco" form:"price_eco"`
	PriceStandard *float64 `json:"price_standard" form:"price_standard"`
	PricePremium  *float64 `json:"price_premium" form:"price_premium"`
}

// HandleArticleSearch searches a company's effective catalog: custom
// articles first, then library articles with overrides applied.
// Disabled library articles are skipped.
// Route: GET /api/companies/{companyId}/bpu?q=...
func HandleArticleSearch(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := app.FindRecordById("companies", requestCompanyID(e))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		query := strings.ToLower(strings.TrimSpace(e.Request.URL.Query().Get("q")))

		cat, err := services.LoadCatalog(app, company.Id, company.GetString("country"))
		if err != nil {
			log.Printf("article_search: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		matches := func(code, designation, category string) bool {
			if query == "" {
				return true
			}
			return strings.Contains(strings.ToLower(code), query) ||
				strings.Contains(strings.ToLower(designation), query) ||
				strings.Contains(strings.ToLower(category), query)
		}

		var items []map[string]any

		for _, code := range sortedCatalogKeys(cat.Customs) {
			art := cat.Customs[code]
			if !matches(art.Code, art.Designation, art.Category) {
				continue
			}
			items = append(items, map[string]any{
				"id":             art.ID,
				"code":           art.Code,
				"category":       art.Category,
				"designation":    art.Designation,
				"unit":           art.Unit,
				"price_eco":      floatOrNil(art.PriceEco),
				"price_standard": floatOrNil(art.PriceStandard),
				"price_premium":  floatOrNil(art.PricePremium),
				"source":         "custom",
			})
		}

		for _, code := range sortedCatalogKeys(cat.Library) {
			art := cat.Library[code]
			designation := art.Designation
			eco, std, prem := art.PriceEco, art.PriceStandard, art.PricePremium
			source := "library"

			if ov, hasOverride := cat.Overrides[art.ID]; hasOverride {
				if ov.Disabled {
					continue
				}
				source = "override"
				if ov.DesignationOverride != "" {
					designation = ov.DesignationOverride
				}
				if ov.PriceEco != nil {
					eco = ov.PriceEco
				}
				if ov.PriceStandard != nil {
					std = ov.PriceStandard
				}
				if ov.PricePremium != nil {
					prem = ov.PricePremium
				}
			}

			if !matches(art.Code, designation, art.Category) {
				continue
			}
			items = append(items, map[string]any{
				"id":             art.ID,
				"code":           art.Code,
				"category":       art.Category,
				"designation":    designation,
				"unit":           art.Unit,
				"price_eco":      floatOrNil(eco),
				"price_standard": floatOrNil(std),
				"price_premium":  floatOrNil(prem),
				"source":         source,
			})
		}

		return apiOK(e, map[string]any{"articles": items})
	}
}

// HandleCustomArticleCreate adds an article to a company's own catalog.
// Custom articles shadow library articles with the same code.
// Route: POST /api/companies/{companyId}/bpu/articles
func HandleCustomArticleCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := app.FindRecordById("companies", requestCompanyID(e))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		var form customArticleForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.Code == "" || form.Designation == "" || form.Unit == "" {
			return apiError(e, http.StatusBadRequest, "Code, designation and unit are required")
		}

		col, err := app.FindCollectionByNameOrId("company_bpu_articles")
		if err != nil {
			log.Printf("custom_article_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		rec := core.NewRecord(col)
		rec.Set("company", company.Id)
		rec.Set("code", form.Code)
		rec.Set("category", form.Category)
		rec.Set("designation", form.Designation)
		rec.Set("unit", form.Unit)
		rec.Set("is_active", true)
		setPriceField(rec, "price_eco", form.PriceEco)
		setPriceField(rec, "price_standard", form.PriceStandard)
		setPriceField(rec, "price_premium", form.PricePremium)

		if err := app.Save(rec); err != nil {
			// The unique (company, code) index rejects duplicates.
			log.Printf("custom_article_create: save: %v", err)
			return apiError(e, http.StatusConflict, "An article with this code already exists")
		}

		return e.JSON(http.StatusCreated, map[string]any{"id": rec.Id, "code": rec.GetString("code")})
	}
}

// HandleCustomArticleUpdate edits a company's custom article.
// Route: PATCH /api/bpu/articles/{articleId}
func HandleCustomArticleUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("company_bpu_articles", e.Request.PathValue("articleId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Article not found")
		}

		var form customArticleForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		if form.Category != "" {
			rec.Set("category", form.Category)
		}
		if form.Designation != "" {
			rec.Set("designation", form.Designation)
		}
		if form.Unit != "" {
			rec.Set("unit", form.Unit)
		}
		setPriceField(rec, "price_eco", form.PriceEco)
		setPriceField(rec, "price_standard", form.PriceStandard)
		setPriceField(rec, "price_premium", form.PricePremium)

		if err := app.Save(rec); err != nil {
			log.Printf("custom_article_update: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save article")
		}

		return apiOK(e, map[string]any{"id": rec.Id})
	}
}

// HandleCustomArticleDelete deactivates a custom article. The record is
// kept so existing quote lines retain their provenance.
// Route: DELETE /api/bpu/articles/{articleId}
func HandleCustomArticleDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("company_bpu_articles", e.Request.PathValue("articleId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Article not found")
		}

		rec.Set("is_active", false)
		if err := app.Save(rec); err != nil {
			log.Printf("custom_article_delete: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to deactivate article")
		}

		return apiOK(e, map[string]any{"id": rec.Id, "is_active": false})
	}
}

func setPriceField(rec *core.Record, field string, value *float64) {
	if value == nil {
		return
	}
	if *value < 0 {
		rec.Set(field, 0)
		return
	}
	rec.Set(field, *value)
}

func floatOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}

// sortedCatalogKeys returns a catalog map's codes in ascending order so
// search results are stable.
func sortedCatalogKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
