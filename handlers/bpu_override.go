package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type overrideForm struct {
	ArticleID           string   `json:"article_id" form:"article_id"`
	DesignationOverride string   `json:"designation_override" form:"designation_override"`
	PriceEco            *float64 `json:"price_eco" form:"price_eco"`
	PriceStandard       *float64 `json:"price_standard" form:"price_standard"`
	PricePremium        *float64 `json:"price_premium" form:"price_premium"`
	IsDisabled          *bool    `json:"is_disabled" form:"is_disabled"`
}

// HandleOverrideSet creates or updates a company's override of a
// library article: custom prices, a renamed designation, or a disable
// flag. One override record per (company, article).
// Route: POST /api/companies/{companyId}/bpu/overrides
func HandleOverrideSet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := app.FindRecordById("companies", requestCompanyID(e))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		var form overrideForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.ArticleID == "" {
			return apiError(e, http.StatusBadRequest, "article_id is required")
		}
		if _, err := app.FindRecordById("bpu_articles", form.ArticleID); err != nil {
			return apiError(e, http.StatusNotFound, "Library article not found")
		}

		rec, err := findOverride(app, company.Id, form.ArticleID)
		if err != nil {
			log.Printf("override_set: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		created := false
		if rec == nil {
			col, err := app.FindCollectionByNameOrId("company_bpu_overrides")
			if err != nil {
				log.Printf("override_set: %v", err)
				return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			rec = core.NewRecord(col)
			rec.Set("company", company.Id)
			rec.Set("article", form.ArticleID)
			created = true
		}

		if form.DesignationOverride != "" {
			rec.Set("designation_override", form.DesignationOverride)
		}
		setPriceField(rec, "price_eco", form.PriceEco)
		setPriceField(rec, "price_standard", form.PriceStandard)
		setPriceField(rec, "price_premium", form.PricePremium)
		if form.IsDisabled != nil {
			rec.Set("is_disabled", *form.IsDisabled)
		}

		if err := app.Save(rec); err != nil {
			log.Printf("override_set: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save override")
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		return e.JSON(status, map[string]any{
			"id":          rec.Id,
			"article":     rec.GetString("article"),
			"is_disabled": rec.GetBool("is_disabled"),
		})
	}
}

// HandleOverrideDelete removes an override, restoring the library
// article's own designation and prices.
// Route: DELETE /api/companies/{companyId}/bpu/overrides/{articleId}
func HandleOverrideDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := app.FindRecordById("companies", requestCompanyID(e))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		rec, err := findOverride(app, company.Id, e.Request.PathValue("articleId"))
		if err != nil {
			log.Printf("override_delete: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		if rec == nil {
			return apiError(e, http.StatusNotFound, "Override not found")
		}

		if err := app.Delete(rec); err != nil {
			log.Printf("override_delete: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to delete override")
		}

		return apiOK(e, map[string]any{"deleted": rec.Id})
	}
}

// findOverride returns a company's override record for a library
// article, nil when none exists.
func findOverride(app *pocketbase.PocketBase, companyID, articleID string) (*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"company_bpu_overrides",
		"company = {:company} && article = {:article}",
		"",
		1,
		0,
		map[string]any{"company": companyID, "article": articleID},
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
