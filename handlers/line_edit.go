package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quoteengine/services"
)

type lineForm struct {
	Category    string   `json:"category" form:"category"`
	Designation string   `json:"designation" form:"designation"`
	Unit        string   `json:"unit" form:"unit"`
	Quantity    *float64 `json:"quantity" form:"quantity"`
	UnitPrice   *float64 `json:"unit_price" form:"unit_price"`
}

// HandleLineCreate appends a manual line to the quote's current
// version and recomputes its totals.
// Route: POST /api/quotes/{quoteId}/lines
func HandleLineCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}
		version, err := services.CurrentVersion(app, quote)
		if err != nil {
			log.Printf("line_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		var form lineForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.Designation == "" || form.Unit == "" {
			return apiError(e, http.StatusBadRequest, "Designation and unit are required")
		}
		if form.Quantity == nil || *form.Quantity <= 0 {
			return apiError(e, http.StatusBadRequest, "Quantity must be positive")
		}
		unitPrice := 0.0
		if form.UnitPrice != nil {
			if *form.UnitPrice < 0 {
				return apiError(e, http.StatusBadRequest, "Unit price cannot be negative")
			}
			unitPrice = *form.UnitPrice
		}

		lines, err := services.VersionLines(app, version.Id)
		if err != nil {
			log.Printf("line_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		nextOrder := 0
		for _, l := range lines {
			if l.GetInt("sort_order") >= nextOrder {
				nextOrder = l.GetInt("sort_order") + 1
			}
		}

		linesCol, err := app.FindCollectionByNameOrId("quote_lines")
		if err != nil {
			log.Printf("line_create: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		quantity := decimal.NewFromFloat(*form.Quantity)
		price := decimal.NewFromFloat(unitPrice)

		rec := core.NewRecord(linesCol)
		rec.Set("version", version.Id)
		rec.Set("category", form.Category)
		rec.Set("designation", form.Designation)
		rec.Set("unit", form.Unit)
		rec.Set("quantity", quantity.InexactFloat64())
		rec.Set("unit_price", price.InexactFloat64())
		rec.Set("total_price", services.LineTotal(quantity, price).InexactFloat64())
		rec.Set("quantity_source", services.QuantityManual)
		rec.Set("sort_order", nextOrder)
		if err := app.Save(rec); err != nil {
			log.Printf("line_create: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save line")
		}

		if err := services.RecomputeVersionTotals(app, version); err != nil {
			log.Printf("line_create: totals: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to update totals")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"id":          rec.Id,
			"total_price": rec.GetFloat("total_price"),
			"total_ttc":   version.GetFloat("total_ttc"),
		})
	}
}

// HandleLineUpdate edits a line on the quote's current version. Lines
// of older versions are immutable and answer 409.
// Route: PATCH /api/quotes/{quoteId}/lines/{lineId}
func HandleLineUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		version, line, respErr, ok := currentVersionLine(app, e)
		if !ok {
			return respErr
		}

		var form lineForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		if form.Designation != "" {
			line.Set("designation", form.Designation)
		}
		if form.Unit != "" {
			line.Set("unit", form.Unit)
		}
		if form.Category != "" {
			line.Set("category", form.Category)
		}
		if form.Quantity != nil {
			if *form.Quantity <= 0 {
				return apiError(e, http.StatusBadRequest, "Quantity must be positive")
			}
			line.Set("quantity", *form.Quantity)
			line.Set("quantity_source", services.QuantityManual)
		}
		if form.UnitPrice != nil {
			if *form.UnitPrice < 0 {
				return apiError(e, http.StatusBadRequest, "Unit price cannot be negative")
			}
			line.Set("unit_price", *form.UnitPrice)
		}

		quantity := decimal.NewFromFloat(line.GetFloat("quantity"))
		price := decimal.NewFromFloat(line.GetFloat("unit_price"))
		line.Set("total_price", services.LineTotal(quantity, price).InexactFloat64())

		if err := app.Save(line); err != nil {
			log.Printf("line_update: save: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to save line")
		}

		if err := services.RecomputeVersionTotals(app, version); err != nil {
			log.Printf("line_update: totals: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to update totals")
		}

		return apiOK(e, map[string]any{
			"id":          line.Id,
			"total_price": line.GetFloat("total_price"),
			"total_ttc":   version.GetFloat("total_ttc"),
		})
	}
}

// HandleLineDelete removes a line from the quote's current version.
// Route: DELETE /api/quotes/{quoteId}/lines/{lineId}
func HandleLineDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		version, line, respErr, ok := currentVersionLine(app, e)
		if !ok {
			return respErr
		}

		if err := app.Delete(line); err != nil {
			log.Printf("line_delete: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to delete line")
		}

		if err := services.RecomputeVersionTotals(app, version); err != nil {
			log.Printf("line_delete: totals: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to update totals")
		}

		return apiOK(e, map[string]any{
			"deleted":   line.Id,
			"total_ttc": version.GetFloat("total_ttc"),
		})
	}
}

type discountForm struct {
	DiscountPercentage float64 `json:"discount_percentage" form:"discount_percentage"`
}

// HandleVersionDiscount sets the discount on the quote's current
// version and recomputes its totals.
// Route: POST /api/quotes/{quoteId}/discount
func HandleVersionDiscount(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}
		version, err := services.CurrentVersion(app, quote)
		if err != nil {
			log.Printf("version_discount: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		var form discountForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if form.DiscountPercentage < 0 || form.DiscountPercentage > 100 {
			return apiError(e, http.StatusBadRequest, "Discount must be between 0 and 100")
		}

		version.Set("discount_percentage", form.DiscountPercentage)
		if err := services.RecomputeVersionTotals(app, version); err != nil {
			log.Printf("version_discount: totals: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to update totals")
		}

		return apiOK(e, map[string]any{
			"discount_percentage": version.GetFloat("discount_percentage"),
			"discount_amount":     version.GetFloat("discount_amount"),
			"total_ttc":           version.GetFloat("total_ttc"),
		})
	}
}

// currentVersionLine resolves the line addressed by a mutation request
// and enforces the immutability rule: the line must belong to the
// quote's current version. On failure the response has already been
// written and ok is false.
func currentVersionLine(app *pocketbase.PocketBase, e *core.RequestEvent) (version, line *core.Record, respErr error, ok bool) {
	quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
	if err != nil {
		return nil, nil, apiError(e, http.StatusNotFound, "Quote not found"), false
	}

	line, err = app.FindRecordById("quote_lines", e.Request.PathValue("lineId"))
	if err != nil {
		return nil, nil, apiError(e, http.StatusNotFound, "Line not found"), false
	}

	version, err = services.CurrentVersion(app, quote)
	if err != nil {
		log.Printf("line_edit: %v", err)
		return nil, nil, apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again."), false
	}

	if line.GetString("version") != version.Id {
		return nil, nil, apiError(e, http.StatusConflict, "Only the current version can be edited"), false
	}

	return version, line, nil, true
}
