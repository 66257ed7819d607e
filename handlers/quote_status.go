package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

type statusForm struct {
	Status string `json:"status" form:"status"`
}

// HandleQuoteStatusUpdate changes a quote's lifecycle status.
// Route: POST /api/quotes/{quoteId}/status
func HandleQuoteStatusUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}

		var form statusForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		if !isKnownStatus(form.Status) {
			return apiError(e, http.StatusBadRequest, "Unknown quote status")
		}

		quote.Set("status", form.Status)
		if err := app.Save(quote); err != nil {
			log.Printf("quote_status: %v", err)
			return apiError(e, http.StatusInternalServerError, "Failed to update status")
		}

		return apiOK(e, map[string]any{
			"id":     quote.Id,
			"status": quote.GetString("status"),
		})
	}
}

func isKnownStatus(status string) bool {
	for _, s := range services.QuoteStatusOptions {
		if s == status {
			return true
		}
	}
	return false
}
