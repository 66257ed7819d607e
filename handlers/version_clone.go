package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

type cloneForm struct {
	CreatedBy string `json:"created_by" form:"created_by"`
}

// HandleVersionClone copies the quote's current version verbatim into a
// new version and makes it current. Prices and designations carry over
// untouched; nothing is re-resolved against the catalog.
// Route: POST /api/quotes/{quoteId}/versions
func HandleVersionClone(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}

		var form cloneForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		version, err := services.CloneVersion(app, quote, form.CreatedBy)
		if err != nil {
			// The unique (quote, version_number) index makes the
			// loser of a concurrent clone fail its save.
			if errors.Is(err, services.ErrVersionConflict) {
				return apiError(e, http.StatusConflict, "Could not create new version. Please retry.")
			}
			log.Printf("version_clone: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"quote_id": quote.Id,
			"version":  version.GetInt("version_number"),
			"label":    services.FormatVersionLabel(version.GetInt("version_number")),
		})
	}
}
