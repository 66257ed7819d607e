package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/collections"
	"quoteengine/services"
)

type generateQuoteForm struct {
	TierID    string `json:"tier_id" form:"tier_id"`
	CreatedBy string `json:"created_by" form:"created_by"`
}

// HandleQuoteGenerate runs the generation pipeline for a project and
// creates a new quote with its version 1.
// Route: POST /api/projects/{projectId}/quotes
func HandleQuoteGenerate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		project, err := app.FindRecordById("projects", projectID)
		if err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}
		company, err := app.FindRecordById("companies", project.GetString("company"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		var form generateQuoteForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		draft, err := runGeneration(app, project, company, form.TierID)
		if err != nil {
			if err == services.ErrNoPricingTier {
				return apiError(e, http.StatusBadRequest, "Company has no pricing tier configured")
			}
			log.Printf("quote_generate: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		reference, err := services.GenerateQuoteReference(app, company.Id, time.Now())
		if err != nil {
			log.Printf("quote_generate: reference: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		quotesCol, err := app.FindCollectionByNameOrId("quotes")
		if err != nil {
			log.Printf("quote_generate: quotes collection: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		quote := core.NewRecord(quotesCol)
		quote.Set("project", projectID)
		quote.Set("reference", reference)
		quote.Set("status", "draft")
		quote.Set("current_version", 1)

		// Quote and version 1 land together or not at all.
		var version *core.Record
		txErr := app.RunInTransaction(func(txApp core.App) error {
			if err := txApp.Save(quote); err != nil {
				return fmt.Errorf("save quote: %w", err)
			}
			v, err := services.ApplyDraft(txApp, quote.Id, 1, draft, form.CreatedBy)
			if err != nil {
				return err
			}
			version = v
			return nil
		})
		if txErr != nil {
			log.Printf("quote_generate: %v", txErr)
			return apiError(e, http.StatusInternalServerError, "Failed to create quote")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"quote_id":  quote.Id,
			"reference": reference,
			"version":   version.GetInt("version_number"),
			"total_ttc": version.GetFloat("total_ttc"),
		})
	}
}

// HandleQuoteRegenerate reruns the pipeline against the project's
// current rooms, answers and catalog, and appends the result as a new
// version of an existing quote. Prior versions are untouched.
// Route: POST /api/quotes/{quoteId}/regenerate
func HandleQuoteRegenerate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}
		project, err := app.FindRecordById("projects", quote.GetString("project"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}
		company, err := app.FindRecordById("companies", project.GetString("company"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		var form generateQuoteForm
		if err := e.BindBody(&form); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}

		draft, err := runGeneration(app, project, company, form.TierID)
		if err != nil {
			if err == services.ErrNoPricingTier {
				return apiError(e, http.StatusBadRequest, "Company has no pricing tier configured")
			}
			log.Printf("quote_regenerate: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		nextNumber := quote.GetInt("current_version") + 1
		var version *core.Record
		txErr := app.RunInTransaction(func(txApp core.App) error {
			v, err := services.ApplyDraft(txApp, quote.Id, nextNumber, draft, form.CreatedBy)
			if err != nil {
				return err
			}
			quote.Set("current_version", nextNumber)
			if err := txApp.Save(quote); err != nil {
				return fmt.Errorf("advance current_version: %w", err)
			}
			version = v
			return nil
		})
		if txErr != nil {
			log.Printf("quote_regenerate: %v", txErr)
			return apiError(e, http.StatusInternalServerError, "Failed to save quote version")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"quote_id":  quote.Id,
			"version":   version.GetInt("version_number"),
			"total_ttc": version.GetFloat("total_ttc"),
		})
	}
}

// runGeneration loads everything one pipeline run needs and produces
// the priced draft.
func runGeneration(app *pocketbase.PocketBase, project, company *core.Record, tierID string) (services.VersionDraft, error) {
	// A company created outside the seed path has no tiers yet; give it
	// the standard triple before selecting one.
	if err := collections.EnsureDefaultTiers(app, company.Id); err != nil {
		return services.VersionDraft{}, err
	}

	tiers, err := services.LoadTiers(app, company.Id)
	if err != nil {
		return services.VersionDraft{}, err
	}
	tier, err := services.SelectTier(tiers, tierID)
	if err != nil {
		return services.VersionDraft{}, err
	}

	catalog, err := services.LoadCatalog(app, company.Id, company.GetString("country"))
	if err != nil {
		return services.VersionDraft{}, err
	}
	rooms, err := services.LoadRoomMetrics(app, project.Id)
	if err != nil {
		return services.VersionDraft{}, err
	}
	answers, err := services.LoadAnswers(app, project.Id)
	if err != nil {
		return services.VersionDraft{}, err
	}

	return services.GenerateVersion(services.GenerateInput{
		ProjectType: project.GetString("project_type"),
		Rooms:       rooms,
		Answers:     answers,
		Catalog:     catalog,
		Tier:        tier,
		VATRate:     services.CompanyVATRate(app, company.Id),
	}), nil
}
