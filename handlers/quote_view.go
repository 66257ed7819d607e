package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

// HandleQuoteList returns all quotes of a project with their current
// version totals.
// Route: GET /api/projects/{projectId}/quotes
func HandleQuoteList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return apiError(e, http.StatusNotFound, "Project not found")
		}

		quotes, err := app.FindRecordsByFilter(
			"quotes",
			"project = {:project}",
			"-created",
			0,
			0,
			map[string]any{"project": projectID},
		)
		if err != nil {
			log.Printf("quote_list: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		items := make([]map[string]any, 0, len(quotes))
		for _, q := range quotes {
			item := map[string]any{
				"id":              q.Id,
				"reference":       q.GetString("reference"),
				"status":          q.GetString("status"),
				"current_version": q.GetInt("current_version"),
				"created":         q.GetDateTime("created"),
			}
			if version, err := services.CurrentVersion(app, q); err == nil {
				item["total_ttc"] = version.GetFloat("total_ttc")
			}
			items = append(items, item)
		}

		return apiOK(e, map[string]any{"quotes": items})
	}
}

// HandleQuoteView returns one quote with the lines and assumptions of
// its current version, or of the version named by ?version=N.
// Route: GET /api/quotes/{quoteId}
func HandleQuoteView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}

		version, err := resolveVersion(app, quote, e.Request.URL.Query().Get("version"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Version not found")
		}

		lines, err := services.VersionLines(app, version.Id)
		if err != nil {
			log.Printf("quote_view: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		assumptions, err := services.VersionAssumptions(app, version.Id)
		if err != nil {
			log.Printf("quote_view: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		lineItems := make([]map[string]any, 0, len(lines))
		for _, l := range lines {
			lineItems = append(lineItems, map[string]any{
				"id":              l.Id,
				"category":        l.GetString("category"),
				"designation":     l.GetString("designation"),
				"unit":            l.GetString("unit"),
				"quantity":        l.GetFloat("quantity"),
				"unit_price":      l.GetFloat("unit_price"),
				"total_price":     l.GetFloat("total_price"),
				"quantity_source": l.GetString("quantity_source"),
				"sort_order":      l.GetInt("sort_order"),
			})
		}

		assumptionItems := make([]map[string]any, 0, len(assumptions))
		for _, a := range assumptions {
			assumptionItems = append(assumptionItems, map[string]any{
				"category":     a.GetString("category"),
				"description":  a.GetString("description"),
				"value":        a.GetString("value"),
				"is_confirmed": a.GetBool("is_confirmed"),
				"source":       a.GetString("source"),
			})
		}

		isCurrent := version.GetInt("version_number") == quote.GetInt("current_version")

		return apiOK(e, map[string]any{
			"id":              quote.Id,
			"reference":       quote.GetString("reference"),
			"status":          quote.GetString("status"),
			"current_version": quote.GetInt("current_version"),
			"version": map[string]any{
				"number":              version.GetInt("version_number"),
				"label":               services.FormatVersionLabel(version.GetInt("version_number")),
				"is_current":          isCurrent,
				"subtotal_ht":         version.GetFloat("subtotal_ht"),
				"discount_percentage": version.GetFloat("discount_percentage"),
				"discount_amount":     version.GetFloat("discount_amount"),
				"vat_rate":            version.GetFloat("vat_rate"),
				"vat_amount":          version.GetFloat("vat_amount"),
				"total_ttc":           version.GetFloat("total_ttc"),
				"created_by":          version.GetString("created_by"),
			},
			"lines":       lineItems,
			"assumptions": assumptionItems,
		})
	}
}

// HandleQuoteVersionList returns the version history of a quote, newest
// first.
// Route: GET /api/quotes/{quoteId}/versions
func HandleQuoteVersionList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Quote not found")
		}

		versions, err := app.FindRecordsByFilter(
			"quote_versions",
			"quote = {:quote}",
			"-version_number",
			0,
			0,
			map[string]any{"quote": quote.Id},
		)
		if err != nil {
			log.Printf("version_list: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		items := make([]map[string]any, 0, len(versions))
		for _, v := range versions {
			items = append(items, map[string]any{
				"number":     v.GetInt("version_number"),
				"label":      services.FormatVersionLabel(v.GetInt("version_number")),
				"is_current": v.GetInt("version_number") == quote.GetInt("current_version"),
				"total_ttc":  v.GetFloat("total_ttc"),
				"created":    v.GetDateTime("created"),
				"created_by": v.GetString("created_by"),
			})
		}

		return apiOK(e, map[string]any{"versions": items})
	}
}

// resolveVersion picks the version a request addresses: the named one
// when ?version=N is present, the current one otherwise.
func resolveVersion(app *pocketbase.PocketBase, quote *core.Record, param string) (*core.Record, error) {
	if param == "" {
		return services.CurrentVersion(app, quote)
	}
	number, err := strconv.Atoi(param)
	if err != nil {
		return nil, err
	}
	versions, err := app.FindRecordsByFilter(
		"quote_versions",
		"quote = {:quote} && version_number = {:number}",
		"",
		1,
		0,
		map[string]any{"quote": quote.Id, "number": number},
	)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, errVersionNotFound
	}
	return versions[0], nil
}
