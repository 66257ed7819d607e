package main

import (
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/collections"
	"quoteengine/handlers"
	"quoteengine/services"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateQuoteCurrentVersions(app); err != nil {
			log.Printf("Warning: current_version migration failed: %v", err)
		}
		return se.Next()
	})

	// Projects created without a reference get the next PRJ number.
	app.OnRecordCreate("projects").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.GetString("reference") == "" {
			ref, err := services.GenerateProjectReference(e.App, e.Record.GetString("company"), time.Now())
			if err != nil {
				return err
			}
			e.Record.Set("reference", ref)
		}
		return e.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Apply active company middleware globally
		se.Router.BindFunc(handlers.ActiveCompanyMiddleware(app))

		// ── Plans & calibration ──────────────────────────────────
		se.Router.POST("/api/projects/{projectId}/plans", handlers.HandlePlanCreate(app))
		se.Router.POST("/api/plans/{planId}/calibrate", handlers.HandlePlanCalibrate(app))

		// ── Rooms ────────────────────────────────────────────────
		se.Router.GET("/api/projects/{projectId}/rooms", handlers.HandleRoomList(app))
		se.Router.POST("/api/projects/{projectId}/rooms", handlers.HandleRoomCreate(app))
		se.Router.PATCH("/api/rooms/{roomId}", handlers.HandleRoomUpdate(app))
		se.Router.DELETE("/api/rooms/{roomId}", handlers.HandleRoomDelete(app))

		// ── Quote generation & lifecycle ─────────────────────────
		se.Router.GET("/api/projects/{projectId}/quotes", handlers.HandleQuoteList(app))
		se.Router.POST("/api/projects/{projectId}/quotes", handlers.HandleQuoteGenerate(app))
		se.Router.POST("/api/quotes/{quoteId}/regenerate", handlers.HandleQuoteRegenerate(app))
		se.Router.POST("/api/quotes/{quoteId}/status", handlers.HandleQuoteStatusUpdate(app))

		// ── Versions ─────────────────────────────────────────────
		se.Router.GET("/api/quotes/{quoteId}/versions", handlers.HandleQuoteVersionList(app))
		se.Router.POST("/api/quotes/{quoteId}/versions", handlers.HandleVersionClone(app))
		se.Router.POST("/api/quotes/{quoteId}/discount", handlers.HandleVersionDiscount(app))

		// ── Lines (current version only) ─────────────────────────
		se.Router.POST("/api/quotes/{quoteId}/lines", handlers.HandleLineCreate(app))
		se.Router.PATCH("/api/quotes/{quoteId}/lines/{lineId}", handlers.HandleLineUpdate(app))
		se.Router.DELETE("/api/quotes/{quoteId}/lines/{lineId}", handlers.HandleLineDelete(app))

		// ── Quote export ─────────────────────────────────────────
		se.Router.GET("/api/quotes/{quoteId}/export/pdf", handlers.HandleQuoteExportPDF(app))
		se.Router.GET("/api/quotes/{quoteId}/export/excel", handlers.HandleQuoteExportExcel(app))

		// Quote view (after specific /quotes/{quoteId}/* routes)
		se.Router.GET("/api/quotes/{quoteId}", handlers.HandleQuoteView(app))

		// ── BPU catalog ──────────────────────────────────────────
		se.Router.GET("/api/companies/{companyId}/bpu", handlers.HandleArticleSearch(app))
		se.Router.GET("/api/companies/{companyId}/bpu/export", handlers.HandleCatalogExport(app))
		se.Router.POST("/api/companies/{companyId}/bpu/articles", handlers.HandleCustomArticleCreate(app))
		se.Router.PATCH("/api/bpu/articles/{articleId}", handlers.HandleCustomArticleUpdate(app))
		se.Router.DELETE("/api/bpu/articles/{articleId}", handlers.HandleCustomArticleDelete(app))
		se.Router.POST("/api/companies/{companyId}/bpu/overrides", handlers.HandleOverrideSet(app))
		se.Router.DELETE("/api/companies/{companyId}/bpu/overrides/{articleId}", handlers.HandleOverrideDelete(app))

		// ── BPU import ───────────────────────────────────────────
		se.Router.GET("/api/bpu/import/template", handlers.HandleArticleTemplate(app))
		se.Router.POST("/api/companies/{companyId}/bpu/import", handlers.HandleArticleImportValidate(app))
		se.Router.POST("/api/companies/{companyId}/bpu/import/commit", handlers.HandleArticleImportCommit(app))
		se.Router.POST("/api/bpu/import/errors", handlers.HandleArticleErrorReport(app))

		// Cookie-scoped BPU aliases: same handlers, company taken from
		// the active_company cookie instead of the path.
		se.Router.GET("/api/bpu", handlers.HandleArticleSearch(app))
		se.Router.GET("/api/bpu/export", handlers.HandleCatalogExport(app))
		se.Router.POST("/api/bpu/articles", handlers.HandleCustomArticleCreate(app))
		se.Router.POST("/api/bpu/overrides", handlers.HandleOverrideSet(app))
		se.Router.POST("/api/bpu/import", handlers.HandleArticleImportValidate(app))
		se.Router.POST("/api/bpu/import/commit", handlers.HandleArticleImportCommit(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
