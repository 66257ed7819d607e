package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

// HandleQuoteExportPDF downloads one quote version as a PDF. Defaults
// to the current version; ?version=N exports an older one.
// Route: GET /api/quotes/{quoteId}/export/pdf
func HandleQuoteExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, errResp := loadExportData(app, e)
		if errResp != nil {
			return errResp
		}

		pdfBytes, err := services.GenerateQuotePDF(data)
		if err != nil {
			log.Printf("quote_export_pdf: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("%s_%s.pdf", data.Reference, data.VersionLabel)
		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, filename))
		_, err = e.Response.Write(pdfBytes)
		return err
	}
}

// HandleQuoteExportExcel downloads one quote version as an Excel file.
// Route: GET /api/quotes/{quoteId}/export/excel
func HandleQuoteExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, errResp := loadExportData(app, e)
		if errResp != nil {
			return errResp
		}

		xlsxBytes, err := services.GenerateQuoteExcel(data)
		if err != nil {
			log.Printf("quote_export_excel: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("%s_%s.xlsx", data.Reference, data.VersionLabel)
		return writeExcelDownload(e, xlsxBytes, filename)
	}
}

// loadExportData resolves the addressed quote version and shapes it for
// rendering. A non-nil second return value is the already-written error
// response.
func loadExportData(app *pocketbase.PocketBase, e *core.RequestEvent) (services.QuoteExportData, error) {
	quote, err := app.FindRecordById("quotes", e.Request.PathValue("quoteId"))
	if err != nil {
		return services.QuoteExportData{}, apiError(e, http.StatusNotFound, "Quote not found")
	}

	version, err := resolveVersion(app, quote, e.Request.URL.Query().Get("version"))
	if err != nil {
		return services.QuoteExportData{}, apiError(e, http.StatusNotFound, "Version not found")
	}

	data, err := services.BuildQuoteExportData(app, quote, version)
	if err != nil {
		log.Printf("quote_export: %v", err)
		return services.QuoteExportData{}, apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	return data, nil
}
