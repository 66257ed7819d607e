package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoteengine/services"
)

// HandleArticleImportValidate receives a custom article file upload,
// validates it, and returns the validation summary with the parsed rows
// serialized for the commit call.
// Route: POST /api/companies/{companyId}/bpu/import
func HandleArticleImportValidate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if _, err := app.FindRecordById("companies", requestCompanyID(e)); err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return apiError(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return apiError(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ValidateArticleFile(file, header.Filename)
		if err != nil {
			log.Printf("article_validate: %v", err)
			return apiError(e, http.StatusBadRequest, err.Error())
		}

		var parsedRowsJSON string
		if result.ErrorRows == 0 {
			b, err := json.Marshal(result.ParsedRows)
			if err != nil {
				log.Printf("article_validate: marshal parsed rows: %v", err)
			} else {
				parsedRowsJSON = string(b)
			}
		}

		return apiOK(e, map[string]any{
			"total_rows":  result.TotalRows,
			"valid_rows":  result.ValidRows,
			"error_rows":  result.ErrorRows,
			"errors":      result.Errors,
			"parsed_rows": parsedRowsJSON,
		})
	}
}

// HandleArticleImportCommit re-validates and batch-upserts the uploaded
// custom articles.
// Route: POST /api/companies/{companyId}/bpu/import/commit
func HandleArticleImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		companyID := requestCompanyID(e)
		if _, err := app.FindRecordById("companies", companyID); err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		var body struct {
			ParsedRows []map[string]string `json:"parsed_rows"`
		}
		if err := e.BindBody(&body); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid request body")
		}
		if len(body.ParsedRows) == 0 {
			return apiError(e, http.StatusBadRequest, "File data missing. Please re-upload and try again.")
		}

		result, err := services.CommitArticleImport(app, companyID, body.ParsedRows)
		if err != nil {
			log.Printf("article_import_commit: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		return apiOK(e, result)
	}
}

// HandleArticleTemplate downloads the custom article import template.
// Route: GET /api/bpu/import/template
func HandleArticleTemplate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateArticleTemplate()
		if err != nil {
			log.Printf("article_template: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return writeExcelDownload(e, xlsxBytes, "Articles_Template.xlsx")
	}
}

// HandleArticleErrorReport downloads the validation errors as an Excel
// file.
// Route: POST /api/bpu/import/errors
func HandleArticleErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errors []services.ValidationError
		if err := json.NewDecoder(e.Request.Body).Decode(&errors); err != nil {
			return apiError(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errors)
		if err != nil {
			log.Printf("error_report: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Articles_Errors_%s.xlsx", time.Now().Format("2006-01-02"))
		return writeExcelDownload(e, xlsxBytes, filename)
	}
}

// HandleCatalogExport downloads a company's effective BPU catalog.
// Route: GET /api/companies/{companyId}/bpu/export
func HandleCatalogExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		company, err := app.FindRecordById("companies", requestCompanyID(e))
		if err != nil {
			return apiError(e, http.StatusNotFound, "Company not found")
		}

		xlsxBytes, err := services.GenerateCatalogExcel(app, company.Id,
			company.GetString("country"), company.GetString("name"))
		if err != nil {
			log.Printf("catalog_export: %v", err)
			return apiError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Catalogue_BPU_%s.xlsx", time.Now().Format("2006-01-02"))
		return writeExcelDownload(e, xlsxBytes, filename)
	}
}

// writeExcelDownload sends xlsx bytes as a file attachment.
func writeExcelDownload(e *core.RequestEvent, data []byte, filename string) error {
	e.Response.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	e.Response.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	_, err := e.Response.Write(data)
	return err
}
