package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"regexp"
	"sort"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const importBatchSize = 100

var articleCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]*$`)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows  int                 `json:"total_rows"`
	ValidRows  int                 `json:"valid_rows"`
	ErrorRows  int                 `json:"error_rows"`
	Errors     []ValidationError   `json:"errors"`
	ParsedRows []map[string]string `json:"-"`
	FileName   string              `json:"-"`
}

// ImportResult holds the outcome of a batch import operation.
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Imported   int              `json:"imported"`
	Updated    int              `json:"updated"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
	RolledBack bool             `json:"rolled_back"`
}

// ImportRowError represents a failure to insert a specific row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// articleField describes one column of the custom article template.
type articleField struct {
	Key      string
	Label    string
	Required bool
}

// ArticleTemplateFields returns the ordered columns of the custom article
// import template.
func ArticleTemplateFields() []articleField {
	return []articleField{
		{Key: "code", Label: "Code", Required: true},
		{Key: "category", Label: "Catégorie", Required: false},
		{Key: "designation", Label: "Désignation", Required: true},
		{Key: "unit", Label: "Unité", Required: true},
		{Key: "price_eco", Label: "Prix Éco", Required: false},
		{Key: "price_standard", Label: "Prix Standard", Required: false},
		{Key: "price_premium", Label: "Prix Premium", Required: false},
	}
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file multipart.File) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to template field keys.
// Returns an ordered list of field keys (one per column, "" when the
// column is unrecognized) and the list of unrecognized headers.
func mapHeadersToFields(headers []string, fields []articleField) ([]string, []string) {
	labelToKey := make(map[string]string, len(fields)*2)
	for _, f := range fields {
		labelToKey[strings.ToLower(strings.TrimSpace(f.Label))] = f.Key
		// Accept the raw key too so re-imports of our own exports work.
		labelToKey[f.Key] = f.Key
	}

	mapped := make([]string, len(headers))
	var unrecognized []string

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSuffix(norm, " *")
		norm = strings.TrimSpace(norm)

		if key, ok := labelToKey[norm]; ok {
			mapped[i] = key
		} else {
			mapped[i] = ""
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// ValidateArticleFile parses and validates an uploaded custom article file
// (.csv or .xlsx). Validation covers required columns, code format,
// duplicate codes within the file, known units and parseable prices.
func ValidateArticleFile(
	file multipart.File,
	fileName string,
) (*ValidationResult, error) {
	fields := ArticleTemplateFields()

	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	if strings.HasSuffix(lowerName, ".csv") {
		headers, dataRows, err = parseCSV(file)
	} else if strings.HasSuffix(lowerName, ".xlsx") {
		headers, dataRows, err = parseExcel(file)
	} else {
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	columnKeys, _ := mapHeadersToFields(headers, fields)

	keyToLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		keyToLabel[f.Key] = f.Label
	}

	result := &ValidationResult{
		TotalRows:  len(dataRows),
		FileName:   fileName,
		ParsedRows: make([]map[string]string, 0, len(dataRows)),
	}

	seenCodes := make(map[string]int, len(dataRows))

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		rowData := make(map[string]string)
		var rowErrors []ValidationError

		for colIdx, key := range columnKeys {
			if key == "" {
				continue
			}
			value := ""
			if colIdx < len(row) {
				value = strings.TrimSpace(row[colIdx])
			}
			rowData[key] = value
		}

		for _, f := range fields {
			if f.Required && rowData[f.Key] == "" {
				rowErrors = append(rowErrors, ValidationError{
					Row:     rowNum,
					Field:   f.Label,
					Message: fmt.Sprintf("%s is required", f.Label),
				})
			}
		}

		rowErrors = append(rowErrors, validateArticleFormats(rowNum, rowData)...)

		if code := rowData["code"]; code != "" {
			if firstRow, dup := seenCodes[code]; dup {
				rowErrors = append(rowErrors, ValidationError{
					Row:     rowNum,
					Field:   "Code",
					Message: fmt.Sprintf("Duplicate code %q (first used on row %d)", code, firstRow),
				})
			} else {
				seenCodes[code] = rowNum
			}
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
		}
		result.ParsedRows = append(result.ParsedRows, rowData)
	}

	errorRowSet := make(map[int]bool)
	for _, e := range result.Errors {
		errorRowSet[e.Row] = true
	}
	result.ErrorRows = len(errorRowSet)
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

// validateArticleFormats checks format-specific rules for non-empty values.
func validateArticleFormats(rowNum int, data map[string]string) []ValidationError {
	var errs []ValidationError

	if code := data["code"]; code != "" && !articleCodePattern.MatchString(code) {
		errs = append(errs, ValidationError{
			Row:     rowNum,
			Field:   "Code",
			Message: "Code must use uppercase letters, digits, dots or dashes (e.g., GO-FOND)",
		})
	}

	if unit := data["unit"]; unit != "" && !isKnownUnit(unit) {
		errs = append(errs, ValidationError{
			Row:     rowNum,
			Field:   "Unité",
			Message: fmt.Sprintf("Unknown unit %q (expected one of: %s)", unit, strings.Join(UnitOptions, ", ")),
		})
	}

	for _, priceKey := range []string{"price_eco", "price_standard", "price_premium"} {
		v := data[priceKey]
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			errs = append(errs, ValidationError{
				Row:     rowNum,
				Field:   priceKey,
				Message: fmt.Sprintf("%q is not a valid price", v),
			})
			continue
		}
		if d.IsNegative() {
			errs = append(errs, ValidationError{
				Row:     rowNum,
				Field:   priceKey,
				Message: "Price cannot be negative",
			})
		}
	}

	return errs
}

func isKnownUnit(unit string) bool {
	for _, u := range UnitOptions {
		if u == unit {
			return true
		}
	}
	return false
}

// CommitArticleImport re-validates and batch-upserts parsed custom article
// rows for a company. Rows whose code matches an existing custom article
// update it in place; new codes create records. Rows are processed in
// chunks of importBatchSize; a failed chunk is rolled back whole.
func CommitArticleImport(
	app *pocketbase.PocketBase,
	companyID string,
	parsedRows []map[string]string,
) (*ImportResult, error) {
	var revalidationErrors []ValidationError
	for rowIdx, rowData := range parsedRows {
		rowNum := rowIdx + 2
		for _, f := range ArticleTemplateFields() {
			if f.Required && rowData[f.Key] == "" {
				revalidationErrors = append(revalidationErrors, ValidationError{
					Row:     rowNum,
					Field:   f.Label,
					Message: fmt.Sprintf("%s is required", f.Label),
				})
			}
		}
		revalidationErrors = append(revalidationErrors, validateArticleFormats(rowNum, rowData)...)
	}
	if len(revalidationErrors) > 0 {
		errorRowSet := make(map[int]bool)
		for _, e := range revalidationErrors {
			errorRowSet[e.Row] = true
		}
		return &ImportResult{
			TotalRows:  len(parsedRows),
			Failed:     len(errorRowSet),
			Errors:     toImportRowErrors(revalidationErrors),
			RolledBack: true,
		}, nil
	}

	col, err := app.FindCollectionByNameOrId("company_bpu_articles")
	if err != nil {
		return nil, fmt.Errorf("company_bpu_articles collection not found: %w", err)
	}

	existing, err := buildCustomArticleLookup(app, companyID)
	if err != nil {
		return nil, fmt.Errorf("build article lookup: %w", err)
	}

	result := &ImportResult{TotalRows: len(parsedRows)}

	for chunkStart := 0; chunkStart < len(parsedRows); chunkStart += importBatchSize {
		chunkEnd := chunkStart + importBatchSize
		if chunkEnd > len(parsedRows) {
			chunkEnd = len(parsedRows)
		}
		chunk := parsedRows[chunkStart:chunkEnd]

		imported, updated, chunkErrors := upsertChunk(app, col, companyID, chunk, chunkStart, existing)
		if len(chunkErrors) > 0 {
			result.Errors = append(result.Errors, chunkErrors...)
			result.Failed += len(chunk) // entire chunk failed
			result.RolledBack = true
		} else {
			result.Imported += imported
			result.Updated += updated
		}
	}

	return result, nil
}

// upsertChunk saves a batch of rows within a RunInTransaction block.
// If any row fails, the entire chunk is rolled back and errors are returned.
func upsertChunk(
	app *pocketbase.PocketBase,
	col *core.Collection,
	companyID string,
	rows []map[string]string,
	startOffset int,
	existing map[string]string,
) (imported, updated int, chunkErrors []ImportRowError) {
	err := app.RunInTransaction(func(txApp core.App) error {
		for i, rowData := range rows {
			rowNum := startOffset + i + 2 // 1-indexed + header row
			code := rowData["code"]

			var record *core.Record
			if recordID, ok := existing[code]; ok {
				found, err := txApp.FindRecordById("company_bpu_articles", recordID)
				if err != nil {
					chunkErrors = append(chunkErrors, ImportRowError{
						Row:     rowNum,
						Field:   "Code",
						Message: fmt.Sprintf("Failed to load existing article %q", code),
					})
					return fmt.Errorf("lookup failed at row %d: %w", rowNum, err)
				}
				record = found
				updated++
			} else {
				record = core.NewRecord(col)
				record.Set("company", companyID)
				record.Set("code", code)
				record.Set("is_active", true)
				imported++
			}

			record.Set("category", rowData["category"])
			record.Set("designation", rowData["designation"])
			record.Set("unit", rowData["unit"])
			for _, priceKey := range []string{"price_eco", "price_standard", "price_premium"} {
				record.Set(priceKey, parseImportPrice(rowData[priceKey]))
			}

			if err := txApp.Save(record); err != nil {
				chunkErrors = append(chunkErrors, ImportRowError{
					Row:     rowNum,
					Field:   "",
					Message: fmt.Sprintf("Failed to save: %s", err.Error()),
				})
				return fmt.Errorf("save failed at row %d: %w", rowNum, err)
			}
		}
		return nil
	})

	if err != nil {
		log.Printf("article_import: chunk upsert rolled back: %v", err)
		if len(chunkErrors) == 0 {
			chunkErrors = append(chunkErrors, ImportRowError{
				Row:     startOffset + 2,
				Field:   "",
				Message: fmt.Sprintf("Transaction failed: %s", err.Error()),
			})
		}
		return 0, 0, chunkErrors
	}

	return imported, updated, nil
}

// parseImportPrice converts a template price cell to the stored number.
// Empty and unparseable cells store zero, which the cascade reads as an
// unpriced column.
func parseImportPrice(v string) float64 {
	if v == "" {
		return 0
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return 0
	}
	return d.Round(moneyPlaces).InexactFloat64()
}

// buildCustomArticleLookup returns a map of code -> record id over all of
// a company's custom articles, active or not.
func buildCustomArticleLookup(app *pocketbase.PocketBase, companyID string) (map[string]string, error) {
	records, err := app.FindRecordsByFilter(
		"company_bpu_articles",
		"company = {:company}",
		"",
		0,
		0,
		map[string]any{"company": companyID},
	)
	if err != nil {
		return make(map[string]string), nil
	}

	lookup := make(map[string]string, len(records))
	for _, r := range records {
		if code := r.GetString("code"); code != "" {
			lookup[code] = r.Id
		}
	}
	return lookup, nil
}

// toImportRowErrors converts ValidationErrors to ImportRowErrors.
func toImportRowErrors(ve []ValidationError) []ImportRowError {
	result := make([]ImportRowError, len(ve))
	for i, e := range ve {
		result[i] = ImportRowError{
			Row:     e.Row,
			Field:   e.Field,
			Message: e.Message,
		}
	}
	return result
}

// GenerateArticleTemplate creates the downloadable .xlsx import template
// for custom articles, with one example row.
func GenerateArticleTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Articles"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	fields := ArticleTemplateFields()
	for i, field := range fields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("template header cell: %w", err)
		}
		label := field.Label
		if field.Required {
			label += " *"
		}
		f.SetCellValue(sheet, cell, label)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(fields), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)
	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "C", 34)
	f.SetColWidth(sheet, "D", "G", 14)

	example := []any{"GO-CUSTOM1", "Gros œuvre", "Dallage industriel fibré", "m²", 95, 110, 140}
	for i, v := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, fmt.Errorf("template example cell: %w", err)
		}
		f.SetCellValue(sheet, cell, v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateCatalogExcel exports the company's effective BPU catalog: the
// active library with override annotations, followed by the company's
// custom articles.
func GenerateCatalogExcel(app *pocketbase.PocketBase, companyID, country, companyName string) ([]byte, error) {
	cat, err := LoadCatalog(app, companyID, country)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Catalogue BPU"
	f.SetSheetName(f.GetSheetName(0), sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	sectionStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E3E8EF"}, Pattern: 1},
		Border: thinBorders(),
	})
	lineStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 48)
	f.SetColWidth(sheet, "D", "D", 8)
	f.SetColWidth(sheet, "E", "G", 14)
	f.SetColWidth(sheet, "H", "H", 24)

	f.MergeCell(sheet, "A1", "H1")
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Catalogue BPU — %s", sanitizeExcelCell(companyName)))
	f.SetCellStyle(sheet, "A1", "H1", titleStyle)

	headers := []string{"Code", "Catégorie", "Désignation", "Unité", "Prix Éco", "Prix Standard", "Prix Premium", "Statut"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A3", "H3", headerStyle)

	row := 4

	writeArticle := func(code, category, designation, unit string, eco, std, prem *decimal.Decimal, status string) {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "A"+rowStr, sanitizeExcelCell(code))
		f.SetCellValue(sheet, "B"+rowStr, sanitizeExcelCell(category))
		f.SetCellValue(sheet, "C"+rowStr, sanitizeExcelCell(designation))
		f.SetCellValue(sheet, "D"+rowStr, sanitizeExcelCell(unit))
		for i, price := range []*decimal.Decimal{eco, std, prem} {
			cell, _ := excelize.CoordinatesToCellName(5+i, row)
			if price != nil {
				f.SetCellValue(sheet, cell, price.InexactFloat64())
			}
		}
		f.SetCellValue(sheet, "H"+rowStr, status)
		f.SetCellStyle(sheet, "A"+rowStr, "H"+rowStr, lineStyle)
		row++
	}

	if len(cat.Library) > 0 {
		rowStr := fmt.Sprintf("%d", row)
		f.MergeCell(sheet, "A"+rowStr, "H"+rowStr)
		f.SetCellValue(sheet, "A"+rowStr, "Bibliothèque standard")
		f.SetCellStyle(sheet, "A"+rowStr, "H"+rowStr, sectionStyle)
		row++

		for _, code := range sortedKeys(cat.Library) {
			art := cat.Library[code]
			status := ""
			designation := art.Designation
			eco, std, prem := art.PriceEco, art.PriceStandard, art.PricePremium

			if ov, ok := cat.Overrides[art.ID]; ok {
				if ov.Disabled {
					status = "Désactivé"
				} else {
					status = "Prix personnalisé"
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
			}

			writeArticle(art.Code, art.Category, designation, art.Unit, eco, std, prem, status)
		}
	}

	if len(cat.Customs) > 0 {
		rowStr := fmt.Sprintf("%d", row)
		f.MergeCell(sheet, "A"+rowStr, "H"+rowStr)
		f.SetCellValue(sheet, "A"+rowStr, "Articles personnalisés")
		f.SetCellStyle(sheet, "A"+rowStr, "H"+rowStr, sectionStyle)
		row++

		for _, code := range sortedKeys(cat.Customs) {
			art := cat.Customs[code]
			writeArticle(art.Code, art.Category, art.Designation, art.Unit,
				art.PriceEco, art.PriceStandard, art.PricePremium, "Personnalisé")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write catalog export: %w", err)
	}
	return buf.Bytes(), nil
}

// sortedKeys returns a map's string keys in ascending order so exports
// are stable across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
