package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// QuoteExportRow represents a single row in a quote export: either a
// category header or a priced line.
type QuoteExportRow struct {
	Index          string // "1", "2", ... empty for category headers
	Category       string
	Designation    string
	Unit           string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
	CategoryHeader bool
}

// ExportAssumption is one snapshotted assumption rendered under the
// line table.
type ExportAssumption struct {
	Category    string
	Description string
	Value       string
	Confirmed   bool
}

// QuoteExportData holds all data needed to render one quote version to
// PDF or Excel.
type QuoteExportData struct {
	CompanyName    string
	Currency       string
	Reference      string
	VersionLabel   string
	ProjectName    string
	ClientName     string
	CreatedDate    string
	Rows           []QuoteExportRow
	Assumptions    []ExportAssumption
	SubtotalHT     decimal.Decimal
	DiscountAmount decimal.Decimal
	VATRate        decimal.Decimal
	VATAmount      decimal.Decimal
	TotalTTC       decimal.Decimal
}

// BuildQuoteExportData loads a version's lines and assumptions and
// shapes them for rendering: lines grouped under one header row per
// category, in sort order, with the version totals.
func BuildQuoteExportData(app *pocketbase.PocketBase, quote, version *core.Record) (QuoteExportData, error) {
	project, err := app.FindRecordById("projects", quote.GetString("project"))
	if err != nil {
		return QuoteExportData{}, fmt.Errorf("load project: %w", err)
	}
	company, err := app.FindRecordById("companies", project.GetString("company"))
	if err != nil {
		return QuoteExportData{}, fmt.Errorf("load company: %w", err)
	}

	data := QuoteExportData{
		CompanyName:    company.GetString("name"),
		Currency:       company.GetString("currency"),
		Reference:      quote.GetString("reference"),
		VersionLabel:   FormatVersionLabel(version.GetInt("version_number")),
		ProjectName:    project.GetString("name"),
		ClientName:     project.GetString("client_name"),
		CreatedDate:    time.Now().Format("02/01/2006"),
		SubtotalHT:     decimal.NewFromFloat(version.GetFloat("subtotal_ht")),
		DiscountAmount: decimal.NewFromFloat(version.GetFloat("discount_amount")),
		VATRate:        decimal.NewFromFloat(version.GetFloat("vat_rate")),
		VATAmount:      decimal.NewFromFloat(version.GetFloat("vat_amount")),
		TotalTTC:       decimal.NewFromFloat(version.GetFloat("total_ttc")),
	}

	lines, err := VersionLines(app, version.Id)
	if err != nil {
		return QuoteExportData{}, err
	}

	currentCategory := ""
	index := 0
	for _, line := range lines {
		category := line.GetString("category")
		if category != currentCategory {
			currentCategory = category
			data.Rows = append(data.Rows, QuoteExportRow{
				Category:       category,
				Designation:    category,
				CategoryHeader: true,
			})
		}
		index++
		data.Rows = append(data.Rows, QuoteExportRow{
			Index:       fmt.Sprintf("%d", index),
			Category:    category,
			Designation: line.GetString("designation"),
			Unit:        line.GetString("unit"),
			Quantity:    decimal.NewFromFloat(line.GetFloat("quantity")),
			UnitPrice:   decimal.NewFromFloat(line.GetFloat("unit_price")),
			TotalPrice:  decimal.NewFromFloat(line.GetFloat("total_price")),
		})
	}

	assumptions, err := VersionAssumptions(app, version.Id)
	if err != nil {
		return QuoteExportData{}, err
	}
	for _, a := range assumptions {
		data.Assumptions = append(data.Assumptions, ExportAssumption{
			Category:    a.GetString("category"),
			Description: a.GetString("description"),
			Value:       a.GetString("value"),
			Confirmed:   a.GetBool("is_confirmed"),
		})
	}

	return data, nil
}
