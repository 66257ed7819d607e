package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateQuoteExcel creates the DQE (detailed quantity estimate) Excel
// file for one quote version and returns the file contents as bytes.
func GenerateQuoteExcel(data QuoteExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Devis"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Column references (A through F).
	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1] // "F"

	widths := []float64{6, 52, 10, 12, 16, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	categoryStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E3E8EF"},
			Pattern: 1,
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create category style: %w", err)
	}

	lineStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create line style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.CompanyName))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge ref: %w", err)
	}
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Devis %s — %s — %s", data.Reference, data.VersionLabel, sanitizeExcelCell(data.ProjectName)))
	f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A3", "Date : "+data.CreatedDate)
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	headers := []string{"#", "Désignation", "Unité", "Qté", "PU HT", "Total HT"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s5", columns[i])
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// ── Data Rows (starting row 6) ──────────────────────────────────────

	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		if r.CategoryHeader {
			if err := f.MergeCell(sheetName, "A"+rowStr, lastCol+rowStr); err != nil {
				return nil, fmt.Errorf("merge category row %d: %w", row, err)
			}
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Designation))
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, categoryStyle)
			row++
			continue
		}

		f.SetCellValue(sheetName, "A"+rowStr, r.Index)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Designation))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "D"+rowStr, r.Quantity.InexactFloat64())
		f.SetCellValue(sheetName, "E"+rowStr, FormatMoney(r.UnitPrice, data.Currency))
		f.SetCellValue(sheetName, "F"+rowStr, FormatMoney(r.TotalPrice, data.Currency))
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, lineStyle)

		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++

	summaryRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "E"+summaryRow, "Sous-total HT :")
	f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "F"+summaryRow, FormatMoney(data.SubtotalHT, data.Currency))
	f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryValueStyle)
	row++

	if !data.DiscountAmount.IsZero() {
		summaryRow = fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "E"+summaryRow, "Remise :")
		f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryLabelStyle)
		f.SetCellValue(sheetName, "F"+summaryRow, "-"+FormatMoney(data.DiscountAmount, data.Currency))
		f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryValueStyle)
		row++
	}

	summaryRow = fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "E"+summaryRow, fmt.Sprintf("TVA (%s%%) :", data.VATRate.StringFixed(0)))
	f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "F"+summaryRow, FormatMoney(data.VATAmount, data.Currency))
	f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryValueStyle)
	row++

	summaryRow = fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "E"+summaryRow, "Total TTC :")
	f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "F"+summaryRow, FormatMoney(data.TotalTTC, data.Currency))
	f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryValueStyle)
	row++

	// ── Assumptions ─────────────────────────────────────────────────────

	if len(data.Assumptions) > 0 {
		row++
		assumptionRow := fmt.Sprintf("%d", row)
		if err := f.MergeCell(sheetName, "A"+assumptionRow, lastCol+assumptionRow); err != nil {
			return nil, fmt.Errorf("merge assumptions title: %w", err)
		}
		f.SetCellValue(sheetName, "A"+assumptionRow, "Hypothèses retenues")
		f.SetCellStyle(sheetName, "A"+assumptionRow, lastCol+assumptionRow, subtitleStyle)
		row++

		for _, a := range data.Assumptions {
			rowStr := fmt.Sprintf("%d", row)
			label := a.Description
			if a.Value != "" {
				label = fmt.Sprintf("%s : %s", a.Description, a.Value)
			}
			if !a.Confirmed {
				label += " (à confirmer)"
			}
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(a.Category))
			f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(label))
			row++
		}
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
