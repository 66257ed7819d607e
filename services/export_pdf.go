package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateQuotePDF creates a PDF document for one quote version using
// maroto/v2. It returns the raw PDF bytes or an error.
func GenerateQuotePDF(data QuoteExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addQuoteHeader(m, data)
	addQuoteTableHeader(m)
	for _, r := range data.Rows {
		addQuoteTableRow(m, r, data.Currency)
	}
	addQuoteSummary(m, data)
	addQuoteAssumptions(m, data)
	addQuoteFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addQuoteHeader adds company, reference/version and client rows.
func addQuoteHeader(m core.Maroto, data QuoteExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.CompanyName, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Devis %s — %s", data.Reference, data.VersionLabel), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date : %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Projet : %s", data.ProjectName), props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Client : %s", data.ClientName), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	// Spacer
	m.AddRows(row.New(4))
}

// addQuoteTableHeader adds the column header row for the line table.
func addQuoteTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(
				text.New("#", headerText),
			).WithStyle(&headerCell),
			col.New(5).Add(
				text.New("Désignation", headerTextLeft),
			).WithStyle(&headerCell),
			col.New(1).Add(
				text.New("Unité", headerText),
			).WithStyle(&headerCell),
			col.New(1).Add(
				text.New("Qté", headerText),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("PU HT", headerText),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("Total HT", headerText),
			).WithStyle(&headerCell),
		),
	)
}

// addQuoteTableRow adds one data row, category headers styled bold on a
// gray band.
func addQuoteTableRow(m core.Maroto, r QuoteExportRow, currency string) {
	if r.CategoryHeader {
		bg := &props.Color{Red: 235, Green: 235, Blue: 235}
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(
					text.New(r.Designation, props.Text{
						Size:  8,
						Style: fontstyle.Bold,
						Align: align.Left,
					}),
				).WithStyle(&props.Cell{BackgroundColor: bg}),
			),
		)
		return
	}

	baseText := props.Text{
		Size:  7,
		Align: align.Center,
	}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	m.AddRows(
		row.New(7).Add(
			col.New(1).Add(text.New(r.Index, baseText)),
			col.New(5).Add(text.New(r.Designation, leftText)),
			col.New(1).Add(text.New(r.Unit, baseText)),
			col.New(1).Add(text.New(FormatQuantity(r.Quantity), rightText)),
			col.New(2).Add(text.New(FormatMoney(r.UnitPrice, currency), rightText)),
			col.New(2).Add(text.New(FormatMoney(r.TotalPrice, currency), rightText)),
		),
	)
}

// addQuoteSummary adds the subtotal / discount / VAT / total block.
func addQuoteSummary(m core.Maroto, data QuoteExportData) {
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := labelStyle

	addSummaryRow := func(label string, value string) {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(
					text.New(label, labelStyle),
				).WithStyle(summaryCell),
				col.New(4).Add(
					text.New(value, valueStyle),
				).WithStyle(summaryCell),
			),
		)
	}

	addSummaryRow("Sous-total HT", FormatMoney(data.SubtotalHT, data.Currency))
	if !data.DiscountAmount.IsZero() {
		addSummaryRow("Remise", "-"+FormatMoney(data.DiscountAmount, data.Currency))
	}
	addSummaryRow(fmt.Sprintf("TVA (%s%%)", data.VATRate.StringFixed(0)), FormatMoney(data.VATAmount, data.Currency))
	addSummaryRow("Total TTC", FormatMoney(data.TotalTTC, data.Currency))
}

// addQuoteAssumptions renders the snapshotted assumptions below the
// totals so the exported document records what the pricing was based on.
func addQuoteAssumptions(m core.Maroto, data QuoteExportData) {
	if len(data.Assumptions) == 0 {
		return
	}

	m.AddRows(row.New(6))
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New("Hypothèses retenues", props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
	)

	for _, a := range data.Assumptions {
		label := a.Description
		if a.Value != "" {
			label = fmt.Sprintf("%s : %s", a.Description, a.Value)
		}
		if !a.Confirmed {
			label += " (à confirmer)"
		}
		m.AddRows(
			row.New(5).Add(
				col.New(3).Add(
					text.New(a.Category, props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 100, Green: 100, Blue: 100},
					}),
				),
				col.New(9).Add(
					text.New(label, props.Text{
						Size:  7,
						Align: align.Left,
					}),
				),
			),
		)
	}
}

// addQuoteFooter adds the generated-date line at the bottom.
func addQuoteFooter(m core.Maroto, data QuoteExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Document généré le %s", data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
