package services

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ErrVersionConflict reports that the target version number was taken
// by a concurrent writer before this one could commit.
var ErrVersionConflict = errors.New("version number already taken")

// LoadRoomMetrics returns the per-room values the generator aggregates
// for a project. Room areas are the cached values maintained by the
// measurement handlers.
func LoadRoomMetrics(app core.App, projectID string) ([]RoomMetrics, error) {
	records, err := app.FindRecordsByFilter(
		"rooms",
		"project = {:project}",
		"created",
		0,
		0,
		map[string]any{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	rooms := make([]RoomMetrics, 0, len(records))
	for _, rec := range records {
		rooms = append(rooms, RoomMetrics{
			ID:   rec.Id,
			Name: rec.GetString("name"),
			Area: decimal.NewFromFloat(rec.GetFloat("area")),
		})
	}
	return rooms, nil
}

// LoadAnswers returns a project's questionnaire answers keyed by
// question code.
func LoadAnswers(app core.App, projectID string) (map[string]Answer, error) {
	records, err := app.FindRecordsByFilter(
		"project_answers",
		"project = {:project}",
		"",
		0,
		0,
		map[string]any{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	answers := make(map[string]Answer, len(records))
	for _, rec := range records {
		var data map[string]any
		if err := rec.UnmarshalJSONField("answer_data", &data); err != nil {
			data = nil
		}
		answers[rec.GetString("question_code")] = Answer{
			Value:     rec.GetString("answer_value"),
			Data:      data,
			Confirmed: rec.GetBool("is_confirmed"),
			Category:  rec.GetString("category"),
			Question:  rec.GetString("question_text"),
		}
	}
	return answers, nil
}

// ApplyDraft persists a version draft as version versionNumber of a
// quote: the version record, its lines in emission order and its
// assumption snapshot, all inside one transaction so a failed save
// leaves no partial version behind. createdBy is threaded in explicitly
// by the handler; the engine keeps no ambient user state.
func ApplyDraft(app core.App, quoteID string, versionNumber int, draft VersionDraft, createdBy string) (*core.Record, error) {
	var version *core.Record

	err := app.RunInTransaction(func(txApp core.App) error {
		versionsCol, err := txApp.FindCollectionByNameOrId("quote_versions")
		if err != nil {
			return fmt.Errorf("quote_versions collection: %w", err)
		}

		version = core.NewRecord(versionsCol)
		version.Set("quote", quoteID)
		version.Set("version_number", versionNumber)
		version.Set("tier", draft.TierID)
		version.Set("vat_rate", draft.VATRate.InexactFloat64())
		version.Set("subtotal_ht", draft.Totals.SubtotalHT.InexactFloat64())
		version.Set("discount_amount", draft.Totals.DiscountAmount.InexactFloat64())
		version.Set("vat_amount", draft.Totals.VATAmount.InexactFloat64())
		version.Set("total_ttc", draft.Totals.TotalTTC.InexactFloat64())
		version.Set("created_by", createdBy)
		if err := txApp.Save(version); err != nil {
			return fmt.Errorf("save version %d: %w", versionNumber, err)
		}

		linesCol, err := txApp.FindCollectionByNameOrId("quote_lines")
		if err != nil {
			return fmt.Errorf("quote_lines collection: %w", err)
		}
		for _, line := range draft.Lines {
			rec := core.NewRecord(linesCol)
			rec.Set("version", version.Id)
			rec.Set("article_id", line.ArticleID)
			rec.Set("custom_article_id", line.CustomArticleID)
			rec.Set("category", line.Category)
			rec.Set("designation", line.Designation)
			rec.Set("unit", line.Unit)
			rec.Set("quantity", line.Quantity.InexactFloat64())
			rec.Set("unit_price", line.UnitPrice.InexactFloat64())
			rec.Set("total_price", line.TotalPrice.InexactFloat64())
			rec.Set("quantity_source", line.QuantitySource)
			rec.Set("sort_order", line.SortOrder)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save line %d: %w", line.SortOrder, err)
			}
		}

		assumptionsCol, err := txApp.FindCollectionByNameOrId("quote_assumptions")
		if err != nil {
			return fmt.Errorf("quote_assumptions collection: %w", err)
		}
		for _, a := range draft.Assumptions {
			rec := core.NewRecord(assumptionsCol)
			rec.Set("version", version.Id)
			rec.Set("category", a.Category)
			rec.Set("description", a.Description)
			rec.Set("value", a.Value)
			rec.Set("is_confirmed", a.Confirmed)
			rec.Set("source", a.Source)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save assumption: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// CurrentVersion returns the record of a quote's current (highest)
// version.
func CurrentVersion(app core.App, quote *core.Record) (*core.Record, error) {
	versions, err := app.FindRecordsByFilter(
		"quote_versions",
		"quote = {:quote} && version_number = {:number}",
		"",
		1,
		0,
		map[string]any{"quote": quote.Id, "number": quote.GetInt("current_version")},
	)
	if err != nil {
		return nil, fmt.Errorf("load current version: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("quote %s has no version %d", quote.Id, quote.GetInt("current_version"))
	}
	return versions[0], nil
}

// VersionLines returns a version's lines in display order.
func VersionLines(app core.App, versionID string) ([]*core.Record, error) {
	lines, err := app.FindRecordsByFilter(
		"quote_lines",
		"version = {:version}",
		"sort_order",
		0,
		0,
		map[string]any{"version": versionID},
	)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	return lines, nil
}

// VersionAssumptions returns a version's assumption snapshot.
func VersionAssumptions(app core.App, versionID string) ([]*core.Record, error) {
	assumptions, err := app.FindRecordsByFilter(
		"quote_assumptions",
		"version = {:version}",
		"created",
		0,
		0,
		map[string]any{"version": versionID},
	)
	if err != nil {
		return nil, fmt.Errorf("load assumptions: %w", err)
	}
	return assumptions, nil
}

// CloneVersion copies every line and assumption of the quote's current
// version verbatim into version N+1 -- designations, prices and
// quantities are preserved, never re-resolved -- then advances the
// quote's current_version, all in one transaction. The unique
// (quote, version_number) index turns a concurrent clone race into
// ErrVersionConflict for the loser.
func CloneVersion(app core.App, quote *core.Record, createdBy string) (*core.Record, error) {
	source, err := CurrentVersion(app, quote)
	if err != nil {
		return nil, err
	}

	lines, err := VersionLines(app, source.Id)
	if err != nil {
		return nil, err
	}
	assumptions, err := VersionAssumptions(app, source.Id)
	if err != nil {
		return nil, err
	}

	draft := VersionDraft{
		TierID:  source.GetString("tier"),
		VATRate: decimal.NewFromFloat(source.GetFloat("vat_rate")),
	}
	for _, l := range lines {
		draft.Lines = append(draft.Lines, LineDraft{
			ArticleID:       l.GetString("article_id"),
			CustomArticleID: l.GetString("custom_article_id"),
			Category:        l.GetString("category"),
			Designation:     l.GetString("designation"),
			Unit:            l.GetString("unit"),
			Quantity:        decimal.NewFromFloat(l.GetFloat("quantity")),
			UnitPrice:       decimal.NewFromFloat(l.GetFloat("unit_price")),
			TotalPrice:      decimal.NewFromFloat(l.GetFloat("total_price")),
			QuantitySource:  l.GetString("quantity_source"),
			SortOrder:       l.GetInt("sort_order"),
		})
	}
	for _, a := range assumptions {
		draft.Assumptions = append(draft.Assumptions, AssumptionDraft{
			Category:    a.GetString("category"),
			Description: a.GetString("description"),
			Value:       a.GetString("value"),
			Confirmed:   a.GetBool("is_confirmed"),
			Source:      a.GetString("source"),
		})
	}

	lineTotals := make([]decimal.Decimal, len(draft.Lines))
	for i, l := range draft.Lines {
		lineTotals[i] = l.TotalPrice
	}
	draft.Totals = QuoteTotals(lineTotals, draft.VATRate,
		decimal.NewFromFloat(source.GetFloat("discount_percentage")))

	nextNumber := quote.GetInt("current_version") + 1
	var version *core.Record
	txErr := app.RunInTransaction(func(txApp core.App) error {
		v, err := ApplyDraft(txApp, quote.Id, nextNumber, draft, createdBy)
		if err != nil {
			return err
		}
		v.Set("discount_percentage", source.GetFloat("discount_percentage"))
		v.Set("margin_percentage", source.GetFloat("margin_percentage"))
		if err := txApp.Save(v); err != nil {
			return fmt.Errorf("save cloned version: %w", err)
		}

		quote.Set("current_version", nextNumber)
		if err := txApp.Save(quote); err != nil {
			return fmt.Errorf("advance current_version: %w", err)
		}
		version = v
		return nil
	})
	if txErr != nil {
		if versionNumberTaken(app, quote.Id, nextNumber) {
			return nil, fmt.Errorf("clone to version %d: %w", nextNumber, ErrVersionConflict)
		}
		return nil, txErr
	}
	return version, nil
}

// versionNumberTaken reports whether a version row already exists for
// the (quote, number) pair, which is how a lost clone race looks after
// the transaction rolled back.
func versionNumberTaken(app core.App, quoteID string, number int) bool {
	existing, err := app.FindRecordsByFilter(
		"quote_versions",
		"quote = {:quote} && version_number = {:number}",
		"",
		1,
		0,
		map[string]any{"quote": quoteID, "number": number},
	)
	return err == nil && len(existing) > 0
}

// RecomputeVersionTotals recalculates a version's totals from its own
// lines, honoring its stored VAT rate and discount. Called after every
// line mutation.
func RecomputeVersionTotals(app core.App, version *core.Record) error {
	lines, err := VersionLines(app, version.Id)
	if err != nil {
		return err
	}

	lineTotals := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		lineTotals = append(lineTotals, decimal.NewFromFloat(l.GetFloat("total_price")))
	}

	vatRate := decimal.NewFromFloat(version.GetFloat("vat_rate"))
	if vatRate.IsZero() {
		vatRate = decimal.NewFromInt(20)
	}
	totals := QuoteTotals(lineTotals, vatRate,
		decimal.NewFromFloat(version.GetFloat("discount_percentage")))

	version.Set("subtotal_ht", totals.SubtotalHT.InexactFloat64())
	version.Set("discount_amount", totals.DiscountAmount.InexactFloat64())
	version.Set("vat_amount", totals.VATAmount.InexactFloat64())
	version.Set("total_ttc", totals.TotalTTC.InexactFloat64())

	if err := app.Save(version); err != nil {
		return fmt.Errorf("save totals: %w", err)
	}
	return nil
}
