package services

import (
	"errors"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrNoPricingTier is returned when a company has no pricing tier at
// all; generation cannot proceed without one.
var ErrNoPricingTier = errors.New("company has no pricing tier")

// Answer values the questionnaire uses for yes/no and "no HVAC".
const (
	AnswerYes  = "oui"
	AnswerNone = "aucune"
)

// Quantity sources recorded on quote lines.
const (
	QuantityCalculated = "calculated"
	QuantityManual     = "manual"
)

// Assumption sources recorded on generated assumptions.
const (
	SourceQuestionEngine = "question_engine"
	SourceSystem         = "system"
	SourceManual         = "manual"
)

// RoomMetrics carries the per-room values the generator aggregates.
type RoomMetrics struct {
	ID   string
	Name string
	Area decimal.Decimal
}

// Answer is one questionnaire answer, keyed by question code in
// GenerateInput.Answers.
type Answer struct {
	Value     string
	Data      map[string]any
	Confirmed bool
	Category  string
	Question  string
}

// GenerateInput gathers everything one generation run reads. The
// generator itself touches no data store: callers load the rooms,
// answers and catalog and pass them in.
type GenerateInput struct {
	ProjectType string
	Rooms       []RoomMetrics
	Answers     map[string]Answer
	Catalog     Catalog
	Tier        Tier
	VATRate     decimal.Decimal
}

// LineDraft is one priced line of a version draft.
type LineDraft struct {
	ArticleID       string
	CustomArticleID string
	Category        string
	Designation     string
	Unit            string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	QuantitySource  string
	SortOrder       int
}

// AssumptionDraft is one snapshotted answer or system choice.
type AssumptionDraft struct {
	Category    string
	Description string
	Value       string
	Confirmed   bool
	Source      string
}

// VersionDraft is the value-type snapshot a generation run produces.
// Persisting it creates exactly one version with its lines and
// assumptions; the draft itself never mutates existing versions.
type VersionDraft struct {
	TierID      string
	TierName    string
	VATRate     decimal.Decimal
	Lines       []LineDraft
	Assumptions []AssumptionDraft
	Totals      Totals
}

// SelectTier picks the tier a generation run prices with: the explicit
// tier when the id matches, else the company default, else the first
// tier. ErrNoPricingTier only when the company has none.
func SelectTier(tiers []Tier, explicitID string) (Tier, error) {
	if len(tiers) == 0 {
		return Tier{}, ErrNoPricingTier
	}

	if explicitID != "" {
		for _, t := range tiers {
			if t.ID == explicitID {
				return t, nil
			}
		}
	}

	for _, t := range tiers {
		if t.IsDefault {
			return t, nil
		}
	}

	first := tiers[0]
	for _, t := range tiers[1:] {
		if t.ID < first.ID {
			first = t
		}
	}
	return first, nil
}

// GenerateVersion runs the category rules over the project's rooms and
// answers and returns a fully priced version draft. Every line is
// resolved through the price cascade; the stated code, designation,
// unit and price act as the hard-coded fallback of the last cascade
// step.
func GenerateVersion(in GenerateInput) VersionDraft {
	draft := VersionDraft{
		TierID:   in.Tier.ID,
		TierName: in.Tier.Name,
		VATRate:  in.VATRate,
	}

	totalArea := decimal.Zero
	for _, r := range in.Rooms {
		totalArea = totalArea.Add(r.Area)
	}

	emit := func(code, category, designation, unit string, defaultPrice decimal.Decimal, quantity decimal.Decimal, source string) {
		res := ResolvePrice(in.Catalog, code, in.Tier, Fallback{
			Designation: designation,
			Price:       defaultPrice,
		})
		draft.Lines = append(draft.Lines, LineDraft{
			ArticleID:       res.ArticleID,
			CustomArticleID: res.CustomArticleID,
			Category:        category,
			Designation:     res.Designation,
			Unit:            unit,
			Quantity:        quantity,
			UnitPrice:       res.UnitPrice,
			TotalPrice:      LineTotal(quantity, res.UnitPrice),
			QuantitySource:  source,
			SortOrder:       len(draft.Lines),
		})
	}

	if in.ProjectType == "construction" {
		emit("GO-FOND", "Gros Œuvre", "Fondations et infrastructure", "m²",
			decimal.NewFromInt(350), totalArea, QuantityCalculated)
		emit("GO-MUR", "Gros Œuvre", "Élévation des murs et structure", "m²",
			decimal.NewFromInt(450), totalArea, QuantityCalculated)
	}

	if in.ProjectType == "renovation" {
		if a, ok := in.Answers["demolition"]; ok && a.Value == AnswerYes {
			emit("DEMO-01", "Démolition", "Démolition et évacuation des gravats", "m²",
				decimal.NewFromInt(80), totalArea, QuantityCalculated)
		}
	}

	emit("SO-PLOMB", "Second Œuvre", "Plomberie et sanitaires (ratio)", "m²",
		decimal.NewFromInt(45), totalArea, QuantityCalculated)
	emit("SO-ELEC", "Second Œuvre", "Électricité générale (ratio)", "m²",
		decimal.NewFromInt(55), totalArea, QuantityCalculated)

	floorCode, floorPrice := floorArticle(in.Answers["floor_type"].Value)
	emit(floorCode, "Second Œuvre", "Revêtement de sol", "m²",
		floorPrice, totalArea, QuantityCalculated)

	if a, ok := in.Answers["clim"]; ok && a.Value != AnswerNone {
		qty := int64(1)
		if q, ok := in.Answers["clim_qty"]; ok && q.Value != "" {
			if n, err := strconv.ParseInt(q.Value, 10, 64); err == nil && n > 0 {
				qty = n
			}
		}
		if a.Value == "split" {
			emit("CVC-SPLIT", "CVC", "Climatisation split", "u",
				decimal.NewFromInt(8500), decimal.NewFromInt(qty), QuantityManual)
		} else {
			emit("CVC-GAIN", "CVC", "Climatisation gainable", "u",
				decimal.NewFromInt(25000), decimal.NewFromInt(qty), QuantityManual)
		}
	}

	if a, ok := in.Answers["piscine"]; ok && a.Value == AnswerYes {
		emit("EXT-PISCINE", "Piscine", "Piscine complète (structure, filtration, revêtement)", "m²",
			decimal.NewFromInt(3500), poolArea(in.Answers["piscine_dims"]), QuantityManual)
	}

	draft.Assumptions = snapshotAssumptions(in.Answers, in.Tier)

	lineTotals := make([]decimal.Decimal, len(draft.Lines))
	for i, l := range draft.Lines {
		lineTotals[i] = l.TotalPrice
	}
	draft.Totals = QuoteTotals(lineTotals, in.VATRate, decimal.Zero)

	return draft
}

// floorArticle maps the floor_type answer to its article code and
// default price. Unknown or missing answers fall back to carrelage.
func floorArticle(value string) (string, decimal.Decimal) {
	switch value {
	case "parquet":
		return "SO-SOL-PARQ", decimal.NewFromInt(180)
	case "marbre":
		return "SO-SOL-MARB", decimal.NewFromInt(350)
	case "beton_cire":
		return "SO-SOL-BETON", decimal.NewFromInt(150)
	default:
		return "SO-SOL-CARR", decimal.NewFromInt(120)
	}
}

// poolArea reads length x width out of the piscine_dims structured
// answer. Missing or partial dimensions default to an 8 x 4 pool.
func poolArea(dims Answer) decimal.Decimal {
	length, width := 8.0, 4.0
	if dims.Data != nil {
		if l, ok := parseAmount(dims.Data["length"]); ok && !l.IsZero() {
			length = l.InexactFloat64()
		}
		if w, ok := parseAmount(dims.Data["width"]); ok && !w.IsZero() {
			width = w.InexactFloat64()
		}
	}
	return decimal.NewFromFloat(length).Mul(decimal.NewFromFloat(width))
}

// snapshotAssumptions copies every questionnaire answer into the
// version, in question-code order so generation output is stable, and
// appends the system record of the tier actually applied.
func snapshotAssumptions(answers map[string]Answer, tier Tier) []AssumptionDraft {
	codes := make([]string, 0, len(answers))
	for code := range answers {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	drafts := make([]AssumptionDraft, 0, len(answers)+1)
	for _, code := range codes {
		a := answers[code]
		drafts = append(drafts, AssumptionDraft{
			Category:    a.Category,
			Description: a.Question,
			Value:       a.Value,
			Confirmed:   a.Confirmed,
			Source:      SourceQuestionEngine,
		})
	}

	tierName := tier.Name
	if tierName == "" {
		tierName = "Standard"
	}
	drafts = append(drafts, AssumptionDraft{
		Category:    "Général",
		Description: "Gamme de prix appliquée",
		Value:       tierName,
		Confirmed:   true,
		Source:      SourceSystem,
	})

	return drafts
}
