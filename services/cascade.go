package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a company pricing level. Its coefficient multiplies every
// resolved base price; Rounding is the number of digits the result is
// rounded to.
type Tier struct {
	ID          string
	Name        string
	Code        string
	Coefficient decimal.Decimal
	Rounding    int
	IsDefault   bool
}

// CustomArticle is a company-owned article, independent of the standard
// library. A code match on an active custom article always wins the
// cascade.
type CustomArticle struct {
	ID            string
	Code          string
	Category      string
	Designation   string
	Unit          string
	PriceEco      *decimal.Decimal
	PriceStandard *decimal.Decimal
	PricePremium  *decimal.Decimal
}

// LibraryArticle is an entry of the active standard BPU library for the
// company's country.
type LibraryArticle struct {
	ID            string
	Code          string
	Category      string
	Designation   string
	Unit          string
	PriceEco      *decimal.Decimal
	PriceStandard *decimal.Decimal
	PricePremium  *decimal.Decimal
}

// ArticleOverride is a company's per-article adjustment of a library
// article. Nil price columns mean "no override for that tier".
type ArticleOverride struct {
	ArticleID           string
	DesignationOverride string
	PriceEco            *decimal.Decimal
	PriceStandard       *decimal.Decimal
	PricePremium        *decimal.Decimal
	Disabled            bool
}

// Catalog holds the three collections the price cascade walks, keyed the
// way each lookup happens: active custom articles by code, active
// library articles by code, overrides by library article id.
type Catalog struct {
	Customs   map[string]CustomArticle
	Library   map[string]LibraryArticle
	Overrides map[string]ArticleOverride
}

// Fallback is the hard-coded default used when no catalog entry matches.
// The cascade never fails to produce a price.
type Fallback struct {
	Designation string
	Price       decimal.Decimal
}

// Resolution is the outcome of one cascade walk: the effective unit
// price (tier coefficient already applied), the designation text, and a
// reference to whichever article supplied the base price.
type Resolution struct {
	UnitPrice       decimal.Decimal
	Designation     string
	ArticleID       string
	CustomArticleID string
}

// Price column names, matching the BPU article fields.
const (
	ColumnEco      = "price_eco"
	ColumnStandard = "price_standard"
	ColumnPremium  = "price_premium"
)

// TierColumn maps a tier name to the BPU price column it reads.
// "Économique" variants select the eco column, "Premium"/"Luxe" the
// premium column, anything else the standard one.
func TierColumn(tierName string) string {
	name := strings.ToLower(tierName)
	switch {
	case strings.Contains(name, "eco"), strings.Contains(name, "éco"):
		return ColumnEco
	case strings.Contains(name, "premium"), strings.Contains(name, "luxe"):
		return ColumnPremium
	default:
		return ColumnStandard
	}
}

// tierPrice picks the price column matching the tier. Nil means the
// article does not price that tier.
func tierPrice(eco, standard, premium *decimal.Decimal, column string) *decimal.Decimal {
	switch column {
	case ColumnEco:
		return eco
	case ColumnPremium:
		return premium
	default:
		return standard
	}
}

// ResolvePrice walks the price cascade for one article code:
//
//  1. active company custom article by code;
//  2. library article of the active standard library by code;
//  3. company override of that library article, unless disabled
//     (a disabled override falls back to the library's own tier price);
//  4. the caller-supplied fallback when nothing matches.
//
// A nil tier column at any step falls through to the next step, never
// sideways to another column. The tier coefficient is applied to
// whichever base price won, so resolution never fails to produce a
// usable price.
func ResolvePrice(cat Catalog, code string, tier Tier, fallback Fallback) Resolution {
	column := TierColumn(tier.Name)

	res := Resolution{
		UnitPrice:   ApplyTierCoefficient(fallback.Price, tier.Coefficient, tier.Rounding),
		Designation: fallback.Designation,
	}

	if custom, ok := cat.Customs[code]; ok {
		res.CustomArticleID = custom.ID
		res.Designation = custom.Designation
		if base := tierPrice(custom.PriceEco, custom.PriceStandard, custom.PricePremium, column); base != nil {
			res.UnitPrice = ApplyTierCoefficient(*base, tier.Coefficient, tier.Rounding)
		}
		return res
	}

	article, ok := cat.Library[code]
	if !ok {
		return res
	}

	res.ArticleID = article.ID
	res.Designation = article.Designation

	libraryBase := tierPrice(article.PriceEco, article.PriceStandard, article.PricePremium, column)

	override, hasOverride := cat.Overrides[article.ID]
	if hasOverride && !override.Disabled {
		if override.DesignationOverride != "" {
			res.Designation = override.DesignationOverride
		}
		if base := tierPrice(override.PriceEco, override.PriceStandard, override.PricePremium, column); base != nil {
			res.UnitPrice = ApplyTierCoefficient(*base, tier.Coefficient, tier.Rounding)
			return res
		}
	}

	// Disabled overrides and tier columns the override leaves unset both
	// land on the library's own price.
	if libraryBase != nil {
		res.UnitPrice = ApplyTierCoefficient(*libraryBase, tier.Coefficient, tier.Rounding)
	}
	return res
}
