package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a monetary amount in French notation with the
// currency code appended, e.g. 1234567.89 -> "1 234 567,89 MAD".
// Digits are grouped in threes with non-breaking spaces and the amount
// always carries exactly 2 decimal places.
func FormatMoney(amount decimal.Decimal, currency string) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	raw := amount.StringFixed(2)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := applyThousandsGrouping(intPart) + "," + decPart
	if negative {
		result = "-" + result
	}
	if currency != "" {
		result += " " + currency
	}
	return result
}

// FormatQuantity renders a line quantity without trailing zeros, with a
// French decimal comma, e.g. 12.5000 -> "12,5" and 3.0000 -> "3".
func FormatQuantity(quantity decimal.Decimal) string {
	s := quantity.String()
	return strings.ReplaceAll(s, ".", ",")
}

// applyThousandsGrouping inserts non-breaking spaces into an integer
// string, grouping digits in threes from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var groups []string
	for n > 3 {
		groups = append([]string{s[n-3:]}, groups...)
		s = s[:n-3]
		n = len(s)
	}
	groups = append([]string{s}, groups...)

	return strings.Join(groups, " ")
}

// FormatVersionLabel renders a version number for display and export
// file names, e.g. 3 -> "V3".
func FormatVersionLabel(versionNumber int) string {
	return fmt.Sprintf("V%d", versionNumber)
}
