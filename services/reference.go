package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatQuoteReference constructs the reference string from components.
func formatQuoteReference(year, sequence int) string {
	return fmt.Sprintf("DEV-%d-%04d", year, sequence)
}

// GenerateQuoteReference creates the next quote reference for a company.
// Format: DEV-{year}-{sequence}, with the sequence counted per company
// per calendar year.
func GenerateQuoteReference(app core.App, companyID string, now time.Time) (string, error) {
	year := now.Year()
	prefix := fmt.Sprintf("DEV-%d-", year)

	existing, err := app.FindRecordsByFilter(
		"quotes",
		"project.company = {:company} && reference ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{
			"company": companyID,
			"prefix":  prefix + "%",
		},
	)
	if err != nil {
		return "", fmt.Errorf("count quote references: %w", err)
	}

	return formatQuoteReference(year, len(existing)+1), nil
}

// GenerateProjectReference creates the next project reference for a
// company. Format: PRJ-{year}-{sequence}.
func GenerateProjectReference(app core.App, companyID string, now time.Time) (string, error) {
	year := now.Year()
	prefix := fmt.Sprintf("PRJ-%d-", year)

	existing, err := app.FindRecordsByFilter(
		"projects",
		"company = {:company} && reference ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{
			"company": companyID,
			"prefix":  prefix + "%",
		},
	)
	if err != nil {
		return "", fmt.Errorf("count project references: %w", err)
	}

	return fmt.Sprintf("PRJ-%d-%04d", year, len(existing)+1), nil
}
