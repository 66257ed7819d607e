package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateQuoteCurrentVersions repairs quotes whose current_version no
// longer points at their highest version number (e.g. data imported from
// the legacy system). Safe to call on every startup -- quotes that are
// already consistent are left untouched.
func MigrateQuoteCurrentVersions(app *pocketbase.PocketBase) error {
	quotes, err := app.FindAllRecords("quotes")
	if err != nil {
		return fmt.Errorf("migrate: could not load quotes: %w", err)
	}

	repaired := 0
	for _, quote := range quotes {
		versions, err := app.FindRecordsByFilter(
			"quote_versions",
			"quote = {:quote}",
			"-version_number",
			1,
			0,
			map[string]any{"quote": quote.Id},
		)
		if err != nil || len(versions) == 0 {
			continue
		}

		highest := versions[0].GetInt("version_number")
		if quote.GetInt("current_version") == highest {
			continue
		}

		quote.Set("current_version", highest)
		if err := app.Save(quote); err != nil {
			log.Printf("migrate: failed to repair quote %s: %v\n", quote.Id, err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		log.Printf("migrate: repaired current_version on %d quote(s)\n", repaired)
	}
	return nil
}
