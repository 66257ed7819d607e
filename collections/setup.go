// Package collections creates and seeds the PocketBase collections the
// quote engine persists into.
package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures every collection of the engine:
// companies and their pricing tiers, projects with plans, rooms and
// questionnaire answers, the BPU catalog (standard libraries, company
// overrides, company custom articles) and the quote/version/line/
// assumption hierarchy.
func Setup(app *pocketbase.PocketBase) {
	companies := ensureCollection(app, "companies", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "slug", Required: true})
		c.Fields.Add(&core.TextField{Name: "country", Required: true})
		c.Fields.Add(&core.TextField{Name: "currency"})
		c.Fields.Add(&core.BoolField{Name: "is_active"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_companies_slug", true, "slug", "")
	})

	ensureCollection(app, "tax_profiles", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "default_vat_rate"})
		c.Fields.Add(&core.BoolField{Name: "vat_included"})
		c.Fields.Add(&core.NumberField{Name: "payment_terms_days"})
		c.Fields.Add(&core.NumberField{Name: "deposit_percentage"})
		c.AddIndex("idx_tax_profiles_company", true, "company", "")
	})

	tiers := ensureCollection(app, "pricing_tiers", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.NumberField{Name: "coefficient", Required: true})
		c.Fields.Add(&core.NumberField{Name: "rounding"})
		c.Fields.Add(&core.BoolField{Name: "is_default"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.AddIndex("idx_pricing_tiers_company_code", true, "company, code", "")
	})

	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference"})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.TextField{Name: "client_email"})
		c.Fields.Add(&core.SelectField{
			Name:      "project_type",
			Required:  true,
			Values:    []string{"construction", "renovation", "extension", "amenagement"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "typology",
			Values:    []string{"villa", "immeuble", "riad", "bureau", "commerce", "appartement", "autre"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"draft", "in_progress", "pending_questions", "quote_ready", "completed", "archived"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	plans := ensureCollection(app, "project_plans", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.BoolField{Name: "is_calibrated"})
		c.Fields.Add(&core.NumberField{Name: "scale_factor"})
		c.Fields.Add(&core.JSONField{Name: "calibration_data"})
	})

	rooms := ensureCollection(app, "rooms", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "plan",
			CollectionId:  plans.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "room_type"})
		c.Fields.Add(&core.NumberField{Name: "level"})
		c.Fields.Add(&core.NumberField{Name: "area"})
		c.Fields.Add(&core.NumberField{Name: "perimeter"})
		c.Fields.Add(&core.NumberField{Name: "ceiling_height"})
		c.Fields.Add(&core.JSONField{Name: "polygon"})
	})

	ensureCollection(app, "project_answers", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "room",
			CollectionId:  rooms.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "question_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "question_text"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.TextField{Name: "answer_value"})
		c.Fields.Add(&core.JSONField{Name: "answer_data"})
		c.Fields.Add(&core.BoolField{Name: "is_confirmed"})
		c.AddIndex("idx_project_answers_unique", true, "project, question_code, room", "")
	})

	libraries := ensureCollection(app, "bpu_libraries", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "country", Required: true})
		c.Fields.Add(&core.TextField{Name: "version", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.BoolField{Name: "is_active"})
		c.AddIndex("idx_bpu_libraries_country_version", true, "country, version", "")
	})

	articles := ensureCollection(app, "bpu_articles", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "library",
			Required:      true,
			CollectionId:  libraries.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.TextField{Name: "category", Required: true})
		c.Fields.Add(&core.TextField{Name: "subcategory"})
		c.Fields.Add(&core.TextField{Name: "designation", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit", Required: true})
		c.Fields.Add(&core.NumberField{Name: "price_eco"})
		c.Fields.Add(&core.NumberField{Name: "price_standard"})
		c.Fields.Add(&core.NumberField{Name: "price_premium"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.AddIndex("idx_bpu_articles_library_code", true, "library, code", "")
	})

	ensureCollection(app, "company_bpu_overrides", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "article",
			Required:      true,
			CollectionId:  articles.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "designation_override"})
		c.Fields.Add(&core.NumberField{Name: "price_eco"})
		c.Fields.Add(&core.NumberField{Name: "price_standard"})
		c.Fields.Add(&core.NumberField{Name: "price_premium"})
		c.Fields.Add(&core.BoolField{Name: "is_disabled"})
		c.AddIndex("idx_company_bpu_overrides_unique", true, "company, article", "")
	})

	ensureCollection(app, "company_bpu_articles", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "company",
			Required:      true,
			CollectionId:  companies.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.TextField{Name: "category", Required: true})
		c.Fields.Add(&core.TextField{Name: "subcategory"})
		c.Fields.Add(&core.TextField{Name: "designation", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit", Required: true})
		c.Fields.Add(&core.NumberField{Name: "price_eco"})
		c.Fields.Add(&core.NumberField{Name: "price_standard"})
		c.Fields.Add(&core.NumberField{Name: "price_premium"})
		c.Fields.Add(&core.BoolField{Name: "is_active"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.AddIndex("idx_company_bpu_articles_unique", true, "company, code", "")
	})

	quotes := ensureCollection(app, "quotes", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "reference", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "pending", "sent", "accepted", "rejected", "expired"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "current_version", Required: true})
		c.Fields.Add(&core.DateField{Name: "valid_until"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	versions := ensureCollection(app, "quote_versions", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quote",
			Required:      true,
			CollectionId:  quotes.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "version_number", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:         "tier",
			CollectionId: tiers.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.NumberField{Name: "subtotal_ht"})
		c.Fields.Add(&core.NumberField{Name: "vat_amount"})
		c.Fields.Add(&core.NumberField{Name: "total_ttc"})
		c.Fields.Add(&core.NumberField{Name: "vat_rate"})
		c.Fields.Add(&core.NumberField{Name: "discount_percentage"})
		c.Fields.Add(&core.NumberField{Name: "discount_amount"})
		c.Fields.Add(&core.NumberField{Name: "margin_percentage"})
		c.Fields.Add(&core.TextField{Name: "created_by"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		// Two racing clones of the same quote cannot both save N+1.
		c.AddIndex("idx_quote_versions_unique", true, "quote, version_number", "")
	})

	ensureCollection(app, "quote_lines", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "version",
			Required:      true,
			CollectionId:  versions.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "article_id"})
		c.Fields.Add(&core.TextField{Name: "custom_article_id"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.TextField{Name: "designation", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit", Required: true})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: true})
		c.Fields.Add(&core.NumberField{Name: "unit_price"})
		c.Fields.Add(&core.NumberField{Name: "total_price"})
		c.Fields.Add(&core.SelectField{
			Name:      "quantity_source",
			Values:    []string{"manual", "calculated"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
	})

	ensureCollection(app, "quote_assumptions", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "version",
			Required:      true,
			CollectionId:  versions.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "value"})
		c.Fields.Add(&core.BoolField{Name: "is_confirmed"})
		c.Fields.Add(&core.SelectField{
			Name:      "source",
			Values:    []string{"question_engine", "system", "manual"},
			MaxSelect: 1,
		})
	})
}

// ensureCollection checks if a collection already exists by name. If it
// does, the existing collection is returned. Otherwise a new base
// collection is created, the addFields callback is invoked to populate
// its fields and indexes, and the collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
