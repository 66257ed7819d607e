package services

import (
	"testing"
	"time"

	"quoteengine/testhelpers"
)

func TestGenerateQuoteReference(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Devis Co", "MA")
	project := testhelpers.CreateTestProject(t, app, company.Id, "Villa", "construction")

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	ref, err := GenerateQuoteReference(app, company.Id, now)
	if err != nil {
		t.Fatalf("GenerateQuoteReference() error: %v", err)
	}
	if ref != "DEV-2026-0001" {
		t.Errorf("first reference = %q, want DEV-2026-0001", ref)
	}

	testhelpers.CreateTestQuote(t, app, project.Id, ref, 1)

	ref, err = GenerateQuoteReference(app, company.Id, now)
	if err != nil {
		t.Fatalf("GenerateQuoteReference() error: %v", err)
	}
	if ref != "DEV-2026-0002" {
		t.Errorf("second reference = %q, want DEV-2026-0002", ref)
	}
}

func TestGenerateQuoteReference_PerCompany(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	first := testhelpers.CreateTestCompany(t, app, "Première", "MA")
	second := testhelpers.CreateTestCompany(t, app, "Deuxième", "MA")
	project := testhelpers.CreateTestProject(t, app, first.Id, "Villa", "construction")

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	testhelpers.CreateTestQuote(t, app, project.Id, "DEV-2026-0001", 1)

	// The other company's sequence starts independently.
	ref, err := GenerateQuoteReference(app, second.Id, now)
	if err != nil {
		t.Fatalf("GenerateQuoteReference() error: %v", err)
	}
	if ref != "DEV-2026-0001" {
		t.Errorf("reference = %q, want DEV-2026-0001", ref)
	}
}

func TestGenerateProjectReference(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	company := testhelpers.CreateTestCompany(t, app, "Devis Co", "MA")

	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	ref, err := GenerateProjectReference(app, company.Id, now)
	if err != nil {
		t.Fatalf("GenerateProjectReference() error: %v", err)
	}
	if ref != "PRJ-2026-0001" {
		t.Errorf("reference = %q, want PRJ-2026-0001", ref)
	}
}
