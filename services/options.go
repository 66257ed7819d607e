package services

// UnitOptions returns the list of measurement unit options for quote
// lines and BPU articles.
var UnitOptions = []string{
	"m²",
	"m³",
	"ml",
	"u",
	"ens",
	"forfait",
	"kg",
	"t",
	"l",
	"h",
	"j",
}

// FloorTypeOptions lists the floor_type answers the generator
// recognises; anything else falls back to carrelage pricing.
var FloorTypeOptions = []string{
	"carrelage",
	"parquet",
	"marbre",
	"beton_cire",
}

// ProjectTypeOptions lists the supported project types.
var ProjectTypeOptions = []string{
	"construction",
	"renovation",
	"extension",
	"amenagement",
}

// QuoteStatusOptions lists the quote statuses in lifecycle order.
var QuoteStatusOptions = []string{
	"draft",
	"pending",
	"sent",
	"accepted",
	"rejected",
	"expired",
}
