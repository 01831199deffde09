package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean, list
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row or group
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the outcome of one import batch
type ImportResult struct {
	Success        bool             `json:"success"`
	TotalRows      int              `json:"totalRows"`
	CreatedCount   int              `json:"createdCount"`
	UpdatedCount   int              `json:"updatedCount"`
	SkippedRows    int              `json:"skippedRows"`
	ReviewsCreated int              `json:"reviewsCreated"`
	ReviewsFailed  int              `json:"reviewsFailed"`
	Errors         []ImportRowError `json:"errors,omitempty"`
	ProcessingMs   int64            `json:"processingMs"`
}

// ImportRequest represents import configuration
type ImportRequest struct {
	ValidateOnly bool `json:"validateOnly"` // dry run mode
}

// reviewColumns are shared by every catalog kind: each data row may embed
// at most one review alongside its entity columns.
func reviewColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "reviewName", Description: "Reviewer display name", Required: false, Type: "string", Example: "Sarah M."},
		{Name: "reviewRating", Description: "Review rating (1-5)", Required: false, Type: "number", Example: "5"},
		{Name: "reviewComment", Description: "Review text", Required: false, Type: "string", Example: "Amazing experience!"},
		{Name: "reviewUserEmail", Description: "Reviewer email - account auto-created if not exists", Required: false, Type: "string", Example: "sarah@example.com"},
	}
}

// ArticleImportColumns returns the column definitions for article import
func ArticleImportColumns() []ImportTemplateColumn {
	cols := []ImportTemplateColumn{
		{Name: "refId", Description: "Stable reference id (use this OR title to match existing articles)", Required: false, Type: "string", Example: "ART-0042"},
		{Name: "title", Description: "Article title", Required: true, Type: "string", Example: "Top 10 Riads in the Medina"},
		{Name: "content", Description: "Article body", Required: false, Type: "string", Example: ""},
		{Name: "category", Description: "Article category", Required: false, Type: "string", Example: "Guides"},
		{Name: "image", Description: "Cover image URL", Required: false, Type: "string", Example: ""},
		{Name: "tags", Description: "Comma-separated tags", Required: false, Type: "list", Example: "medina,riads"},
		{Name: "isPublished", Description: "true/false", Required: false, Type: "boolean", Example: "true"},
	}
	return append(cols, reviewColumns()...)
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	cols := []ImportTemplateColumn{
		{Name: "refId", Description: "Stable reference id (use this OR name to match existing products)", Required: false, Type: "string", Example: "PRD-0042"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Argan Oil 100ml"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "brand", Description: "Brand name", Required: false, Type: "string", Example: ""},
		{Name: "category", Description: "Product category", Required: false, Type: "string", Example: "Cosmetics"},
		{Name: "price", Description: "Product price", Required: false, Type: "number", Example: "19.99"},
		{Name: "countInStock", Description: "Stock quantity", Required: false, Type: "number", Example: "25"},
		{Name: "image", Description: "Image URL", Required: false, Type: "string", Example: ""},
		{Name: "tags", Description: "Comma-separated tags", Required: false, Type: "list", Example: "argan,oil"},
		{Name: "isActive", Description: "true/false", Required: false, Type: "boolean", Example: "true"},
	}
	return append(cols, reviewColumns()...)
}

// ActivityImportColumns returns the column definitions for activity import
func ActivityImportColumns() []ImportTemplateColumn {
	cols := []ImportTemplateColumn{
		{Name: "refId", Description: "Stable reference id (use this OR name to match existing activities)", Required: false, Type: "string", Example: "ACT-0042"},
		{Name: "name", Description: "Activity name", Required: true, Type: "string", Example: "Desert Tour"},
		{Name: "description", Description: "Activity description", Required: false, Type: "string", Example: ""},
		{Name: "location", Description: "Meeting point / area", Required: false, Type: "string", Example: "Agafay"},
		{Name: "duration", Description: "Duration label", Required: false, Type: "string", Example: "Half day"},
		{Name: "price", Description: "Price per person", Required: false, Type: "number", Example: "100"},
		{Name: "image", Description: "Image URL", Required: false, Type: "string", Example: ""},
		{Name: "tags", Description: "Comma-separated tags", Required: false, Type: "list", Example: "desert,camel"},
		{Name: "isActive", Description: "true/false", Required: false, Type: "boolean", Example: "true"},
	}
	return append(cols, reviewColumns()...)
}

// TravelProgramImportColumns returns the column definitions for travel program import
func TravelProgramImportColumns() []ImportTemplateColumn {
	cols := []ImportTemplateColumn{
		{Name: "refId", Description: "Stable reference id (use this OR title to match existing programs)", Required: false, Type: "string", Example: "TRV-0042"},
		{Name: "title", Description: "Program title", Required: true, Type: "string", Example: "Imperial Cities in 7 Days"},
		{Name: "description", Description: "Program description", Required: false, Type: "string", Example: ""},
		{Name: "durationDays", Description: "Number of days", Required: false, Type: "number", Example: "7"},
		{Name: "price", Description: "Price per person", Required: false, Type: "number", Example: "850"},
		{Name: "destinations", Description: "Comma-separated destinations", Required: false, Type: "list", Example: "Marrakech,Fes,Rabat"},
		{Name: "image", Description: "Image URL", Required: false, Type: "string", Example: ""},
		{Name: "isActive", Description: "true/false", Required: false, Type: "boolean", Example: "true"},
	}
	return append(cols, reviewColumns()...)
}

// ImportTemplateFor returns the template definition for a catalog kind
func ImportTemplateFor(kind EntityKind) ImportTemplate {
	var cols []ImportTemplateColumn
	switch kind {
	case EntityKindArticle:
		cols = ArticleImportColumns()
	case EntityKindProduct:
		cols = ProductImportColumns()
	case EntityKindActivity:
		cols = ActivityImportColumns()
	case EntityKindTravelProgram:
		cols = TravelProgramImportColumns()
	}
	return ImportTemplate{
		Entity:  string(kind),
		Version: "1.0",
		Columns: cols,
	}
}
