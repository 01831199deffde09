package importer

import (
	"fmt"
	"strconv"
	"strings"

	"catalog-service/internal/models"
)

// KindSpec describes the storage shape of one catalog kind. The engine and
// the catalog store are both driven by it, which is what keeps the import
// algorithm identical across the four kinds.
type KindSpec struct {
	Kind             models.EntityKind
	Table            string
	NaturalKeyColumn string // db/spreadsheet column holding the natural key
	AssignRefID      bool   // store generates a ref id for new entities
	RefIDPrefix      string
}

// EntityAdapter owns everything kind-specific: which column is the natural
// key and how raw row fields coerce into a column update payload. Absent
// fields are omitted from the payload so partial rows never null out
// previously stored data.
type EntityAdapter interface {
	Spec() KindSpec
	Updates(fields Row) map[string]interface{}
}

// AdapterFor returns the adapter for a catalog kind. Kinds come from
// models.ParseEntityKind, so an unknown kind here is a programming error.
func AdapterFor(kind models.EntityKind) EntityAdapter {
	switch kind {
	case models.EntityKindArticle:
		return articleAdapter{}
	case models.EntityKindProduct:
		return productAdapter{}
	case models.EntityKindActivity:
		return activityAdapter{}
	case models.EntityKindTravelProgram:
		return travelProgramAdapter{}
	}
	panic(fmt.Sprintf("unknown catalog kind %q", kind))
}

type articleAdapter struct{}

func (articleAdapter) Spec() KindSpec {
	return KindSpec{
		Kind:             models.EntityKindArticle,
		Table:            models.Article{}.TableName(),
		NaturalKeyColumn: "title",
		AssignRefID:      true,
		RefIDPrefix:      "ART",
	}
}

func (articleAdapter) Updates(fields Row) map[string]interface{} {
	updates := make(map[string]interface{})
	setString(updates, fields, ColRefID, "ref_id")
	setString(updates, fields, "title", "title")
	setString(updates, fields, "content", "content")
	setString(updates, fields, "category", "category")
	setString(updates, fields, "image", "image")
	setList(updates, fields, "tags", "tags")
	setBool(updates, fields, "ispublished", "is_published")
	return updates
}

type productAdapter struct{}

func (productAdapter) Spec() KindSpec {
	return KindSpec{
		Kind:             models.EntityKindProduct,
		Table:            models.Product{}.TableName(),
		NaturalKeyColumn: "name",
		AssignRefID:      true,
		RefIDPrefix:      "PRD",
	}
}

func (productAdapter) Updates(fields Row) map[string]interface{} {
	updates := make(map[string]interface{})
	setString(updates, fields, ColRefID, "ref_id")
	setString(updates, fields, "name", "name")
	setString(updates, fields, "description", "description")
	setString(updates, fields, "brand", "brand")
	setString(updates, fields, "category", "category")
	setFloat(updates, fields, "price", "price")
	setInt(updates, fields, "countinstock", "count_in_stock")
	setString(updates, fields, "image", "image")
	setList(updates, fields, "tags", "tags")
	setBool(updates, fields, "isactive", "is_active")
	return updates
}

type activityAdapter struct{}

func (activityAdapter) Spec() KindSpec {
	return KindSpec{
		Kind:             models.EntityKindActivity,
		Table:            models.Activity{}.TableName(),
		NaturalKeyColumn: "name",
		AssignRefID:      true,
		RefIDPrefix:      "ACT",
	}
}

func (activityAdapter) Updates(fields Row) map[string]interface{} {
	updates := make(map[string]interface{})
	setString(updates, fields, ColRefID, "ref_id")
	setString(updates, fields, "name", "name")
	setString(updates, fields, "description", "description")
	setString(updates, fields, "location", "location")
	setString(updates, fields, "duration", "duration")
	setFloat(updates, fields, "price", "price")
	setString(updates, fields, "image", "image")
	setList(updates, fields, "tags", "tags")
	setBool(updates, fields, "isactive", "is_active")
	return updates
}

type travelProgramAdapter struct{}

func (travelProgramAdapter) Spec() KindSpec {
	return KindSpec{
		Kind:             models.EntityKindTravelProgram,
		Table:            models.TravelProgram{}.TableName(),
		NaturalKeyColumn: "title",
		AssignRefID:      true,
		RefIDPrefix:      "TRV",
	}
}

func (travelProgramAdapter) Updates(fields Row) map[string]interface{} {
	updates := make(map[string]interface{})
	setString(updates, fields, ColRefID, "ref_id")
	setString(updates, fields, "title", "title")
	setString(updates, fields, "description", "description")
	setInt(updates, fields, "durationdays", "duration_days")
	setFloat(updates, fields, "price", "price")
	setList(updates, fields, "destinations", "destinations")
	setString(updates, fields, "image", "image")
	setBool(updates, fields, "isactive", "is_active")
	return updates
}

// Coercion helpers. Each sets the db column only when the source field is
// present and parses cleanly; unparseable values are treated as absent.

func setString(updates map[string]interface{}, fields Row, col, dbColumn string) {
	if value := fields[col]; value != "" {
		updates[dbColumn] = value
	}
}

func setFloat(updates map[string]interface{}, fields Row, col, dbColumn string) {
	if value := fields[col]; value != "" {
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			updates[dbColumn] = num
		}
	}
}

func setInt(updates map[string]interface{}, fields Row, col, dbColumn string) {
	if value := fields[col]; value != "" {
		if num, err := strconv.Atoi(value); err == nil {
			updates[dbColumn] = num
		}
	}
}

func setBool(updates map[string]interface{}, fields Row, col, dbColumn string) {
	if value := fields[col]; value != "" {
		if b, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			updates[dbColumn] = b
		}
	}
}

func setList(updates map[string]interface{}, fields Row, col, dbColumn string) {
	value := fields[col]
	if value == "" {
		return
	}
	parts := strings.Split(value, ",")
	list := make(models.JSONArray, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	updates[dbColumn] = list
}
