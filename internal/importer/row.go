package importer

import (
	"strconv"
	"strings"
)

// Row is one decoded spreadsheet row: normalized (lowercase) column name to
// trimmed string value. Empty string means the column is absent for that row.
// The "_row" bookkeeping column carries the 1-indexed source row number set
// by the file parser.
type Row map[string]string

// Universal columns recognized on every catalog kind. Entity-specific columns
// (price, category, ...) are owned by the kind's adapter.
const (
	ColRefID           = "refid"
	ColReviewName      = "reviewname"
	ColReviewRating    = "reviewrating"
	ColReviewComment   = "reviewcomment"
	ColReviewUserEmail = "reviewuseremail"
	colRowNumber       = "_row"
)

// KeyKind tags an IdentityKey so a name that happens to look like a refId can
// never collide with an actual refId in the same map.
type KeyKind string

const (
	KeyRefID      KeyKind = "refId"
	KeyNaturalKey KeyKind = "naturalKey"
)

// IdentityKey identifies one catalog entity within a batch: by stable
// reference id when the row carries one, by natural key (name/title) otherwise.
type IdentityKey struct {
	Kind  KeyKind
	Value string
}

// ReviewRecord is one embedded review extracted from a row.
type ReviewRecord struct {
	Row     int
	Name    string
	Rating  string
	Comment string
	Email   string
}

// Group is one catalog entity assembled from one or more rows sharing an
// identity key, plus every embedded review those rows carried.
type Group struct {
	Row     int
	Key     IdentityKey
	Fields  Row
	Reviews []ReviewRecord
}

// SkippedRow records a row that could not be grouped (no usable identity key).
type SkippedRow struct {
	Row    int
	Reason string
}

// SetNumber records the 1-indexed source row number for error reporting.
func (r Row) SetNumber(n int) {
	r[colRowNumber] = strconv.Itoa(n)
}

// Number returns the source row number tracked by the parser, 0 if absent.
func (r Row) Number() int {
	n, _ := strconv.Atoi(r[colRowNumber])
	return n
}

// GroupRows groups decoded rows by identity key, first-seen order. The first
// row of a group defines the entity fields; later rows with the same key only
// contribute their embedded review columns. A row whose reviewComment and
// reviewUserEmail are both non-empty yields one ReviewRecord. Rows with
// neither a refId nor a natural key value cannot be grouped and are returned
// as skipped, never silently dropped.
func GroupRows(rows []Row, naturalKeyColumn string) ([]Group, []SkippedRow) {
	groups := make([]Group, 0, len(rows))
	index := make(map[IdentityKey]int)
	var skipped []SkippedRow

	for _, row := range rows {
		var key IdentityKey
		if refID := strings.TrimSpace(row[ColRefID]); refID != "" {
			key = IdentityKey{Kind: KeyRefID, Value: refID}
		} else if natural := strings.TrimSpace(row[naturalKeyColumn]); natural != "" {
			key = IdentityKey{Kind: KeyNaturalKey, Value: natural}
		} else {
			skipped = append(skipped, SkippedRow{
				Row:    row.Number(),
				Reason: "row has neither refId nor " + naturalKeyColumn,
			})
			continue
		}

		idx, seen := index[key]
		if !seen {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, Group{
				Row:    row.Number(),
				Key:    key,
				Fields: row,
			})
		}

		if row[ColReviewComment] != "" && row[ColReviewUserEmail] != "" {
			groups[idx].Reviews = append(groups[idx].Reviews, ReviewRecord{
				Row:     row.Number(),
				Name:    row[ColReviewName],
				Rating:  row[ColReviewRating],
				Comment: row[ColReviewComment],
				Email:   strings.ToLower(strings.TrimSpace(row[ColReviewUserEmail])),
			})
		}
	}

	return groups, skipped
}
