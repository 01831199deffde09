package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(num int, fields map[string]string) Row {
	r := make(Row, len(fields)+1)
	for k, v := range fields {
		r[k] = v
	}
	r.SetNumber(num)
	return r
}

func TestGroupRows_FirstRowWinsFields(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{"name": "Desert Tour", "price": "100", "location": "Agafay"}),
		row(3, map[string]string{"name": "Desert Tour", "price": "999", "location": "Merzouga"}),
	}

	groups, skipped := GroupRows(rows, "name")

	assert.Empty(t, skipped)
	assert.Len(t, groups, 1)
	assert.Equal(t, "100", groups[0].Fields["price"])
	assert.Equal(t, "Agafay", groups[0].Fields["location"])
	assert.Equal(t, 2, groups[0].Row)
}

func TestGroupRows_RefIDPreferredOverNaturalKey(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{"refid": "ACT-1", "name": "Desert Tour"}),
		row(3, map[string]string{"name": "Desert Tour"}),
	}

	groups, skipped := GroupRows(rows, "name")

	assert.Empty(t, skipped)
	// The refId row and the name-only row key differently, so they form two
	// groups even though the names match.
	assert.Len(t, groups, 2)
	assert.Equal(t, IdentityKey{Kind: KeyRefID, Value: "ACT-1"}, groups[0].Key)
	assert.Equal(t, IdentityKey{Kind: KeyNaturalKey, Value: "Desert Tour"}, groups[1].Key)
}

func TestGroupRows_ReviewNeedsCommentAndEmail(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{
			"name":            "Desert Tour",
			"reviewcomment":   "Great trip",
			"reviewuseremail": "Omar@Example.com",
			"reviewrating":    "5",
			"reviewname":      "Omar",
		}),
		row(3, map[string]string{
			"name":          "Desert Tour",
			"reviewcomment": "No email on this one",
		}),
		row(4, map[string]string{
			"name":            "Desert Tour",
			"reviewuseremail": "sara@example.com",
		}),
	}

	groups, _ := GroupRows(rows, "name")

	assert.Len(t, groups, 1)
	assert.Len(t, groups[0].Reviews, 1)
	review := groups[0].Reviews[0]
	assert.Equal(t, "omar@example.com", review.Email, "emails are normalized lowercase")
	assert.Equal(t, "Great trip", review.Comment)
	assert.Equal(t, "5", review.Rating)
	assert.Equal(t, 2, review.Row)
}

func TestGroupRows_LaterRowsContributeReviews(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{"name": "Desert Tour", "price": "100",
			"reviewcomment": "Amazing", "reviewuseremail": "a@example.com", "reviewrating": "5"}),
		row(3, map[string]string{"name": "Desert Tour",
			"reviewcomment": "It was ok", "reviewuseremail": "b@example.com", "reviewrating": "3"}),
	}

	groups, _ := GroupRows(rows, "name")

	assert.Len(t, groups, 1)
	assert.Len(t, groups[0].Reviews, 2)
}

func TestGroupRows_RowsWithoutIdentityAreSkipped(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{"price": "100"}),
		row(3, map[string]string{"name": "Desert Tour"}),
		row(4, map[string]string{"refid": "  ", "name": ""}),
	}

	groups, skipped := GroupRows(rows, "name")

	assert.Len(t, groups, 1)
	assert.Len(t, skipped, 2)
	assert.Equal(t, 2, skipped[0].Row)
	assert.Equal(t, 4, skipped[1].Row)
	assert.Contains(t, skipped[0].Reason, "name")
}

func TestGroupRows_PreservesFirstSeenOrder(t *testing.T) {
	rows := []Row{
		row(2, map[string]string{"name": "B"}),
		row(3, map[string]string{"name": "A"}),
		row(4, map[string]string{"name": "B"}),
		row(5, map[string]string{"name": "C"}),
	}

	groups, _ := GroupRows(rows, "name")

	assert.Len(t, groups, 3)
	assert.Equal(t, "B", groups[0].Key.Value)
	assert.Equal(t, "A", groups[1].Key.Value)
	assert.Equal(t, "C", groups[2].Key.Value)
}
