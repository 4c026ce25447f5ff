// ABOUTME: Deterministic outreach ordering for contacts ("my 500")
// ABOUTME: Stable multi-key sort over active outreach, warmness and last contact
package ranking

import (
	"slices"

	"github.com/harperreed/leadsync/models"
)

// DefaultLimit is the size of a consultant's working list.
const DefaultLimit = 500

// Compare orders contacts for outreach: active outreach first, then colder
// warmness scores, then the longest since last contact with never-contacted
// first. Contacts equal on all three keys compare as 0.
func Compare(a, b models.Contact) int {
	if a.InActiveOutreach != b.InActiveOutreach {
		if a.InActiveOutreach {
			return -1
		}
		return 1
	}

	if a.WarmnessScore != b.WarmnessScore {
		if a.WarmnessScore < b.WarmnessScore {
			return -1
		}
		return 1
	}

	switch {
	case a.LastContactedAt == nil && b.LastContactedAt == nil:
		return 0
	case a.LastContactedAt == nil:
		return -1
	case b.LastContactedAt == nil:
		return 1
	}
	return a.LastContactedAt.Compare(*b.LastContactedAt)
}

// Rank returns a sorted copy of contacts. The input is not modified and ties
// keep their input order.
func Rank(contacts []models.Contact) []models.Contact {
	ranked := slices.Clone(contacts)
	slices.SortStableFunc(ranked, Compare)
	return ranked
}

// MyList returns the first limit contacts of the ranking. A non-positive limit
// uses DefaultLimit.
func MyList(contacts []models.Contact, limit int) []models.Contact {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranked := Rank(contacts)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
