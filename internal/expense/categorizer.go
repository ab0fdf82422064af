/**
 * @description
 * Derives the internal expense category and an optional human note from the
 * raw merchant text and category labels reported by the aggregator.
 *
 * The mapping is an ordered rule table evaluated top to bottom; the first
 * matching rule wins. Merchant-name rules encode accumulated business
 * judgment about specific merchants and deliberately take precedence over
 * the aggregator's own taxonomy. Rules live in rules.go so individual
 * entries can be tested and extended without touching this evaluator.
 */

package expense

import (
	"strings"

	"github.com/goldstone/sync-service/internal/domain"
)

// rule is one (predicate, result) pair. All set fields must match:
// nameContains / nameEquals against the lowercased merchant name, and
// primary / secondary / tertiary against the aggregator's category labels.
// An unset field matches anything.
type rule struct {
	nameContains string
	nameEquals   string
	primary      string
	secondary    string
	tertiary     string

	category domain.ExpenseCategory
}

func (r rule) matches(name string, primary, secondary, tertiary string) bool {
	if r.nameContains != "" && !strings.Contains(name, r.nameContains) {
		return false
	}
	if r.nameEquals != "" && name != r.nameEquals {
		return false
	}
	if r.primary != "" && primary != r.primary {
		return false
	}
	if r.secondary != "" && secondary != r.secondary {
		return false
	}
	if r.tertiary != "" && tertiary != r.tertiary {
		return false
	}
	return true
}

// Categorize maps a merchant name and the aggregator's hierarchical category
// labels to an expense category. Pure and deterministic; matching is
// case-insensitive on the merchant name and exact on category labels.
func Categorize(name string, categories []string) domain.ExpenseCategory {
	lower := strings.ToLower(name)

	var primary, secondary, tertiary string
	if len(categories) > 0 {
		primary = categories[0]
	}
	if len(categories) > 1 {
		secondary = categories[1]
	}
	if len(categories) > 2 {
		tertiary = categories[2]
	}

	for _, r := range categoryRules {
		if r.matches(lower, primary, secondary, tertiary) {
			return r.category
		}
	}
	return domain.ExpenseOthers
}

// Note returns a fixed human-readable annotation for a small set of
// (category, merchant substring) pairs, or "" when none applies.
func Note(category domain.ExpenseCategory, name string) string {
	lower := strings.ToLower(name)

	for _, n := range noteRules {
		if n.category == category && strings.Contains(lower, n.nameContains) {
			return n.note
		}
	}
	return ""
}
