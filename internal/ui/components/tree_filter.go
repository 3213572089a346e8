package components

import "strings"

// SearchQuery is a parsed search string.
type SearchQuery struct {
	Pattern    string
	KindFilter nodeKind // kindAny when no prefix given
}

// kindAny matches every node kind.
const kindAny nodeKind = -1

var kindPrefixes = map[string]nodeKind{
	"e:":      kindEngine,
	"engine:": kindEngine,
	"d:":      kindDatabase,
	"db:":     kindDatabase,
	"s:":      kindSchema,
	"schema:": kindSchema,
	"t:":      kindTable,
	"table:":  kindTable,
	"c:":      kindColumn,
	"col:":    kindColumn,
	"column:": kindColumn,
}

// ParseSearchQuery parses a search string into structured form.
// Examples:
//   - "ord" → match any node fuzzily
//   - "t:ord" → match only table names
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{KindFilter: kindAny}

	queryLower := strings.ToLower(query)
	for prefix, kind := range kindPrefixes {
		if strings.HasPrefix(queryLower, prefix) {
			q.KindFilter = kind
			query = query[len(prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs case-insensitive fuzzy subsequence matching and returns
// whether the pattern matches plus the matched positions.
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

// matchesQuery reports whether a single node satisfies the query on its own
// (not counting descendants).
func matchesQuery(n *treeNode, q SearchQuery) bool {
	if n.kind == kindStatus {
		return false
	}
	if q.KindFilter != kindAny && n.kind != q.KindFilter {
		return false
	}
	ok, _ := FuzzyMatch(q.Pattern, n.name)
	return ok
}
