package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Search returns kinds matching the palette query, best matches first.
// Substring matches on type or label rank before fuzzy matches; fuzzy
// matches rank by edit distance against the label, with a cutoff so
// unrelated kinds never surface. An empty query returns every kind in
// palette order.
func (r *Registry) Search(query string) []ComponentKind {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return r.Kinds()
	}

	type scored struct {
		kind  ComponentKind
		score int
	}
	var matches []scored

	for _, k := range r.Kinds() {
		typeTag := strings.ToLower(k.Type)
		label := strings.ToLower(k.Label)

		switch {
		case strings.HasPrefix(typeTag, query) || strings.HasPrefix(label, query):
			matches = append(matches, scored{k, 0})
		case strings.Contains(typeTag, query) || strings.Contains(label, query):
			matches = append(matches, scored{k, 1})
		default:
			d := levenshtein.ComputeDistance(query, label)
			if d <= len(label)/2 {
				matches = append(matches, scored{k, 1 + d})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score < matches[j].score
	})

	out := make([]ComponentKind, len(matches))
	for i, m := range matches {
		out[i] = m.kind
	}
	return out
}
