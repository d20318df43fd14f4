package resolve

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// NearestNames ranks candidates by edit distance between normalized forms
// and returns the closest limit entries, ties broken lexicographically.
// Used for "closest roster names" hints in configuration errors.
func NearestNames(target string, candidates []string, limit int) []string {
	normTarget := Normalize(target)
	type ranked struct {
		name string
		dist int
	}
	rs := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		rs = append(rs, ranked{name: c, dist: levenshtein.ComputeDistance(normTarget, Normalize(c))})
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].dist != rs[j].dist {
			return rs[i].dist < rs[j].dist
		}
		return rs[i].name < rs[j].name
	})
	if limit > len(rs) {
		limit = len(rs)
	}
	out := make([]string, 0, limit)
	for _, r := range rs[:limit] {
		out = append(out, r.name)
	}
	return out
}
