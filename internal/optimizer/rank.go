package optimizer

import "sort"

// Rank orders teams by the objective's score, descending, and returns the
// top k (fewer if fewer exist). The sort is stable, so equal-score teams
// keep enumeration order; for the collaboration objective an exact tie is
// nudged by unique-role count before falling back to enumeration order.
func Rank(teams []Team, obj Objective, k int) []Team {
	ranked := make([]Team, len(teams))
	copy(ranked, teams)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := objectiveScore(&ranked[i], obj), objectiveScore(&ranked[j], obj)
		if si != sj {
			return si > sj
		}
		if obj == OptimizeCollaboration && ranked[i].uniqueRoles != ranked[j].uniqueRoles {
			return ranked[i].uniqueRoles > ranked[j].uniqueRoles
		}
		return false
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	for i := range ranked {
		ranked[i].Score = objectiveScore(&ranked[i], obj)
	}
	return ranked
}
