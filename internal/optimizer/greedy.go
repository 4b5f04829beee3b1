package optimizer

import (
	"sort"

	"github.com/SherifTito77/PsychSync-sub002/internal/compat"
)

// greedySubsets is the explicit fallback strategy for pools too large to
// enumerate within budget: start from the single best-scoring pair, then
// grow one member at a time by mean compatibility to the current set,
// snapshotting the team at every permitted size. Returns one subset per
// size in [MinTeamSize, min(MaxTeamSize, n)].
func greedySubsets(m compat.Matrix) [][]int {
	n := len(m)
	if n < MinTeamSize {
		return nil
	}

	// Seed with the best pair.
	bi, bj := 0, 1
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if m[i][j] > m[bi][bj] {
				bi, bj = i, j
			}
		}
	}
	team := []int{bi, bj}
	in := map[int]bool{bi: true, bj: true}

	maxSize := MaxTeamSize
	if n < maxSize {
		maxSize = n
	}

	var snapshots [][]int
	for len(team) < maxSize {
		best, bestScore := -1, -1.0
		for c := 0; c < n; c++ {
			if in[c] {
				continue
			}
			var sum float64
			for _, t := range team {
				sum += m[c][t]
			}
			if score := sum / float64(len(team)); score > bestScore {
				best, bestScore = c, score
			}
		}
		team = append(team, best)
		in[best] = true

		if len(team) >= MinTeamSize {
			snap := make([]int, len(team))
			copy(snap, team)
			// Canonical ascending order, matching enumerated subsets.
			sort.Ints(snap)
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots
}
