package optimizer

import "strings"

// Objective selects how evaluated teams are scored and ranked.
type Objective string

const (
	MaximizePerformance   Objective = "maximize_performance"
	MinimizeConflicts     Objective = "minimize_conflicts"
	BalanceDiversity      Objective = "balance_diversity"
	OptimizeCollaboration Objective = "optimize_collaboration"
)

// ParseObjective normalizes a free-form objective string. Unknown values fall
// back to MaximizePerformance rather than erroring.
func ParseObjective(s string) Objective {
	switch Objective(strings.ToLower(strings.TrimSpace(s))) {
	case MinimizeConflicts:
		return MinimizeConflicts
	case BalanceDiversity:
		return BalanceDiversity
	case OptimizeCollaboration:
		return OptimizeCollaboration
	default:
		return MaximizePerformance
	}
}

// objectiveScore is the ranking key for one team under an objective.
func objectiveScore(t *Team, obj Objective) float64 {
	switch obj {
	case MinimizeConflicts:
		return t.CompatibilityScore
	case BalanceDiversity:
		return t.DiversityScore
	case OptimizeCollaboration:
		return 0.6*t.CompatibilityScore + 0.4*t.DiversityScore
	default:
		return 0.4*t.CompatibilityScore + 0.4*t.SkillCoverage + 0.2*t.DiversityScore
	}
}
