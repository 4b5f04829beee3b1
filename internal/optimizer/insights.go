package optimizer

import "fmt"

const maxInsights = 4

// Insights derives human-readable observations from the winning team. Purely
// presentational; thresholds are fixed and applied in declaration order,
// capped at maxInsights.
func Insights(top *Team, totalCandidates int) []string {
	if top == nil {
		return nil
	}

	var out []string
	add := func(cond bool, msg string) {
		if cond && len(out) < maxInsights {
			out = append(out, msg)
		}
	}

	add(top.CompatibilityScore > 0.8, "Excellent team compatibility predicted")
	add(top.CompatibilityScore < 0.5, "Compatibility is low — plan for active facilitation")
	add(top.SkillCoverage > 0.8, "Comprehensive skill coverage across the team")
	add(top.DiversityScore > 0.7, "Strong diversity in roles and experience")
	add(len(top.MemberIDs) <= 3, "Small team size — good for rapid decision making")
	add(len(top.MemberIDs) >= 7, "Large team — watch for communication overhead")
	add(totalCandidates > 2*len(top.MemberIDs),
		fmt.Sprintf("Selected %d of %d candidates — strong bench remains available",
			len(top.MemberIDs), totalCandidates))
	return out
}
