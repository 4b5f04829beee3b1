package optimizer

import "testing"

func team(id string, compatScore, coverage, diversity float64, uniqueRoles int) Team {
	return Team{
		MemberIDs:          []string{id},
		CompatibilityScore: compatScore,
		SkillCoverage:      coverage,
		DiversityScore:     diversity,
		uniqueRoles:        uniqueRoles,
	}
}

func TestParseObjective(t *testing.T) {
	cases := []struct {
		in   string
		want Objective
	}{
		{"maximize_performance", MaximizePerformance},
		{"minimize_conflicts", MinimizeConflicts},
		{"  BALANCE_DIVERSITY ", BalanceDiversity},
		{"optimize_collaboration", OptimizeCollaboration},
		{"synergize_paradigms", MaximizePerformance},
		{"", MaximizePerformance},
	}
	for _, c := range cases {
		if got := ParseObjective(c.in); got != c.want {
			t.Errorf("ParseObjective(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRank_PerObjectiveKeys(t *testing.T) {
	teams := []Team{
		team("a", 0.9, 0.1, 0.1, 1), // best by minimize_conflicts
		team("b", 0.1, 0.9, 0.9, 1), // best by balance_diversity
		team("c", 0.6, 0.6, 0.6, 1), // best by maximize_performance
	}

	cases := []struct {
		obj  Objective
		want string
	}{
		{MinimizeConflicts, "a"},
		{BalanceDiversity, "b"},
		{MaximizePerformance, "c"},
	}
	for _, c := range cases {
		got := Rank(teams, c.obj, 5)
		if got[0].MemberIDs[0] != c.want {
			t.Errorf("%s: top = %s, want %s", c.obj, got[0].MemberIDs[0], c.want)
		}
	}
}

func TestRank_StableOnTies(t *testing.T) {
	teams := []Team{
		team("first", 0.5, 0.5, 0.5, 2),
		team("second", 0.5, 0.5, 0.5, 2),
		team("third", 0.5, 0.5, 0.5, 2),
	}
	got := Rank(teams, MaximizePerformance, 5)
	for i, want := range []string{"first", "second", "third"} {
		if got[i].MemberIDs[0] != want {
			t.Errorf("tied ranking position %d = %s, want insertion order %s",
				i, got[i].MemberIDs[0], want)
		}
	}
}

func TestRank_CollaborationTieNudgedByRoles(t *testing.T) {
	teams := []Team{
		team("narrow", 0.5, 0.5, 0.5, 1),
		team("wide", 0.5, 0.5, 0.5, 3),
	}
	got := Rank(teams, OptimizeCollaboration, 5)
	if got[0].MemberIDs[0] != "wide" {
		t.Errorf("collaboration tie: top = %s, want the team with more unique roles",
			got[0].MemberIDs[0])
	}

	// Other objectives keep pure insertion order on ties.
	got = Rank(teams, MinimizeConflicts, 5)
	if got[0].MemberIDs[0] != "narrow" {
		t.Errorf("conflicts tie: top = %s, want insertion order", got[0].MemberIDs[0])
	}
}

func TestRank_TopKBound(t *testing.T) {
	var teams []Team
	for i := 0; i < 9; i++ {
		teams = append(teams, team("t", float64(i)/10, 0, 0, 1))
	}
	if got := Rank(teams, MinimizeConflicts, 5); len(got) != 5 {
		t.Errorf("got %d teams, want top 5", len(got))
	}
	if got := Rank(teams[:2], MinimizeConflicts, 5); len(got) != 2 {
		t.Errorf("got %d teams, want all 2 when fewer than k exist", len(got))
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	teams := []Team{
		team("low", 0.1, 0, 0, 1),
		team("high", 0.9, 0, 0, 1),
	}
	Rank(teams, MinimizeConflicts, 5)
	if teams[0].MemberIDs[0] != "low" {
		t.Error("Rank reordered its input slice")
	}
}

func TestInsights_Thresholds(t *testing.T) {
	top := &Team{
		MemberIDs:          []string{"a", "b", "c"},
		CompatibilityScore: 0.9,
		SkillCoverage:      0.9,
		DiversityScore:     0.2,
	}
	got := Insights(top, 10)
	if len(got) == 0 || len(got) > 4 {
		t.Fatalf("got %d insights, want between 1 and 4", len(got))
	}
	if got[0] != "Excellent team compatibility predicted" {
		t.Errorf("first insight = %q, want compatibility observation first", got[0])
	}
	if !contains(got, "Small team size — good for rapid decision making") {
		t.Errorf("insights %v missing small-team observation", got)
	}
}

func TestInsights_NilTop(t *testing.T) {
	if got := Insights(nil, 10); got != nil {
		t.Errorf("Insights(nil) = %v, want nil", got)
	}
}
