package compat

import (
	"math"
	"testing"

	"github.com/SherifTito77/PsychSync-sub002/internal/member"
)

func profile(rec member.Record) member.Profile {
	return member.NewProfile(rec)
}

func floatPtr(v float64) *float64 { return &v }

func TestPair_Symmetry(t *testing.T) {
	a := profile(member.Record{
		ID: "a", Role: "developer",
		Traits:          map[string]float64{"conscientiousness": 0.8, "extraversion": 0.7},
		Skills:          []string{"python", "react"},
		ExperienceYears: floatPtr(6),
	})
	b := profile(member.Record{
		ID: "b", Role: "designer",
		Traits:          map[string]float64{"conscientiousness": 0.75, "extraversion": 0.3},
		Skills:          []string{"figma", "react"},
		ExperienceYears: floatPtr(2),
	})
	c := profile(member.Record{ID: "c", Role: "astronaut"})

	pairs := [][2]member.Profile{{a, b}, {a, c}, {b, c}}
	for _, p := range pairs {
		x, y := p[0], p[1]
		if got, rev := Pair(&x, &y), Pair(&y, &x); got != rev {
			t.Errorf("Pair(%s,%s) = %g but Pair(%s,%s) = %g, want symmetric",
				x.ID, y.ID, got, y.ID, x.ID, rev)
		}
	}
}

func TestPair_Range(t *testing.T) {
	extremes := []member.Profile{
		profile(member.Record{ID: "hi", Role: "developer",
			Traits: map[string]float64{
				"openness": 1, "conscientiousness": 1, "extraversion": 1,
				"agreeableness": 1, "neuroticism": 1,
			},
			Skills:          []string{"a", "b", "c"},
			ExperienceYears: floatPtr(40),
		}),
		profile(member.Record{ID: "lo", Role: "qa",
			Traits: map[string]float64{
				"openness": 0, "conscientiousness": 0, "extraversion": 0,
				"agreeableness": 0, "neuroticism": 0,
			},
			ExperienceYears: floatPtr(0),
		}),
		profile(member.Record{ID: "empty"}),
	}
	for i := range extremes {
		for j := range extremes {
			if i == j {
				continue
			}
			got := Pair(&extremes[i], &extremes[j])
			if got < 0 || got > 1 {
				t.Errorf("Pair(%s,%s) = %g, want within [0,1]",
					extremes[i].ID, extremes[j].ID, got)
			}
		}
	}
}

func TestPair_NeutralTraitDefaults(t *testing.T) {
	// A member with no traits map must score identically to one with every
	// trait explicitly at the neutral 0.5.
	base := member.Record{ID: "x", Role: "pm", Skills: []string{"jira"}}
	implicit := profile(base)
	explicit := profile(member.Record{
		ID: "x", Role: "pm", Skills: []string{"jira"},
		Traits: map[string]float64{
			"openness": 0.5, "conscientiousness": 0.5, "extraversion": 0.5,
			"agreeableness": 0.5, "neuroticism": 0.5,
		},
	})
	other := profile(member.Record{ID: "y", Role: "qa", Skills: []string{"selenium", "jira"}})

	if gi, ge := Pair(&implicit, &other), Pair(&explicit, &other); gi != ge {
		t.Errorf("implicit-default score %g != explicit-0.5 score %g", gi, ge)
	}
}

func TestPersonalityScore_TraitRules(t *testing.T) {
	mk := func(traits map[string]float64) member.Profile {
		return profile(member.Record{Role: "developer", Traits: traits})
	}

	// Identical neutral traits: conscientiousness 1.0, agreeableness 1.0,
	// extraversion gap 0 -> 0.7, neuroticism 1-0.5=0.5, openness 0.8.
	a := mk(map[string]float64{"extraversion": 0.5})
	b := mk(map[string]float64{"extraversion": 0.5})
	want := (1.0 + 1.0 + 0.7 + 0.5 + 0.8) / 5
	if got := personalityScore(&a, &b); math.Abs(got-want) > 1e-12 {
		t.Errorf("neutral personality score = %g, want %g", got, want)
	}

	// Moderate extraversion gap (0.7 vs 0.3 -> |Δ|·100 = 40) scores 1.0.
	c := mk(map[string]float64{"extraversion": 0.7})
	d := mk(map[string]float64{"extraversion": 0.3})
	want = (1.0 + 1.0 + 1.0 + 0.5 + 0.8) / 5
	if got := personalityScore(&c, &d); math.Abs(got-want) > 1e-12 {
		t.Errorf("moderate-gap personality score = %g, want %g", got, want)
	}

	// High joint neuroticism drags the pair down.
	e := mk(map[string]float64{"neuroticism": 0.9})
	f := mk(map[string]float64{"neuroticism": 0.9})
	lo := personalityScore(&e, &f)
	if lo >= want {
		t.Errorf("high-neuroticism score %g not below calm-pair score %g", lo, want)
	}
}

func TestSkillScore_SweetSpot(t *testing.T) {
	// 2 shared of 5 union = 40% overlap: inside the sweet spot.
	a := profile(member.Record{Role: "developer", Skills: []string{"go", "sql", "react"}})
	b := profile(member.Record{Role: "developer", Skills: []string{"go", "sql", "figma", "css"}})
	// overlap=2, union=5, ratio=0.4 -> component 1.0; unique=(1+2)/10=0.3.
	want := 0.6*1.0 + 0.4*0.3
	if got := skillScore(&a, &b); math.Abs(got-want) > 1e-12 {
		t.Errorf("skillScore = %g, want %g", got, want)
	}
}

func TestSkillScore_FullOverlapPenalized(t *testing.T) {
	a := profile(member.Record{Role: "qa", Skills: []string{"selenium", "jira"}})
	b := profile(member.Record{Role: "qa", Skills: []string{"selenium", "jira"}})
	// ratio=1.0 -> component 0.5; unique ratio 0.
	want := 0.6 * 0.5
	if got := skillScore(&a, &b); math.Abs(got-want) > 1e-12 {
		t.Errorf("identical skill sets score = %g, want %g", got, want)
	}
}

func TestSkillScore_EmptySideNeutral(t *testing.T) {
	a := profile(member.Record{Role: "pm"})
	b := profile(member.Record{Role: "qa", Skills: []string{"selenium"}})
	want := 0.6*1.0 + 0.4*0.5 // neutral 0.5 ratio sits in the sweet spot
	if got := skillScore(&a, &b); math.Abs(got-want) > 1e-12 {
		t.Errorf("empty-side skillScore = %g, want %g", got, want)
	}
}

func TestExperienceScore(t *testing.T) {
	cases := []struct {
		name string
		a, b *float64
		want float64
	}{
		{"both missing", nil, nil, 0.5},
		{"one missing", floatPtr(5), nil, 0.5},
		{"too similar", floatPtr(5), floatPtr(6), 0.7},
		{"ideal gap", floatPtr(2), floatPtr(6), 1.0},
		{"too disparate", floatPtr(1), floatPtr(12), 0.6},
	}
	for _, c := range cases {
		a := member.Profile{ExperienceYears: c.a}
		b := member.Profile{ExperienceYears: c.b}
		if got := experienceScore(&a, &b); got != c.want {
			t.Errorf("%s: experienceScore = %g, want %g", c.name, got, c.want)
		}
	}
}

func TestRoleTable_SymmetricAndDefaulted(t *testing.T) {
	for _, a := range member.Roles {
		for _, b := range member.Roles {
			ab, ba := roleScore(a, b), roleScore(b, a)
			if ab != ba {
				t.Errorf("roleScore(%s,%s) = %g but roleScore(%s,%s) = %g", a, b, ab, b, a, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("roleScore(%s,%s) = %g, want within [0,1]", a, b, ab)
			}
		}
	}
	if got := roleScore(member.RoleUnknown, member.RoleDeveloper); got != roleDefault {
		t.Errorf("unknown role pair = %g, want default %g", got, roleDefault)
	}
}
