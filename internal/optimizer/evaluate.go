package optimizer

import (
	"math"

	"github.com/SherifTito77/PsychSync-sub002/internal/compat"
	"github.com/SherifTito77/PsychSync-sub002/internal/member"
)

// Team is one evaluated candidate composition. Created by Evaluate and never
// mutated afterwards; the ranker and insight synthesizer only read it.
type Team struct {
	MemberIDs          []string       `json:"member_ids"`
	RoleDistribution   map[string]int `json:"role_distribution"`
	Score              float64        `json:"score"` // objective score, set by Rank
	CompatibilityScore float64        `json:"compatibility_score"`
	SkillCoverage      float64        `json:"skill_coverage"`
	DiversityScore     float64        `json:"diversity_score"`
	Strengths          []string       `json:"strengths"`
	Risks              []string       `json:"risks"`

	uniqueRoles int
}

const maxObservations = 5

// Evaluate computes the composite metrics for one subset of pool indices
// using the shared compatibility matrix.
func Evaluate(subset []int, m compat.Matrix, pool []member.Profile) Team {
	members := make([]*member.Profile, len(subset))
	ids := make([]string, len(subset))
	for i, idx := range subset {
		members[i] = &pool[idx]
		ids[i] = pool[idx].ID
	}

	roleDist := make(map[string]int)
	for _, p := range members {
		roleDist[string(p.Role)]++
	}

	t := Team{
		MemberIDs:          ids,
		RoleDistribution:   roleDist,
		CompatibilityScore: m.MeanSubset(subset),
		SkillCoverage:      skillCoverage(members),
		uniqueRoles:        len(roleDist),
	}
	t.DiversityScore = diversityScore(members, t.uniqueRoles)
	t.Strengths = strengths(&t, members)
	t.Risks = risks(&t, members)
	return t
}

// skillCoverage measures non-redundant skills plus an abundance bonus:
// unique/mentions rewards breadth, min(mentions/10, 1)·0.2 rewards having
// skills at all. Capped at 1.0.
func skillCoverage(members []*member.Profile) float64 {
	unique := make(map[string]struct{})
	mentions := 0
	for _, p := range members {
		for s := range p.Skills {
			unique[s] = struct{}{}
			mentions++
		}
	}
	if mentions == 0 {
		return 0
	}
	coverage := float64(len(unique)) / float64(mentions)
	bonus := math.Min(float64(mentions)/10, 1.0) * 0.2
	return math.Min(coverage+bonus, 1.0)
}

// diversityScore averages the sub-diversities that are computable for this
// team. Missing ones (no experience reports, no skills, no explicit traits)
// are excluded from the mean rather than counted as zero.
func diversityScore(members []*member.Profile, uniqueRoles int) float64 {
	var subs []float64

	subs = append(subs, float64(uniqueRoles)/float64(len(members)))

	var exps []float64
	for _, p := range members {
		if p.ExperienceYears != nil {
			exps = append(exps, *p.ExperienceYears)
		}
	}
	if len(exps) >= 2 {
		subs = append(subs, math.Min(stddev(exps)/5, 1.0))
	}

	unique := make(map[string]struct{})
	mentions := 0
	for _, p := range members {
		for s := range p.Skills {
			unique[s] = struct{}{}
			mentions++
		}
	}
	if mentions > 0 {
		subs = append(subs, float64(len(unique))/float64(mentions))
	}

	var withTraits []*member.Profile
	for _, p := range members {
		if p.HasTraits {
			withTraits = append(withTraits, p)
		}
	}
	if len(withTraits) >= 2 {
		var sum float64
		for trait := 0; trait < member.NumTraits; trait++ {
			vals := make([]float64, len(withTraits))
			for i, p := range withTraits {
				vals[i] = p.Traits[trait]
			}
			sum += stddev(vals)
		}
		subs = append(subs, math.Min(2*sum/member.NumTraits, 1.0))
	}

	var total float64
	for _, s := range subs {
		total += s
	}
	return total / float64(len(subs))
}

// strengths applies the fixed threshold rules in declaration order, capped at
// maxObservations entries.
func strengths(t *Team, members []*member.Profile) []string {
	var out []string
	add := func(cond bool, msg string) {
		if cond && len(out) < maxObservations {
			out = append(out, msg)
		}
	}

	devs := t.RoleDistribution[string(member.RoleDeveloper)]
	add(devs >= 2, "Strong development capability")
	add(devs >= 1 && t.RoleDistribution[string(member.RoleDesigner)] >= 1,
		"Design and engineering collaboration")
	add(t.RoleDistribution[string(member.RolePM)] >= 1, "Dedicated project coordination")
	add(t.CompatibilityScore >= 0.75, "High interpersonal compatibility")
	add(t.SkillCoverage >= 0.7, "Broad skill coverage")

	avg, reporters := meanExperience(members)
	add(reporters > 0 && avg >= 5, "Experienced team core")
	return out
}

// risks mirrors strengths: fixed rules, declaration order, capped list.
func risks(t *Team, members []*member.Profile) []string {
	var out []string
	add := func(cond bool, msg string) {
		if cond && len(out) < maxObservations {
			out = append(out, msg)
		}
	}

	add(t.RoleDistribution[string(member.RoleDeveloper)] == 0, "No developers on team")
	add(t.RoleDistribution[string(member.RolePM)] == 0, "No project management presence")

	var exps []float64
	var availSum float64
	for _, p := range members {
		if p.ExperienceYears != nil {
			exps = append(exps, *p.ExperienceYears)
		}
		availSum += p.Availability
	}
	add(len(exps) >= 2 && stddev(exps) > 8, "Large experience gap")
	add(availSum/float64(len(members)) < 0.8, "Limited team availability")
	add(t.CompatibilityScore < 0.5, "Low predicted compatibility")
	add(t.RoleDistribution[string(member.RoleQA)] == 0, "No dedicated quality assurance")
	return out
}

func meanExperience(members []*member.Profile) (mean float64, reporters int) {
	var sum float64
	for _, p := range members {
		if p.ExperienceYears != nil {
			sum += *p.ExperienceYears
			reporters++
		}
	}
	if reporters == 0 {
		return 0, 0
	}
	return sum / float64(reporters), reporters
}

// stddev is the population standard deviation.
func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)))
}
