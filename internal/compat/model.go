// Package compat scores pairwise compatibility between candidate profiles
// and builds the shared per-run compatibility matrix. Everything here is a
// pure function of the two profiles: no state, no randomness, no I/O.
package compat

import (
	"math"

	"github.com/SherifTito77/PsychSync-sub002/internal/member"
)

// Sub-score weights. Hand-tuned constants, fixed by policy.
const (
	weightPersonality = 0.35
	weightRole        = 0.30
	weightSkills      = 0.25
	weightExperience  = 0.10
)

// Pair returns the compatibility of two profiles in [0,1]. Symmetric:
// Pair(a,b) == Pair(b,a) holds because every sub-score is symmetric and the
// role table is mirrored at init.
func Pair(a, b *member.Profile) float64 {
	score := weightPersonality*personalityScore(a, b) +
		weightRole*roleScore(a.Role, b.Role) +
		weightSkills*skillScore(a, b) +
		weightExperience*experienceScore(a, b)
	return clamp01(score)
}

// personalityScore averages per-trait contributions. Each trait uses its own
// rule: conscientiousness and agreeableness reward similarity, extraversion
// rewards a moderate gap, neuroticism rewards a low joint average, and
// openness is neutral (difference there is treated as harmless).
func personalityScore(a, b *member.Profile) float64 {
	var sum float64
	for i := 0; i < member.NumTraits; i++ {
		ta, tb := a.Traits[i], b.Traits[i]
		switch i {
		case member.TraitConscientiousness, member.TraitAgreeableness:
			sum += 1 - math.Abs(ta-tb)
		case member.TraitExtraversion:
			diff := math.Abs(ta-tb) * 100
			if diff >= 20 && diff <= 50 {
				sum += 1.0
			} else {
				sum += 0.7
			}
		case member.TraitNeuroticism:
			sum += 1 - (ta+tb)/2
		case member.TraitOpenness:
			sum += 0.8
		}
	}
	return sum / member.NumTraits
}

// skillScore rewards a 30–50% overlap sweet spot: enough common ground to
// communicate, enough unique skills to complement each other.
func skillScore(a, b *member.Profile) float64 {
	na, nb := len(a.Skills), len(b.Skills)
	if na == 0 || nb == 0 {
		// Neutral when either side reports nothing.
		return 0.6*overlapComponent(0.5) + 0.4*0.5
	}

	overlap := 0
	for s := range a.Skills {
		if _, ok := b.Skills[s]; ok {
			overlap++
		}
	}
	union := na + nb - overlap
	overlapRatio := float64(overlap) / float64(union)
	uniqueRatio := float64((na-overlap)+(nb-overlap)) / float64(2*union)

	return 0.6*overlapComponent(overlapRatio) + 0.4*uniqueRatio
}

func overlapComponent(ratio float64) float64 {
	switch {
	case ratio >= 0.3 && ratio <= 0.5:
		return 1.0
	case ratio < 0.3:
		return 0.7 + ratio
	default:
		return 1.5 - ratio
	}
}

// experienceScore rewards a 2–5 year gap: close enough to relate, far enough
// apart for mentorship. Unreported experience on either side is neutral.
func experienceScore(a, b *member.Profile) float64 {
	if a.ExperienceYears == nil || b.ExperienceYears == nil {
		return 0.5
	}
	diff := math.Abs(*a.ExperienceYears - *b.ExperienceYears)
	switch {
	case diff < 2:
		return 0.7
	case diff < 5:
		return 1.0
	default:
		return 0.6
	}
}

// roleDefault is used for any pair involving an unknown role.
const roleDefault = 0.5

// rolePairs declares the hand-tuned role affinity table as an upper triangle
// (keyed in declaration order of member.Roles). buildRoleTable mirrors it so
// lookups are symmetric by construction.
var rolePairs = map[member.Role]map[member.Role]float64{
	member.RoleDeveloper: {
		member.RoleDeveloper: 0.70,
		member.RoleDesigner:  0.80,
		member.RolePM:        0.75,
		member.RoleQA:        0.85,
		member.RoleDevOps:    0.80,
	},
	member.RoleDesigner: {
		member.RoleDesigner: 0.60,
		member.RolePM:       0.85,
		member.RoleQA:       0.70,
		member.RoleDevOps:   0.60,
	},
	member.RolePM: {
		member.RolePM:     0.50,
		member.RoleQA:     0.80,
		member.RoleDevOps: 0.75,
	},
	member.RoleQA: {
		member.RoleQA:     0.60,
		member.RoleDevOps: 0.70,
	},
	member.RoleDevOps: {
		member.RoleDevOps: 0.65,
	},
}

var roleTable map[member.Role]map[member.Role]float64

func init() {
	roleTable = buildRoleTable(rolePairs)
}

// buildRoleTable mirrors the declared triangle into a full symmetric table.
func buildRoleTable(pairs map[member.Role]map[member.Role]float64) map[member.Role]map[member.Role]float64 {
	table := make(map[member.Role]map[member.Role]float64, len(pairs))
	set := func(a, b member.Role, v float64) {
		if table[a] == nil {
			table[a] = make(map[member.Role]float64)
		}
		table[a][b] = v
	}
	for a, row := range pairs {
		for b, v := range row {
			set(a, b, v)
			set(b, a, v)
		}
	}
	return table
}

func roleScore(a, b member.Role) float64 {
	if row, ok := roleTable[a]; ok {
		if v, ok := row[b]; ok {
			return v
		}
	}
	return roleDefault
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
