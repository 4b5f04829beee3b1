// Package member defines the candidate profiles the team optimizer consumes.
// Profiles are normalized once at construction and immutable afterwards, so a
// single optimization run can share them freely across goroutines.
package member

import "strings"

// Role is the functional role a candidate plays on a team.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleDesigner  Role = "designer"
	RolePM        Role = "pm"
	RoleQA        Role = "qa"
	RoleDevOps    Role = "devops"
	RoleUnknown   Role = "unknown"
)

// Roles lists the known roles in declaration order.
var Roles = []Role{RoleDeveloper, RoleDesigner, RolePM, RoleQA, RoleDevOps}

// ParseRole maps free-form input onto the closed role set. Unrecognized
// values become RoleUnknown rather than an error; partial data degrades
// scores, it never fails a run.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleDeveloper:
		return RoleDeveloper
	case RoleDesigner:
		return RoleDesigner
	case RolePM, "project_manager", "product_manager":
		return RolePM
	case RoleQA, "tester":
		return RoleQA
	case RoleDevOps:
		return RoleDevOps
	default:
		return RoleUnknown
	}
}

// Trait indexes into Traits. Order is canonical and load-bearing: evaluation
// code iterates traits by index.
const (
	TraitOpenness = iota
	TraitConscientiousness
	TraitExtraversion
	TraitAgreeableness
	TraitNeuroticism
	NumTraits
)

var traitNames = [NumTraits]string{
	"openness",
	"conscientiousness",
	"extraversion",
	"agreeableness",
	"neuroticism",
}

// TraitName returns the canonical lowercase name for a trait index.
func TraitName(i int) string { return traitNames[i] }

// Traits holds the five Big Five dimensions, each in [0,1].
type Traits [NumTraits]float64

// NeutralTrait is the score assumed for any dimension the caller omits.
const NeutralTrait = 0.5

// NormalizeTraits fills a Traits array from a loosely-shaped map, applying
// the neutral default for missing dimensions and clamping to [0,1]. The
// second return reports whether any dimension was explicitly provided; the
// personality-diversity rule needs to distinguish "all defaults" from
// "explicitly average".
func NormalizeTraits(raw map[string]float64) (Traits, bool) {
	var t Traits
	provided := false
	for i := range t {
		t[i] = NeutralTrait
	}
	for i, name := range traitNames {
		v, ok := raw[name]
		if !ok {
			continue
		}
		provided = true
		t[i] = clamp01(v)
	}
	return t, provided
}

// Profile is one candidate in the optimization pool. Construct with
// NewProfile; fields are never mutated after that.
type Profile struct {
	ID              string
	Role            Role
	Traits          Traits
	HasTraits       bool
	Skills          map[string]struct{}
	ExperienceYears *float64 // nil = unreported
	Availability    float64
}

// Record is the caller-shaped input for one candidate, as received over the
// wire or from a roster file.
type Record struct {
	ID              string             `json:"id"`
	Name            string             `json:"name,omitempty"`
	Role            string             `json:"role"`
	Traits          map[string]float64 `json:"traits,omitempty"`
	Skills          []string           `json:"skills,omitempty"`
	ExperienceYears *float64           `json:"experience_years,omitempty"`
	Availability    *float64           `json:"availability,omitempty"`
}

// NewProfile normalizes a Record into a Profile: role parsed tolerantly,
// traits defaulted per dimension, skills lower-cased and deduplicated,
// experience clamped to non-negative, availability defaulted to 1.0.
func NewProfile(rec Record) Profile {
	traits, hasTraits := NormalizeTraits(rec.Traits)

	skills := make(map[string]struct{}, len(rec.Skills))
	for _, s := range rec.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			skills[s] = struct{}{}
		}
	}

	var exp *float64
	if rec.ExperienceYears != nil {
		v := *rec.ExperienceYears
		if v < 0 {
			v = 0
		}
		exp = &v
	}

	avail := 1.0
	if rec.Availability != nil {
		avail = clamp01(*rec.Availability)
	}

	return Profile{
		ID:              rec.ID,
		Role:            ParseRole(rec.Role),
		Traits:          traits,
		HasTraits:       hasTraits,
		Skills:          skills,
		ExperienceYears: exp,
		Availability:    avail,
	}
}

// NewPool converts caller records into profiles, preserving order.
func NewPool(recs []Record) []Profile {
	pool := make([]Profile, len(recs))
	for i, rec := range recs {
		pool[i] = NewProfile(rec)
	}
	return pool
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
