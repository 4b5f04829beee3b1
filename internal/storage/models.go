package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Member is a stored roster entry. Traits and skills keep their wire shape
// as JSON text, decoded only when a pool is assembled for optimization.
type Member struct {
	ID              string
	Name            string
	Role            string
	TraitsJSON      string // JSON object stored as text
	SkillsJSON      string // JSON array stored as text
	ExperienceYears *float64
	Availability    float64
	CreatedAt       time.Time
}

// Run is a persisted summary of one optimization run. The full result is
// kept as JSON text; list views only read the scalar columns.
type Run struct {
	ID             string
	Objective      string
	CandidateCount int
	TopScore       float64
	BudgetExceeded bool
	ResultJSON     string
	CreatedAt      time.Time
}
