// Package optimizer searches the space of candidate sub-teams and ranks them
// by a caller-chosen objective. One Optimize call is a single-pass batch
// pipeline: build the compatibility matrix, enumerate subsets under a hard
// evaluation budget, evaluate them in parallel, rank, and derive insights.
// The Optimizer itself holds only configuration and is safe for concurrent
// use; every run owns its own matrix and candidate list.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SherifTito77/PsychSync-sub002/internal/compat"
	"github.com/SherifTito77/PsychSync-sub002/internal/member"
)

// Defaults for Options fields left zero.
const (
	DefaultMaxSubsets = 50000
	DefaultTopK       = 5
	DefaultWorkers    = 4
)

// Options configures an Optimizer.
type Options struct {
	MaxSubsets int // evaluation budget across all sizes; <=0 = default
	TopK       int // teams returned; <=0 = default
	Workers    int // parallel evaluation width; <=0 = default
}

// Optimizer is a stateless pipeline value. Construct once with New and share
// freely.
type Optimizer struct {
	maxSubsets int
	topK       int
	workers    int
}

func New(opts Options) *Optimizer {
	o := &Optimizer{
		maxSubsets: opts.MaxSubsets,
		topK:       opts.TopK,
		workers:    opts.Workers,
	}
	if o.maxSubsets <= 0 {
		o.maxSubsets = DefaultMaxSubsets
	}
	if o.topK <= 0 {
		o.topK = DefaultTopK
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	return o
}

// With returns a copy of the optimizer with any positive fields of opts
// applied over its current settings. Zero fields keep the configured value
// rather than reverting to package defaults.
func (o *Optimizer) With(opts Options) *Optimizer {
	c := *o
	if opts.MaxSubsets > 0 {
		c.maxSubsets = opts.MaxSubsets
	}
	if opts.TopK > 0 {
		c.topK = opts.TopK
	}
	if opts.Workers > 0 {
		c.workers = opts.Workers
	}
	return &c
}

// Metadata captures diagnostic information about one run.
type Metadata struct {
	Algorithm        string    `json:"algorithm"`
	TotalCandidates  int       `json:"total_candidates"`
	Objective        string    `json:"objective"`
	SubsetsEvaluated int       `json:"subsets_evaluated"`
	BudgetExceeded   bool      `json:"budget_exceeded,omitempty"`
	OptimizedAt      time.Time `json:"optimization_time"`
	DurationMs       int64     `json:"duration_ms"`
}

// Result is the outcome of one optimization run. Ephemeral: the optimizer
// never persists it.
type Result struct {
	RecommendedTeams []Team   `json:"recommended_groups"`
	OverallScore     float64  `json:"overall_score"`
	Insights         []string `json:"insights"`
	Metadata         Metadata `json:"metadata"`
}

const (
	algorithmExhaustive = "exhaustive"
	algorithmGreedy     = "exhaustive+greedy_fallback"
)

// Optimize runs the full pipeline for one candidate pool. The objective
// string is parsed tolerantly; the resolved value is reported in Metadata.
// The only hard failure is ErrInsufficientCandidates (pool under 3) or a
// cancelled context.
func (o *Optimizer) Optimize(ctx context.Context, pool []member.Profile, objective string) (*Result, error) {
	start := time.Now()
	obj := ParseObjective(objective)

	if len(pool) < MinTeamSize {
		return nil, fmt.Errorf("optimizing pool of %d: %w", len(pool), ErrInsufficientCandidates)
	}

	matrix, err := compat.Build(pool)
	if err != nil {
		return nil, err
	}

	subsets, budgetExceeded, err := collectSubsets(ctx, len(pool), o.maxSubsets)
	if err != nil {
		return nil, err
	}

	if budgetExceeded {
		slog.Debug("evaluation budget exhausted, adding greedy fallback teams",
			"pool", len(pool), "budget", o.maxSubsets)
		subsets = appendGreedy(subsets, matrix)
	}

	teams, err := o.evaluateAll(ctx, subsets, matrix, pool)
	if err != nil {
		return nil, err
	}

	ranked := Rank(teams, obj, o.topK)
	top := &ranked[0]

	algorithm := algorithmExhaustive
	if budgetExceeded {
		algorithm = algorithmGreedy
	}

	return &Result{
		RecommendedTeams: ranked,
		OverallScore:     objectiveScore(top, obj),
		Insights:         Insights(top, len(pool)),
		Metadata: Metadata{
			Algorithm:        algorithm,
			TotalCandidates:  len(pool),
			Objective:        string(obj),
			SubsetsEvaluated: len(subsets),
			BudgetExceeded:   budgetExceeded,
			OptimizedAt:      time.Now().UTC(),
			DurationMs:       time.Since(start).Milliseconds(),
		},
	}, nil
}

// evaluateAll fans per-subset evaluation out across workers. Each goroutine
// writes a disjoint index, so ordering (and therefore tie-breaking) stays
// deterministic regardless of scheduling.
func (o *Optimizer) evaluateAll(ctx context.Context, subsets [][]int, m compat.Matrix, pool []member.Profile) ([]Team, error) {
	teams := make([]Team, len(subsets))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	chunk := (len(subsets) + o.workers - 1) / o.workers
	if chunk < 1 {
		chunk = 1
	}
	for lo := 0; lo < len(subsets); lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > len(subsets) {
			hi = len(subsets)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%ctxCheckInterval == 0 {
					if err := gCtx.Err(); err != nil {
						return err
					}
				}
				teams[i] = Evaluate(subsets[i], m, pool)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return teams, nil
}

// appendGreedy adds the greedy-grown teams, skipping any member set the
// bounded enumeration already produced.
func appendGreedy(subsets [][]int, m compat.Matrix) [][]int {
	seen := make(map[string]bool, len(subsets))
	for _, s := range subsets {
		seen[subsetKey(s)] = true
	}
	for _, s := range greedySubsets(m) {
		if !seen[subsetKey(s)] {
			subsets = append(subsets, s)
		}
	}
	return subsets
}

// subsetKey builds a canonical key for a sorted index subset.
func subsetKey(s []int) string {
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
