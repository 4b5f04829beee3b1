package optimizer

import (
	"context"
	"errors"
)

// Team size bounds. Pools smaller than MinTeamSize cannot be optimized;
// sizes above MaxTeamSize are never enumerated.
const (
	MinTeamSize = 3
	MaxTeamSize = 8
)

// ErrInsufficientCandidates is the one hard failure of a run: fewer than
// MinTeamSize candidates means no permitted team exists.
var ErrInsufficientCandidates = errors.New("insufficient candidates: need at least 3 members")

// ctxCheckInterval is how many subsets the collector emits between
// cancellation checks.
const ctxCheckInterval = 256

// teamSizes returns every permitted team size for a pool, smallest first.
// Empty when the pool is below MinTeamSize.
func teamSizes(poolSize int) []int {
	max := MaxTeamSize
	if poolSize < max {
		max = poolSize
	}
	var sizes []int
	for k := MinTeamSize; k <= max; k++ {
		sizes = append(sizes, k)
	}
	return sizes
}

// combinations lazily yields every k-combination of [0,n) in lexicographic
// order. next returns a view that is only valid until the following call;
// callers that retain a subset must copy it.
type combinations struct {
	n, k    int
	idx     []int
	started bool
}

func newCombinations(n, k int) *combinations {
	return &combinations{n: n, k: k}
}

func (c *combinations) next() ([]int, bool) {
	if c.k > c.n || c.k <= 0 {
		return nil, false
	}
	if !c.started {
		c.started = true
		c.idx = make([]int, c.k)
		for i := range c.idx {
			c.idx[i] = i
		}
		return c.idx, true
	}
	// Find the rightmost position that can still advance.
	i := c.k - 1
	for i >= 0 && c.idx[i] == c.n-c.k+i {
		i--
	}
	if i < 0 {
		return nil, false
	}
	c.idx[i]++
	for j := i + 1; j < c.k; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
	return c.idx, true
}

// collectSubsets gathers candidate subsets across all permitted sizes, up to
// maxSubsets. The budget is a plain countdown owned by the run, with no
// panic or sentinel error. Returns the collected subsets and whether the
// budget cut enumeration short; a pool whose subsets fit the budget exactly
// is a complete enumeration, not an exceeded one. Cancellation is checked
// between iterations so a caller deadline aborts cleanly.
func collectSubsets(ctx context.Context, poolSize, maxSubsets int) ([][]int, bool, error) {
	sizes := teamSizes(poolSize)
	if len(sizes) == 0 {
		return nil, false, ErrInsufficientCandidates
	}

	var subsets [][]int
	steps := 0
	for _, k := range sizes {
		comb := newCombinations(poolSize, k)
		for {
			if steps%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, false, err
				}
			}
			steps++
			idx, ok := comb.next()
			if !ok {
				break
			}
			// Only a subset produced past the cap proves enumeration was
			// actually cut short.
			if maxSubsets > 0 && len(subsets) >= maxSubsets {
				return subsets, true, nil
			}
			subset := make([]int, k)
			copy(subset, idx)
			subsets = append(subsets, subset)
		}
	}
	return subsets, false, nil
}
