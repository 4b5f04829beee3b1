package compat

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/SherifTito77/PsychSync-sub002/internal/member"
)

// ErrPoolTooSmall is returned when a matrix is requested for fewer than two
// candidates: no pair exists to score.
var ErrPoolTooSmall = errors.New("candidate pool too small: need at least 2 members")

const buildConcurrency = 4

// Matrix is the dense pairwise compatibility table for one candidate pool,
// indexed by pool position. Symmetric; the diagonal is never read. Built once
// per run and read-only afterwards, so concurrent subset evaluations can
// share it without locking.
type Matrix [][]float64

// Build computes the n(n-1)/2 upper-triangle pairs and mirrors them. Rows
// are filled concurrently; each goroutine writes a disjoint row, so no
// synchronization beyond the errgroup is needed.
func Build(pool []member.Profile) (Matrix, error) {
	n := len(pool)
	if n < 2 {
		return nil, fmt.Errorf("building compatibility matrix: %w", ErrPoolTooSmall)
	}

	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	var g errgroup.Group
	g.SetLimit(buildConcurrency)
	for i := 0; i < n-1; i++ {
		i := i
		g.Go(func() error {
			for j := i + 1; j < n; j++ {
				m[i][j] = Pair(&pool[i], &pool[j])
			}
			return nil
		})
	}
	// Workers never return errors; Wait only serves as the completion barrier.
	_ = g.Wait()

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			m[i][j] = m[j][i]
		}
	}
	return m, nil
}

// MeanSubset returns the mean pairwise compatibility over the given pool
// indices, or 1.0 for fewer than two indices.
func (m Matrix) MeanSubset(idx []int) float64 {
	if len(idx) < 2 {
		return 1.0
	}
	var sum float64
	pairs := 0
	for a := 0; a < len(idx)-1; a++ {
		for b := a + 1; b < len(idx); b++ {
			sum += m[idx[a]][idx[b]]
			pairs++
		}
	}
	return sum / float64(pairs)
}
