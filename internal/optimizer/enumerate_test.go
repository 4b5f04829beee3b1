package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func binomial(n, k int) int {
	if k > n {
		return 0
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

func TestTeamSizes(t *testing.T) {
	cases := []struct {
		pool int
		want []int
	}{
		{2, nil},
		{3, []int{3}},
		{5, []int{3, 4, 5}},
		{8, []int{3, 4, 5, 6, 7, 8}},
		{20, []int{3, 4, 5, 6, 7, 8}},
	}
	for _, c := range cases {
		got := teamSizes(c.pool)
		if len(got) != len(c.want) {
			t.Errorf("teamSizes(%d) = %v, want %v", c.pool, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("teamSizes(%d) = %v, want %v", c.pool, got, c.want)
				break
			}
		}
	}
}

func TestCombinations_Complete(t *testing.T) {
	// Every C(n,k) subset, distinct, duplicate-free, lexicographic.
	for _, c := range []struct{ n, k int }{{5, 3}, {6, 4}, {8, 8}, {7, 1}} {
		comb := newCombinations(c.n, c.k)
		seen := make(map[string]bool)
		count := 0
		prev := ""
		for {
			idx, ok := comb.next()
			if !ok {
				break
			}
			if len(idx) != c.k {
				t.Fatalf("C(%d,%d): subset %v has wrong size", c.n, c.k, idx)
			}
			for i := 1; i < len(idx); i++ {
				if idx[i] <= idx[i-1] {
					t.Fatalf("C(%d,%d): subset %v not strictly ascending", c.n, c.k, idx)
				}
			}
			key := subsetKey(idx)
			if seen[key] {
				t.Fatalf("C(%d,%d): duplicate subset %v", c.n, c.k, idx)
			}
			seen[key] = true
			if key <= prev && count > 0 && len(key) == len(prev) {
				t.Fatalf("C(%d,%d): order regressed at %v", c.n, c.k, idx)
			}
			prev = key
			count++
		}
		if want := binomial(c.n, c.k); count != want {
			t.Errorf("C(%d,%d) yielded %d subsets, want %d", c.n, c.k, count, want)
		}
	}
}

func TestCombinations_Degenerate(t *testing.T) {
	if _, ok := newCombinations(3, 4).next(); ok {
		t.Error("k > n yielded a subset, want none")
	}
	if _, ok := newCombinations(3, 0).next(); ok {
		t.Error("k = 0 yielded a subset, want none")
	}
}

func TestCollectSubsets_Unbounded(t *testing.T) {
	subsets, exceeded, err := collectSubsets(context.Background(), 6, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exceeded {
		t.Error("exceeded = true with no budget")
	}
	want := binomial(6, 3) + binomial(6, 4) + binomial(6, 5) + binomial(6, 6)
	if len(subsets) != want {
		t.Errorf("got %d subsets, want %d", len(subsets), want)
	}
}

func TestCollectSubsets_Budget(t *testing.T) {
	subsets, exceeded, err := collectSubsets(context.Background(), 10, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exceeded {
		t.Error("exceeded = false, want true when budget caps enumeration")
	}
	if len(subsets) != 25 {
		t.Errorf("got %d subsets, want exactly the budget of 25", len(subsets))
	}
}

func TestCollectSubsets_ExactBudgetFit(t *testing.T) {
	// A 4-member pool has C(4,3)+C(4,4) = 5 subsets. A budget of exactly 5
	// lets enumeration finish, so it must not be reported as cut short.
	subsets, exceeded, err := collectSubsets(context.Background(), 4, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exceeded {
		t.Error("exceeded = true for a budget equal to the full subset count")
	}
	if len(subsets) != 5 {
		t.Errorf("got %d subsets, want all 5", len(subsets))
	}

	// One below the total still trips the budget.
	subsets, exceeded, err = collectSubsets(context.Background(), 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exceeded {
		t.Error("exceeded = false with one subset past the budget")
	}
	if len(subsets) != 4 {
		t.Errorf("got %d subsets, want exactly the budget of 4", len(subsets))
	}
}

func TestCollectSubsets_TooFewCandidates(t *testing.T) {
	_, _, err := collectSubsets(context.Background(), 2, 0)
	if !errors.Is(err, ErrInsufficientCandidates) {
		t.Errorf("error = %v, want ErrInsufficientCandidates", err)
	}
}

func TestCollectSubsets_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, _, err := collectSubsets(ctx, 25, 0) // C(25,k) is huge; must abort fast
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled enumeration took %v, want near-immediate abort", elapsed)
	}
}
