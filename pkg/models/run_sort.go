package models

import (
	"fmt"
	"sort"
)

// SortRuns orders runs in place by the given key and direction. The sort is
// stable so that re-sorting an identical collection never reorders rows, a
// guarantee the comparison picker depends on. An empty key defaults to
// latest-first; unknown keys are rejected against the allowlist.
func SortRuns(runs []*Run, key RunSortKey, order SortOrder) error {
	if key == "" {
		key = RunSortLatest
	}

	if order == "" {
		order = SortDesc
	}

	if order != SortAsc && order != SortDesc {
		return fmt.Errorf("invalid sort order: %q", order)
	}

	var less func(a, b *Run) bool

	switch key {
	case RunSortLatest:
		less = func(a, b *Run) bool { return a.StartedAt.After(b.StartedAt) }
	case RunSortOldest:
		less = func(a, b *Run) bool { return a.StartedAt.Before(b.StartedAt) }
	case RunSortCost:
		less = func(a, b *Run) bool { return a.CostUSD < b.CostUSD }
	case RunSortTokens:
		less = func(a, b *Run) bool { return a.Tokens < b.Tokens }
	case RunSortDuration:
		less = func(a, b *Run) bool { return a.Duration() < b.Duration() }
	default:
		return fmt.Errorf("invalid sort field: %q", key)
	}

	if order == SortDesc && key != RunSortLatest && key != RunSortOldest {
		inner := less
		less = func(a, b *Run) bool { return inner(b, a) }
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return less(runs[i], runs[j])
	})

	return nil
}
