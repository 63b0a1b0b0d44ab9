// Package scope implements role-scoped query reconciliation: issuing the
// set of queries appropriate to a caller's visibility and merging their
// results into one deduplicated view.
//
// Some stores cannot express "owner OR member" in a single query across an
// equality predicate and a membership predicate, so the scoped view issues
// both and takes the union. Merging is keyed by record id, which is unique
// and stable across every query that can return the record, making the
// merge safe and idempotent.
package scope

import (
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"golang.org/x/sync/errgroup"
)

// Query produces one scoped slice of records
type Query[T any] func() ([]T, error)

// Result is a loading-state-aware record list. Items is nil only while
// Loading is true; once every contributing query has settled it is a
// (possibly empty) slice.
type Result[T any] struct {
	Items   []T
	Loading bool
}

// ViewMode is the reconciler's state: which query set is active
type ViewMode int

const (
	// ViewUnresolved means permissions are not yet known; no queries are
	// issued and the result stays loading
	ViewUnresolved ViewMode = iota
	// ViewElevated issues exactly one broad query and suppresses the
	// owner/membership pair
	ViewElevated
	// ViewScoped issues the owner and membership queries and never the
	// broad one
	ViewScoped
)

// ModeFor derives the view mode from resolved permissions
func ModeFor(p perms.Permissions) ViewMode {
	switch {
	case !p.Ready:
		return ViewUnresolved
	case p.Elevated():
		return ViewElevated
	default:
		return ViewScoped
	}
}

// Union runs every query in parallel, waits for all of them, and merges
// their results keyed by key. Each distinct key appears exactly once in the
// output; when the same key is surfaced by multiple queries the later
// record overwrites the earlier in place, preserving first-seen order.
func Union[T any, K comparable](key func(T) K, queries ...Query[T]) ([]T, error) {
	results := make([][]T, len(queries))

	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			items, err := q()
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[K]int)
	merged := make([]T, 0)
	for _, items := range results {
		for _, item := range items {
			k := key(item)
			if at, ok := index[k]; ok {
				merged[at] = item
				continue
			}
			index[k] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged, nil
}

// Select issues the query set for the given view mode and returns the
// reconciled result. Unresolved issues nothing; Elevated issues only broad;
// Scoped issues owner and member in parallel and returns their union. A
// query failure leaves the result loading - partial data is never presented
// as complete.
func Select[T any, K comparable](mode ViewMode, key func(T) K, broad, owner, member Query[T]) (Result[T], error) {
	switch mode {
	case ViewElevated:
		items, err := broad()
		if err != nil {
			return Result[T]{Loading: true}, err
		}
		if items == nil {
			items = make([]T, 0)
		}
		return Result[T]{Items: items}, nil
	case ViewScoped:
		items, err := Union(key, owner, member)
		if err != nil {
			return Result[T]{Loading: true}, err
		}
		return Result[T]{Items: items}, nil
	default:
		return Result[T]{Loading: true}, nil
	}
}
