package service

import (
	"context"
	"fmt"

	"github.com/notfound/ballog/internal/adapters/repository"
	"github.com/notfound/ballog/internal/domain/model"
)

// reconcileQuarters maps the requested quarter numbers of a match to quarter
// ids, creating missing rows in one batch. It never duplicates an existing
// (matchID, quarterNumber) pair; the store's uniqueness constraint covers
// the concurrent case.
//
// Returns the number->id mapping and how many rows were created. A number
// missing from the mapping after the create step is the caller's invariant
// violation to surface.
func reconcileQuarters(ctx context.Context, store repository.Store, matchID int64, numbers []int) (map[int]int64, int, error) {
	unique := make([]int, 0, len(numbers))
	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	if len(unique) == 0 {
		return map[int]int64{}, 0, nil
	}

	existing, err := store.QuartersByMatch(ctx, matchID)
	if err != nil {
		return nil, 0, fmt.Errorf("load quarters: %w", err)
	}
	known := make(map[int]struct{}, len(existing))
	for _, q := range existing {
		known[q.QuarterNumber] = struct{}{}
	}

	var toCreate []model.Quarter
	for _, n := range unique {
		if _, ok := known[n]; !ok {
			toCreate = append(toCreate, model.Quarter{MatchID: matchID, QuarterNumber: n})
		}
	}
	if len(toCreate) > 0 {
		if err := store.CreateQuarters(ctx, toCreate); err != nil {
			return nil, 0, fmt.Errorf("create quarters: %w", err)
		}
	}

	// Re-resolve the full requested set so newly created rows get their ids.
	resolved, err := store.QuartersByMatchAndNumbers(ctx, matchID, unique)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve quarters: %w", err)
	}
	mapping := make(map[int]int64, len(resolved))
	for _, q := range resolved {
		mapping[q.QuarterNumber] = q.QuarterID
	}
	return mapping, len(toCreate), nil
}
