// Package repository defines the persistence contract consumed by the
// scoring pipeline and the team aggregator, with an in-memory store for
// dev/test and a sqlite-backed store for durable deployments.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/notfound/ballog/internal/domain/model"
)

// Store provides read/write access to matches, quarters, reports, player
// profiles and team cards.
//
// Quarter creation must never produce two rows for the same
// (matchID, quarterNumber) pair, even under concurrent submissions; both
// implementations back this with a uniqueness constraint rather than
// check-then-insert alone.
type Store interface {
	// FindMatchID resolves the match a user played on a date.
	// Returns ErrNotFound when no such match exists.
	FindMatchID(ctx context.Context, userID uuid.UUID, matchDate time.Time) (int64, error)

	// CreateMatch registers a match for a user on a date. Match CRUD proper
	// is owned elsewhere; this exists so the pipeline can be exercised end
	// to end.
	CreateMatch(ctx context.Context, userID uuid.UUID, matchDate time.Time) (int64, error)

	// QuartersByMatch returns all quarter rows for a match.
	QuartersByMatch(ctx context.Context, matchID int64) ([]model.Quarter, error)

	// CreateQuarters batch-inserts quarters, silently skipping pairs that
	// already exist.
	CreateQuarters(ctx context.Context, quarters []model.Quarter) error

	// QuartersByMatchAndNumbers resolves the given quarter numbers of a
	// match to their rows. Unknown numbers are simply absent from the result.
	QuartersByMatchAndNumbers(ctx context.Context, matchID int64, numbers []int) ([]model.Quarter, error)

	// InsertReports appends game report rows. The log is append-only; the
	// same (user, quarter) pair may accumulate rows over time.
	InsertReports(ctx context.Context, reports []model.GameReport) error

	// PlayerProfile returns a user's profile. Returns ErrNotFound when the
	// profile was never created.
	PlayerProfile(ctx context.Context, userID uuid.UUID) (model.PlayerProfile, error)

	// CreatePlayerProfile creates the all-zero base profile written at signup.
	CreatePlayerProfile(ctx context.Context, userID uuid.UUID) error

	// SavePlayerProfile persists the full profile, all five scores included.
	SavePlayerProfile(ctx context.Context, p model.PlayerProfile) error

	// CreateTeam registers a team and its empty team card.
	CreateTeam(ctx context.Context, name string) (int64, error)

	// AddTeamMember adds a user to a team.
	AddTeamMember(ctx context.Context, teamID int64, userID uuid.UUID) error

	// ListTeamIDs returns every known team id, for batch aggregation.
	ListTeamIDs(ctx context.Context) ([]int64, error)

	// TeamMemberProfiles returns the player profiles of a team's members.
	TeamMemberProfiles(ctx context.Context, teamID int64) ([]model.PlayerProfile, error)

	// TeamProfile returns a team's aggregate card.
	TeamProfile(ctx context.Context, teamID int64) (model.TeamProfile, error)

	// SaveTeamProfile overwrites a team's aggregate card wholesale.
	SaveTeamProfile(ctx context.Context, tp model.TeamProfile) error

	// InTx runs fn against a transactional view of the store. On error no
	// write inside fn is applied. Nested InTx calls join the outer
	// transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	Close() error
}

// dateKey normalizes a match date to its calendar day.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
