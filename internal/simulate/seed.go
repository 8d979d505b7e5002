package simulate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/notfound/ballog/internal/adapters/repository"
	"github.com/notfound/ballog/pkg/logger"
)

// seedWorld creates the fixtures the pipeline assumes exist: teams with
// empty cards, players with base profiles and team membership, and one
// match row per (player, date). Match and account management live in
// other services; the simulation stands in for them here.
func seedWorld(ctx context.Context, store repository.Store, cfg *Config) (*seededWorld, error) {
	world := &seededWorld{
		players: make([]seededPlayer, 0, cfg.Players),
		teams:   make([]int64, 0, cfg.Teams),
	}

	for t := 0; t < cfg.Teams; t++ {
		teamID, err := store.CreateTeam(ctx, "sim-team-"+strconv.Itoa(t+1))
		if err != nil {
			return nil, fmt.Errorf("create team %d: %w", t+1, err)
		}
		world.teams = append(world.teams, teamID)
	}

	dates := matchDates(cfg.Matches)
	for p := 0; p < cfg.Players; p++ {
		userID := uuid.New()
		if err := store.CreatePlayerProfile(ctx, userID); err != nil {
			return nil, fmt.Errorf("create profile for %s: %w", userID, err)
		}

		teamID := world.teams[p%len(world.teams)]
		if err := store.AddTeamMember(ctx, teamID, userID); err != nil {
			return nil, fmt.Errorf("add %s to team %d: %w", userID, teamID, err)
		}

		for _, d := range dates {
			if _, err := store.CreateMatch(ctx, userID, d); err != nil {
				return nil, fmt.Errorf("create match for %s on %s: %w", userID, d.Format("2006-01-02"), err)
			}
		}

		world.players = append(world.players, seededPlayer{
			userID: userID,
			teamID: teamID,
			dates:  dates,
		})
	}

	logger.Get().Info(ctx, "seeded world",
		logger.Int("players", len(world.players)),
		logger.Int("teams", len(world.teams)),
		logger.Int("matchesPerPlayer", cfg.Matches),
	)
	return world, nil
}
