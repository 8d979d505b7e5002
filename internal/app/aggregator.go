package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notfound/ballog/internal/adapters/repository"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/pkg/logger"
	"github.com/notfound/ballog/pkg/metrics"
)

// AggregateTeam recomputes one team's card from its members' profiles and
// overwrites it wholesale. A team with no scored members is skipped without
// error and its existing card left untouched.
func (s *Service) AggregateTeam(ctx context.Context, teamID int64) error {
	profiles, err := s.store.TeamMemberProfiles(ctx, teamID)
	if err != nil {
		return fmt.Errorf("load member profiles: %w", err)
	}
	if len(profiles) == 0 {
		s.logger.Debug(ctx, "team has no member profiles, skipping",
			logger.Int64("teamID", teamID),
		)
		return nil
	}

	var speed, stamina, attack, defense, recovery int
	for _, p := range profiles {
		speed += p.Speed
		stamina += p.Stamina
		attack += p.Attack
		defense += p.Defense
		recovery += p.Recovery
	}
	// Integer division: team averages are truncated, not rounded.
	n := len(profiles)
	tp := model.TeamProfile{
		TeamID:      teamID,
		AvgSpeed:    speed / n,
		AvgStamina:  stamina / n,
		AvgAttack:   attack / n,
		AvgDefense:  defense / n,
		AvgRecovery: recovery / n,
		MemberCount: n,
	}
	if err := s.store.SaveTeamProfile(ctx, tp); err != nil {
		return fmt.Errorf("save team profile: %w", err)
	}

	metrics.RecordTeamAggregated()
	s.logger.Info(ctx, "team card updated",
		logger.Int64("teamID", teamID),
		logger.Int("members", n),
	)
	return nil
}

// RefreshTeamCard rebuilds a single team's card on demand.
func (s *Service) RefreshTeamCard(ctx context.Context, teamID int64) error {
	if _, err := s.store.TeamProfile(ctx, teamID); errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.AggregateTeam(ctx, teamID)
}

// RefreshAllTeamCards fans one job per team out to the worker pool. A team
// that fails to aggregate is logged by its worker and never aborts the rest.
func (s *Service) RefreshAllTeamCards(ctx context.Context) error {
	metrics.RecordAggregationRun()

	ids, err := s.store.ListTeamIDs(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	s.logger.Info(ctx, "starting team card refresh", logger.Int("teams", len(ids)))

	for _, id := range ids {
		if s.jobQueue.Enqueue(ctx, model.AggregationJob{TeamID: id}) {
			continue
		}
		// Queue full or closed: aggregate inline with the same isolation.
		if err := s.AggregateTeam(ctx, id); err != nil {
			metrics.RecordAggregationError()
			s.logger.Error(ctx, "team aggregation failed",
				logger.Int64("teamID", id),
				logger.Error(err),
			)
		}
	}
	return nil
}

// aggregationLoop drives the periodic team card refresh, the counterpart of
// the original weekly schedule.
func (s *Service) aggregationLoop(ctx context.Context) {
	ticker := time.NewTicker(s.aggregationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.RefreshAllTeamCards(ctx); err != nil {
				s.logger.Error(ctx, "scheduled team card refresh failed", logger.Error(err))
			}
		}
	}
}
