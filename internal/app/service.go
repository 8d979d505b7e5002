// Package service provides the core business service that implements
// the dependencies required by the HTTP API: the per-quarter scoring
// pipeline and the team card aggregator.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/notfound/ballog/internal/adapters/mq/queue"
	workerpool "github.com/notfound/ballog/internal/adapters/mq/worker"
	"github.com/notfound/ballog/internal/adapters/repository"
	"github.com/notfound/ballog/internal/domain/dedupe"
	"github.com/notfound/ballog/internal/domain/model"
	"github.com/notfound/ballog/internal/domain/profile"
	"github.com/notfound/ballog/internal/domain/scoring"
	"github.com/notfound/ballog/internal/domain/telemetry"
	"github.com/notfound/ballog/internal/domain/types"
	"github.com/notfound/ballog/pkg/logger"
	"github.com/notfound/ballog/pkg/metrics"
)

// Service wires the scoring pipeline: reconcile quarters, append reports,
// score telemetry, blend the player profile, and rebuild team cards.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	deduper  dedupe.Deduper
	scorer   *scoring.Scorer
	jobQueue jobqueue.Queue
	pool     *workerpool.Pool

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	aggregationInterval time.Duration
	weights             scoring.Weights

	// userLocks serializes profile read-modify-write per user. The EMA
	// blend is not safe under concurrent execution for the same userId.
	userLocks sync.Map // uuid.UUID -> *sync.Mutex

	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of aggregation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the aggregation job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the submission idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAggregationInterval sets the periodic team card refresh interval.
func WithAggregationInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.aggregationInterval = interval
		}
	}
}

// WithScoringWeights overrides the ability formula coefficients.
func WithScoringWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         4,
		queueSize:           10_000,
		dedupeSize:          50_000,
		aggregationInterval: 7 * 24 * time.Hour,
		weights:             scoring.DefaultWeights(),
		stopCh:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components, including the
// periodic team card refresh schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.scorer = scoring.New(
		scoring.WithWeights(s.weights),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s)
	s.pool.Start(ctx)

	go s.aggregationLoop(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Any("aggregationInterval", s.aggregationInterval),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// SubmitReports runs one scoring submission end to end. The sequence
// (quarter creation, report insertion, profile update) is atomic: on error
// nothing is applied. submissionID is an optional idempotency key; repeats
// are acked as duplicates without reprocessing.
func (s *Service) SubmitReports(ctx context.Context, sub model.Submission, submissionID string) (types.SubmissionResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSubmissionLatency(float64(time.Since(start).Milliseconds()))
	}()

	if submissionID != "" && s.deduper.SeenAndRecord(ctx, submissionID) {
		metrics.RecordSubmissionDuplicate()
		return types.SubmissionResult{Duplicate: true}, nil
	}

	result, err := s.processSubmission(ctx, sub)
	if err != nil {
		// The submission did not apply; let the client retry the same id.
		if submissionID != "" {
			s.deduper.Unrecord(ctx, submissionID)
		}
		metrics.RecordSubmissionRejected(rejectionReason(err))
		return types.SubmissionResult{}, err
	}

	metrics.RecordSubmissionProcessed()
	return result, nil
}

func (s *Service) processSubmission(ctx context.Context, sub model.Submission) (types.SubmissionResult, error) {
	matchID, err := s.store.FindMatchID(ctx, sub.UserID, sub.MatchDate)
	if errors.Is(err, repository.ErrNotFound) {
		return types.SubmissionResult{}, fmt.Errorf("%w: user %s date %s",
			ErrMatchNotFound, sub.UserID, sub.MatchDate.Format("2006-01-02"))
	}
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("resolve match: %w", err)
	}

	unlock := s.lockUser(sub.UserID)
	defer unlock()

	result := types.SubmissionResult{MatchID: matchID}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		numbers := make([]int, len(sub.Entries))
		for i, e := range sub.Entries {
			numbers[i] = e.QuarterNumber
		}

		mapping, created, err := reconcileQuarters(ctx, tx, matchID, numbers)
		if err != nil {
			return err
		}
		result.QuartersCreated = created

		reports := make([]model.GameReport, 0, len(sub.Entries))
		quarterScores := make([]model.AbilityScores, 0, len(sub.Entries))
		for _, entry := range sub.Entries {
			quarterID, ok := mapping[entry.QuarterNumber]
			if !ok {
				s.logger.Error(ctx, "quarter missing after reconciliation",
					logger.Int64("matchID", matchID),
					logger.Int("quarterNumber", entry.QuarterNumber),
				)
				return fmt.Errorf("%w: match %d quarter %d", ErrQuarterResolution, matchID, entry.QuarterNumber)
			}
			reports = append(reports, model.GameReport{
				UserID:    sub.UserID,
				QuarterID: quarterID,
				Side:      entry.Side.Normalized(),
				Telemetry: entry.Telemetry,
			})

			canonical := telemetry.Normalize(entry.Telemetry)
			quarterScores = append(quarterScores, s.scorer.ScoreQuarter(&canonical, entry.Side))
		}

		if len(reports) > 0 {
			if err := tx.InsertReports(ctx, reports); err != nil {
				return fmt.Errorf("insert reports: %w", err)
			}
			result.ReportsInserted = len(reports)
		}

		// An empty submission reconciles nothing and leaves the profile
		// untouched.
		if len(quarterScores) == 0 {
			return nil
		}

		stored, err := tx.PlayerProfile(ctx, sub.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s", ErrProfileNotFound, sub.UserID)
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}

		fresh := scoring.Average(quarterScores)
		stored.SetScores(profile.Blend(stored.Scores(), fresh))
		if err := tx.SavePlayerProfile(ctx, stored); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.SubmissionResult{}, err
	}

	metrics.RecordQuartersCreated(result.QuartersCreated)
	metrics.RecordReportsInserted(result.ReportsInserted)
	if result.ReportsInserted > 0 {
		metrics.RecordProfileUpdate()
	}
	return result, nil
}

// lockUser acquires the per-user critical section and returns its release.
func (s *Service) lockUser(userID uuid.UUID) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// PlayerCard returns a user's current ability profile.
func (s *Service) PlayerCard(ctx context.Context, userID uuid.UUID) (types.PlayerCard, error) {
	p, err := s.store.PlayerProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.PlayerCard{}, fmt.Errorf("%w: user %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return types.PlayerCard{}, err
	}
	return types.PlayerCard{
		UserID:    p.UserID.String(),
		Speed:     p.Speed,
		Stamina:   p.Stamina,
		Attack:    p.Attack,
		Defense:   p.Defense,
		Recovery:  p.Recovery,
		PlayStyle: p.PlayStyle,
		Rank:      p.Rank,
	}, nil
}

// TeamCard returns a team's aggregate profile.
func (s *Service) TeamCard(ctx context.Context, teamID int64) (types.TeamCard, error) {
	tp, err := s.store.TeamProfile(ctx, teamID)
	if err != nil {
		return types.TeamCard{}, err
	}
	return types.TeamCard{
		TeamID:      tp.TeamID,
		AvgSpeed:    tp.AvgSpeed,
		AvgStamina:  tp.AvgStamina,
		AvgAttack:   tp.AvgAttack,
		AvgDefense:  tp.AvgDefense,
		AvgRecovery: tp.AvgRecovery,
		MemberCount: tp.MemberCount,
	}, nil
}

// rejectionReason buckets submission errors for metrics labels.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return "match_not_found"
	case errors.Is(err, ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, ErrQuarterResolution):
		return "invariant_violation"
	default:
		return "internal"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"workerCount":         s.workerCount,
		"queueSize":           s.queueSize,
		"dedupeSize":          s.dedupeSize,
		"aggregationInterval": s.aggregationInterval.String(),
	}
	if s.started {
		stats["queueLength"] = s.jobQueue.Len(context.Background())
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}
