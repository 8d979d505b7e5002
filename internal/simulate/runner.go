package simulate

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/notfound/ballog/internal/adapters/http/api"
	"github.com/notfound/ballog/internal/adapters/repository"
	app "github.com/notfound/ballog/internal/app"
	"github.com/notfound/ballog/pkg/logger"
)

const (
	simWorkerCount  = 2
	queueDrainPoll  = 50 * time.Millisecond
	queueDrainLimit = 10 * time.Second
)

// Run seeds an in-memory world, serves the real API on a loopback
// listener, drives it with generated telemetry traffic, and verifies the
// resulting player and team cards.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting ballog scoring simulation",
		logger.Int("players", cfg.Players),
		logger.Int("teams", cfg.Teams),
		logger.Int("matches", cfg.Matches),
		logger.Int("quarters", cfg.QuartersPerMatch),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
	)

	// Step 1: In-memory store and seeded fixtures.
	store := repository.NewMemStore()
	world, err := seedWorld(ctx, store, cfg)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	stats.PlayersSeeded = len(world.players)
	stats.TeamsSeeded = len(world.teams)

	// Step 2: The service under test, with a small aggregation pool.
	svc := app.New(
		app.WithStore(store),
		app.WithWorkerCount(simWorkerCount),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("service start failed: %w", err)
	}
	defer svc.Stop()

	// Step 3: Real HTTP surface on a loopback listener.
	baseURL, shutdown, err := serveAPI(ctx, svc)
	if err != nil {
		return fmt.Errorf("serve api: %w", err)
	}
	defer shutdown()

	if err := checkHealth(ctx, cfg, baseURL); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Step 4: Generate and submit telemetry traffic.
	plans := planSubmissions(cfg, world)
	if err := submitAll(ctx, cfg, baseURL, plans, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	// Step 5: Batch refresh through the worker pool, then wait for the
	// queue to drain before the deterministic per-team verification.
	client := newHTTPClient(cfg.Timeout)
	if _, err := client.postJSON(ctx, baseURL+"/teams/refresh", "", nil, nil); err != nil {
		return fmt.Errorf("batch refresh failed: %w", err)
	}
	if err := waitForQueueDrain(ctx, client, baseURL); err != nil {
		return fmt.Errorf("queue drain: %w", err)
	}

	// Step 6: Verify cards against the scoring and aggregation rules.
	cards, err := verifyPlayerCards(ctx, cfg, baseURL, world, stats)
	if err != nil {
		return fmt.Errorf("player verification failed: %w", err)
	}
	if err := verifyTeamCards(ctx, cfg, baseURL, world, cards, stats); err != nil {
		return fmt.Errorf("team verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// serveAPI binds the business API to a random loopback port and returns
// its base URL plus a shutdown func.
func serveAPI(ctx context.Context, svc *app.Service) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Get().Error(context.Background(), "simulation server failed", logger.Error(err))
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Get().Info(ctx, "simulation server listening", logger.String("baseURL", baseURL))
	return baseURL, shutdown, nil
}

func checkHealth(ctx context.Context, cfg *Config, baseURL string) error {
	client := newHTTPClient(cfg.Timeout)
	return client.getJSON(ctx, baseURL+"/healthz", nil)
}

// planSubmissions expands the seeded world into one submission per
// (player, match date), each with its own idempotency key.
func planSubmissions(cfg *Config, world *seededWorld) []plannedSubmission {
	gen := newGenerator(cfg.Seed)
	plans := make([]plannedSubmission, 0, len(world.players)*cfg.Matches)
	for _, p := range world.players {
		for _, d := range p.dates {
			req := gen.submission(d, cfg.QuartersPerMatch)
			req.SubmissionID = uuid.New().String()
			plans = append(plans, plannedSubmission{userID: p.userID, request: req})
		}
	}
	return plans
}

// waitForQueueDrain polls /stats until the aggregation queue is empty.
func waitForQueueDrain(ctx context.Context, client *httpClient, baseURL string) error {
	deadline := time.Now().Add(queueDrainLimit)
	for {
		var snapshot struct {
			QueueLength int `json:"queueLength"`
		}
		if err := client.getJSON(ctx, baseURL+"/stats", &snapshot); err != nil {
			return err
		}
		if snapshot.QueueLength == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("aggregation queue still has %d jobs", snapshot.QueueLength)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(queueDrainPoll):
		}
	}
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("playersSeeded", stats.PlayersSeeded),
		logger.Int("teamsSeeded", stats.TeamsSeeded),
		logger.Int("submissionsSent", stats.SubmissionsSent),
		logger.Int("submissionsOK", stats.SubmissionsOK),
		logger.Int("submissionsDuplicate", stats.SubmissionsDuplicate),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("quartersCreated", stats.QuartersCreated),
		logger.Int("reportsInserted", stats.ReportsInserted),
		logger.Int("cardsVerified", stats.CardsVerified),
		logger.Int("teamsVerified", stats.TeamsVerified),
		logger.String("duration", stats.Duration.String()),
	)
}
