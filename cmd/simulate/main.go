package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/notfound/ballog/internal/simulate"
)

// Default configuration constants.
const (
	defaultPlayers     = 40
	defaultTeams       = 4
	defaultMatches     = 3
	defaultQuarters    = 4
	defaultTimeout     = 30 * time.Second
	defaultSeed        = 1
	defaultRunDeadline = 10 * time.Minute
)

func main() {
	var (
		players  = flag.Int("players", defaultPlayers, "Number of players to seed")
		teams    = flag.Int("teams", defaultTeams, "Number of teams to spread players over")
		matches  = flag.Int("matches", defaultMatches, "Matches submitted per player")
		quarters = flag.Int("quarters", defaultQuarters, "Quarter entries per submission")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", defaultSeed, "Random seed for telemetry generation")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	cfg := &simulate.Config{
		Players:          *players,
		Teams:            *teams,
		Matches:          *matches,
		QuartersPerMatch: *quarters,
		Workers:          *workers,
		Timeout:          *timeout,
		Seed:             *seed,
		Verbose:          *verbose,
	}

	if err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
