package simulate

import (
	"fmt"
	"os"

	"github.com/notfound/ballog/pkg/logger"
)

// SetupLogging initializes the global logger for the simulation run.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Ballog Scoring Simulation
=========================

Seeds an in-memory world (teams, players, matches), serves the real HTTP
API on a loopback port, submits generated quarter telemetry and verifies
the resulting player and team cards.

Usage:
  go run cmd/simulate/main.go [options]

Options:
  -players int
        Number of players to seed (default 40)
  -teams int
        Number of teams to spread players over (default 4)
  -matches int
        Matches submitted per player (default 3)
  -quarters int
        Quarter entries per submission (default 4)
  -workers int
        Number of concurrent submitters (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Random seed for telemetry generation (default 1)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/simulate/main.go

  # Heavier run with reproducible traffic
  go run cmd/simulate/main.go -players 500 -matches 10 -seed 42
`)
}
