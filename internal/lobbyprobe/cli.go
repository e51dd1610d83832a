package lobbyprobe

import (
	"fmt"
	"os"

	"github.com/okian/lobbyrisk/pkg/logger"
)

// SetupLogging initializes the global logger for the probe.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the lobby probe.
func ShowHelp() {
	os.Stdout.WriteString(`lobbyrisk probe
===============

Posts lobbies to a running lobbyrisk service and checks every response.

Usage:
  go run ./cmd/lobby-probe [options] [identity ...]

When identities are given they form one lobby that is posted -lobbies times,
which exercises the cache and request coalescing. Otherwise random lobbies of
-size players are generated.

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -lobbies int
        Number of lobbies to post (default 20)
  -size int
        Players per generated lobby (default 10)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 2m)
  -output string
        Output file for results (default: probe_results_TIMESTAMP.json)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/lobby-probe -lobbies 50 -workers 8
  go run ./cmd/lobby-probe -lobbies 5 76561197960287930 76561198000000001
`)
}
