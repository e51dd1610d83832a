package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/lobbyrisk/internal/lobbyprobe"
)

// Default configuration constants.
const (
	defaultLobbies  = 20
	defaultSize     = 10
	defaultWorkers  = 4
	defaultTimeout  = 2 * time.Minute
	defaultRunLimit = 30 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:3000", "Base URL of the service")
		lobbies    = flag.Int("lobbies", defaultLobbies, "Number of lobbies to post")
		size       = flag.Int("size", defaultSize, "Players per generated lobby")
		workers    = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for results (default: probe_results_TIMESTAMP.json)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		lobbyprobe.ShowHelp()
		return
	}

	if err := lobbyprobe.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *outputFile == "" {
		*outputFile = "probe_results_" + time.Now().Format("20060102_150405") + ".json"
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &lobbyprobe.Config{
		BaseURL:    *baseURL,
		Lobbies:    *lobbies,
		LobbySize:  *size,
		Identities: flag.Args(),
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := lobbyprobe.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
