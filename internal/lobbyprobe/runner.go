package lobbyprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/lobbyrisk/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrFailedLobbies is returned when any lobby failed or came back inconsistent.
var ErrFailedLobbies = errors.New("some lobbies failed")

// Run executes a complete probe.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting lobby probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("lobbies", cfg.Lobbies),
		logger.Int("lobbySize", cfg.LobbySize),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	lobbies, err := generateLobbies(cfg)
	if err != nil {
		return stats, fmt.Errorf("lobby generation failed: %w", err)
	}
	results := postLobbies(ctx, cfg, lobbies)
	verifyResults(ctx, results, stats)

	if cfg.OutputFile != "" {
		if err := saveResults(ctx, cfg.OutputFile, results); err != nil {
			logger.Get().Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.LobbiesFailed > 0 || stats.Inconsistent > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d inconsistent", ErrFailedLobbies, stats.LobbiesFailed, stats.Inconsistent)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// saveResults writes results as an indented JSON array.
func saveResults(ctx context.Context, filename string, results []Result) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var lobbiesPerSecond float64
	if stats.Duration > 0 {
		lobbiesPerSecond = float64(stats.LobbiesPosted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("lobbiesPosted", stats.LobbiesPosted),
		logger.Int("lobbiesSuccessful", stats.LobbiesSuccessful),
		logger.Int("lobbiesFailed", stats.LobbiesFailed),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Duration("maxLatency", stats.MaxLatency),
		logger.Duration("duration", stats.Duration),
		logger.Float64("lobbiesPerSecond", lobbiesPerSecond),
	)
}
