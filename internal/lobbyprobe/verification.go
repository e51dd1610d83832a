package lobbyprobe

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/lobbyrisk/internal/domain/lobby"
	"github.com/okian/lobbyrisk/pkg/logger"
)

// verifyResults tallies results into stats and logs every inconsistent reply.
func verifyResults(ctx context.Context, results []Result, stats *Stats) {
	for _, r := range results {
		stats.LobbiesPosted++
		if r.Latency > stats.MaxLatency {
			stats.MaxLatency = r.Latency
		}
		if r.Error != "" {
			stats.LobbiesFailed++
			logger.Get().Warn(ctx, "lobby failed",
				logger.String("lobby", r.LobbyID),
				logger.Int("status", r.Status),
				logger.String("error", r.Error),
			)
			continue
		}
		stats.LobbiesSuccessful++
		if err := checkResult(r); err != nil {
			stats.Inconsistent++
			logger.Get().Warn(ctx, "inconsistent lobby", logger.String("lobby", r.LobbyID), logger.Error(err))
		}
	}
}

// checkResult verifies score bounds and that the lobby risk matches the
// aggregate of the returned profiles.
func checkResult(r Result) error {
	for _, name := range r.Usernames {
		if _, ok := r.Profiles[name]; !ok {
			return fmt.Errorf("missing profile %s", name)
		}
	}
	for name, score := range r.Profiles {
		if score < 0 || score > maxProfileRisk {
			return fmt.Errorf("profile %s score %.2f out of range", name, score)
		}
	}
	if r.LobbyRisk < 0 || r.LobbyRisk > maxLobbyRisk {
		return fmt.Errorf("lobby risk %.2f out of range", r.LobbyRisk)
	}
	if want := lobby.AggregateMap(r.Profiles); math.Abs(want-r.LobbyRisk) > riskTolerance {
		return fmt.Errorf("lobby risk %.2f, aggregate of profiles is %.2f", r.LobbyRisk, want)
	}
	return nil
}
