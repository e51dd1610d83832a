// Package lobbyprobe posts lobbies to a running service and verifies the replies.
package lobbyprobe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Lobbies    int           // Number of lobbies to post
	LobbySize  int           // Players per generated lobby
	Identities []string      // Fixed lobby posted every time; empty generates random lobbies
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for results
	Verbose    bool          // Enable verbose logging
}

// Lobby is one request body sent to /getUserProfiles.
type Lobby struct {
	ID        string   `json:"-"`
	Usernames []string `json:"usernames"`
}

// Result records the outcome of posting one lobby.
type Result struct {
	LobbyID   string             `json:"lobby_id"`
	Usernames []string           `json:"usernames"`
	Status    int                `json:"status"`
	Profiles  map[string]float64 `json:"profiles,omitempty"`
	LobbyRisk float64            `json:"lobby_risk"`
	Error     string             `json:"error,omitempty"`
	Latency   time.Duration      `json:"latency_ns"`
}

// Stats holds run statistics.
type Stats struct {
	LobbiesPosted     int
	LobbiesSuccessful int
	LobbiesFailed     int
	Inconsistent      int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	MaxLatency        time.Duration
}
