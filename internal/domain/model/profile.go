// Package model contains domain models passed between layers.
package model

import "time"

// Identity is an opaque external profile identifier. It doubles as the
// cache key and the task payload.
type Identity = string

// RecentGame is one title from a profile's recent activity list.
type RecentGame struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	HoursPlayed float64 `json:"hours"`
}

// ProfileSnapshot is the parsed and scored record of one identity at one fetch time.
// Snapshots are values; RiskScore is only ever set by the scorer that built them.
type ProfileSnapshot struct {
	Identity          Identity     `json:"identity"`
	IsPrivate         bool         `json:"isPrivate"`
	VACBanned         *bool        `json:"vacBanned"`
	Level             *int         `json:"level"`
	FriendCount       *int         `json:"friends"`
	RecentGames       []RecentGame `json:"recentGames"`
	FlaggedByComments bool         `json:"commentCheck"`
	RiskScore         float64      `json:"riskScore"`
	FetchedAt         time.Time    `json:"fetchedAt"`
}

// ProfileDocument is what the parser extracts from a rendered profile page.
type ProfileDocument struct {
	IsPrivate   bool
	Level       int
	FriendCount int
	RecentGames []RecentGame
	BanStatus   string
}

// TaskResult is delivered exactly once per dispatched task.
type TaskResult struct {
	Identity  Identity
	RiskScore float64
	Err       error
}

// LobbyResult is the outcome of resolving one batch of identities.
type LobbyResult struct {
	Profiles  map[Identity]float64
	LobbyRisk float64
	// Failed lists identities whose tasks failed or were abandoned.
	Failed []Identity
}
