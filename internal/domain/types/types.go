// Package types contains the wire shapes exchanged over HTTP.
package types

// ProfilesRequest is the body of POST /getUserProfiles.
type ProfilesRequest struct {
	Usernames []string `json:"usernames" validate:"required,min=1,dive,required,notblank"`
}

// ProfilesResponse maps every resolved identity to its score and carries the aggregate.
type ProfilesResponse struct {
	Profiles  map[string]float64 `json:"profiles"`
	LobbyRisk float64            `json:"lobbyRisk"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Stats is returned by GET /stats.
type Stats struct {
	PoolSize      int    `json:"pool_size"`
	ActiveTasks   int64  `json:"active_tasks"`
	QueueLength   int    `json:"queue_length"`
	QueueCapacity int    `json:"queue_capacity"`
	CacheBackend  string `json:"cache_backend"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
