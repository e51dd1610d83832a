package lobbyprobe

// HTTP status code constants.
const (
	StatusOK = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Score bounds checked by verification.
const (
	maxProfileRisk = 99.9
	maxLobbyRisk   = 100
	riskTolerance  = 0.01
)
