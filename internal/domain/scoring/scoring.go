// Package scoring turns a parsed profile into a bounded risk score.
package scoring

import (
	"math"
	"time"

	"github.com/okian/lobbyrisk/internal/domain/model"
)

// Default scoring configuration constants.
const (
	// MaxRisk is assigned to banned, private and inactive profiles.
	MaxRisk = 99.9

	defaultReferenceGameID = "730"
	defaultHeavyHours      = 1000
	defaultModerateHours   = 500
	defaultFriendFloor     = 50
	defaultLevelFloor      = 10

	flaggedWeight   = 50
	heavyWeight     = 10
	moderateWeight  = 20
	fewFriendWeight = 10
	lowLevelWeight  = 10
	maxScoreValue   = 100
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithReferenceGame sets the game whose playtime feeds the hours components.
func WithReferenceGame(id string) Option {
	return func(s *Scorer) {
		if id != "" {
			s.referenceGameID = id
		}
	}
}

// WithHourThresholds sets the heavy and moderate playtime thresholds.
func WithHourThresholds(heavy, moderate float64) Option {
	return func(s *Scorer) {
		if heavy > 0 && moderate > 0 {
			s.heavyHours = heavy
			s.moderateHours = moderate
		}
	}
}

// WithSocialFloors sets the friend and level counts under which a profile is penalized.
func WithSocialFloors(friends, level int) Option {
	return func(s *Scorer) {
		if friends > 0 {
			s.friendFloor = friends
		}
		if level > 0 {
			s.levelFloor = level
		}
	}
}

// WithClock overrides the time source stamped on snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer is a pure, deterministic profile risk model.
type Scorer struct {
	referenceGameID string
	heavyHours      float64
	moderateHours   float64
	friendFloor     int
	levelFloor      int
	now             func() time.Time
}

// New creates a Scorer with default thresholds.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		referenceGameID: defaultReferenceGameID,
		heavyHours:      defaultHeavyHours,
		moderateHours:   defaultModerateHours,
		friendFloor:     defaultFriendFloor,
		levelFloor:      defaultLevelFloor,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the risk of a snapshot from its signal fields, ignoring any
// RiskScore already present.
func (s *Scorer) Score(p model.ProfileSnapshot) float64 {
	if p.VACBanned != nil && *p.VACBanned {
		return MaxRisk
	}
	if p.IsPrivate || len(p.RecentGames) == 0 {
		return MaxRisk
	}

	score := 0.0
	if p.FlaggedByComments {
		score += flaggedWeight
	}

	for _, g := range p.RecentGames {
		if g.ID != s.referenceGameID {
			continue
		}
		// Both thresholds fire above the heavy mark.
		if g.HoursPlayed > s.heavyHours {
			score += heavyWeight
		}
		if g.HoursPlayed > s.moderateHours {
			score += moderateWeight
		}
		break
	}

	if deref(p.FriendCount) < s.friendFloor {
		score += fewFriendWeight
	}
	if deref(p.Level) < s.levelFloor {
		score += lowLevelWeight
	}

	return math.Min(maxScoreValue, score)
}

// Private builds the snapshot of a profile that hides its details or reports no activity.
func (s *Scorer) Private(id model.Identity) model.ProfileSnapshot {
	snap := model.ProfileSnapshot{
		Identity:    id,
		IsPrivate:   true,
		RecentGames: []model.RecentGame{},
		FetchedAt:   s.now().UTC(),
	}
	snap.RiskScore = s.Score(snap)
	return snap
}

// Public builds a scored snapshot from a parsed public profile.
func (s *Scorer) Public(id model.Identity, doc model.ProfileDocument, vacBanned, flagged bool) model.ProfileSnapshot {
	level := doc.Level
	friends := doc.FriendCount
	games := make([]model.RecentGame, len(doc.RecentGames))
	copy(games, doc.RecentGames)

	snap := model.ProfileSnapshot{
		Identity:          id,
		VACBanned:         &vacBanned,
		Level:             &level,
		FriendCount:       &friends,
		RecentGames:       games,
		FlaggedByComments: flagged,
		FetchedAt:         s.now().UTC(),
	}
	snap.RiskScore = s.Score(snap)
	return snap
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
