// Package lobby folds individual profile risks into a single lobby risk and
// orchestrates the cache-first resolution of a batch of identities.
package lobby

import "math"

// EmptyLobbyRisk is the aggregate of a lobby with no resolved profiles.
const EmptyLobbyRisk = 100.0

// smoothing is the temperature of the log-sum-exp mean.
const smoothing = 10.0

// Aggregate returns 10·ln(mean(e^(s/10))) over scores, rounded to two decimals.
// The result leans toward the riskiest member without ignoring the others and
// always lies between the smallest and largest score.
func Aggregate(scores []float64) float64 {
	if len(scores) == 0 {
		return EmptyLobbyRisk
	}

	// Shift by the maximum so large scores cannot overflow the exponent.
	peak := scores[0]
	for _, s := range scores[1:] {
		peak = math.Max(peak, s)
	}

	sum := 0.0
	for _, s := range scores {
		sum += math.Exp((s - peak) / smoothing)
	}
	risk := peak + smoothing*math.Log(sum/float64(len(scores)))

	return round2(risk)
}

// AggregateMap aggregates the values of a profile map.
func AggregateMap(profiles map[string]float64) float64 {
	scores := make([]float64, 0, len(profiles))
	for _, s := range profiles {
		scores = append(scores, s)
	}
	return Aggregate(scores)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
