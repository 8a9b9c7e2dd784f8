// State encoding — turns a raw per-tick snapshot into a bounded discrete key
// for the Q-table and a scaled feature vector for the network.
// Pure and deterministic: the same snapshot always encodes the same way.
package brain

import (
	"fmt"
	"math"
)

// Affordance is a tri-state flag for an opportunity in the environment.
// The zero value is deliberately "unknown" so a snapshot field the world
// never filled in lands in a reserved bucket instead of masquerading as
// absent or present.
type Affordance uint8

const (
	AffordanceUnknown Affordance = iota // Not reported this tick
	AffordanceAbsent
	AffordancePresent
)

// Snapshot is the fixed-dimensionality view of an agent plus its immediate
// surroundings, produced by the world once per tick.
type Snapshot struct {
	Energy     float64 // 0–100
	Wealth     float64 // crowns, nominal 0–100 for encoding
	Mood       float64 // -1.0–1.0
	Corruption float64 // 0.0–1.0

	FoodAvailable Affordance
	WorkAvailable Affordance
	MateCandidate Affordance
	CanIdle       Affordance

	// NearbyPeers lists agents in interaction range. Not part of the
	// encoded state; the policy uses it to target social actions.
	NearbyPeers []PeerID
}

// StateKey is a discretized snapshot: each continuous dimension bucketed
// into three levels, concatenated with the affordance flags. The key space
// is finite by construction (3^4 level combinations x 3^4 flag states).
type StateKey string

// FeatureSize is the length of the continuous feature vector: one-hot
// triples for the four continuous dimensions plus one scaled value per
// affordance flag.
const FeatureSize = 4*3 + 4

// bucket levels, shared by key and feature encoding.
const (
	levelLow = iota
	levelMedium
	levelHigh
)

var levelNames = [3]string{"low", "medium", "high"}
var moodNames = [3]string{"negative", "neutral", "positive"}

// Encode produces the discrete key and the feature vector for a snapshot.
// Out-of-range inputs are clamped before bucketing so they can never grow
// the key space; NaN or infinite inputs cannot be clamped meaningfully and
// return ErrEncoderBounds.
func Encode(snap Snapshot) (StateKey, []float64, error) {
	for _, v := range [4]float64{snap.Energy, snap.Wealth, snap.Mood, snap.Corruption} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", nil, fmt.Errorf("%w: non-finite snapshot value %v", ErrEncoderBounds, v)
		}
	}

	energy := bucketRange(snap.Energy, 0, 100, 30, 70)
	wealth := bucketRange(snap.Wealth, 0, 100, 20, 60)
	mood := bucketRange(snap.Mood, -1, 1, -0.3, 0.3)
	corruption := bucketRange(snap.Corruption, 0, 1, 0.33, 0.66)

	key := StateKey(
		levelNames[energy] + "_" +
			levelNames[wealth] + "_" +
			moodNames[mood] + "_" +
			levelNames[corruption] + "_" +
			affordanceCode(snap.FoodAvailable) +
			affordanceCode(snap.WorkAvailable) +
			affordanceCode(snap.MateCandidate) +
			affordanceCode(snap.CanIdle),
	)

	feats := make([]float64, 0, FeatureSize)
	feats = appendOneHot(feats, energy)
	feats = appendOneHot(feats, wealth)
	feats = appendOneHot(feats, mood)
	feats = appendOneHot(feats, corruption)
	feats = append(feats,
		affordanceValue(snap.FoodAvailable),
		affordanceValue(snap.WorkAvailable),
		affordanceValue(snap.MateCandidate),
		affordanceValue(snap.CanIdle),
	)

	return key, feats, nil
}

// bucketRange clamps v into [min,max] and buckets it against two thresholds.
func bucketRange(v, min, max, lowCut, highCut float64) int {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	switch {
	case v < lowCut:
		return levelLow
	case v < highCut:
		return levelMedium
	default:
		return levelHigh
	}
}

func appendOneHot(dst []float64, level int) []float64 {
	var triple [3]float64
	triple[level] = 1.0
	return append(dst, triple[:]...)
}

func affordanceCode(a Affordance) string {
	switch a {
	case AffordancePresent:
		return "y"
	case AffordanceAbsent:
		return "n"
	default:
		return "u" // Reserved bucket for unreported flags
	}
}

func affordanceValue(a Affordance) float64 {
	switch a {
	case AffordancePresent:
		return 1.0
	case AffordanceAbsent:
		return 0.0
	default:
		return 0.5
	}
}
