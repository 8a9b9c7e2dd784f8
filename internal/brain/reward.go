// Reward shaping — maps heterogeneous raw outcomes into comparable bounded
// scalars. Every action has a declared [min,max] range; the shaped value
// never leaves it regardless of the raw magnitude.
// See design doc Section 5.3.
package brain

// RewardEvent is the raw outcome of an applied action: magnitude in the
// world's native units plus a context multiplier (e.g. dampened when the
// actor is near death, so desperation can't dominate the learned policy).
// Ephemeral: produced once per action, consumed immediately.
type RewardEvent struct {
	Action     ActionKind
	Raw        float64
	ContextMul float64 // 1.0 when the context is neutral
}

// RewardRange is the declared bound for one action's shaped reward.
type RewardRange struct {
	Min, Max float64
}

// rewardSpec holds the public per-action contract: the declared output
// range and the linear gain applied to the raw magnitude before clamping.
type rewardSpec struct {
	RewardRange
	Gain float64
}

// rewardSpecs is indexed by ActionKind. Gains are calibrated to the world's
// native outcome units (nutrition, crowns, energy).
var rewardSpecs = [NumActions]rewardSpec{
	ActionEat:    {RewardRange{-0.5, 2.0}, 0.1},
	ActionWork:   {RewardRange{-1.0, 2.0}, 0.1},
	ActionRest:   {RewardRange{0.0, 1.5}, 0.05},
	ActionMate:   {RewardRange{-0.1, 3.0}, 0.5},
	ActionTrade:  {RewardRange{-0.3, 1.5}, 0.1},
	ActionSearch: {RewardRange{-0.05, 0.0}, 0.01},
	ActionIdle:   {RewardRange{0.0, 0.0}, 0.0},
}

// RangeFor returns the declared reward range for an action.
func RangeFor(a ActionKind) RewardRange {
	if int(a) >= NumActions {
		return RewardRange{}
	}
	return rewardSpecs[a].RewardRange
}

// Normalize shapes a raw outcome into the action's declared range: linear
// gain, clamp, context multiplier, clamp again. A zero ContextMul is
// treated as the neutral 1.0 so forgotten fields don't zero out learning.
func Normalize(ev RewardEvent) float64 {
	if int(ev.Action) >= NumActions {
		return 0
	}
	spec := rewardSpecs[ev.Action]

	v := clampRange(ev.Raw*spec.Gain, spec.Min, spec.Max)

	mul := ev.ContextMul
	if mul == 0 {
		mul = 1.0
	}
	return clampRange(v*mul, spec.Min, spec.Max)
}

// NearDeathDampening returns the context multiplier for an actor at the
// given energy (0–100). Below the critical threshold rewards are scaled
// down so a single desperate action can't swamp the policy.
func NearDeathDampening(energy float64) float64 {
	const critical = 15.0
	if energy >= critical {
		return 1.0
	}
	if energy < 0 {
		energy = 0
	}
	// Linear ramp: 0.5 at zero energy up to 1.0 at the threshold.
	return 0.5 + 0.5*energy/critical
}
