package game

// Gate is the two-stage authorization state guarding the reward action.
// A player must hold the threshold twice: once to arm the gate and once
// more to unlock it. The gate never regresses on its own; dropping below
// the threshold while armed keeps the gate armed, and only an explicit
// round reset returns it to locked.
type Gate string

const (
	GateLocked   Gate = "locked"
	GateArmed    Gate = "armed"
	GateUnlocked Gate = "unlocked"
)

// Advance applies the transition rule for a score observed after an
// interaction. It performs at most one forward transition per call.
// thresholdReached reports the locked->armed transition; gameWon reports
// armed->unlocked, the only state authorizing the reward action.
func (g Gate) Advance(score, threshold int) (next Gate, thresholdReached, gameWon bool) {
	switch g {
	case GateLocked:
		if score >= threshold {
			return GateArmed, true, false
		}
		return GateLocked, false, false
	case GateArmed:
		if score >= threshold {
			return GateUnlocked, false, true
		}
		return GateArmed, false, false
	case GateUnlocked:
		return GateUnlocked, false, true
	default:
		// Unknown gate values behave as locked.
		if score >= threshold {
			return GateArmed, true, false
		}
		return GateLocked, false, false
	}
}

// Unlocked reports whether the reward action is authorized.
func (g Gate) Unlocked() bool {
	return g == GateUnlocked
}
