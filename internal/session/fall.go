package session

import "time"

// fallWatch is the two-phase fall detection hysteresis.
//
// Idle until one sample leaves [FreeFallG, ImpactG] (free-fall or impact
// shock), then a confirmation window opens: meaningful motion after the grace
// period cancels, near-stillness for the whole confirm period means the
// wearer may be incapacitated. Tie-break favors false positives, the local
// alarm is cancellable while a missed fall is not.
type fallWatch struct {
	triggerTime time.Duration // 0 = idle
}

// feed consumes one acceleration magnitude sample (multiple of 1g).
// Returns true exactly when an incident is confirmed.
func (w *fallWatch) feed(g float64, now time.Duration, cfg *Config) bool {
	if w.triggerTime == 0 {
		if g < cfg.FreeFallG || g > cfg.ImpactG {
			w.triggerTime = now
		}
		return false
	}

	elapsed := now - w.triggerTime
	if elapsed >= cfg.FallConfirm {
		// future falls are detected independently
		w.triggerTime = 0
		return true
	}
	if elapsed > cfg.FallGrace && (g < cfg.StillMinG || g > cfg.StillMaxG) {
		// moving normally again, presumed unharmed
		w.triggerTime = 0
	}
	return false
}

func (w *fallWatch) reset() { w.triggerTime = 0 }

func (w *fallWatch) watching() bool { return w.triggerTime != 0 }
