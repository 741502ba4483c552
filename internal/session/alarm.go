package session

import "time"

type alarmAction uint8

const (
	alarmNone alarmAction = iota
	alarmBlink    // 1Hz blink+beep during the local countdown
	alarmEscalate // countdown expired, emergency report due (fires once)
	alarmBeepSlow // post-escalation periodic reminder beep
)

// incidentClock is scoped to one INCIDENT episode and discarded on
// cancellation or session end.
type incidentClock struct {
	incidentTime time.Duration // alarm start, 0 = no episode
	lastBeep     time.Duration
	sent         bool // emergency report already sent for this episode
}

func (c *incidentClock) begin(now time.Duration) {
	*c = incidentClock{incidentTime: now}
}

func (c *incidentClock) reset() { *c = incidentClock{} }

func (c *incidentClock) active() bool { return c.incidentTime != 0 }

// tick advances the countdown. At most one action per call; escalation is
// returned exactly once per episode no matter how often tick runs after
// the wait expires.
func (c *incidentClock) tick(now time.Duration, cfg *Config) alarmAction {
	if c.incidentTime == 0 {
		return alarmNone
	}

	if now-c.incidentTime < cfg.AlarmWait {
		if c.lastBeep == 0 || now-c.lastBeep >= time.Second {
			c.lastBeep = now
			return alarmBlink
		}
		return alarmNone
	}

	if !c.sent {
		c.sent = true
		c.lastBeep = now
		return alarmEscalate
	}
	if now-c.lastBeep >= cfg.AlarmBeepEvery {
		c.lastBeep = now
		return alarmBeepSlow
	}
	return alarmNone
}
