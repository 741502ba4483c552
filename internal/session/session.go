// Package session is the device-resident climb engine: the session state
// machine plus its owned fall detector, telemetry batcher and incident alarm.
//
// Single mutator discipline: the scheduler goroutine calls Button/Tick and
// nothing else touches the Session record, so no locking here.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/temoto/atomic_clock"

	"github.com/ascentio/climbwatch/internal/sensors"
	"github.com/ascentio/climbwatch/log2"
	"github.com/ascentio/climbwatch/tele"
)

//go:generate stringer -type=State -trimprefix=State
type State uint8

const (
	StateInactive State = iota
	StateStart // transient, falls through to Active within the same tick
	StateActive
	StateIncident
	StateEnd // transient, falls through to Inactive within the same tick
)

// wire is the session_state value the collector expects.
func (s State) wire() string { return strings.ToUpper(s.String()) }

// NoSessionID is the id placeholder while no session is active.
const NoSessionID = "-"

// Session is the unit of one climb.
// Timestamps are monotonic since boot; zero means unset.
type Session struct {
	State State
	ID    string

	StartTime    time.Duration
	EndTime      time.Duration
	IncidentTime time.Duration

	// BaselineAltitude is the zero-reference for relative heights,
	// captured at start together with the origin snapshot.
	BaselineAltitude  float64
	OriginAltitude    float64
	OriginLatitude    float64
	OriginLongitude   float64
	OriginTemperature float64
	OriginHumidity    float64

	// Current* refresh on demand (start, end, escalation, status query),
	// not per tick.
	CurrentAltitude  float64
	CurrentLatitude  float64
	CurrentLongitude float64
}

//go:generate stringer -type=Color -trimprefix=Color
type Color uint8

const (
	ColorOff Color = iota
	ColorGreen
	ColorBlue
	ColorRed
)

// Indicator renders device state: multi-color LED plus a buzzer.
type Indicator interface {
	Set(c Color, blink bool)
	Beep(d time.Duration)
}

type noopIndicator struct{}

func (noopIndicator) Set(Color, bool)    {}
func (noopIndicator) Beep(time.Duration) {}

type Config struct {
	SampleInterval time.Duration
	TraceCapacity  int
	AlarmWait      time.Duration
	AlarmBeepEvery time.Duration

	FreeFallG   float64
	ImpactG     float64
	StillMinG   float64
	StillMaxG   float64
	FallGrace   time.Duration
	FallConfirm time.Duration

	// Reported on escalation when no GPS fix was ever seen.
	DefaultLatitude  float64
	DefaultLongitude float64
}

// DefaultConfig returns the operational tuning the device ships with.
func DefaultConfig() Config {
	return Config{
		SampleInterval: 500 * time.Millisecond,
		TraceCapacity:  40,
		AlarmWait:      30 * time.Second,
		AlarmBeepEvery: 10 * time.Second,
		FreeFallG:      0.25,
		ImpactG:        6.0,
		StillMinG:      0.85,
		StillMaxG:      1.15,
		FallGrace:      5 * time.Second,
		FallConfirm:    10 * time.Second,
	}
}

type Deps struct {
	Log   *log2.Log
	Tele  tele.Teler
	Baro  sensors.Barometer
	Accel sensors.Accelerometer
	GPS   sensors.GPS
	Ind   Indicator
	// Now is the monotonic timebase, injected for tests.
	Now func() time.Duration
}

type Controller struct {
	log   *log2.Log
	tele  tele.Teler
	baro  sensors.Barometer
	accel sensors.Accelerometer
	gps   sensors.GPS
	ind   Indicator
	now   func() time.Duration
	cfg   Config

	sess  Session
	fall  fallWatch
	trace *traceBuffer
	alarm incidentClock

	wallStart   *atomic_clock.Clock
	lastClimate sensors.Climate
}

func NewController(d Deps, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.SampleInterval == 0 {
		cfg.SampleInterval = def.SampleInterval
	}
	if cfg.TraceCapacity == 0 {
		cfg.TraceCapacity = def.TraceCapacity
	}
	if cfg.AlarmWait == 0 {
		cfg.AlarmWait = def.AlarmWait
	}
	if cfg.AlarmBeepEvery == 0 {
		cfg.AlarmBeepEvery = def.AlarmBeepEvery
	}
	if cfg.FreeFallG == 0 {
		cfg.FreeFallG = def.FreeFallG
	}
	if cfg.ImpactG == 0 {
		cfg.ImpactG = def.ImpactG
	}
	if cfg.StillMinG == 0 {
		cfg.StillMinG = def.StillMinG
	}
	if cfg.StillMaxG == 0 {
		cfg.StillMaxG = def.StillMaxG
	}
	if cfg.FallGrace == 0 {
		cfg.FallGrace = def.FallGrace
	}
	if cfg.FallConfirm == 0 {
		cfg.FallConfirm = def.FallConfirm
	}
	if d.Ind == nil {
		d.Ind = noopIndicator{}
	}
	if d.Now == nil {
		boot := time.Now()
		d.Now = func() time.Duration { return time.Since(boot) }
	}
	c := &Controller{
		log:       d.Log,
		tele:      d.Tele,
		baro:      d.Baro,
		accel:     d.Accel,
		gps:       d.GPS,
		ind:       d.Ind,
		now:       d.Now,
		cfg:       cfg,
		trace:     newTraceBuffer(cfg.TraceCapacity),
		wallStart: atomic_clock.New(),
	}
	c.sess = Session{State: StateInactive, ID: NoSessionID}
	c.ind.Set(ColorGreen, false)
	return c
}

func (c *Controller) State() State { return c.sess.State }

// Session returns a snapshot copy of the session record.
func (c *Controller) Session() Session { return c.sess }

// Button handles one press of the momentary control.
func (c *Controller) Button(ctx context.Context) {
	switch c.sess.State {
	case StateInactive:
		c.begin(ctx)
	case StateActive:
		c.finish(ctx)
	case StateIncident:
		c.cancelIncident()
	}
}

// Tick is one scheduler iteration: answer pending status queries, read
// sensors, drive fall detection / telemetry / alarm. Strictly sequential,
// reports always reflect state computed earlier in the same call.
func (c *Controller) Tick(ctx context.Context) {
	if req, ok := c.tele.TakeRequest(); ok {
		c.statusRespond(req)
	}

	if c.sess.State == StateInactive {
		c.ind.Set(ColorGreen, false)
		return
	}

	now := c.now()

	climate, err := c.baro.Read()
	if err != nil {
		// keep last known reading, never halt the session
		c.log.Errorf("session barometer err=%v", err)
		climate = c.lastClimate
	} else {
		c.lastClimate = climate
	}

	rel := climate.AltitudeM - c.sess.BaselineAltitude
	if flush := c.trace.sample(now, c.sess.StartTime, rel, c.cfg.SampleInterval); flush != nil {
		c.flushTrace(flush)
	}

	if c.sess.State != StateIncident {
		g, err := c.accel.ReadG()
		if err != nil {
			c.log.Errorf("session accel err=%v", err)
		} else if c.fall.feed(g, now, &c.cfg) {
			c.beginIncident(now)
		}
	} else {
		switch c.alarm.tick(now, &c.cfg) {
		case alarmBlink:
			c.ind.Set(ColorRed, true)
			c.ind.Beep(100 * time.Millisecond)
		case alarmEscalate:
			c.ind.Set(ColorRed, false)
			c.escalate()
		case alarmBeepSlow:
			c.ind.Beep(300 * time.Millisecond)
		}
	}
}

func (c *Controller) begin(ctx context.Context) {
	now := c.now()
	climate, err := c.baro.Read()
	if err != nil {
		c.log.Errorf("session start barometer err=%v", err)
		climate = c.lastClimate
	} else {
		c.lastClimate = climate
	}

	c.sess = Session{
		State:             StateStart,
		ID:                uuid.New().String(),
		StartTime:         now,
		BaselineAltitude:  climate.AltitudeM,
		OriginAltitude:    climate.AltitudeM,
		OriginTemperature: climate.TemperatureC,
		OriginHumidity:    climate.HumidityPct,
	}
	c.fall.reset()
	c.trace.reset()
	c.alarm.reset()
	c.wallStart.SetNow()

	c.refreshCurrent()
	c.sess.OriginLatitude = c.sess.CurrentLatitude
	c.sess.OriginLongitude = c.sess.CurrentLongitude

	c.log.Infof("session start id=%s baseline=%.1fm", c.sess.ID, c.sess.BaselineAltitude)
	c.tele.SessionStart(&tele.StartReport{
		SessionState: c.sess.State.wire(),
		SessionID:    c.sess.ID,
		Alt:          c.sess.OriginAltitude,
		Temp:         c.sess.OriginTemperature,
		Humidity:     c.sess.OriginHumidity,
		Latitude:     c.sess.OriginLatitude,
		Longitude:    c.sess.OriginLongitude,
	})

	// transient state, same tick
	c.sess.State = StateActive
	c.ind.Set(ColorBlue, false)
}

func (c *Controller) finish(ctx context.Context) {
	now := c.now()
	c.sess.State = StateEnd
	c.sess.EndTime = now
	if flush := c.trace.takeAll(); flush != nil {
		c.flushTrace(flush)
	}
	c.refreshCurrent()

	duration := (now - c.sess.StartTime).Seconds()
	c.log.Infof("session end id=%s duration=%.1fs wall=%v",
		c.sess.ID, duration, atomic_clock.Since(c.wallStart))
	c.tele.SessionEnd(&tele.EndReport{
		SessionState: c.sess.State.wire(),
		SessionID:    c.sess.ID,
		Alt:          c.sess.CurrentAltitude,
		Time:         duration,
	})

	// transient state, same tick
	c.sess = Session{State: StateInactive, ID: NoSessionID}
	c.fall.reset()
	c.trace.reset()
	c.alarm.reset()
	c.ind.Set(ColorGreen, false)
}

func (c *Controller) beginIncident(now time.Duration) {
	c.log.Infof("session incident id=%s t=%v", c.sess.ID, now)
	c.sess.State = StateIncident
	c.sess.IncidentTime = now
	c.alarm.begin(now)
	c.ind.Set(ColorRed, true)
}

func (c *Controller) cancelIncident() {
	c.log.Infof("session incident cancelled id=%s", c.sess.ID)
	c.alarm.reset()
	c.fall.reset()
	c.sess.IncidentTime = 0
	c.sess.State = StateActive
	c.ind.Set(ColorBlue, false)
}

// escalate sends the one-time emergency report. The alarm clock guarantees
// a single call per incident episode.
func (c *Controller) escalate() {
	c.refreshCurrent()
	elapsed := (c.sess.IncidentTime - c.sess.StartTime).Seconds()
	c.log.Infof("session escalate id=%s elapsed=%.1fs lat=%.5f lon=%.5f",
		c.sess.ID, elapsed, c.sess.CurrentLatitude, c.sess.CurrentLongitude)
	c.tele.Incident(&tele.IncidentReport{
		SessionState: StateIncident.wire(),
		SessionID:    c.sess.ID,
		Alt:          c.sess.CurrentAltitude,
		Time:         elapsed,
		Latitude:     c.sess.CurrentLatitude,
		Longitude:    c.sess.CurrentLongitude,
	})
}

// flushTrace reports session state ACTIVE even during an incident:
// escalation travels only in the dedicated incident report.
func (c *Controller) flushTrace(points []tele.TracePoint) {
	c.tele.SessionTrace(&tele.TraceReport{
		SessionState: StateActive.wire(),
		SessionID:    c.sess.ID,
		Trace:        points,
	})
}

func (c *Controller) statusRespond(req tele.Request) {
	climate, err := c.baro.Read()
	if err != nil {
		c.log.Errorf("session status barometer err=%v", err)
		climate = c.lastClimate
	} else {
		c.lastClimate = climate
	}
	c.refreshCurrent()

	c.log.Infof("session status query chat_id=%d user=%s", req.ChatID, req.UserName)
	c.tele.StatusResponse(&tele.StatusResponse{
		ChatID:       req.ChatID,
		UserName:     req.UserName,
		SessionState: c.sess.State.wire(),
		SessionID:    c.sess.ID,
		Latitude:     c.sess.CurrentLatitude,
		Longitude:    c.sess.CurrentLongitude,
		Alt:          c.sess.CurrentAltitude,
		Temp:         climate.TemperatureC,
		Humidity:     climate.HumidityPct,
	})
}

// refreshCurrent updates the absolute position snapshot: GPS preferred,
// barometric altitude as fallback, configured default position when no fix
// was ever seen.
func (c *Controller) refreshCurrent() {
	fix := c.gps.Fix()
	if fix.Valid {
		c.sess.CurrentLatitude = fix.Latitude
		c.sess.CurrentLongitude = fix.Longitude
		c.sess.CurrentAltitude = fix.AltitudeM
		return
	}
	c.sess.CurrentAltitude = c.lastClimate.AltitudeM
	if c.sess.CurrentLatitude == 0 && c.sess.CurrentLongitude == 0 {
		c.sess.CurrentLatitude = c.cfg.DefaultLatitude
		c.sess.CurrentLongitude = c.cfg.DefaultLongitude
	}
}
