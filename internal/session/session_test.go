package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascentio/climbwatch/internal/sensors"
	"github.com/ascentio/climbwatch/log2"
	"github.com/ascentio/climbwatch/tele"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

// recTele records outbound reports and feeds inbound requests.
type recTele struct {
	starts    []tele.StartReport
	traces    []tele.TraceReport
	ends      []tele.EndReport
	incidents []tele.IncidentReport
	statuses  []tele.StatusResponse
	pending   []tele.Request
}

var _ tele.Teler = new(recTele)

func (r *recTele) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (r *recTele) Close()                                                    {}
func (r *recTele) SessionStart(x *tele.StartReport)                          { r.starts = append(r.starts, *x) }
func (r *recTele) SessionTrace(x *tele.TraceReport)                          { r.traces = append(r.traces, *x) }
func (r *recTele) SessionEnd(x *tele.EndReport)                              { r.ends = append(r.ends, *x) }
func (r *recTele) Incident(x *tele.IncidentReport)                           { r.incidents = append(r.incidents, *x) }
func (r *recTele) StatusResponse(x *tele.StatusResponse)                     { r.statuses = append(r.statuses, *x) }
func (r *recTele) TakeRequest() (tele.Request, bool) {
	if len(r.pending) == 0 {
		return tele.Request{}, false
	}
	req := r.pending[len(r.pending)-1] // last-request-wins
	r.pending = nil
	return req, true
}

type recIndicator struct {
	color Color
	blink bool
	beeps int
}

func (r *recIndicator) Set(c Color, blink bool) { r.color, r.blink = c, blink }
func (r *recIndicator) Beep(time.Duration)      { r.beeps++ }

type tenv struct {
	ctx   context.Context
	clock time.Duration
	tele  *recTele
	baro  *sensors.MockBarometer
	accel *sensors.MockAccelerometer
	gps   *sensors.MockGPS
	ind   *recIndicator
	c     *Controller
}

func newTestEnv(t testing.TB, cfg Config) *tenv {
	env := &tenv{
		ctx:   context.Background(),
		clock: time.Second,
		tele:  &recTele{},
		baro:  sensors.NewMockBarometer(sensors.Climate{AltitudeM: 1200, TemperatureC: 15, HumidityPct: 40}),
		accel: sensors.NewMockAccelerometer(1.0),
		gps:   sensors.NewMockGPS(sensors.Fix{Valid: true, Latitude: 46.5, Longitude: 11.3, AltitudeM: 1210}),
		ind:   &recIndicator{},
	}
	env.c = NewController(Deps{
		Log:   log2.NewTest(t, log2.LDebug),
		Tele:  env.tele,
		Baro:  env.baro,
		Accel: env.accel,
		GPS:   env.gps,
		Ind:   env.ind,
		Now:   func() time.Duration { return env.clock },
	}, cfg)
	return env
}

// step advances the clock and runs one scheduler tick.
func (env *tenv) step(d time.Duration) {
	env.clock += d
	env.c.Tick(env.ctx)
}

func TestStartPublishesSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{})
	assert.Equal(t, StateInactive, env.c.State())
	assert.Equal(t, NoSessionID, env.c.Session().ID)

	env.c.Button(env.ctx)
	// START is transient, the observable state is ACTIVE
	assert.Equal(t, StateActive, env.c.State())

	require.Len(t, env.tele.starts, 1)
	r := env.tele.starts[0]
	assert.Equal(t, "START", r.SessionState)
	assert.NotEmpty(t, r.SessionID)
	assert.NotEqual(t, NoSessionID, r.SessionID)
	assert.InDelta(t, 1200, r.Alt, 1e-9)
	assert.InDelta(t, 15, r.Temp, 1e-9)
	assert.InDelta(t, 40, r.Humidity, 1e-9)
	assert.InDelta(t, 46.5, r.Latitude, 1e-9)
	assert.InDelta(t, 11.3, r.Longitude, 1e-9)

	sess := env.c.Session()
	assert.Equal(t, r.SessionID, sess.ID)
	assert.InDelta(t, 1200, sess.BaselineAltitude, 1e-9)
}

func TestSessionIDUnique(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{})
	env.c.Button(env.ctx)
	id1 := env.c.Session().ID
	env.c.Button(env.ctx)
	require.Equal(t, StateInactive, env.c.State())
	env.c.Button(env.ctx)
	id2 := env.c.Session().ID
	assert.NotEqual(t, id1, id2)
}

func TestTraceFlushAndRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{TraceCapacity: 4})
	env.c.Button(env.ctx)
	baseline := env.c.Session().BaselineAltitude

	alts := []float64{1205, 1211.5, 1220, 1226}
	for _, a := range alts {
		env.baro.Set(sensors.Climate{AltitudeM: a, TemperatureC: 15, HumidityPct: 40})
		env.step(500 * time.Millisecond)
	}

	require.Len(t, env.tele.traces, 1)
	tr := env.tele.traces[0]
	assert.Equal(t, "ACTIVE", tr.SessionState)
	require.Len(t, tr.Trace, 4)
	for i, p := range tr.Trace {
		// relative height + baseline reproduces the absolute altitude
		assert.InDelta(t, alts[i], baseline+p.Height, 1e-9)
	}
	assert.True(t, tr.Trace[0].Time < tr.Trace[3].Time)
}

func TestEndFlushesPendingTrace(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{TraceCapacity: 40})
	env.c.Button(env.ctx)
	env.step(500 * time.Millisecond)
	env.step(500 * time.Millisecond)

	env.c.Button(env.ctx) // end
	require.Len(t, env.tele.traces, 1, "END flushes the partial buffer exactly once")
	assert.Equal(t, "ACTIVE", env.tele.traces[0].SessionState)

	require.Len(t, env.tele.ends, 1)
	end := env.tele.ends[0]
	assert.Equal(t, "END", end.SessionState)
	assert.InDelta(t, 1.0, end.Time, 1e-9)

	assert.Equal(t, StateInactive, env.c.State())
	assert.Equal(t, NoSessionID, env.c.Session().ID)

	// ending with an empty buffer sends no extra trace
	env.c.Button(env.ctx)
	env.c.Button(env.ctx)
	assert.Len(t, env.tele.traces, 1)
}

func TestFallToIncidentToEscalation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{})
	env.c.Button(env.ctx)

	// impact shock, then stillness
	env.accel.Set(8.0)
	env.step(100 * time.Millisecond)
	env.accel.Set(1.0)
	assert.Equal(t, StateActive, env.c.State())

	// confirmation window runs its course
	for i := 0; i < 10; i++ {
		env.step(time.Second)
	}
	env.step(time.Second)
	require.Equal(t, StateIncident, env.c.State())
	assert.NotZero(t, env.c.Session().IncidentTime)
	assert.Equal(t, ColorRed, env.ind.color)
	assert.Empty(t, env.tele.incidents, "no emergency before the local alarm expires")

	// altitude tracking keeps running during the countdown
	before := len(env.tele.traces)
	env.step(500 * time.Millisecond)
	env.step(500 * time.Millisecond)
	assert.GreaterOrEqual(t, len(env.tele.traces), before)

	// local alarm expires: exactly one emergency report
	for i := 0; i < 40; i++ {
		env.step(time.Second)
	}
	require.Len(t, env.tele.incidents, 1)
	inc := env.tele.incidents[0]
	assert.Equal(t, "INCIDENT", inc.SessionState)
	assert.Equal(t, env.c.Session().ID, inc.SessionID)
	assert.InDelta(t, 46.5, inc.Latitude, 1e-9)
	assert.InDelta(t, 11.3, inc.Longitude, 1e-9)
	assert.True(t, inc.Time > 0)

	// still exactly one after more polling
	for i := 0; i < 20; i++ {
		env.step(time.Second)
	}
	assert.Len(t, env.tele.incidents, 1)
}

func TestIncidentCancel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{})
	env.c.Button(env.ctx)
	env.accel.Set(0.1) // free-fall
	env.step(100 * time.Millisecond)
	env.accel.Set(1.0)
	for i := 0; i < 11; i++ {
		env.step(time.Second)
	}
	require.Equal(t, StateIncident, env.c.State())

	env.c.Button(env.ctx) // cancel
	assert.Equal(t, StateActive, env.c.State())
	assert.Zero(t, env.c.Session().IncidentTime)
	assert.Equal(t, ColorBlue, env.ind.color)
	assert.False(t, env.ind.blink)

	// cancelled alarm never escalates
	for i := 0; i < 60; i++ {
		env.step(time.Second)
	}
	assert.Empty(t, env.tele.incidents)
	assert.Equal(t, StateActive, env.c.State())
}

func TestEscalationDefaultPosition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{DefaultLatitude: 45.0, DefaultLongitude: 7.0})
	env.gps.Set(sensors.Fix{}) // no fix at all
	env.c.Button(env.ctx)
	env.accel.Set(9.0)
	env.step(100 * time.Millisecond)
	env.accel.Set(1.0)
	for i := 0; i < 45; i++ {
		env.step(time.Second)
	}

	require.Len(t, env.tele.incidents, 1)
	inc := env.tele.incidents[0]
	assert.InDelta(t, 45.0, inc.Latitude, 1e-9)
	assert.InDelta(t, 7.0, inc.Longitude, 1e-9)
	// barometric altitude substitutes for the missing GPS altitude
	assert.InDelta(t, 1200, inc.Alt, 1e-9)
}

func TestStatusRequestEchoesIdentity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{})
	env.tele.pending = []tele.Request{
		{RequestType: tele.RequestStatusCheck, ChatID: 7, UserName: "older"},
		{RequestType: tele.RequestStatusCheck, ChatID: 42, UserName: "alice"},
	}
	env.step(100 * time.Millisecond)

	require.Len(t, env.tele.statuses, 1, "last-request-wins, one response per tick")
	st := env.tele.statuses[0]
	assert.Equal(t, int64(42), st.ChatID)
	assert.Equal(t, "alice", st.UserName)
	assert.Equal(t, "INACTIVE", st.SessionState)
	assert.Equal(t, NoSessionID, st.SessionID)
	assert.InDelta(t, 15, st.Temp, 1e-9)
	assert.InDelta(t, 40, st.Humidity, 1e-9)

	env.c.Button(env.ctx)
	env.tele.pending = []tele.Request{{RequestType: tele.RequestStatusCheck, ChatID: 42, UserName: "alice"}}
	env.step(100 * time.Millisecond)
	require.Len(t, env.tele.statuses, 2)
	assert.Equal(t, "ACTIVE", env.tele.statuses[1].SessionState)
	assert.Equal(t, env.c.Session().ID, env.tele.statuses[1].SessionID)
}

func TestBarometerOutageKeepsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Config{TraceCapacity: 40})
	env.c.Button(env.ctx)
	env.step(500 * time.Millisecond)

	env.baro.SetError(assert.AnError)
	env.step(500 * time.Millisecond)
	env.step(500 * time.Millisecond)
	assert.Equal(t, StateActive, env.c.State(), "sensor outage never halts the session")

	env.baro.SetError(nil)
	env.c.Button(env.ctx)
	require.Len(t, env.tele.ends, 1)
}
