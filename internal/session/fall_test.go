package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msec(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestFallConfirm(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	w := fallWatch{}

	// t0=1000ms: impact shock opens the watch window
	assert.False(t, w.feed(8.0, msec(1000), &cfg))
	assert.True(t, w.watching())

	// near-stillness through the confirmation window
	for _, at := range []int{7000, 8000, 9000, 10000} {
		assert.False(t, w.feed(1.0, msec(at), &cfg), "at=%d", at)
	}
	// 10s elapsed without cancellation
	assert.True(t, w.feed(1.0, msec(11000), &cfg))
	// independent detection of future falls
	assert.False(t, w.watching())
}

func TestFallCancelOnMotion(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	w := fallWatch{}

	assert.False(t, w.feed(8.0, msec(1000), &cfg))
	// outside stillness band after the 5s grace: presumed unharmed
	assert.False(t, w.feed(0.3, msec(7000), &cfg))
	assert.False(t, w.watching())

	// this trigger never confirms
	assert.False(t, w.feed(1.0, msec(12000), &cfg))
	assert.False(t, w.watching())
}

func TestFallGracePeriod(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	w := fallWatch{}

	assert.False(t, w.feed(8.0, msec(1000), &cfg))
	// settling motion within grace must not cancel
	assert.False(t, w.feed(2.5, msec(3000), &cfg))
	assert.True(t, w.watching())

	assert.False(t, w.feed(1.0, msec(9000), &cfg))
	assert.True(t, w.feed(1.0, msec(11500), &cfg))
}

func TestFallTriggers(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cases := []struct {
		name    string
		g       float64
		trigger bool
	}{
		{"rest", 1.0, false},
		{"climbing", 1.14, false},
		{"light-shock", 5.9, false},
		{"impact", 6.1, true},
		{"free-fall", 0.2, true},
		{"band-edge-low", 0.25, false},
		{"band-edge-high", 6.0, false},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			w := fallWatch{}
			w.feed(c.g, msec(1000), &cfg)
			assert.Equal(t, c.trigger, w.watching())
		})
	}
}

func TestFallConfirmBeatsLateMotion(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	w := fallWatch{}

	w.feed(8.0, msec(1000), &cfg)
	w.feed(1.0, msec(9000), &cfg)
	// sample at confirm time is outside the band; the window already ran
	// its course, stillness was only required in (grace, confirm)
	assert.True(t, w.feed(0.3, msec(11000), &cfg))
}

func TestFallReset(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	w := fallWatch{}
	w.feed(8.0, msec(1000), &cfg)
	w.reset()
	assert.False(t, w.watching())
	assert.False(t, w.feed(1.0, msec(20000), &cfg))
}
