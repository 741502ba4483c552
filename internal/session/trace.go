package session

import (
	"time"

	"github.com/ascentio/climbwatch/tele"
)

// traceBuffer accumulates altitude trace points up to a fixed capacity.
// Owned by the controller's sampling step; callers never mutate points
// directly, only sample/takeAll/reset.
type traceBuffer struct {
	points     []tele.TracePoint
	capacity   int
	lastSample time.Duration // 0 = no sample this session yet
}

func newTraceBuffer(capacity int) *traceBuffer {
	return &traceBuffer{
		points:   make([]tele.TracePoint, 0, capacity),
		capacity: capacity,
	}
}

// sample applies the minimum-interval gate and appends one point. Ticks
// faster than the interval are no-ops. Returns the full ordered trace when
// capacity is reached (buffer is empty after), nil otherwise.
func (b *traceBuffer) sample(now, sessionStart time.Duration, relHeight float64, interval time.Duration) []tele.TracePoint {
	if b.lastSample != 0 && now-b.lastSample < interval {
		return nil
	}
	b.lastSample = now
	b.points = append(b.points, tele.TracePoint{
		Height: relHeight,
		Time:   (now - sessionStart).Seconds(),
	})
	if len(b.points) >= b.capacity {
		return b.takeAll()
	}
	return nil
}

// takeAll returns the buffered trace and clears the buffer.
// nil when empty, so END flush is naturally idempotent.
func (b *traceBuffer) takeAll() []tele.TracePoint {
	if len(b.points) == 0 {
		return nil
	}
	out := b.points
	b.points = make([]tele.TracePoint, 0, b.capacity)
	return out
}

func (b *traceBuffer) reset() {
	b.points = b.points[:0]
	b.lastSample = 0
}

func (b *traceBuffer) len() int { return len(b.points) }
