package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ascentio/climbwatch/internal/types"
	"github.com/ascentio/climbwatch/log2"
)

func TestDispatchDoubleSubscribe(t *testing.T) {
	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	go func() {
		sub1stop := make(chan struct{})
		d.SubscribeChan("name", sub1stop)
		close(sub1stop)
		sub2stop := make(chan struct{})
		d.SubscribeChan("name", sub2stop)
		close(dstop)
	}()

	d.Run(nil)
}

func TestDispatchDelivers(t *testing.T) {
	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	substop := make(chan struct{})
	ch := d.SubscribeChan("button", substop)
	go d.Run(nil)

	sent := types.InputEvent{Source: GpioButtonTag, Key: types.KeyControl, Up: false}
	go d.Emit(sent)
	got := <-ch
	assert.Equal(t, sent, got)

	close(substop)
	close(dstop)
}
