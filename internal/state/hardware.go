package state

import (
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/ascentio/climbwatch/internal/hardware/indicator"
	"github.com/ascentio/climbwatch/internal/input"
	"github.com/ascentio/climbwatch/internal/sensors"
	"github.com/ascentio/climbwatch/internal/session"
)

type hardware struct {
	Input *input.Dispatch

	i2c struct {
		once
		bus i2c.BusCloser
	}
	baro struct {
		once
		dev *sensors.BME280
	}
	accel struct {
		once
		dev *sensors.LIS3DH
	}
	gps struct {
		once
		dev sensors.GPS
	}
	indicator struct {
		once
		ind *indicator.Indicator
	}
}

// nullGPS serves configs without a GPS receiver: never a fix, the session
// engine falls back to barometric altitude and the default position.
type nullGPS struct{}

func (nullGPS) Fix() sensors.Fix { return sensors.Fix{} }

func (g *Global) I2CBus() (i2c.Bus, error) {
	x := &g.Hardware.i2c // short alias
	_ = x.do(func() error {
		if _, err := host.Init(); err != nil {
			x.err = errors.Annotate(err, "periph/init")
			return x.err
		}
		x.bus, x.err = i2creg.Open(g.Config.Hardware.I2CBus)
		return errors.Annotatef(x.err, "config: i2c_bus=%s", g.Config.Hardware.I2CBus)
	})
	return x.bus, x.err
}

func (g *Global) Baro() (sensors.Barometer, error) {
	x := &g.Hardware.baro
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Baro
		if !cfg.Enable {
			x.err = errors.Errorf("config: baro disabled, altitude tracking needs it")
			return x.err
		}
		bus, err := g.I2CBus()
		if err != nil {
			x.err = err
			return x.err
		}
		x.dev, x.err = sensors.NewBME280(bus, uint16(cfg.Addr))
		return errors.Annotatef(x.err, "baro addr=%#x", cfg.Addr)
	})
	return x.dev, x.err
}

func (g *Global) Accel() (sensors.Accelerometer, error) {
	x := &g.Hardware.accel
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Accel
		if !cfg.Enable {
			x.err = errors.Errorf("config: accel disabled, fall detection needs it")
			return x.err
		}
		bus, err := g.I2CBus()
		if err != nil {
			x.err = err
			return x.err
		}
		x.dev, x.err = sensors.NewLIS3DH(bus, uint16(cfg.Addr))
		return errors.Annotatef(x.err, "accel addr=%#x", cfg.Addr)
	})
	return x.dev, x.err
}

func (g *Global) GPS() (sensors.GPS, error) {
	x := &g.Hardware.gps
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.GPS
		if !cfg.Enable {
			g.Log.Infof("gps disabled")
			x.dev = nullGPS{}
			return nil
		}
		var dev *sensors.NMEAReader
		dev, x.err = sensors.NewNMEAReader(g.Log, cfg.Device)
		if x.err != nil {
			return errors.Annotatef(x.err, "gps device=%s", cfg.Device)
		}
		x.dev = dev
		return nil
	})
	return x.dev, x.err
}

// Indicator returns nil without error when disabled; the session engine
// substitutes a no-op.
func (g *Global) Indicator() (session.Indicator, error) {
	x := &g.Hardware.indicator
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Indicator
		if !cfg.Enable {
			g.Log.Infof("indicator disabled")
			return nil
		}
		x.ind, x.err = indicator.NewIndicator(g.Log, cfg.PinChip, cfg.Pinmap)
		return errors.Annotatef(x.err, "indicator chip=%s", cfg.PinChip)
	})
	if x.ind == nil {
		return nil, x.err
	}
	return x.ind, x.err
}

func (g *Global) initInput() error {
	g.Hardware.Input = input.NewDispatch(g.Log, g.Alive.StopChan())

	// support more input sources here
	sources := make([]input.Source, 0, 2)

	if cfg := &g.Config.Hardware.Input.GpioButton; !cfg.Enable {
		g.Log.Infof("input=%s disabled", input.GpioButtonTag)
	} else {
		src, err := input.NewGpioButtonSource(cfg.PinChip, uint32(cfg.Pin))
		if err != nil {
			return errors.Annotatef(err, "input=%s", input.GpioButtonTag)
		}
		sources = append(sources, src)
	}

	if cfg := &g.Config.Hardware.Input.DevInputEvent; !cfg.Enable {
		g.Log.Infof("input=%s disabled", input.DevInputEventTag)
	} else {
		src, err := input.NewDevInputEventSource(cfg.Device)
		if err != nil {
			return errors.Annotatef(err, "input=%s", input.DevInputEventTag)
		}
		sources = append(sources, src)
	}

	go g.Hardware.Input.Run(sources)
	return nil
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
