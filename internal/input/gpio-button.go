package input

import (
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"

	"github.com/ascentio/climbwatch/internal/types"
)

const GpioButtonTag = "gpio-button"

// debounce window for a mechanical button on a chalk-dusted device
const gpioDebounce = 30 * time.Millisecond

// GpioButtonSource reads the control button wired to a gpiochip line.
// Active-low: falling edge is press, rising edge is release.
type GpioButtonSource struct {
	chip gpio.Chiper
	ev   gpio.Eventer
	last uint64 // timestamp ns of previous accepted edge
}

var _ Source = new(GpioButtonSource)

func (gb *GpioButtonSource) String() string { return GpioButtonTag }

func NewGpioButtonSource(chipPath string, line uint32) (*GpioButtonSource, error) {
	chip, err := gpio.Open(chipPath, "climbwatch")
	if err != nil {
		return nil, errors.Annotatef(err, "button chip=%s", chipPath)
	}
	ev, err := chip.GetLineEvent(line, 0, gpio.GPIOEVENT_REQUEST_BOTH_EDGES, "climbwatch-button")
	if err != nil {
		chip.Close()
		return nil, errors.Annotatef(err, "button line=%d", line)
	}
	return &GpioButtonSource{chip: chip, ev: ev}, nil
}

func (gb *GpioButtonSource) Close() error {
	gb.ev.Close()
	return gb.chip.Close()
}

func (gb *GpioButtonSource) Read() (types.InputEvent, error) {
	for {
		e, err := gb.ev.Wait(0)
		if err == gpio.ErrTimeout {
			continue
		}
		if err != nil {
			return types.InputEvent{}, err
		}
		if gb.last != 0 && e.Timestamp-gb.last < uint64(gpioDebounce) {
			continue
		}
		gb.last = e.Timestamp
		return types.InputEvent{
			Source: GpioButtonTag,
			Key:    types.KeyControl,
			Up:     e.ID == gpio.GPIOEVENT_EVENT_RISING_EDGE,
		}, nil
	}
}
