package input

import (
	"io"
	"os"

	"github.com/temoto/inputevent-go"

	"github.com/ascentio/climbwatch/internal/types"
)

const DevInputEventTag = "dev-input-event"

// DevInputEventSource serves bench setups where the control button is a
// regular Linux input device (USB keypad) instead of a raw GPIO line.
// Any key acts as the control button.
type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (di *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return &DevInputEventSource{f: f}, nil
}

func (di *DevInputEventSource) Read() (types.InputEvent, error) {
	for {
		ie, err := inputevent.ReadOne(di.f)
		if err != nil {
			return types.InputEvent{}, err
		}
		if ie.Type == inputevent.EV_KEY {
			ev := types.InputEvent{
				Source: DevInputEventTag,
				Key:    types.KeyControl,
				Up:     ie.Value == int32(inputevent.KeyStateUp),
			}
			return ev, nil
		}
	}
}
