package types

import "fmt"

type InputKey uint16

// KeyControl is the device's single momentary control.
const KeyControl InputKey = 1

type InputEvent struct {
	Source string
	Key    InputKey
	Up     bool
}

func (e *InputEvent) IsZero() bool { return e.Key == 0 }

func (e *InputEvent) String() string {
	return fmt.Sprintf("InputEvent(source=%s key=%d up=%t)", e.Source, e.Key, e.Up)
}
