package button

import "fmt"

// ButtonEvent reports a state change of one of the configured buttons, identified by its position
// in the pin list given to InitButtons.
type ButtonEvent struct {
	Button  int
	Pressed bool
}

func (b ButtonEvent) String() string {
	action := "pressed"
	if !b.Pressed {
		action = "released"
	}
	return fmt.Sprintf("Button %d was %v", b.Button, action)
}
