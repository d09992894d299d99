//go:build pi

package button

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// InitButtons initializes all the button pins and fetches a button event channel. Buttons pull the
// pin high when pressed.
func InitButtons(pins []string) (<-chan ButtonEvent, error) {
	log.Infoln("Initializing button handler")
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("unable to initialize periph: %w", err)
	}

	c := make(chan ButtonEvent, 5)
	for i, name := range pins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("no such pin %q for button %d", name, i)
		}
		if err := pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("unable to configure %s: %w", name, err)
		}
		go handleButton(i, pin, c)
	}
	return c, nil
}

func handleButton(id int, b gpio.PinIO, c chan<- ButtonEvent) {
	last := b.Read()
	for {
		// wait for the edge
		if !b.WaitForEdge(time.Second) {
			continue
		}

		// debounce
		l := b.Read()
		if l == last {
			continue
		}

		time.Sleep(15 * time.Millisecond)
		if l == b.Read() {
			// ... and handle
			last = l
			c <- ButtonEvent{
				Button:  id,
				Pressed: l == gpio.High,
			}
		}
	}
}
