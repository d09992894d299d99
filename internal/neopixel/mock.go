//go:build !pi

package neopixel

import (
	log "github.com/sirupsen/logrus"
)

type mockEngine struct {
	colors     []uint32
	brightness int
	renders    int
}

func (d *mockEngine) Init() error {
	return nil
}

func (d *mockEngine) Render() error {
	d.renders++
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("neopixel: render %d, brightness %d, colors: %06x", d.renders, d.brightness, d.colors)
	}
	return nil
}

func (d *mockEngine) Wait() error {
	return nil
}

func (d *mockEngine) Fini() {
	log.Debug("neopixel: Fini")
}

func (d *mockEngine) Leds(_ int) []uint32 {
	return d.colors
}

func (d *mockEngine) SetBrightness(_ int, brightness int) {
	d.brightness = brightness
}

func NewLedController(o Options) (*LedController, error) {
	o = o.withDefaults()
	log.Infof("Using a simulated strip of %d LEDs", o.LedCount)

	return newController(&mockEngine{
		colors:     make([]uint32, o.LedCount),
		brightness: int(o.Brightness),
	}, o.Brightness)
}
