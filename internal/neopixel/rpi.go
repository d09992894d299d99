//go:build pi

package neopixel

import (
	ws "github.com/rpi-ws281x/rpi-ws281x-go"
	log "github.com/sirupsen/logrus"
)

func NewLedController(o Options) (*LedController, error) {
	o = o.withDefaults()

	opt := ws.DefaultOptions
	opt.Channels[0].Brightness = int(o.Brightness)
	opt.Channels[0].LedCount = o.LedCount
	opt.Channels[0].GpioPin = o.GpioPin

	log.Infof("Initializing ws281x strip of %d LEDs on GPIO%d", o.LedCount, o.GpioPin)
	dev, err := ws.MakeWS2811(&opt)
	if err != nil {
		return nil, err
	}

	return newController(dev, o.Brightness)
}
