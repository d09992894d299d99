//go:build pi

package lcd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	registerSelection gpio.PinIO
	clockEdge         gpio.PinIO
	dataPins          [4]gpio.PinIO
)

// Init sets up the display pins and puts the controller in 4-bit, two line mode.
func Init(p Pins) error {
	log.Infoln("Initializing LCD")
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("unable to initialize periph: %w", err)
	}

	pin := func(name string) (gpio.PinIO, error) {
		io := gpioreg.ByName(name)
		if io == nil {
			return nil, fmt.Errorf("no LCD pin named %q", name)
		}
		return io, nil
	}

	var err error
	if registerSelection, err = pin(p.RegisterSelection); err != nil {
		return err
	}
	if clockEdge, err = pin(p.ClockEdge); err != nil {
		return err
	}
	for i, name := range p.Data {
		if dataPins[i], err = pin(name); err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	sendByte(0x33, command)
	sendByte(0x32, command)
	sendByte(0x28, command)
	sendByte(0x0C, command)
	sendByte(0x06, command)
	sendByte(0x01, command)
	return nil
}

func write(l Line, text string) {
	if registerSelection == nil {
		return
	}
	sendByte(byte(l), command)
	for i := 0; i < lineWidth; i++ {
		sendByte(text[i], character)
	}
}

func sendByte(bits byte, mode gpio.Level) {
	registerSelection.Out(mode)
	pulseByte(bits, 0x10)
	pulseByte(bits, 0x01)
}

func pulseByte(bits, mask byte) {
	for i, pin := range dataPins {
		pin.Out(gpio.Low)
		if bits&(mask<<uint(i)) != 0 {
			pin.Out(gpio.High)
		}
	}
	time.Sleep(signalDelay)
	clockEdge.Out(gpio.High)
	time.Sleep(signalPulse)
	clockEdge.Out(gpio.Low)
	time.Sleep(signalDelay)
}
