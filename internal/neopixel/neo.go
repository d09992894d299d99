package neopixel

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBrightness = 255
	defaultGpioPin    = 18
)

type wsEngine interface {
	Init() error
	Render() error
	Wait() error
	Fini()
	Leds(channel int) []uint32
	SetBrightness(channel int, brightness int)
}

// Options describes the strip attached to the receiver.
type Options struct {
	LedCount   int
	Brightness uint8
	GpioPin    int
}

// Frame is what was pushed to the strip on a flush. Colors are before brightness is applied.
type Frame struct {
	Colors     []uint32
	Brightness uint8
}

// LedController drives a single strip. Set and SetBrightness only touch the buffer, Flush pushes
// it out.
type LedController struct {
	mu         sync.Mutex
	ws         wsEngine
	brightness uint8

	// OnFlush, when set, receives a copy of every frame that was rendered.
	OnFlush func(Frame)
}

func newController(ws wsEngine, brightness uint8) (*LedController, error) {
	if err := ws.Init(); err != nil {
		return nil, fmt.Errorf("unable to initialize the strip: %w", err)
	}
	return &LedController{
		ws:         ws,
		brightness: brightness,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Brightness == 0 {
		o.Brightness = defaultBrightness
	}
	if o.GpioPin == 0 {
		o.GpioPin = defaultGpioPin
	}
	return o
}

func (l *LedController) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.ws.Leds(0))
}

// Set writes the color of one LED. Positions outside the strip are ignored.
func (l *LedController) Set(position int, rgb uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	leds := l.ws.Leds(0)
	if position < 0 || position >= len(leds) {
		log.Debugf("Ignoring LED position %d outside of strip of %d", position, len(leds))
		return
	}
	leds[position] = rgb
}

func (l *LedController) SetBrightness(level uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.brightness == level {
		return
	}
	l.brightness = level
	l.ws.SetBrightness(0, int(level))
}

func (l *LedController) Flush() error {
	l.mu.Lock()
	err := l.ws.Render()
	var frame Frame
	if l.OnFlush != nil {
		leds := l.ws.Leds(0)
		frame = Frame{Colors: make([]uint32, len(leds)), Brightness: l.brightness}
		copy(frame.Colors, leds)
	}
	hook := l.OnFlush
	l.mu.Unlock()

	if err != nil {
		return fmt.Errorf("unable to render strip: %w", err)
	}
	if hook != nil {
		hook(frame)
	}
	return nil
}

// Fill sets every LED to the same color and flushes.
func (l *LedController) Fill(rgb uint32) error {
	l.mu.Lock()
	leds := l.ws.Leds(0)
	for i := range leds {
		leds[i] = rgb
	}
	l.mu.Unlock()

	return l.Flush()
}

func (l *LedController) clear() error {
	return l.Fill(0)
}

// Close blanks the strip and releases the hardware.
func (l *LedController) Close() {
	if err := l.clear(); err != nil {
		log.Warn("Unable to clear the strip: ", err)
	}
	if err := l.ws.Wait(); err != nil {
		log.Warn("Waiting for the strip failed: ", err)
	}
	l.ws.Fini()
}

// WithBrightness scales a color by a 0-255 brightness level, where 255 leaves it untouched.
func WithBrightness(color uint32, level uint8) uint32 {
	if level == 255 {
		return color
	}
	if level == 0 {
		return 0
	}

	light := uint32(level)
	r, g, b := (color>>16)&0xff, (color>>8)&0xff, color&0xff

	red := r * light / 255
	green := g * light / 255
	blue := b * light / 255

	return (red << 16) | (green << 8) | blue
}
