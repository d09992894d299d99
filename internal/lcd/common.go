// Package lcd shows sender status on a 16x2 HD44780 character display.
package lcd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"periph.io/x/conn/v3/gpio"
)

type Line byte

func (l Line) String() string {
	switch l {
	case Line1:
		return "L1"
	case Line2:
		return "L2"
	}
	return "N/A"
}

const (
	registerSelectionPin = "GPIO4"
	clockEdgePin         = "GPIO17"
	data4Pin             = "GPIO25"
	data5Pin             = "GPIO22"
	data6Pin             = "GPIO23"
	data7Pin             = "GPIO24"

	Line1 Line = 0x80
	Line2 Line = 0xC0

	lineWidth   = 16
	character   = gpio.High
	command     = gpio.Low
	signalPulse = 500000 * time.Nanosecond
	signalDelay = 500000 * time.Nanosecond
)

// Pins names the GPIO pins the display is wired to in 4-bit mode.
type Pins struct {
	RegisterSelection string
	ClockEdge         string
	Data              [4]string
}

func DefaultPins() Pins {
	return Pins{
		RegisterSelection: registerSelectionPin,
		ClockEdge:         clockEdgePin,
		Data:              [4]string{data4Pin, data5Pin, data6Pin, data7Pin},
	}
}

var (
	mu    sync.Mutex
	shown = map[Line]string{}
)

// PrintLine replaces the content of a line. Text is cut or padded to the display width.
func PrintLine(l Line, msg string) {
	mu.Lock()
	defer mu.Unlock()

	text := fit(msg)
	shown[l] = text
	write(l, text)
}

func Clear(l Line) {
	PrintLine(l, "")
}

func Reset() {
	PrintLine(Line1, "  pixel-mesh")
	Clear(Line2)
}

// Text returns what is currently shown on a line.
func Text(l Line) string {
	mu.Lock()
	defer mu.Unlock()
	if t, ok := shown[l]; ok {
		return t
	}
	return fit("")
}

// PixelText formats a pixel to fit a line, with room for a short prefix.
func PixelText(p pixel.Pixel) string {
	return fmt.Sprintf("%3d #%06x", p.Index, p.RGB())
}

// fit makes msg exactly one line wide. The display only has ASCII glyphs.
func fit(msg string) string {
	b := make([]byte, 0, lineWidth)
	for _, r := range msg {
		if len(b) == lineWidth {
			break
		}
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b = append(b, byte(r))
	}
	return string(b) + strings.Repeat(" ", lineWidth-len(b))
}
