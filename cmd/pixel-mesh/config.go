package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/lcd"
	"github.com/callebjorkell/pixel-mesh/internal/ledmap"
	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/callebjorkell/pixel-mesh/internal/transport"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

const (
	defaultPixelCount    = 1
	defaultLedCount      = 1
	defaultStartingColor = "#ffffff"
	defaultBrightness    = 255
	defaultFrameRate     = 60
	defaultIdleFadeMs    = 255
	defaultIdleHoldMs    = 100
	defaultBaud          = 115200
	defaultFadeSteps     = 50
	defaultFadeMs        = 1000
	defaultPeer          = "255.255.255.255"
)

type ButtonConfig struct {
	Pin   string `yaml:"pin"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Index int    `yaml:"index"`

	start, end uint32
}

// Fade returns the start and end records of the fade this button triggers.
func (b ButtonConfig) Fade() (pixel.Pixel, pixel.Pixel) {
	return pixel.FromRGB(uint8(b.Index), b.start), pixel.FromRGB(uint8(b.Index), b.end)
}

type Config struct {
	Channel           int    `yaml:"channel"`
	PeerAddress       string `yaml:"peer_address"`
	ListenAddress     string `yaml:"listen_address"`
	LogicalPixelCount *int   `yaml:"logical_pixel_count"`
	PhysicalLedCount  *int   `yaml:"physical_led_count"`
	BaseIndex         int    `yaml:"base_index"`
	StartingColor     string `yaml:"starting_color"`
	Brightness        *uint8 `yaml:"brightness"`
	GpioPin           int    `yaml:"gpio_pin"`
	FrameRate         int    `yaml:"frame_rate"`
	Idle              struct {
		FadeMs int  `yaml:"fade_ms"`
		HoldMs *int `yaml:"hold_ms"`
	} `yaml:"idle"`
	MonitorAddress string `yaml:"monitor_address"`
	Serial         struct {
		Device string `yaml:"device"`
		Baud   int    `yaml:"baud"`
	} `yaml:"serial"`
	Fade struct {
		Steps      int `yaml:"steps"`
		DurationMs int `yaml:"duration_ms"`
	} `yaml:"fade"`
	Buttons []ButtonConfig `yaml:"buttons"`
	MQTT    struct {
		Broker   string `yaml:"broker"`
		Topic    string `yaml:"topic"`
		ClientID string `yaml:"client_id"`
	} `yaml:"mqtt"`
	LCD struct {
		Enabled           bool     `yaml:"enabled"`
		RegisterSelection string   `yaml:"register_selection"`
		ClockEdge         string   `yaml:"clock_edge"`
		Data              []string `yaml:"data"`
	} `yaml:"lcd"`

	startingColor uint32
}

// IdleColor is the color shown by the receiver before any pixel has arrived.
func (c Config) IdleColor() pixel.Pixel {
	return pixel.FromRGB(uint8(c.BaseIndex), c.startingColor)
}

func (c Config) Map() (ledmap.Map, error) {
	return ledmap.Build(*c.LogicalPixelCount, *c.PhysicalLedCount, uint8(c.BaseIndex))
}

func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

func (c Config) FadeDuration() time.Duration {
	return time.Duration(c.Fade.DurationMs) * time.Millisecond
}

func (c Config) ButtonPins() []string {
	pins := make([]string, 0, len(c.Buttons))
	for _, b := range c.Buttons {
		pins = append(pins, b.Pin)
	}
	return pins
}

// LCDPins returns the display wiring, falling back to the default pins for anything not set.
func (c Config) LCDPins() lcd.Pins {
	pins := lcd.DefaultPins()
	if c.LCD.RegisterSelection != "" {
		pins.RegisterSelection = c.LCD.RegisterSelection
	}
	if c.LCD.ClockEdge != "" {
		pins.ClockEdge = c.LCD.ClockEdge
	}
	if len(c.LCD.Data) == len(pins.Data) {
		copy(pins.Data[:], c.LCD.Data)
	}
	return pins
}

func readConfig(file string) (*Config, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return parseConfig(content)
}

func parseConfig(content []byte) (*Config, error) {
	c := &Config{}
	err := yaml.Unmarshal(content, c)
	if err != nil {
		return nil, err
	}

	if _, err := transport.Port(c.Channel); err != nil {
		return nil, err
	}
	if c.PeerAddress == "" {
		c.PeerAddress = defaultPeer
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic, _ = transport.Topic(c.Channel)
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "pixel-mesh-" + uuid.NewString()[:8]
	}
	// an explicit zero is kept: no pixels is an error, no LEDs an empty strip
	setDefault(&c.LogicalPixelCount, defaultPixelCount)
	setDefault(&c.PhysicalLedCount, defaultLedCount)
	if c.BaseIndex < 0 || c.BaseIndex > 255 {
		return nil, fmt.Errorf("base index must be between 0 and 255, got %d", c.BaseIndex)
	}
	if _, err := c.Map(); err != nil {
		return nil, fmt.Errorf("invalid pixel layout: %w", err)
	}

	if c.StartingColor == "" {
		c.StartingColor = defaultStartingColor
	}
	if c.startingColor, err = parseColor(c.StartingColor); err != nil {
		return nil, fmt.Errorf("starting color: %w", err)
	}
	if c.Brightness == nil {
		b := uint8(defaultBrightness)
		c.Brightness = &b
	}

	if c.FrameRate < 0 {
		return nil, fmt.Errorf("frame rate cannot be negative")
	}
	if c.FrameRate == 0 {
		c.FrameRate = defaultFrameRate
	}
	setDefault(&c.Idle.HoldMs, defaultIdleHoldMs)
	if c.Idle.FadeMs < 0 || *c.Idle.HoldMs < 0 {
		return nil, fmt.Errorf("idle timings cannot be negative")
	}
	if c.Idle.FadeMs == 0 {
		c.Idle.FadeMs = defaultIdleFadeMs
	}

	if c.Serial.Baud <= 0 {
		c.Serial.Baud = defaultBaud
	}
	if c.Fade.Steps <= 0 {
		c.Fade.Steps = defaultFadeSteps
	}
	if int64(c.Fade.Steps) > math.MaxUint32 {
		return nil, fmt.Errorf("fade steps must be at most %d, got %d", uint32(math.MaxUint32), c.Fade.Steps)
	}
	if c.Fade.DurationMs <= 0 {
		c.Fade.DurationMs = defaultFadeMs
	}

	if len(c.LCD.Data) != 0 && len(c.LCD.Data) != 4 {
		return nil, fmt.Errorf("the LCD needs exactly 4 data pins, got %d", len(c.LCD.Data))
	}

	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.Pin == "" {
			return nil, fmt.Errorf("pin must be specified for button %d", i)
		}
		if b.Index < 0 || b.Index > 255 {
			return nil, fmt.Errorf("index of button %d must be between 0 and 255", i)
		}
		if b.start, err = parseColor(b.Start); err != nil {
			return nil, fmt.Errorf("start color of button %d: %w", i, err)
		}
		if b.End == "" {
			b.End = "#000000"
		}
		if b.end, err = parseColor(b.End); err != nil {
			return nil, fmt.Errorf("end color of button %d: %w", i, err)
		}
	}

	return c, nil
}

func setDefault(v **int, def int) {
	if *v == nil {
		*v = &def
	}
}

func parseColor(hex string) (uint32, error) {
	col, err := colorful.Hex(hex)
	if err != nil {
		return 0, err
	}
	r, g, b := col.RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b), nil
}
