// Package animation renders the color store onto the strip. Until the first pixel arrives the strip
// breathes in the idle color; after that every frame is a plain copy of the store.
package animation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/ledmap"
	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/callebjorkell/pixel-mesh/internal/store"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// RampSteps is the number of brightness levels walked by a ramp.
const RampSteps = 256

const (
	defaultRampDuration  = 255 * time.Millisecond
	defaultFrameInterval = time.Second / 60
)

// errLive stops the idle animation once data has arrived.
var errLive = errors.New("store has data")

// Driver is the strip the engine renders to.
type Driver interface {
	Set(position int, rgb uint32)
	SetBrightness(level uint8)
	Flush() error
}

type State int32

const (
	Idle State = iota
	Live
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Live:
		return "live"
	}
	return "unknown"
}

type Config struct {
	Map ledmap.Map
	// IdleColor is shown while no pixel has been received.
	IdleColor pixel.Pixel
	// Brightness is the full brightness level of the strip.
	Brightness uint8
	// RampDuration is the length of one idle fade, down or up.
	RampDuration time.Duration
	// Hold is the pause after each idle fade.
	Hold time.Duration
	// FrameInterval is the time between live frames.
	FrameInterval time.Duration
}

type Engine struct {
	cfg    Config
	store  *store.Store
	driver Driver
	state  atomic.Int32

	frames    metrics.Counter
	frameTime metrics.Timer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, s *store.Store, driver Driver, registry metrics.Registry) *Engine {
	if cfg.RampDuration <= 0 {
		cfg.RampDuration = defaultRampDuration
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = defaultFrameInterval
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Engine{
		cfg:       cfg,
		store:     s,
		driver:    driver,
		frames:    metrics.GetOrRegisterCounter("animation.frames", registry),
		frameTime: metrics.GetOrRegisterTimer("animation.frame_time", registry),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run animates until the context is done. Errors from the strip are fatal to the loop.
func (e *Engine) Run(ctx context.Context) error {
	log.Infof("Animating %d LEDs, idle color %06x", e.cfg.Map.Len(), e.cfg.IdleColor.RGB())

	if err := e.idle(ctx); err != nil && !errors.Is(err, errLive) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e.goLive()

	tick := time.NewTicker(e.cfg.FrameInterval)
	defer tick.Stop()
	for {
		if err := e.Tick(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// idle breathes the idle color until the store has data.
func (e *Engine) idle(ctx context.Context) error {
	log.Debug("Entering idle animation")
	for !e.store.HasData() {
		if err := e.Ramp(ctx, 255, 0, e.cfg.RampDuration); err != nil {
			return err
		}
		if err := e.hold(ctx); err != nil {
			return err
		}
		if err := e.Ramp(ctx, 0, 255, e.cfg.RampDuration); err != nil {
			return err
		}
		if err := e.hold(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) hold(ctx context.Context) error {
	if e.store.HasData() {
		return errLive
	}
	return e.sleep(ctx, e.cfg.Hold)
}

func (e *Engine) goLive() {
	if e.state.Swap(int32(Live)) != int32(Live) {
		log.Info("First pixel received, rendering live colors")
	}
}

// Ramp walks the idle color through every brightness level between from and to, scaled to the
// configured full brightness. The residual sleep after each step keeps the whole ramp close to
// duration even when rendering a step is slow. It stops early once the store has data.
func (e *Engine) Ramp(ctx context.Context, from, to uint8, duration time.Duration) error {
	stepDelay := duration / RampSteps
	dir := 1
	if to < from {
		dir = -1
	}

	start := e.now()
	level := int(from)
	for step := 0; step < RampSteps; step++ {
		if e.store.HasData() {
			return errLive
		}

		e.driver.SetBrightness(scale(uint8(level), e.cfg.Brightness))
		rgb := e.cfg.IdleColor.RGB()
		for i := 0; i < e.cfg.Map.Len(); i++ {
			e.driver.Set(i, rgb)
		}
		if err := e.driver.Flush(); err != nil {
			return err
		}

		elapsed := e.now().Sub(start)
		if err := e.sleep(ctx, time.Duration(step+1)*stepDelay-elapsed); err != nil {
			return err
		}

		if level == int(to) {
			break
		}
		level += dir
	}
	return nil
}

// Tick renders one live frame from a single store snapshot. Mapped pixels that never received a
// color are black.
func (e *Engine) Tick() error {
	start := time.Now()
	snap := e.store.Snapshot()

	e.driver.SetBrightness(e.cfg.Brightness)
	for i := 0; i < e.cfg.Map.Len(); i++ {
		index, _ := e.cfg.Map.At(i)
		var rgb uint32
		if p, ok := snap.Get(index); ok {
			rgb = p.RGB()
		}
		e.driver.Set(i, rgb)
	}
	if err := e.driver.Flush(); err != nil {
		return err
	}

	e.frames.Inc(1)
	e.frameTime.UpdateSince(start)
	return nil
}

// scale maps a 0-255 ramp level onto 0..full.
func scale(level, full uint8) uint8 {
	return uint8(uint32(level) * uint32(full) / 255)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
