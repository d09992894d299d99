package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/button"
	"github.com/callebjorkell/pixel-mesh/internal/console"
	"github.com/callebjorkell/pixel-mesh/internal/fade"
	"github.com/callebjorkell/pixel-mesh/internal/lcd"
	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	log "github.com/sirupsen/logrus"
)

func pixelFromArgs() pixel.Pixel {
	return pixel.Pixel{Index: *sendIndex, Red: *sendRed, Green: *sendGreen, Blue: *sendBlue}
}

func sendPixel(conf *Config, p pixel.Pixel) error {
	tx, err := openSender(conf)
	if err != nil {
		return err
	}
	defer tx.Close()

	log.Infof("Sending %v", p)
	return fade.NewSequencer(tx, nil).Send(p)
}

// fadeFromArgs fills in whatever was not given on the command line from the configuration.
func fadeFromArgs(conf *Config) (start, end pixel.Pixel, steps uint32, duration time.Duration, err error) {
	start = conf.IdleColor()
	if *fadeIndex >= 0 {
		if *fadeIndex > 255 {
			return start, end, 0, 0, fmt.Errorf("index must be between 0 and 255, got %d", *fadeIndex)
		}
		start.Index = uint8(*fadeIndex)
	}
	if *fadeFrom != "" {
		rgb, err := parseColor(*fadeFrom)
		if err != nil {
			return start, end, 0, 0, fmt.Errorf("start color: %w", err)
		}
		start = pixel.FromRGB(start.Index, rgb)
	}

	rgb, err := parseColor(*fadeTo)
	if err != nil {
		return start, end, 0, 0, fmt.Errorf("end color: %w", err)
	}
	end = pixel.FromRGB(start.Index, rgb)

	steps = uint32(conf.Fade.Steps)
	if *fadeSteps >= 0 {
		if int64(*fadeSteps) > math.MaxUint32 {
			return start, end, 0, 0, fmt.Errorf("steps must be at most %d, got %d", uint32(math.MaxUint32), *fadeSteps)
		}
		steps = uint32(*fadeSteps)
	}
	duration = conf.FadeDuration()
	if *fadeDuration > 0 {
		duration = *fadeDuration
	}
	return start, end, steps, duration, nil
}

func sendFade(conf *Config) error {
	start, end, steps, duration, err := fadeFromArgs(conf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tx, err := openSender(conf)
	if err != nil {
		return err
	}
	defer tx.Close()

	log.Infof("Fading %v to %v in %d steps over %v", start, end, steps, duration)
	return fade.NewSequencer(tx, nil).Fade(ctx, start, end, steps, duration)
}

func startConsole(conf *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tx, err := openSender(conf)
	if err != nil {
		return err
	}
	defer tx.Close()
	seq := fade.NewSequencer(tx, nil)

	if conf.LCD.Enabled {
		if err := lcd.Init(conf.LCDPins()); err != nil {
			return err
		}
		lcd.Reset()
		defer func() {
			lcd.PrintLine(lcd.Line1, "  Sleeping...")
			lcd.Clear(lcd.Line2)
		}()
	}

	if len(conf.Buttons) > 0 {
		events, err := button.InitButtons(conf.ButtonPins())
		if err != nil {
			return err
		}
		go handleButtons(ctx, conf, seq, events)
	}

	var in io.Reader = os.Stdin
	if *consoleStdin {
		log.Info("Reading pixels from stdin")
	} else {
		if conf.Serial.Device == "" {
			return fmt.Errorf("no serial device configured, use --stdin to read from stdin")
		}
		port, err := console.Open(conf.Serial.Device, conf.Serial.Baud)
		if err != nil {
			return err
		}
		defer port.Close()
		in = port
	}

	// reads block, so the scan is abandoned rather than waited for on shutdown
	done := make(chan error, 1)
	go func() {
		done <- console.Scan(ctx, in, func(pixels []pixel.Pixel) error {
			if len(pixels) == 1 {
				if err := seq.Send(pixels[0]); err != nil {
					return err
				}
				showStatus(conf, lcd.Line2, "Sent "+lcd.PixelText(pixels[0]))
				return nil
			}
			if err := seq.SendBatch(pixels); err != nil {
				return err
			}
			showStatus(conf, lcd.Line2, fmt.Sprintf("Sent %d pixels", len(pixels)))
			return nil
		})
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
		return nil
	case err := <-done:
		return err
	}
}

func handleButtons(ctx context.Context, conf *Config, seq *fade.Sequencer, events <-chan button.ButtonEvent) {
	steps := uint32(conf.Fade.Steps)
	duration := conf.FadeDuration()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			log.Infof("Event: %v", e)
			if !e.Pressed || e.Button >= len(conf.Buttons) {
				continue
			}
			start, end := conf.Buttons[e.Button].Fade()
			go func(id int) {
				err := seq.TryFade(ctx, start, end, steps, duration)
				switch {
				case errors.Is(err, fade.ErrBusy):
					log.Infof("Fade already running, ignoring button %d", id)
				case err != nil:
					log.Warn("Fade failed: ", err)
					showStatus(conf, lcd.Line1, "  FADE FAILED")
				default:
					showStatus(conf, lcd.Line1, "Faded"+lcd.PixelText(start))
				}
			}(e.Button)
		}
	}
}

func showStatus(conf *Config, l lcd.Line, msg string) {
	if conf.LCD.Enabled {
		lcd.PrintLine(l, msg)
	}
}
