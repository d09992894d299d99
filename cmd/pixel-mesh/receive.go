package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/animation"
	"github.com/callebjorkell/pixel-mesh/internal/monitor"
	"github.com/callebjorkell/pixel-mesh/internal/neopixel"
	"github.com/callebjorkell/pixel-mesh/internal/store"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

type receiverStatus struct {
	store  *store.Store
	engine *animation.Engine
}

func (r receiverStatus) HasData() bool {
	return r.store.HasData()
}

func (r receiverStatus) State() string {
	return r.engine.State().String()
}

func startReceiver(conf *Config) error {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	m, err := conf.Map()
	if err != nil {
		return fmt.Errorf("unable to build the LED map: %w", err)
	}
	log.Infof("Mapping %d logical pixels from index %d onto %d LEDs: %v",
		*conf.LogicalPixelCount, conf.BaseIndex, m.Len(), m.Runs())

	registry := metrics.NewRegistry()
	s := store.New(registry)

	led, err := neopixel.NewLedController(neopixel.Options{
		LedCount:   m.Len(),
		Brightness: *conf.Brightness,
		GpioPin:    conf.GpioPin,
	})
	if err != nil {
		return err
	}
	defer led.Close()

	engine := animation.New(animation.Config{
		Map:           m,
		IdleColor:     conf.IdleColor(),
		Brightness:    *conf.Brightness,
		RampDuration:  time.Duration(conf.Idle.FadeMs) * time.Millisecond,
		Hold:          time.Duration(*conf.Idle.HoldMs) * time.Millisecond,
		FrameInterval: conf.FrameInterval(),
	}, s, led, registry)

	if conf.MonitorAddress != "" {
		mon := monitor.New(receiverStatus{store: s, engine: engine}, registry)
		led.OnFlush = mon.Broadcast

		srv := &http.Server{Addr: conf.MonitorAddress, Handler: mon.Handler()}
		go func() {
			log.Infof("Serving frame monitor on %v", conf.MonitorAddress)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Frame monitor stopped: ", err)
			}
		}()
		defer srv.Close()
	}

	rx, err := openReceiver(conf)
	if err != nil {
		return err
	}
	defer rx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = rx.OnReceive(ctx, func(payload []byte) {
		// malformed batches are counted and logged by the store
		_ = s.IngestPayload(payload)
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx)
	}()

	select {
	case <-signalChan:
		log.Info("Shutting down...")
		cancel()
		<-done
		return nil
	case err := <-done:
		return err
	}
}
