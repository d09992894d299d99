// Package fade produces stepped color transitions on the sending side.
package fade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

var ErrBusy = errors.New("another fade is in progress")

// Sender transmits one encoded payload to the configured peer.
type Sender interface {
	Send(payload []byte) error
}

// Steps lists every record of a fade from start to end in the given number of steps. The stepped
// records carry the index of start; the last element is end itself, since truncation may leave the
// stepped sequence short of the true endpoint. A running fade computes the same records one at a
// time.
func Steps(start, end pixel.Pixel, steps uint32) []pixel.Pixel {
	if steps == 0 {
		return []pixel.Pixel{end}
	}

	out := make([]pixel.Pixel, 0, int(steps)+2)
	for i := uint64(0); i <= uint64(steps); i++ {
		out = append(out, step(start, end, uint32(i), steps))
	}
	return append(out, end)
}

// step interpolates the i-th of steps records between start and end.
func step(start, end pixel.Pixel, i, steps uint32) pixel.Pixel {
	return pixel.Pixel{
		Index: start.Index,
		Red:   channel(start.Red, end.Red, i, steps),
		Green: channel(start.Green, end.Green, i, steps),
		Blue:  channel(start.Blue, end.Blue, i, steps),
	}
}

func channel(from, to uint8, i, steps uint32) uint8 {
	delta := int64(to) - int64(from)
	return uint8(int64(from) + delta*int64(i)/int64(steps))
}

// Sequencer owns the transmit path while a fade is running.
type Sequencer struct {
	tx    Sender
	queue Queue
	sent  metrics.Counter

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSequencer(tx Sender, registry metrics.Registry) *Sequencer {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Sequencer{
		tx:    tx,
		sent:  metrics.GetOrRegisterCounter("fade.sent", registry),
		sleep: sleepContext,
	}
}

// Send transmits a single record outside of any fade. It still waits for a running fade so that
// the two never interleave.
func (s *Sequencer) Send(p pixel.Pixel) error {
	done := s.queue.Queue()
	defer done()

	return s.send(p)
}

// SendBatch transmits several records in a single payload, with the same ordering as Send.
func (s *Sequencer) SendBatch(pixels []pixel.Pixel) error {
	done := s.queue.Queue()
	defer done()

	if err := s.tx.Send(pixel.EncodeBatch(pixels)); err != nil {
		return err
	}
	s.sent.Inc(int64(len(pixels)))
	log.Debugf("Sent %d records", len(pixels))
	return nil
}

// Fade runs a fade, waiting for any fade already in flight to finish first.
func (s *Sequencer) Fade(ctx context.Context, start, end pixel.Pixel, steps uint32, duration time.Duration) error {
	if waiting := s.queue.Waiting(); waiting > 0 {
		log.Debugf("Fade to %v queued behind %d other(s)", end, waiting)
	}
	done := s.queue.Queue()
	defer done()

	return s.run(ctx, start, end, steps, duration)
}

// TryFade runs a fade only if none is in flight, returning ErrBusy otherwise.
func (s *Sequencer) TryFade(ctx context.Context, start, end pixel.Pixel, steps uint32, duration time.Duration) error {
	done, ok := s.queue.TryQueue()
	if !ok {
		return ErrBusy
	}
	defer done()

	return s.run(ctx, start, end, steps, duration)
}

func (s *Sequencer) run(ctx context.Context, start, end pixel.Pixel, steps uint32, duration time.Duration) error {
	log.Infof("Fading %v -> %v in %d steps over %v", start, end, steps, duration)

	if steps > 0 {
		stepDelay := duration / time.Duration(steps)
		// uint64 so that a fade of math.MaxUint32 steps still terminates
		for i := uint64(0); i <= uint64(steps); i++ {
			if err := s.send(step(start, end, uint32(i), steps)); err != nil {
				return fmt.Errorf("fade aborted at step %d of %d: %w", i, steps, err)
			}
			if err := s.sleep(ctx, stepDelay); err != nil {
				return err
			}
		}
	}

	if err := s.send(end); err != nil {
		return fmt.Errorf("fade aborted on final color: %w", err)
	}
	log.Debugf("Fade to %v done", end)
	return nil
}

func (s *Sequencer) send(p pixel.Pixel) error {
	if err := s.tx.Send(p.Encode()); err != nil {
		return err
	}
	s.sent.Inc(1)
	log.Debugf("Sent %v", p)
	return nil
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
