package fade

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	sent     []pixel.Pixel
	payloads int
	failAt   int
	failErr  error
}

func (r *recordingSender) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil && len(r.sent) == r.failAt {
		return r.failErr
	}
	records, err := pixel.Decode(payload)
	if err != nil {
		return err
	}
	r.sent = append(r.sent, records...)
	r.payloads++
	return nil
}

func (r *recordingSender) Sent() []pixel.Pixel {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]pixel.Pixel{}, r.sent...)
}

func newTestSequencer(tx Sender) (*Sequencer, *[]time.Duration) {
	var sleeps []time.Duration
	s := NewSequencer(tx, nil)
	s.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return s, &sleeps
}

func reds(pixels []pixel.Pixel) []uint8 {
	out := make([]uint8, len(pixels))
	for i, p := range pixels {
		out[i] = p.Red
	}
	return out
}

func TestSteps(t *testing.T) {
	tt := []struct {
		name  string
		start pixel.Pixel
		end   pixel.Pixel
		steps uint32
		reds  []uint8
	}{
		{
			"black to red in four",
			pixel.Pixel{},
			pixel.Pixel{Red: 255},
			4,
			[]uint8{0, 63, 127, 191, 255, 255},
		},
		{
			"red to black in four",
			pixel.Pixel{Red: 255},
			pixel.Pixel{},
			4,
			[]uint8{255, 192, 128, 64, 0, 0},
		},
		{
			"single step",
			pixel.Pixel{Red: 10},
			pixel.Pixel{Red: 20},
			1,
			[]uint8{10, 20, 20},
		},
		{
			"zero steps only sends the end",
			pixel.Pixel{Red: 10},
			pixel.Pixel{Red: 20},
			0,
			[]uint8{20},
		},
		{
			"truncation never reaches past the end",
			pixel.Pixel{Red: 0},
			pixel.Pixel{Red: 10},
			3,
			[]uint8{0, 3, 6, 10, 10},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.reds, reds(Steps(tc.start, tc.end, tc.steps)))
		})
	}
}

func TestSteps_Indices(t *testing.T) {
	start := pixel.Pixel{Index: 3, Blue: 255}
	end := pixel.Pixel{Index: 9, Green: 255}

	records := Steps(start, end, 50)
	require.Len(t, records, 52)
	for _, p := range records[:51] {
		assert.Equal(t, uint8(3), p.Index)
	}
	assert.Equal(t, end, records[51])
	assert.Equal(t, pixel.Pixel{Index: 3, Green: 255}, records[50])
}

func TestFade(t *testing.T) {
	tx := &recordingSender{}
	s, sleeps := newTestSequencer(tx)

	err := s.Fade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 4, 100*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, []uint8{0, 63, 127, 191, 255, 255}, reds(tx.Sent()))
	assert.Equal(t, pixel.Pixel{Red: 255}, tx.Sent()[5])
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond,
		25 * time.Millisecond, 25 * time.Millisecond}, *sleeps)
}

func TestFade_SendFailureAborts(t *testing.T) {
	linkDown := errors.New("link down")
	tx := &recordingSender{failAt: 2, failErr: linkDown}
	s, _ := newTestSequencer(tx)

	err := s.Fade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 4, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, linkDown))
	assert.Len(t, tx.Sent(), 2)

	// the transmit path is released again
	tx.failErr = nil
	require.NoError(t, s.TryFade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 1, time.Millisecond))
}

func TestFade_HugeStepCountIsStreamed(t *testing.T) {
	linkDown := errors.New("link down")
	tx := &recordingSender{failAt: 3, failErr: linkDown}
	s, sleeps := newTestSequencer(tx)

	err := s.Fade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, math.MaxUint32, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, linkDown))
	assert.Equal(t, []uint8{0, 0, 0}, reds(tx.Sent()))
	assert.Len(t, *sleeps, 3)
}

func TestFade_MatchesSteps(t *testing.T) {
	start := pixel.Pixel{Index: 2, Red: 200, Green: 10, Blue: 90}
	end := pixel.Pixel{Index: 7, Red: 5, Green: 250}

	for _, steps := range []uint32{0, 1, 3, 7, 50} {
		tx := &recordingSender{}
		s, _ := newTestSequencer(tx)
		require.NoError(t, s.Fade(context.Background(), start, end, steps, time.Millisecond))
		assert.Equal(t, Steps(start, end, steps), tx.Sent(), "steps=%d", steps)
	}
}

func TestFade_FinalSendFailure(t *testing.T) {
	linkDown := errors.New("link down")
	tx := &recordingSender{failAt: 3, failErr: linkDown}
	s, _ := newTestSequencer(tx)

	err := s.Fade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 2, time.Millisecond)
	assert.True(t, errors.Is(err, linkDown))
}

func TestFade_Cancelled(t *testing.T) {
	tx := &recordingSender{}
	s, _ := newTestSequencer(tx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Fade(ctx, pixel.Pixel{}, pixel.Pixel{Red: 255}, 4, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, tx.Sent(), 1)
}

func TestTryFade_Busy(t *testing.T) {
	tx := &recordingSender{}
	s, _ := newTestSequencer(tx)

	done := s.queue.Queue()
	err := s.TryFade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 4, time.Millisecond)
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Empty(t, tx.Sent())
	done()

	assert.NoError(t, s.TryFade(context.Background(), pixel.Pixel{}, pixel.Pixel{Red: 255}, 4, time.Millisecond))
}

func TestFade_NoInterleaving(t *testing.T) {
	tx := &recordingSender{}
	s := NewSequencer(tx, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(index uint8) {
			defer wg.Done()
			start := pixel.Pixel{Index: index}
			end := pixel.Pixel{Index: index, Blue: 200}
			assert.NoError(t, s.Fade(context.Background(), start, end, 10, 2*time.Millisecond))
		}(uint8(i))
	}
	wg.Wait()

	sent := tx.Sent()
	require.Len(t, sent, 4*12)
	for i := 0; i < len(sent); i += 12 {
		for _, p := range sent[i : i+12] {
			assert.Equal(t, sent[i].Index, p.Index, "fades interleaved")
		}
	}
	assert.Equal(t, 0, s.queue.Waiting())
}

func TestSend(t *testing.T) {
	tx := &recordingSender{}
	s, _ := newTestSequencer(tx)

	require.NoError(t, s.Send(pixel.Pixel{Index: 7, Green: 1}))
	assert.Equal(t, []pixel.Pixel{{Index: 7, Green: 1}}, tx.Sent())
}

func TestSendBatch(t *testing.T) {
	tx := &recordingSender{}
	s, _ := newTestSequencer(tx)

	batch := []pixel.Pixel{{Index: 1, Red: 1}, {Index: 2, Green: 2}, {Index: 3, Blue: 3}}
	require.NoError(t, s.SendBatch(batch))
	assert.Equal(t, batch, tx.Sent())
	assert.Equal(t, 1, tx.payloads)
	assert.Equal(t, int64(3), s.sent.Count())
}

func TestSendBatch_WaitsForFade(t *testing.T) {
	tx := &recordingSender{}
	s, _ := newTestSequencer(tx)

	done := s.queue.Queue()
	sent := make(chan error, 1)
	go func() {
		sent <- s.SendBatch([]pixel.Pixel{{Index: 9}, {Index: 10}})
	}()

	require.Eventually(t, func() bool { return s.queue.Waiting() == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, tx.Sent())
	done()

	require.NoError(t, <-sent)
	assert.Len(t, tx.Sent(), 2)
}
