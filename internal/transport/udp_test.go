package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	p, err := Port(0)
	require.NoError(t, err)
	assert.Equal(t, BasePort, p)

	p, err = Port(6)
	require.NoError(t, err)
	assert.Equal(t, BasePort+6, p)

	for _, ch := range []int{-1, MaxChannel + 1} {
		_, err = Port(ch)
		assert.True(t, errors.Is(err, ErrInvalidChannel))
	}
}

// loopback wires a listener on an ephemeral port to a sender pointed at it.
func loopback(t *testing.T) (rx, tx *UDP) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	rx = &UDP{conn: conn}

	out, err := net.ListenUDP("udp4", &net.UDPAddr{})
	require.NoError(t, err)
	tx = &UDP{conn: out, peer: conn.LocalAddr().(*net.UDPAddr)}

	t.Cleanup(func() {
		rx.Close()
		tx.Close()
	})
	return rx, tx
}

func TestSendReceive(t *testing.T) {
	rx, tx := loopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan []byte, 4)
	require.NoError(t, rx.OnReceive(ctx, func(payload []byte) {
		frames <- payload
	}))

	require.NoError(t, tx.Send([]byte{2, 10, 20, 30}))
	require.NoError(t, tx.Send([]byte{1, 1, 1, 1, 2, 2, 2, 2}))

	for _, want := range [][]byte{{2, 10, 20, 30}, {1, 1, 1, 1, 2, 2, 2, 2}} {
		select {
		case got := <-frames:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
}

func TestSend_FrameTooLarge(t *testing.T) {
	_, tx := loopback(t)

	err := tx.Send(make([]byte, MaxFrame+4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))

	var transportErr *Error
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "send", transportErr.Op)
}

func TestSend_NoPeer(t *testing.T) {
	rx, _ := loopback(t)
	assert.True(t, errors.Is(rx.Send([]byte{0, 0, 0, 0}), ErrNoPeer))
}

func TestSend_Closed(t *testing.T) {
	_, tx := loopback(t)
	require.NoError(t, tx.Close())

	err := tx.Send([]byte{0, 0, 0, 0})
	var transportErr *Error
	assert.True(t, errors.As(err, &transportErr))
}
