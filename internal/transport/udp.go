// Package transport carries pixel payloads between nodes, either as UDP datagrams or through an
// MQTT broker. A channel maps to a port (or topic) so that nodes on different channels never hear
// each other, like separate radio channels.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	BasePort = 4210
	// MaxFrame is the largest payload a single transmission can carry.
	MaxFrame = 250
	// MaxChannel is the highest usable channel.
	MaxChannel = 14
)

var (
	ErrFrameTooLarge  = errors.New("frame exceeds the transport limit")
	ErrInvalidChannel = errors.New("channel out of range")
	ErrNoPeer         = errors.New("transport has no peer to send to")
	ErrTimeout        = errors.New("timed out waiting for the broker")
)

// Error is returned for every failure of the underlying link.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type UDP struct {
	conn *net.UDPConn
	peer *net.UDPAddr

	closeOnce sync.Once
}

// Port returns the UDP port used for a channel.
func Port(channel int) (int, error) {
	if channel < 0 || channel > MaxChannel {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return BasePort + channel, nil
}

// Listen opens a receiving endpoint on the given host (empty for all interfaces).
func Listen(host string, channel int) (*UDP, error) {
	port, err := Port(channel)
	if err != nil {
		return nil, err
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, &Error{Op: "resolve", Err: err}
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, &Error{Op: "listen", Err: err}
	}
	log.Infof("Listening for pixels on %v (channel %d)", conn.LocalAddr(), channel)
	return &UDP{conn: conn}, nil
}

// Dial opens a sending endpoint towards a peer. The peer may be a broadcast address.
func Dial(peer string, channel int) (*UDP, error) {
	port, err := Port(channel)
	if err != nil {
		return nil, err
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(peer, strconv.Itoa(port)))
	if err != nil {
		return nil, &Error{Op: "resolve", Err: err}
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, &Error{Op: "dial", Err: err}
	}
	log.Infof("Sending pixels to %v (channel %d)", addr, channel)
	return &UDP{conn: conn, peer: addr}, nil
}

// Send transmits one frame to the peer. Nothing is retried.
func (u *UDP) Send(payload []byte) error {
	if u.peer == nil {
		return &Error{Op: "send", Err: ErrNoPeer}
	}
	if len(payload) > MaxFrame {
		return &Error{Op: "send", Err: fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))}
	}
	if _, err := u.conn.WriteToUDP(payload, u.peer); err != nil {
		return &Error{Op: "send", Err: err}
	}
	return nil
}

// OnReceive calls handle for every incoming frame from a separate goroutine, until the context is
// cancelled or the transport is closed. Each callback gets its own copy of the frame.
func (u *UDP) OnReceive(ctx context.Context, handle func(payload []byte)) error {
	go func() {
		<-ctx.Done()
		u.Close()
	}()

	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := u.conn.ReadFromUDP(buf)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					log.Debug("Receive loop stopped")
					return
				}
				log.Warn("Receive failed: ", err)
				continue
			}
			if n > MaxFrame {
				log.Warnf("Ignoring oversized frame of %d bytes from %v", n, from)
				continue
			}
			log.Debugf("Received %d bytes from %v", n, from)

			frame := make([]byte, n)
			copy(frame, buf[:n])
			handle(frame)
		}
	}()
	return nil
}

func (u *UDP) Close() error {
	var err error
	u.closeOnce.Do(func() {
		err = u.conn.Close()
	})
	return err
}
