//go:build !pi

package button

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimulatedButton(t *testing.T) {
	events, err := InitButtons([]string{"GPIO12", "GPIO13"})
	require.NoError(t, err)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))

	select {
	case e := <-events:
		require.Equal(t, ButtonEvent{Button: 1, Pressed: true}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for simulated press")
	}
}
