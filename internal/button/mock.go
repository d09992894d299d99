//go:build !pi

package button

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

var simulated = []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP}

// InitButtons simulates up to three buttons with SIGUSR1, SIGUSR2 and SIGHUP.
func InitButtons(pins []string) (<-chan ButtonEvent, error) {
	log.Infoln("Initializing simulated button handler")

	n := len(pins)
	if n > len(simulated) {
		log.Warnf("Only %d of %d buttons can be simulated", len(simulated), n)
		n = len(simulated)
	}

	c := make(chan ButtonEvent, 5)
	if n == 0 {
		return c, nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, simulated[:n]...)
	go simulateButtons(sigChan, c)
	return c, nil
}

func simulateButtons(sigChan <-chan os.Signal, c chan<- ButtonEvent) {
	for sig := range sigChan {
		for i, s := range simulated {
			if s == sig {
				log.Debugf("Simulating press of button %d", i)
				c <- ButtonEvent{Button: i, Pressed: true}
			}
		}
	}
}
