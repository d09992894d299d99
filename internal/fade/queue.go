package fade

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Queue hands the transmit path to one fade at a time. Fades waiting for their turn are counted so
// that the current owner and the logs can see there is a backlog.
type Queue struct {
	waiting   int
	runLock   sync.Mutex
	countLock sync.Mutex
}

type Unlocker func()

// Queue waits for the transmit path to be free and takes it.
func (q *Queue) Queue() Unlocker {
	q.enqueue()
	q.runLock.Lock()
	q.running()

	return q.done
}

// TryQueue takes the transmit path only if nobody holds it.
func (q *Queue) TryQueue() (Unlocker, bool) {
	if !q.runLock.TryLock() {
		return nil, false
	}
	return q.done, true
}

// Waiting is the number of fades blocked behind the current one.
func (q *Queue) Waiting() int {
	q.countLock.Lock()
	defer q.countLock.Unlock()

	return q.waiting
}

func (q *Queue) enqueue() {
	q.countLock.Lock()
	defer q.countLock.Unlock()

	q.waiting++
	log.Debug("Added to fade queue: ", q.waiting)
}

func (q *Queue) running() {
	q.countLock.Lock()
	defer q.countLock.Unlock()

	q.waiting--
}

func (q *Queue) done() {
	defer q.runLock.Unlock()

	waiting := q.Waiting()
	log.Debug("Fade done. Currently waiting: ", waiting)
	if waiting < 0 {
		log.Warn(errors.New("number waiting in fade queue less than zero"))
	}
}
