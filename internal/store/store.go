package store

import (
	"sync"
	"sync/atomic"

	"github.com/callebjorkell/pixel-mesh/internal/pixel"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Snapshot is an immutable view of the store. A render frame reads a single snapshot, so every
// batch is seen either completely or not at all.
type Snapshot struct {
	colors  [256]pixel.Pixel
	written [256]bool
	hasData bool
}

func (s *Snapshot) Get(index uint8) (pixel.Pixel, bool) {
	if !s.written[index] {
		return pixel.Pixel{}, false
	}
	return s.colors[index], true
}

func (s *Snapshot) HasData() bool {
	return s.hasData
}

// Store holds the latest color per logical pixel. Ingestion builds a new snapshot and publishes it
// with one pointer swap; readers never take a lock.
type Store struct {
	writeLock sync.Mutex
	current   atomic.Pointer[Snapshot]

	batches metrics.Counter
	records metrics.Counter
	dropped metrics.Counter
}

func New(registry metrics.Registry) *Store {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	s := &Store{
		batches: metrics.GetOrRegisterCounter("store.batches", registry),
		records: metrics.GetOrRegisterCounter("store.records", registry),
		dropped: metrics.GetOrRegisterCounter("store.dropped", registry),
	}
	s.current.Store(&Snapshot{})
	return s
}

// Ingest applies a batch in order; a later record for the same index wins.
func (s *Store) Ingest(records []pixel.Pixel) {
	if len(records) == 0 {
		return
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	next := *s.current.Load()
	for _, r := range records {
		next.colors[r.Index] = r
		next.written[r.Index] = true
	}
	next.hasData = true
	s.current.Store(&next)

	s.batches.Inc(1)
	s.records.Inc(int64(len(records)))
}

// IngestPayload decodes a raw transmission and ingests it. A malformed payload leaves the store
// untouched.
func (s *Store) IngestPayload(payload []byte) error {
	records, err := pixel.Decode(payload)
	if err != nil {
		s.dropped.Inc(1)
		log.Warnf("Dropping pixel batch: %v", err)
		return err
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("Ingesting %d pixel record(s): %v", len(records), records)
	}
	s.Ingest(records)
	return nil
}

func (s *Store) Get(index uint8) (pixel.Pixel, bool) {
	return s.Snapshot().Get(index)
}

func (s *Store) HasData() bool {
	return s.Snapshot().HasData()
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}
