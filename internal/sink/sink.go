package sink

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/salonso/geconsultas-bot/internal/domain"
)

// DefaultDrainInterval matches the original registry update cadence.
const DefaultDrainInterval = 5 * time.Second

// RegistrySink queues completed records and drains them into the
// durable registry on a fixed interval. Producers are the session
// goroutines; the single consumer is the drain ticker. Processing is
// strictly FIFO, one record at a time, and a failed write is dropped
// without retry.
type RegistrySink struct {
	mu    sync.Mutex
	queue []*domain.Consulta

	registry domain.RegistryRepository
	catalog  domain.CatalogRepository
	interval time.Duration

	stop chan struct{}
	done chan struct{}
	log  *logrus.Entry
}

// New creates a sink writing into the given registry. The catalog is
// used to resolve course codes at write time.
func New(registry domain.RegistryRepository, catalog domain.CatalogRepository, interval time.Duration) *RegistrySink {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}

	return &RegistrySink{
		registry: registry,
		catalog:  catalog,
		interval: interval,
		log:      logrus.WithField("component", "sink"),
	}
}

// Enqueue appends a completed record to the queue. It never blocks on
// I/O and never fails.
func (s *RegistrySink) Enqueue(record *domain.Consulta) {
	if record == nil {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, record)
	s.mu.Unlock()
}

// Start launches the background drain ticker. It must be called once.
func (s *RegistrySink) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.drainRoutine()
}

// Stop halts the drain ticker after performing one final drain so that
// records enqueued before shutdown still reach the registry.
func (s *RegistrySink) Stop() {
	close(s.stop)
	<-s.done
}

func (s *RegistrySink) drainRoutine() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Drain()
		case <-s.stop:
			s.Drain()
			return
		}
	}
}

// Drain writes out every queued record in arrival order, oldest first.
func (s *RegistrySink) Drain() {
	for {
		record := s.pop()
		if record == nil {
			return
		}

		courseCode, err := s.catalog.CourseCode(record.CourseName)
		if err != nil {
			s.log.WithError(err).Error("Failed to resolve course code")
			courseCode = "N/A"
		}

		if err := s.registry.Insert(record, courseCode); err != nil {
			// No retry: the record is lost and the log line is the only
			// trace.
			s.log.WithError(err).Error("Failed to write record, dropping")
		}
	}
}

// Pending returns the number of queued records.
func (s *RegistrySink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *RegistrySink) pop() *domain.Consulta {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}

	record := s.queue[0]
	s.queue = s.queue[1:]

	return record
}
