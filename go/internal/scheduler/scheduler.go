package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Scheduler runs one-shot callbacks after a delay. At most one task is
// pending per key: scheduling again replaces the pending task, and a replaced
// or cancelled task never runs, even if its timer already fired.
type Scheduler struct {
	clock clockwork.Clock

	mu     sync.Mutex
	active map[uuid.UUID]*task
}

type task struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// New creates a scheduler driven by clock. In production use
// clockwork.NewRealClock(), in tests a FakeClock.
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:  clock,
		active: make(map[uuid.UUID]*task),
	}
}

// Schedule runs fn once d has elapsed, unless the key is rescheduled or
// cancelled first. fn runs on its own goroutine.
func (s *Scheduler) Schedule(key uuid.UUID, d time.Duration, fn func()) {
	t := &task{
		timer:  s.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	s.replace(key, t)

	go func() {
		select {
		case <-t.timer.Chan():
			if !s.release(key, t) {
				return
			}
			fn()
		case <-t.cancel:
		}
	}()

	log.Debug().
		Str("key", key.String()).
		Dur("delay", d).
		Msg("scheduled one-shot timer")
}

// Cancel stops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.active[key]
	if !exists {
		return false
	}
	t.stop()
	delete(s.active, key)

	log.Debug().Str("key", key.String()).Msg("cancelled pending timer")
	return true
}

// Pending reports whether a task is waiting for key.
func (s *Scheduler) Pending(key uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.active[key]
	return exists
}

// Stop cancels every pending task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.active {
		t.stop()
		log.Debug().Str("key", key.String()).Msg("cancelled timer on shutdown")
	}
	s.active = make(map[uuid.UUID]*task)
}

// replace atomically swaps in a new task for key, cancelling the old one.
func (s *Scheduler) replace(key uuid.UUID, t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.active[key]; exists {
		existing.stop()
		log.Debug().Str("key", key.String()).Msg("replaced existing timer")
	}
	s.active[key] = t
}

// release removes t after its timer fired. It returns false when t was
// replaced or cancelled in the meantime.
func (s *Scheduler) release(key uuid.UUID, t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[key] != t {
		return false
	}
	delete(s.active, key)
	return true
}

func (t *task) stop() {
	stopAndDrainTimer(t.timer)
	close(t.cancel)
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
