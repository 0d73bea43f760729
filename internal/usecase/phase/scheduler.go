package usecase_phase

import (
	"sync"
	"time"
)

// Scheduler owns at most one pending expiry timer per meeting. Scheduling
// always replaces the previous timer, so a stale expiry can never fire for a
// phase that has since moved on.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
	}
}

func (s *Scheduler) Schedule(meetingID string, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[meetingID]; ok {
		t.Stop()
	}
	if d <= 0 {
		delete(s.timers, meetingID)
		return
	}
	s.timers[meetingID] = time.AfterFunc(d, func() {
		s.Cancel(meetingID)
		fire()
	})
}

func (s *Scheduler) Cancel(meetingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[meetingID]; ok {
		t.Stop()
		delete(s.timers, meetingID)
	}
}
