package timing

import (
	"sync"
	"time"
)

type StepTiming struct {
	// Wall-clock duration of the step.
	Duration time.Duration

	// Outcome counters for re-runs within one process (retries, tests).
	OK    uint64
	Error uint64

	// Timestamp of last observation.
	LastAt time.Time
}

// Tracker records how long each provisioning step took. The journal and
// the end-of-run summary read from it.
type Tracker struct {
	mu    sync.RWMutex
	steps map[string]*StepTiming
	order []string
}

func NewTracker() *Tracker {
	return &Tracker{
		steps: map[string]*StepTiming{},
	}
}

func (t *Tracker) ObserveOK(step string, d time.Duration) {
	t.observe(step, d, true)
}

func (t *Tracker) ObserveError(step string, d time.Duration) {
	t.observe(step, d, false)
}

func (t *Tracker) observe(step string, d time.Duration, ok bool) {
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.steps[step]
	if s == nil {
		s = &StepTiming{}
		t.steps[step] = s
		t.order = append(t.order, step)
	}

	s.Duration = d
	s.LastAt = time.Now()
	if ok {
		s.OK++
	} else {
		s.Error++
	}
}

func (t *Tracker) Get(step string) (StepTiming, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.steps[step]
	if s == nil {
		return StepTiming{}, false
	}
	return *s, true
}

// Steps returns step names in first-observation order.
func (t *Tracker) Steps() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.order...)
}

// Total is the sum of the recorded step durations.
func (t *Tracker) Total() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum time.Duration
	for _, s := range t.steps {
		sum += s.Duration
	}
	return sum
}
