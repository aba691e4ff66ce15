package activity

import (
	"sync"
	"time"
)

type EventType string

const (
	EventStepStart   EventType = "step_start"
	EventStepOK      EventType = "step_ok"
	EventStepFailed  EventType = "step_failed"
	EventStepSkipped EventType = "step_skipped"
	EventSudoRenewal EventType = "sudo_renewal"
)

type Event struct {
	At   time.Time
	Type EventType
	Step string
	Note string
}

// Log is a fixed-size ring buffer of run events. The sudo renewal
// goroutine and the main flow both append to it.
type Log struct {
	mu   sync.RWMutex
	buf  []Event
	next int
	full bool
}

func New(size int) *Log {
	if size <= 0 {
		size = 200
	}
	return &Log{
		buf: make([]Event, size),
	}
}

func (l *Log) Add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf[l.next] = e
	l.next++
	if l.next >= len(l.buf) {
		l.next = 0
		l.full = true
	}
}

// Record appends an event stamped with the current time.
func (l *Log) Record(t EventType, step, note string) {
	l.Add(Event{At: time.Now(), Type: t, Step: step, Note: note})
}

// List returns events oldest first.
func (l *Log) List() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.full && l.next == 0 {
		return nil
	}

	var out []Event
	if l.full {
		out = make([]Event, 0, len(l.buf))
		out = append(out, l.buf[l.next:]...)
		out = append(out, l.buf[:l.next]...)
	} else {
		out = append([]Event(nil), l.buf[:l.next]...)
	}
	return out
}

// Count returns how many recorded events have the given type.
func (l *Log) Count(t EventType) int {
	n := 0
	for _, e := range l.List() {
		if e.Type == t {
			n++
		}
	}
	return n
}
