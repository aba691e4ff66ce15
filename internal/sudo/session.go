// Package sudo owns the elevated session for a provisioning run: one
// interactive grant up front, then a background renewal loop so the
// operator is never prompted again.
package sudo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/russellpierce/local-models-boilerplate/internal/activity"
	"github.com/russellpierce/local-models-boilerplate/internal/console"
	"github.com/russellpierce/local-models-boilerplate/internal/runner"
)

// ErrAuthentication means the operator could not authenticate. The run
// must stop immediately with exit status 1.
var ErrAuthentication = errors.New("sudo authentication failed")

const defaultInterval = 60 * time.Second

type Session struct {
	runner   runner.Runner
	interval time.Duration
	events   *activity.Log

	mu          sync.Mutex
	started     bool
	released    bool
	stop        chan struct{}
	done        chan struct{}
	renewals    uint64
	lastRenewal time.Time
}

// New builds a session over the given runner. events may be nil.
func New(r runner.Runner, interval time.Duration, events *activity.Log) *Session {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Session{
		runner:   r,
		interval: interval,
		events:   events,
	}
}

// Acquire requests interactive elevation once (`sudo -v`).
func (s *Session) Acquire(ctx context.Context) error {
	if err := s.runner.Run(ctx, "sudo", "-v"); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return nil
}

// KeepAlive starts the renewal goroutine. At most one is started per
// session; later calls are no-ops. The goroutine stops when ctx is
// cancelled or Release is called, whichever comes first.
func (s *Session) KeepAlive(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.released {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx, s.stop, s.done)
}

func (s *Session) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.C:
			s.renew(ctx)
		}
	}
}

func (s *Session) renew(ctx context.Context) {
	// Non-interactive on purpose: a renewal must never block on a prompt.
	if err := s.runner.Run(ctx, "sudo", "-n", "-v"); err != nil {
		console.Debugf("sudo renewal failed: %v", err)
		return
	}

	s.mu.Lock()
	s.renewals++
	s.lastRenewal = time.Now()
	s.mu.Unlock()

	if s.events != nil {
		s.events.Record(activity.EventSudoRenewal, "", "")
	}
}

// Release stops the renewal goroutine and waits for it to return. Safe
// to call multiple times and before KeepAlive.
func (s *Session) Release() {
	s.mu.Lock()
	if !s.started || s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// Renewals reports how often the background loop revalidated the grant.
func (s *Session) Renewals() (uint64, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renewals, s.lastRenewal
}
