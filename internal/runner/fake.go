package runner

import (
	"context"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Fake records every invocation and replays scripted results. Safe for
// concurrent use (the sudo renewal loop runs on its own goroutine).
type Fake struct {
	mu    sync.Mutex
	calls []Call

	// Outputs maps a command line (as produced by Call.String) to the
	// stdout Output should return for it.
	Outputs map[string]string

	// Errs maps a command line to the error Run/Output should return.
	Errs map[string]error
}

func NewFake() *Fake {
	return &Fake{
		Outputs: map[string]string{},
		Errs:    map[string]error{},
	}
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) error {
	c := f.record(name, args)
	return f.Errs[c.String()]
}

func (f *Fake) Output(ctx context.Context, name string, args ...string) (string, error) {
	c := f.record(name, args)
	if err := f.Errs[c.String()]; err != nil {
		return "", err
	}
	return f.Outputs[c.String()], nil
}

func (f *Fake) record(name string, args []string) Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := Call{Name: name, Args: append([]string(nil), args...)}
	f.calls = append(f.calls, c)
	return c
}

// Calls returns a copy of all recorded invocations in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CountPrefix returns how many recorded command lines start with prefix.
func (f *Fake) CountPrefix(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}
