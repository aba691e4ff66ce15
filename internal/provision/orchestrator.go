// Package provision sequences the installation of a local Ollama server:
// privileged session, hardware probe, system packages, vendor installer,
// service management and the capacity-gated model downloads.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/russellpierce/local-models-boilerplate/internal/activity"
	"github.com/russellpierce/local-models-boilerplate/internal/config"
	"github.com/russellpierce/local-models-boilerplate/internal/console"
	"github.com/russellpierce/local-models-boilerplate/internal/gpu"
	"github.com/russellpierce/local-models-boilerplate/internal/journal"
	"github.com/russellpierce/local-models-boilerplate/internal/ollama"
	"github.com/russellpierce/local-models-boilerplate/internal/runner"
	"github.com/russellpierce/local-models-boilerplate/internal/sudo"
	"github.com/russellpierce/local-models-boilerplate/internal/timing"
)

// MinModelMemoryMiB is the GPU capacity required before the model assets
// are downloaded (12 GiB).
const MinModelMemoryMiB = 12288

// ModelAssets are pulled in this exact order when the capacity gate passes.
var ModelAssets = []string{"llama3", "phi3"}

// Step names, in run order.
const (
	StepSudo      = "sudo"
	StepProbe     = "gpu-probe"
	StepPackages  = "apt-update"
	StepCurl      = "apt-install-curl"
	StepInstaller = "installer"
	StepService   = "service"
	StepHealth    = "health"
	StepModels    = "models"
)

// Server is the slice of the Ollama API the orchestrator needs.
// *ollama.Client satisfies it; tests substitute a fake.
type Server interface {
	WaitReady(ctx context.Context, timeout time.Duration) error
	HasModel(ctx context.Context, name string) (bool, error)
	Pull(ctx context.Context, name string, progress func(ollama.PullStatus)) error
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type Orchestrator struct {
	cfg    config.Config
	runner runner.Runner
	server Server
	store  *journal.Store // nil disables persistence

	// Session is exported so tests can swap in one with a short renewal
	// interval before calling Run.
	Session *sudo.Session

	Events  *activity.Log
	Timings *timing.Tracker

	// DryRun prints external commands instead of executing them and
	// skips everything that needs a live server.
	DryRun bool

	runID string
	seq   int
}

func New(cfg config.Config, r runner.Runner, server Server, store *journal.Store) *Orchestrator {
	events := activity.New(256)
	return &Orchestrator{
		cfg:     cfg,
		runner:  r,
		server:  server,
		store:   store,
		Session: sudo.New(r, cfg.KeepaliveInterval(), events),
		Events:  events,
		Timings: timing.NewTracker(),
	}
}

// Run executes the fixed step sequence. Every step's exit status is
// checked: the first failing step aborts the run, nothing fails
// silently. sudo.ErrAuthentication stays identifiable through the
// wrapping so the caller can map it to exit status 1.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	o.beginRun(ctx)
	defer func() {
		status := journal.StatusOK
		if err != nil {
			status = journal.StatusFailed
			// A killed external command reports "signal: killed", not
			// context.Canceled, so consult the context as well.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				status = journal.StatusInterrupt
			}
		}
		o.finishRun(status)
	}()

	console.Section("Privileged session")
	if err := o.step(ctx, StepSudo, o.acquireSudo); err != nil {
		return err
	}
	o.Session.KeepAlive(ctx)
	defer o.Session.Release()

	console.Section("Environment probe")
	var memMiB int
	if err := o.step(ctx, StepProbe, func(ctx context.Context) error {
		var perr error
		memMiB, perr = o.probe(ctx)
		return perr
	}); err != nil {
		return err
	}

	console.Section("System packages")
	if err := o.step(ctx, StepPackages, o.aptUpdate); err != nil {
		return err
	}
	if err := o.step(ctx, StepCurl, o.aptInstallCurl); err != nil {
		return err
	}

	console.Section("Server installation")
	if err := o.step(ctx, StepInstaller, o.runInstaller); err != nil {
		return err
	}
	if err := o.step(ctx, StepService, o.enableService); err != nil {
		return err
	}
	if err := o.step(ctx, StepHealth, o.waitHealthy); err != nil {
		return err
	}

	console.Section("Model assets")
	if err := o.pullModels(ctx, memMiB); err != nil {
		return err
	}

	o.summary()
	return nil
}

func (o *Orchestrator) acquireSudo(ctx context.Context) error {
	console.Infof("requesting elevated privileges")
	return o.Session.Acquire(ctx)
}

func (o *Orchestrator) probe(ctx context.Context) (int, error) {
	if o.DryRun {
		console.Infof("dry-run: assuming %d MiB of GPU memory", MinModelMemoryMiB)
		return MinModelMemoryMiB, nil
	}

	memMiB, err := gpu.ProbeMemoryMiB(ctx, o.runner)
	if err != nil {
		if gpu.ToolMissing(err) && o.cfg.AllowNoGPU {
			console.Warningf("nvidia-smi not found, treating GPU memory as 0 MiB")
			return 0, nil
		}
		return 0, err
	}

	console.Infof("detected %d MiB of GPU memory", memMiB)
	o.setGPUMemory(memMiB)
	return memMiB, nil
}

func (o *Orchestrator) aptUpdate(ctx context.Context) error {
	return o.runner.Run(ctx, "sudo", "apt-get", "update", "-y")
}

func (o *Orchestrator) aptInstallCurl(ctx context.Context) error {
	return o.runner.Run(ctx, "sudo", "apt-get", "install", "-y", "curl")
}

func (o *Orchestrator) runInstaller(ctx context.Context) error {
	console.Infof("fetching and running %s", o.cfg.InstallerURL)
	return o.runner.Run(ctx, "sh", "-c", fmt.Sprintf("curl -fsSL %s | sh", o.cfg.InstallerURL))
}

func (o *Orchestrator) enableService(ctx context.Context) error {
	return o.runner.Run(ctx, "sudo", "systemctl", "enable", "--now", o.cfg.ServiceName)
}

func (o *Orchestrator) waitHealthy(ctx context.Context) error {
	if o.DryRun {
		return nil
	}
	console.Infof("waiting for %s to answer on %s", o.cfg.ServiceName, o.cfg.OllamaBaseURL)
	return o.server.WaitReady(ctx, o.cfg.HealthTimeout())
}

// pullModels applies the capacity gate. Below the threshold it warns and
// skips; the run still succeeds.
func (o *Orchestrator) pullModels(ctx context.Context, memMiB int) error {
	if o.cfg.SkipModels {
		console.Warningf("model downloads disabled by configuration")
		o.recordStep(StepModels, journal.StatusSkipped, 0, "disabled")
		return nil
	}
	if memMiB < MinModelMemoryMiB {
		console.Warningf("GPU RAM is insufficient (<12GB), skipping model downloads")
		o.Events.Record(activity.EventStepSkipped, StepModels, fmt.Sprintf("%d MiB", memMiB))
		o.recordStep(StepModels, journal.StatusSkipped, 0, fmt.Sprintf("%d MiB < %d MiB", memMiB, MinModelMemoryMiB))
		return nil
	}

	console.Infof("GPU RAM is sufficient (>=12GB)")
	return o.step(ctx, StepModels, func(ctx context.Context) error {
		for _, name := range ModelAssets {
			if err := o.pullModel(ctx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *Orchestrator) pullModel(ctx context.Context, name string) error {
	if o.DryRun {
		console.Infof("dry-run: would pull %s", name)
		return nil
	}

	present, err := o.server.HasModel(ctx, name)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if present {
		console.Successf("%s already present, skipping pull", name)
		return nil
	}

	console.Infof("pulling %s", name)
	var lastStatus string
	err = o.server.Pull(ctx, name, func(st ollama.PullStatus) {
		if st.Status != lastStatus {
			lastStatus = st.Status
			console.Debugf("%s: %s", name, st.Status)
		}
	})
	if err != nil {
		return fmt.Errorf("pull %s: %w", name, err)
	}
	console.Successf("pulled %s", name)
	return nil
}

// step wraps one provisioning phase with timing, event and journal
// bookkeeping.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	o.Events.Record(activity.EventStepStart, name, "")
	start := time.Now()

	err := fn(ctx)
	d := time.Since(start)

	if err != nil {
		o.Timings.ObserveError(name, d)
		o.Events.Record(activity.EventStepFailed, name, err.Error())
		o.recordStep(name, journal.StatusFailed, d, err.Error())
		console.Errorf("%s failed: %v", name, err)
		return fmt.Errorf("%s: %w", name, err)
	}

	o.Timings.ObserveOK(name, d)
	o.Events.Record(activity.EventStepOK, name, "")
	o.recordStep(name, journal.StatusOK, d, "")
	console.Successf("%s done in %s", name, d.Round(time.Millisecond))
	return nil
}

func (o *Orchestrator) summary() {
	renewals, _ := o.Session.Renewals()
	console.Section("Summary")
	for _, name := range o.Timings.Steps() {
		s, _ := o.Timings.Get(name)
		console.Infof("%-18s %s", name, s.Duration.Round(time.Millisecond))
	}
	console.Infof("sudo renewals: %d, total: %s", renewals, o.Timings.Total().Round(time.Millisecond))
}

// Journal helpers tolerate a nil store and never fail the run; a broken
// journal must not abort provisioning.

func (o *Orchestrator) beginRun(ctx context.Context) {
	if o.store == nil {
		return
	}
	id, err := o.store.BeginRun(ctx)
	if err != nil {
		console.Debugf("journal: begin run: %v", err)
		return
	}
	o.runID = id
}

func (o *Orchestrator) setGPUMemory(mib int) {
	if o.store == nil || o.runID == "" {
		return
	}
	if err := o.store.SetGPUMemory(context.Background(), o.runID, mib); err != nil {
		console.Debugf("journal: gpu memory: %v", err)
	}
}

func (o *Orchestrator) recordStep(name, status string, d time.Duration, msg string) {
	if o.store == nil || o.runID == "" {
		return
	}
	o.seq++
	err := o.store.RecordStep(context.Background(), journal.StepRecord{
		RunID:    o.runID,
		Seq:      o.seq,
		Step:     name,
		Status:   status,
		Duration: d,
		Message:  msg,
	})
	if err != nil {
		console.Debugf("journal: step %s: %v", name, err)
	}
}

func (o *Orchestrator) finishRun(status string) {
	if o.store == nil || o.runID == "" {
		return
	}
	if err := o.store.FinishRun(context.Background(), o.runID, status); err != nil {
		console.Debugf("journal: finish run: %v", err)
	}
}
