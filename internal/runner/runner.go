package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts external command execution so that every tool the
// provisioner shells out to (sudo, nvidia-smi, apt-get, systemctl, sh)
// can be replaced by a recording fake in tests.
type Runner interface {
	// Run executes a command, streaming its output to the operator.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its captured stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	// Stdin is attached to interactive commands (sudo password prompt).
	// Defaults to os.Stdin when nil.
	Stdin *os.File
}

func NewExec() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.stdin()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.stdin()
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

func (r *ExecRunner) stdin() *os.File {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

// DryRunner prints each command instead of executing it. Used by --dry-run.
type DryRunner struct {
	Print func(line string)
}

func (r *DryRunner) Run(ctx context.Context, name string, args ...string) error {
	r.print(name, args)
	return nil
}

func (r *DryRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.print(name, args)
	return "", nil
}

func (r *DryRunner) print(name string, args []string) {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	if r.Print != nil {
		r.Print(line)
		return
	}
	fmt.Println(line)
}
