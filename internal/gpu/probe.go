// Package gpu reports the memory capacity of the first detected
// accelerator, queried through nvidia-smi.
package gpu

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/russellpierce/local-models-boilerplate/internal/runner"
)

// ProbeError is returned when the hardware query tool is absent or its
// output cannot be parsed.
type ProbeError struct {
	Reason string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu probe: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("gpu probe: %s", e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ToolMissing reports whether the probe failed because nvidia-smi is not
// installed, as opposed to producing unparseable output.
func ToolMissing(err error) bool {
	var pe *ProbeError
	return errors.As(err, &pe) && errors.Is(pe.Err, exec.ErrNotFound)
}

var queryArgs = []string{"--query-gpu=memory.total", "--format=csv,noheader,nounits"}

// ProbeMemoryMiB returns the total memory of the first reported GPU in
// MiB. No retries; a single query per run.
func ProbeMemoryMiB(ctx context.Context, r runner.Runner) (int, error) {
	out, err := r.Output(ctx, "nvidia-smi", queryArgs...)
	if err != nil {
		return 0, &ProbeError{Reason: "nvidia-smi failed", Err: err}
	}

	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, &ProbeError{Reason: "nvidia-smi reported no devices"}
	}

	mib, err := strconv.Atoi(line)
	if err != nil {
		return 0, &ProbeError{Reason: fmt.Sprintf("unparseable memory value %q", line), Err: err}
	}
	return mib, nil
}
