package gpu

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russellpierce/local-models-boilerplate/internal/runner"
)

const queryLine = "nvidia-smi --query-gpu=memory.total --format=csv,noheader,nounits"

func TestProbeParsesFirstLine(t *testing.T) {
	f := runner.NewFake()
	f.Outputs[queryLine] = "16384\n8192\n"

	mib, err := ProbeMemoryMiB(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 16384, mib)
	assert.Equal(t, 1, f.CountPrefix("nvidia-smi"))
}

func TestProbeTrimsWhitespace(t *testing.T) {
	f := runner.NewFake()
	f.Outputs[queryLine] = "  8000  \n"

	mib, err := ProbeMemoryMiB(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 8000, mib)
}

func TestProbeUnparseableOutput(t *testing.T) {
	f := runner.NewFake()
	f.Outputs[queryLine] = "not a number"

	_, err := ProbeMemoryMiB(context.Background(), f)
	var pe *ProbeError
	require.ErrorAs(t, err, &pe)
	assert.False(t, ToolMissing(err))
}

func TestProbeEmptyOutput(t *testing.T) {
	f := runner.NewFake()
	f.Outputs[queryLine] = "\n"

	_, err := ProbeMemoryMiB(context.Background(), f)
	var pe *ProbeError
	require.ErrorAs(t, err, &pe)
}

func TestProbeToolMissing(t *testing.T) {
	f := runner.NewFake()
	f.Errs[queryLine] = &exec.Error{Name: "nvidia-smi", Err: exec.ErrNotFound}

	_, err := ProbeMemoryMiB(context.Background(), f)
	require.Error(t, err)
	assert.True(t, ToolMissing(err))
}
