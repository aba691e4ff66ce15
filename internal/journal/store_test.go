package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.BeginRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.SetGPUMemory(ctx, id, 16000))
	require.NoError(t, s.RecordStep(ctx, StepRecord{
		RunID: id, Seq: 1, Step: "packages", Status: StatusOK,
		Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, s.FinishRun(ctx, id, StatusOK))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 16000, runs[0].GPUMemMiB)
	assert.Equal(t, StatusOK, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.Valid)

	steps, err := s.Steps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "packages", steps[0].Step)
	assert.Equal(t, 1500*time.Millisecond, steps[0].Duration)
}

func TestRecordStepUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.BeginRun(ctx)
	require.NoError(t, err)

	require.NoError(t, s.RecordStep(ctx, StepRecord{RunID: id, Seq: 1, Step: "models", Status: StatusRunning}))
	require.NoError(t, s.RecordStep(ctx, StepRecord{RunID: id, Seq: 1, Step: "models", Status: StatusFailed, Message: "pull failed"}))

	steps, err := s.Steps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, StatusFailed, steps[0].Status)
	assert.Equal(t, "pull failed", steps[0].Message)
}

func TestListRunsNewestFirstAndLimited(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last string
	for i := 0; i < 3; i++ {
		id, err := s.BeginRun(ctx)
		require.NoError(t, err)
		last = id
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, last, runs[0].ID)
}
