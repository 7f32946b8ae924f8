package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunAllCollectsEveryResult(t *testing.T) {
	boom := errors.New("boom")
	results := RunAll(context.Background(),
		func(context.Context) (string, error) { return "a", nil },
		func(context.Context) (string, error) { return "", boom },
		func(context.Context) (string, error) { return "c", nil },
	)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "c", results[2].Value)
	assert.Equal(t, []error{boom}, Errors(results))
}

func TestRunAllFailureDoesNotCancelSiblings(t *testing.T) {
	var finished atomic.Int32
	slow := func(ctx context.Context) (int, error) {
		select {
		case <-time.After(30 * time.Millisecond):
			finished.Add(1)
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	fail := func(context.Context) (int, error) { return 0, errors.New("fast failure") }

	results := RunAll(context.Background(), fail, slow, slow)

	assert.Equal(t, int32(2), finished.Load())
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestRunAllTasksOverlap(t *testing.T) {
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	task := func(context.Context) (struct{}, error) {
		started <- struct{}{}
		<-release
		return struct{}{}, nil
	}

	done := make(chan []Result[struct{}])
	go func() { done <- RunAll(context.Background(), task, task, task) }()

	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("tasks did not start concurrently")
		}
	}
	close(release)
	assert.Len(t, <-done, 3)
}

func TestRunAllRecoversPanic(t *testing.T) {
	results := RunAll(context.Background(),
		func(context.Context) (int, error) { panic("bad encoder") },
		func(context.Context) (int, error) { return 2, nil },
	)
	assert.ErrorContains(t, results[0].Err, "panicked")
	assert.Equal(t, 2, results[1].Value)
}

func TestRunAllNoTasks(t *testing.T) {
	assert.Empty(t, RunAll[int](context.Background()))
}
