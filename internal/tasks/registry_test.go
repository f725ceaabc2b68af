package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WaitJoinsEveryTask(t *testing.T) {
	var r Registry
	var finished atomic.Int32

	for i := range 10 {
		r.Go(context.Background(), func(context.Context) error {
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			finished.Add(1)
			return nil
		})
	}

	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, int32(10), finished.Load())
	assert.Equal(t, 0, r.Len(), "joined tasks are released")
}

func TestRegistry_WaitEmpty(t *testing.T) {
	var r Registry
	require.NoError(t, r.Wait(context.Background()))
}

func TestRegistry_FailurePropagates(t *testing.T) {
	var r Registry
	boom := errors.New("boom")

	r.Go(context.Background(), func(context.Context) error { return nil })
	r.Go(context.Background(), func(context.Context) error { return boom })

	err := r.Wait(context.Background())
	require.ErrorIs(t, err, boom)

	// The failed task has settled and is not joined again.
	require.NoError(t, r.Wait(context.Background()))
}

func TestRegistry_WaitRespectsContext(t *testing.T) {
	var r Registry
	release := make(chan struct{})
	defer close(release)

	r.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, r.Len(), "unsettled tasks stay registered")
}

func TestTask_Done(t *testing.T) {
	var r Registry
	task := r.Go(context.Background(), func(context.Context) error { return nil })

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task never settled")
	}
	assert.NoError(t, task.Err())
}
