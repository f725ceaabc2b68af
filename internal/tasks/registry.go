// Package tasks keeps the extraction work started while modules are
// transformed, so that finalization can join all of it at once.
package tasks

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of asynchronous extraction work.
type Task struct {
	done chan struct{}
	err  error
}

// Done is closed when the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's result. Only valid once Done is closed.
func (t *Task) Err() error {
	return t.err
}

func (t *Task) settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Registry is an append-only set of in-flight tasks with a single join
// operation. The zero value is ready to use.
type Registry struct {
	mu    sync.Mutex
	tasks []*Task
}

// Go starts fn in its own goroutine and registers it.
func (r *Registry) Go(ctx context.Context, fn func(ctx context.Context) error) *Task {
	t := &Task{done: make(chan struct{})}

	r.mu.Lock()
	r.tasks = append(r.tasks, t)
	r.mu.Unlock()

	go func() {
		defer close(t.done)
		t.err = fn(ctx)
	}()
	return t
}

// Len reports how many tasks are retained.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Wait blocks until every task registered before the call has settled and
// returns the first failure. Tasks registered during the wait are not joined.
// Settled tasks are released afterwards, so a later Wait only joins newer work.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	pending := slices.Clone(r.tasks)
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range pending {
		g.Go(func() error {
			select {
			case <-t.done:
				return t.err
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err := g.Wait()

	r.release(pending)
	return err
}

// release drops the settled members of joined from the registry.
func (r *Registry) release(joined []*Task) {
	settled := make(map[*Task]struct{}, len(joined))
	for _, t := range joined {
		if t.settled() {
			settled[t] = struct{}{}
		}
	}
	if len(settled) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = slices.DeleteFunc(r.tasks, func(t *Task) bool {
		_, ok := settled[t]
		return ok
	})
}
