// Package poll runs a function at a fixed cadence until stopped.
package poll

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 2 * time.Second

// Options configure a Task.
type Options struct {
	Interval time.Duration
	// Immediate runs fn once right away instead of waiting a full interval.
	Immediate bool
}

// Task is a running periodic loop. The zero value is not usable; create one
// with Start.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches fn on a background goroutine every opts.Interval until ctx
// is cancelled or Stop is called. fn receives a context that is cancelled on
// Stop, so in-flight work can abort. Runs never overlap.
func Start(ctx context.Context, opts Options, fn func(ctx context.Context)) *Task {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if opts.Immediate {
			fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			// a tick and a cancel can be ready together
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}()
	return t
}

// Stop cancels the loop and waits for it to exit. Once Stop returns, fn is
// not invoked again. Stop is safe to call more than once and on a nil Task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed when the loop has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
