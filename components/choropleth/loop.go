package choropleth

import (
	"context"
	"sync"
)

// Loop runs closures one at a time on the goroutine that owns dashboard state.
// Asynchronous work posts its continuation back through Post.
type Loop interface {
	Post(fn func()) bool
}

// EventLoop is a Loop backed by a single goroutine.
type EventLoop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewEventLoop builds a loop with the given queue size.
func NewEventLoop(buffer int) *EventLoop {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventLoop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run processes posted closures until ctx is done or Stop is called.
func (l *EventLoop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post enqueues fn. It returns false once the loop is stopped.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its result.
func (l *EventLoop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrLoopStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Stop ends the loop. Pending closures are dropped.
func (l *EventLoop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *EventLoop) Done() <-chan struct{} { return l.done }

// ManualLoop queues closures until Drain is called. It lets callers step
// asynchronous continuations deterministically.
type ManualLoop struct {
	mu      sync.Mutex
	pending []func()
}

// Post queues fn.
func (l *ManualLoop) Post(fn func()) bool {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	return true
}

// Pending returns the number of queued closures.
func (l *ManualLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Drain runs queued closures, including ones queued while draining.
func (l *ManualLoop) Drain() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return ran
		}
		fn := l.pending[0]
		l.pending = l.pending[1:]
		l.mu.Unlock()
		fn()
		ran++
	}
}
