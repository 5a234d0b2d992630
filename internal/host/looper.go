package host

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/toritoma/playbridge/internal/logging"
)

// Looper is the host's single sequencing context: a FIFO of tasks executed
// one at a time. Every session transition, activity result and UI change
// runs on it.
type Looper struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
	stopped bool
	cancel  context.CancelFunc

	logger *logging.Logger
}

// NewLooper creates a Looper. A nil logger is replaced by a no-op logger.
func NewLooper(logger *logging.Logger) *Looper {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Looper{
		wake:   make(chan struct{}, 1),
		logger: logger.WithPhase("looper"),
	}
}

// Post enqueues fn. It returns false once the looper has been stopped.
func (l *Looper) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes posted tasks until ctx is cancelled or Stop is called.
// Tasks still queued at that point are discarded.
func (l *Looper) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.cancel = cancel
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.cancel = nil
		l.mu.Unlock()
	}()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.safeRun(fn)
			if ctx.Err() != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			l.mu.Lock()
			stopped := l.stopped
			l.mu.Unlock()
			if stopped {
				return nil
			}
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending executes queued tasks on the calling goroutine, including
// tasks they post, until the queue is empty. It returns the number of tasks
// run, or 0 if Run is active on another goroutine.
func (l *Looper) RunPending() int {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return 0
	}
	l.mu.Unlock()

	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		l.safeRun(fn)
		n++
	}
}

// Pending returns the number of queued tasks.
func (l *Looper) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stop rejects further posts and ends Run. Queued tasks are dropped.
func (l *Looper) Stop() {
	l.mu.Lock()
	l.stopped = true
	dropped := len(l.queue)
	l.queue = nil
	cancel := l.cancel
	l.mu.Unlock()

	if dropped > 0 {
		l.logger.Debug("looper stopped with pending tasks", "dropped", dropped)
	}
	if cancel != nil {
		cancel()
	}
}

func (l *Looper) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 || l.stopped {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Looper) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("looper task panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
