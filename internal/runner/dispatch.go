package runner

import (
	"io"
	"log/slog"
	"sync"
)

// Dispatcher hands work to the goroutine that owns the sink.
// Post must not block and must run functions in the order posted.
type Dispatcher interface {
	Post(fn func())
}

// Loop is a FIFO, unbounded work queue drained by a single control goroutine.
// A panicking function is logged and the rest of the queue still runs.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	logger *slog.Logger
}

// NewLoop creates an empty Loop
func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used to report panics from posted functions
func (l *Loop) WithLogger(logger *slog.Logger) *Loop {
	l.logger = logger
	return l
}

// Post enqueues fn; safe for concurrent use
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunUntil runs posted functions on the calling goroutine until done is
// closed, then drains whatever was posted before returning.
func (l *Loop) RunUntil(done <-chan struct{}) {
	for {
		l.drain()
		select {
		case <-l.wake:
		case <-done:
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("posted function panicked", "panic", p)
		}
	}()
	fn()
}

// Immediate runs posted functions synchronously, one at a time.
type Immediate struct {
	mu sync.Mutex
}

// Post runs fn under the dispatcher's mutex
func (d *Immediate) Post(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}
