package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type writeOp struct {
	key    string
	value  string
	remove bool
}

// WriteBehind applies gateway writes on a single background goroutine so
// callers never wait on I/O. Pending writes are coalesced per key (last one
// wins) and applied in the order keys were first queued. Failed writes are
// logged and counted, never returned.
type WriteBehind struct {
	gateway Gateway
	timeout time.Duration
	log     logrus.FieldLogger

	mu      sync.Mutex
	pending map[string]writeOp
	order   []string

	wake     chan struct{}
	flushReq chan chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	failures atomic.Int64
}

// NewWriteBehind starts the writer goroutine. Close stops it.
func NewWriteBehind(gateway Gateway, timeout time.Duration, log logrus.FieldLogger) *WriteBehind {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &WriteBehind{
		gateway:  gateway,
		timeout:  timeout,
		log:      log.WithField("component", "write-behind"),
		pending:  make(map[string]writeOp),
		wake:     make(chan struct{}, 1),
		flushReq: make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Set queues key=value.
func (w *WriteBehind) Set(key, value string) {
	w.enqueue(writeOp{key: key, value: value})
}

// Remove queues deletion of key.
func (w *WriteBehind) Remove(key string) {
	w.enqueue(writeOp{key: key, remove: true})
}

// Failures is the number of writes the gateway rejected so far.
func (w *WriteBehind) Failures() int64 {
	return w.failures.Load()
}

// Flush blocks until everything queued before the call has been attempted.
func (w *WriteBehind) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flushReq <- ack:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer.
func (w *WriteBehind) Close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.quit) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WriteBehind) enqueue(op writeOp) {
	w.mu.Lock()
	if _, queued := w.pending[op.key]; !queued {
		w.order = append(w.order, op.key)
	}
	w.pending[op.key] = op
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *WriteBehind) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ack := <-w.flushReq:
			w.drain()
			close(ack)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	w.mu.Lock()
	pending, order := w.pending, w.order
	w.pending = make(map[string]writeOp)
	w.order = nil
	w.mu.Unlock()

	for _, key := range order {
		w.apply(pending[key])
	}
}

func (w *WriteBehind) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	if op.remove {
		err = w.gateway.Remove(ctx, op.key)
	} else {
		err = w.gateway.Set(ctx, op.key, op.value)
	}
	if err != nil {
		w.failures.Add(1)
		w.log.WithError(err).WithField("key", op.key).Warn("persist failed; change kept in memory only")
		return
	}
	w.log.WithField("key", op.key).Debug("persisted")
}
