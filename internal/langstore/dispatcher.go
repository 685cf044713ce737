package langstore

import (
	"sync"

	"KrishiMitra/internal/logger"
)

// Dispatcher runs deferred tasks one at a time in the order they were
// posted. Posting never blocks; the queue is unbounded.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wakeCh  chan struct{}
	stopped chan struct{}
}

// NewDispatcher starts the worker goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		wakeCh:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// Post queues task. It returns false once the dispatcher is closed.
func (d *Dispatcher) Post(task func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
	return true
}

// Flush blocks until every task posted before the call has run.
func (d *Dispatcher) Flush() {
	done := make(chan struct{})
	if !d.Post(func() { close(done) }) {
		<-d.stopped
		return
	}
	<-done
}

// Close runs the tasks already queued, then stops the worker. It is safe to
// call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.stopped
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
	<-d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.wakeCh
			continue
		}
		task := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		runTask(task)
	}
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Broadcast.Error().Interface("panic", r).Msg("deferred task panicked")
		}
	}()
	task()
}
