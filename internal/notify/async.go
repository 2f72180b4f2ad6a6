package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Async hands messages to a fixed pool of workers so callers never wait on
// a slow transport. When the queue is full the message is dropped.
type Async struct {
	log  *slog.Logger
	next Sender

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

func NewAsync(next Sender, workers, size int, log *slog.Logger) *Async {
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}

	a := &Async{
		log:   log,
		next:  next,
		queue: make(chan Message, size),
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.work()
	}
	return a
}

// Send enqueues msg and reports whether it was accepted.
func (a *Async) Send(_ context.Context, msg Message) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.log.Warn("notification queue closed, dropping", slog.String("kind", string(msg.Kind)))
		return false
	}

	select {
	case a.queue <- msg:
		return true
	default:
		a.log.Warn("notification queue full, dropping", slog.String("kind", string(msg.Kind)))
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Async) work() {
	defer a.wg.Done()
	for msg := range a.queue {
		a.next.Send(context.Background(), msg)
	}
}
