package table

import "sync"

// Queue is a connection's private outbound buffer. Publishers write to it,
// the connection's forwarder drains it. The data channel is never closed;
// Close only signals Done so a late publisher can never panic.
type Queue struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue buffering up to size messages.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

// C returns the channel the forwarder drains.
func (q *Queue) C() <-chan []byte {
	return q.ch
}

// Done is closed once the queue stops accepting messages.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Close stops the queue. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// TryEnqueue adds payload without blocking.
func (q *Queue) TryEnqueue(payload []byte) error {
	if q.Closed() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Offer adds payload, waiting until there is room, the queue closes, or
// expired fires.
func (q *Queue) Offer(payload []byte, expired <-chan struct{}) error {
	if q.Closed() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- payload:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-expired:
		return ErrQueueFull
	}
}
