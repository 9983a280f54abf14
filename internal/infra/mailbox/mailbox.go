// Package mailbox provides an unbounded multi-producer single-consumer channel.
package mailbox

import (
	"context"
	"sync"

	"github.com/smallnest/chanx"
)

const initialCapacity = 16

// Sender is the producer side of a mailbox.
type Sender[T any] interface {
	Send(v T)
}

// Mailbox buffers every sent value until the consumer receives it.
// Values from one producer are delivered in send order. Send never blocks
// on a slow consumer.
type Mailbox[T any] struct {
	ch     *chanx.UnboundedChan[T]
	mu     sync.RWMutex
	closed bool
}

// New creates a mailbox.
func New[T any]() *Mailbox[T] {
	// The buffer goroutine must keep reading until Close, so it is not
	// tied to any run context.
	return &Mailbox[T]{ch: chanx.NewUnboundedChan[T](context.Background(), initialCapacity)}
}

// Send enqueues v. After Close it is a no-op.
func (m *Mailbox[T]) Send(v T) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	m.ch.In <- v
}

// C returns the receive channel. It is closed once Close was called and
// every value sent before it was received.
func (m *Mailbox[T]) C() <-chan T {
	return m.ch.Out
}

// Close stops accepting values. Values already sent are still delivered.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.ch.In)
}
