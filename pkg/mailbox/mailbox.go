// Package mailbox provides a single-slot message box for handing values
// between an interrupt-style producer (the RMT transport) and the
// single-threaded vault core, grounded on the reference firmware's
// sys/mbox.c: a deposit succeeds only when the box is empty, a retrieve
// only when it is full, and neither call blocks.
package mailbox

// Mailbox holds at most one pending value of type T.
type Mailbox[T any] struct {
	ch      chan T
	enabled bool
}

// New returns a disabled, empty Mailbox. Call Enable before use.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Enable starts accepting deposits, discarding any message already queued.
func (m *Mailbox[T]) Enable() {
	m.drain()
	m.enabled = true
}

// Disable stops accepting deposits and discards any pending message.
func (m *Mailbox[T]) Disable() {
	m.enabled = false
	m.drain()
}

func (m *Mailbox[T]) drain() {
	select {
	case <-m.ch:
	default:
	}
}

// TryPut deposits v and reports success. It fails without blocking if the
// mailbox is disabled or already holds a message.
func (m *Mailbox[T]) TryPut(v T) bool {
	if !m.enabled {
		return false
	}
	select {
	case m.ch <- v:
		return true
	default:
		return false
	}
}

// TryGet retrieves the pending message, if any, without blocking. Calling
// it and ignoring the value is the way to discard a pending message.
func (m *Mailbox[T]) TryGet() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
