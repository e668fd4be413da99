package value

import "sync"

// Waker is a one-shot wakeup signal. It is the suspension primitive used by
// DynamicReader.Poll and WaitUntilUpdated.
//
// A Waker is identified by its pointer: registering the same Waker on a cell
// twice wakes it once.
type Waker struct {
	once sync.Once
	ch   chan struct{}
}

// NewWaker returns a Waker that has not fired yet.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{})}
}

// Wake fires the waker. Calling Wake more than once is a no-op.
func (w *Waker) Wake() {
	w.once.Do(func() { close(w.ch) })
}

// C returns a channel that is closed when the waker fires.
func (w *Waker) C() <-chan struct{} {
	return w.ch
}

// Woken reports whether Wake has been called.
func (w *Waker) Woken() bool {
	select {
	case <-w.ch:
		return true
	default:
		return false
	}
}
