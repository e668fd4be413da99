package value

import "sync"

// cellLock is an exclusive lock that remembers its holder.
//
// A sync.Mutex cannot report who holds it, so the lock is a flag guarded by a
// mutex and a condition variable. The same condition variable is used by
// readers waiting for a change, which lets every release wake them.
type cellLock struct {
	mu     sync.Mutex
	cond   sync.Cond
	locked bool
	owner  int64
	cell   CellID
}

func newCellLock(cell CellID) *cellLock {
	l := &cellLock{cell: cell}
	l.cond.L = &l.mu
	return l
}

// acquire blocks until the lock is free. It returns ErrDeadlock without
// blocking if the calling goroutine already holds the lock.
func (l *cellLock) acquire() error {
	gid := goroutineID()
	l.mu.Lock()
	for l.locked {
		if l.owner == gid {
			l.mu.Unlock()
			logger().Debug("value: deadlock detected", "cell", l.cell, "goroutine", gid)
			observer().DeadlockDetected(l.cell)
			return ErrDeadlock
		}
		l.cond.Wait()
	}
	l.locked = true
	l.owner = gid
	l.mu.Unlock()
	return nil
}

// release frees the lock and wakes every waiter.
func (l *cellLock) release() {
	l.mu.Lock()
	l.locked = false
	l.owner = 0
	l.mu.Unlock()
	l.cond.Broadcast()
}

// broadcast wakes every waiter without changing the lock state. Taking the
// mutex first orders the wakeup after any state change made by the caller.
func (l *cellLock) broadcast() {
	l.mu.Lock()
	l.mu.Unlock() //nolint:staticcheck // empty critical section is intended
	l.cond.Broadcast()
}

// heldByCurrent reports whether the calling goroutine holds the lock.
func (l *cellLock) heldByCurrent() bool {
	gid := goroutineID()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked && l.owner == gid
}
