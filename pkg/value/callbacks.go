package value

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// callbackFunc is a registered change callback. Returning
// ErrCallbackDisconnected removes it.
type callbackFunc func() error

type callbackEntry struct {
	id      uint64
	fn      callbackFunc
	removed atomic.Bool
}

// callbackList is an arena of callbacks with stable IDs.
// It is not synchronized; owners provide the locking.
type callbackList struct {
	nextID  uint64
	entries []*callbackEntry
}

func (l *callbackList) push(fn callbackFunc) uint64 {
	l.nextID++
	l.entries = append(l.entries, &callbackEntry{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *callbackList) remove(id uint64) {
	for i, e := range l.entries {
		if e.id == id {
			e.removed.Store(true)
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *callbackList) len() int {
	return len(l.entries)
}

func (l *callbackList) snapshot() []*callbackEntry {
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]*callbackEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// runEntries runs each live entry and returns the IDs of those that
// disconnected.
func runEntries(cell CellID, entries []*callbackEntry) []uint64 {
	var disconnected []uint64
	for _, e := range entries {
		if e.removed.Load() {
			continue
		}
		err := e.fn()
		switch {
		case err == nil:
		case errors.Is(err, ErrCallbackDisconnected):
			disconnected = append(disconnected, e.id)
		default:
			logger().Debug("value: callback failed", "cell", cell, "error", err)
			observer().CallbackFailed(cell, err)
		}
	}
	return disconnected
}

// changeCallbacks is the registry and single-flight notifier of a cell.
//
// At most one goroutine executes the callback set at a time. A goroutine that
// writes to the cell while it is itself executing the set returns
// immediately, which bounds cyclic update graphs. Other goroutines wait for
// the executor and then run the set again only if their change happened after
// the last run began.
type changeCallbacks struct {
	cell CellID

	mu        sync.Mutex
	list      callbackList
	invokedAt uint64

	execMu    sync.Mutex
	execCond  sync.Cond
	executing int64
}

func newChangeCallbacks(cell CellID) *changeCallbacks {
	c := &changeCallbacks{cell: cell}
	c.execCond.L = &c.execMu
	return c
}

// register adds fn and returns its ID.
func (c *changeCallbacks) register(fn callbackFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.push(fn)
}

// remove implements callbackRegistry.
func (c *changeCallbacks) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.remove(id)
}

func (c *changeCallbacks) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.len()
}

// notify runs the callbacks for a change stamped changedAt.
func (c *changeCallbacks) notify(changedAt uint64) {
	gid := goroutineID()
	c.execMu.Lock()
	for {
		switch c.executing {
		case 0:
			c.executing = gid
			c.execMu.Unlock()
			c.execute(changedAt)
			return
		case gid:
			c.execMu.Unlock()
			observer().CallbacksSkipped(c.cell, SkipReentrant)
			return
		default:
			c.execCond.Wait()
		}
	}
}

func (c *changeCallbacks) execute(changedAt uint64) {
	defer func() {
		c.execMu.Lock()
		c.executing = 0
		c.execMu.Unlock()
		c.execCond.Broadcast()
	}()

	c.mu.Lock()
	if c.invokedAt >= changedAt {
		c.mu.Unlock()
		observer().CallbacksSkipped(c.cell, SkipSuperseded)
		return
	}
	c.invokedAt = tick()
	entries := c.list.snapshot()
	c.mu.Unlock()

	start := time.Now()
	disconnected := runEntries(c.cell, entries)
	observer().CallbacksInvoked(c.cell, len(entries), time.Since(start))

	if len(disconnected) > 0 {
		c.mu.Lock()
		for _, id := range disconnected {
			c.list.remove(id)
		}
		c.mu.Unlock()
	}
}

// callbackRegistry deregisters callbacks by ID.
type callbackRegistry interface {
	remove(id uint64)
}

// instanceOwner is a strong reference held by a callback handle.
type instanceOwner interface {
	releaseInstance()
}

type handleEntry struct {
	id       uint64
	registry callbackRegistry
	owner    instanceOwner
}

// CallbackHandle keeps one or more registered callbacks alive.
//
// Release deregisters the callbacks and drops the strong references they hold
// on their source cells. Persist detaches the callbacks so they live as long
// as the cells they are registered on. Handles compose with Add.
//
// The zero value is an empty handle.
type CallbackHandle struct {
	mu      sync.Mutex
	entries []handleEntry
}

func newCallbackHandle(id uint64, registry callbackRegistry, owner instanceOwner) *CallbackHandle {
	return &CallbackHandle{entries: []handleEntry{{id: id, registry: registry, owner: owner}}}
}

// Add moves the callbacks of other into h. other is left empty.
func (h *CallbackHandle) Add(other *CallbackHandle) {
	if other == nil || other == h {
		return
	}
	other.mu.Lock()
	moved := other.entries
	other.entries = nil
	other.mu.Unlock()

	h.mu.Lock()
	h.entries = append(h.entries, moved...)
	h.mu.Unlock()
}

// Release deregisters every callback and releases the owners they hold.
// Release is idempotent.
func (h *CallbackHandle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	entries := h.entries
	h.entries = nil
	h.mu.Unlock()

	for _, e := range entries {
		if e.id != 0 && e.registry != nil {
			e.registry.remove(e.id)
		}
		if e.owner != nil {
			e.owner.releaseInstance()
		}
	}
}

// Persist keeps the callbacks registered for as long as their source cells
// exist. The strong references are dropped, so a persisted callback does not
// keep its source alive.
func (h *CallbackHandle) Persist() {
	if h == nil {
		return
	}
	h.mu.Lock()
	entries := h.entries
	h.entries = nil
	h.mu.Unlock()

	for _, e := range entries {
		if e.owner != nil {
			e.owner.releaseInstance()
		}
	}
}

// Weak drops the strong references held by h while keeping the callbacks
// registered until h is released. It returns h.
func (h *CallbackHandle) Weak() *CallbackHandle {
	if h == nil {
		return h
	}
	h.mu.Lock()
	var owners []instanceOwner
	for i := range h.entries {
		if h.entries[i].owner != nil {
			owners = append(owners, h.entries[i].owner)
			h.entries[i].owner = nil
		}
	}
	h.mu.Unlock()

	for _, o := range owners {
		o.releaseInstance()
	}
	return h
}

// Len returns the number of callbacks h keeps alive.
func (h *CallbackHandle) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
