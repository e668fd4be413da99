package value

import "time"

// DebounceOption configures DebouncedEvery and DebouncedWithDelay.
type DebounceOption func(*debounceConfig)

type debounceConfig struct {
	scheduler Scheduler
}

// WithScheduler sets the scheduler used to delay updates.
func WithScheduler(s Scheduler) DebounceOption {
	return func(c *debounceConfig) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// debounce forwards values from a buffer to the destination after a delay.
// update is only called from the source's callbacks, which never run
// concurrently, so it needs no locking of its own.
type debounce[T any] struct {
	destination WeakDynamic[T]
	buffer      *Dynamic[T]
	period      time.Duration
	delay       Timer
	extend      bool
	scheduler   Scheduler
}

func (d *debounce[T]) update(v T) error {
	dest, ok := d.destination.Upgrade()
	if !ok {
		return ErrCallbackDisconnected
	}
	dest.Release()

	if _, err := d.buffer.TryReplace(v); err != nil {
		return nil
	}
	create := d.extend || d.delay == nil || d.delay.Done()
	if !create {
		return nil
	}
	if d.delay != nil {
		d.delay.Cancel()
	}
	destination, buffer := d.destination, d.buffer
	d.delay = d.scheduler.Schedule(d.period, func() {
		target, ok := destination.Upgrade()
		if !ok {
			return
		}
		defer target.Release()
		target.Set(buffer.Get())
	})
	return nil
}

func debounced[T any](s Source[T], period time.Duration, extend bool, opts []DebounceOption) *Dynamic[T] {
	cfg := debounceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.scheduler == nil {
		cfg.scheduler = currentScheduler()
	}

	initial := Get(s)
	out := New(initial)
	db := &debounce[T]{
		destination: out.Downgrade(),
		buffer:      New(initial),
		period:      period,
		extend:      extend,
		scheduler:   cfg.scheduler,
	}
	out.SetSource(ForEachTry(s, db.update))
	return out
}

// DebouncedEvery returns a cell that follows s, updated at most once per
// period. The first change after a quiet period starts a delay; changes
// during the delay only update the value that is published when it ends.
func DebouncedEvery[T any](s Source[T], period time.Duration, opts ...DebounceOption) *Dynamic[T] {
	return debounced(s, period, false, opts)
}

// DebouncedWithDelay returns a cell that follows s once it has been quiet for
// period. Every change restarts the delay.
//
// Example:
//
//	query := value.New("")
//	settled := value.DebouncedWithDelay(query, 300*time.Millisecond)
//	value.ForEach(settled, search).Persist()
func DebouncedWithDelay[T any](s Source[T], period time.Duration, opts ...DebounceOption) *Dynamic[T] {
	return debounced(s, period, true, opts)
}
