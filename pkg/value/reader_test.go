package value

import (
	"context"
	"testing"
	"time"
)

func TestDisconnectingReaderFromDynamic(t *testing.T) {
	d := New(1)
	reader := d.CreateReader()
	defer reader.Release()

	d.Release()
	if reader.BlockUntilUpdated() {
		t.Error("BlockUntilUpdated() = true after the last writer was released")
	}
}

func TestDisconnectingReaderThreaded(t *testing.T) {
	a := New(1)
	aReader := a.CreateReader()
	b := New(1)
	bReader := b.CreateReader()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer aReader.Release()
		b.Set(2)

		if !aReader.BlockUntilUpdated() {
			t.Error("first BlockUntilUpdated() = false, want true")
			return
		}
		if got := aReader.Get(); got != 2 {
			t.Errorf("a = %d, want 2", got)
		}
		if aReader.BlockUntilUpdated() {
			t.Error("second BlockUntilUpdated() = true, want false")
		}
	}()

	// Wait for the goroutine to set b to 2.
	if !bReader.BlockUntilUpdated() {
		t.Fatal("b reader disconnected")
	}
	if got := bReader.Get(); got != 2 {
		t.Errorf("b = %d, want 2", got)
	}

	a.Set(2)
	a.Release()

	<-done
	b.Release()
	bReader.Release()
}

func TestDisconnectingReaderAsync(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := New(1)
	aReader := a.CreateReader()
	b := New(1)
	bReader := b.CreateReader()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer aReader.Release()
		b.Set(2)

		updated, err := aReader.WaitUntilUpdated(ctx)
		if err != nil || !updated {
			t.Errorf("first WaitUntilUpdated() = %v, %v, want true, nil", updated, err)
			return
		}
		if got := aReader.Get(); got != 2 {
			t.Errorf("a = %d, want 2", got)
		}
		updated, err = aReader.WaitUntilUpdated(ctx)
		if err != nil || updated {
			t.Errorf("second WaitUntilUpdated() = %v, %v, want false, nil", updated, err)
		}
	}()

	updated, err := bReader.WaitUntilUpdated(ctx)
	if err != nil || !updated {
		t.Fatalf("b WaitUntilUpdated() = %v, %v", updated, err)
	}
	if got := bReader.Get(); got != 2 {
		t.Errorf("b = %d, want 2", got)
	}

	a.Set(2)
	a.Release()

	<-done
	b.Release()
	bReader.Release()
}

func TestWaitUntilUpdatedContextDone(t *testing.T) {
	d := New(1)
	defer d.Release()
	reader := d.CreateReader()
	defer reader.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	updated, err := reader.WaitUntilUpdated(ctx)
	if updated || err != context.DeadlineExceeded {
		t.Errorf("WaitUntilUpdated() = %v, %v, want false, DeadlineExceeded", updated, err)
	}
}

func TestReaderPoll(t *testing.T) {
	d := New("a")
	reader := d.CreateReader()
	defer reader.Release()

	w := NewWaker()
	if ready, _ := reader.Poll(w); ready {
		t.Fatal("Poll() ready before any change")
	}
	// Registering the same waker twice keeps one entry.
	reader.Poll(w)

	d.Set("b")
	if !w.Woken() {
		t.Fatal("waker not woken by change")
	}
	if ready, updated := reader.Poll(NewWaker()); !ready || !updated {
		t.Errorf("Poll() = %v, %v, want true, true", ready, updated)
	}
	if !reader.HasUpdated() {
		t.Error("HasUpdated() = false before reading")
	}
	if got := reader.Get(); got != "b" {
		t.Errorf("Get() = %q, want b", got)
	}
	if reader.HasUpdated() {
		t.Error("HasUpdated() = true after reading")
	}

	w = NewWaker()
	reader.Poll(w)
	d.Release()
	if !w.Woken() {
		t.Error("waker not woken by disconnect")
	}
	if ready, updated := reader.Poll(NewWaker()); !ready || updated {
		t.Errorf("Poll() after disconnect = %v, %v, want true, false", ready, updated)
	}
}

func TestReaderClone(t *testing.T) {
	d := New(0)
	defer d.Release()
	r1 := d.CreateReader()
	d.Set(1)
	_ = r1.Get()

	r2 := r1.Clone()
	if d.Readers() != 2 {
		t.Errorf("Readers() = %d, want 2", d.Readers())
	}
	if r2.ReadGeneration() != r1.ReadGeneration() {
		t.Error("clone does not share the read generation")
	}
	r1.Release()
	r2.Release()
	r2.Release()
	if d.Readers() != 0 {
		t.Errorf("Readers() = %d, want 0", d.Readers())
	}
}

func TestReaderLockIsReadOnly(t *testing.T) {
	d := New(5)
	defer d.Release()
	r := d.CreateReader()
	defer r.Release()

	g := r.Lock()
	if got := g.Get(); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}
	if p := expectPanic(func() { g.Set(6) }); p == nil {
		t.Error("Set through a read-only guard did not panic")
	}
	g.Unlock()
	if d.Generation() != 0 {
		t.Error("read-only guard advanced the generation")
	}
}

func TestBlockUntilUpdatedWhileLockedPanics(t *testing.T) {
	d := New(0)
	defer d.Release()
	r := d.CreateReader()
	defer r.Release()

	g := d.Lock()
	defer g.Unlock()
	if p := expectPanic(func() { r.BlockUntilUpdated() }); p != deadlockPanic {
		t.Errorf("BlockUntilUpdated while locked panicked with %v", p)
	}
}

func TestReleaseWhileLockedDefersDisconnect(t *testing.T) {
	d := New(0)
	r := d.CreateReader()
	defer r.Release()

	disconnected := false
	r.OnDisconnect(func() { disconnected = true })

	g := d.Lock()
	d.Release()
	if disconnected {
		t.Fatal("disconnect ran while the lock was held")
	}
	if r.Connected() {
		t.Error("reader still connected after the last writer was released")
	}
	g.Unlock()
	if !disconnected {
		t.Error("disconnect did not run after unlock")
	}
}
