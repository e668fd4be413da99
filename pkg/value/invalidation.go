package value

// WidgetID identifies a widget inside an InvalidateTarget.
type WidgetID uint64

// RedrawTarget is notified when a cell it observes changes. Implementations
// are typically windows. Values must be comparable; pointers are recommended.
//
// Registrations are one-shot: a target is signalled on the next change and
// then forgotten, so renderers register again each time they read a cell.
type RedrawTarget interface {
	Redraw()
}

// InvalidateTarget is notified with the widget that depends on a changed
// cell. Values must be comparable; pointers are recommended.
type InvalidateTarget interface {
	Invalidate(id WidgetID)
}

type widgetKey struct {
	target InvalidateTarget
	id     WidgetID
}

// invalidationState is the set of targets to signal when a cell changes.
// The zero value is empty and ready to use.
type invalidationState struct {
	redraw  map[RedrawTarget]struct{}
	widgets map[widgetKey]struct{}
	wakers  []*Waker
}

func (s *invalidationState) addRedraw(t RedrawTarget) {
	if s.redraw == nil {
		s.redraw = make(map[RedrawTarget]struct{})
	}
	s.redraw[t] = struct{}{}
}

func (s *invalidationState) addWidget(t InvalidateTarget, id WidgetID) {
	if s.widgets == nil {
		s.widgets = make(map[widgetKey]struct{})
	}
	s.widgets[widgetKey{target: t, id: id}] = struct{}{}
}

// addWaker registers w unless the same waker is already pending.
func (s *invalidationState) addWaker(w *Waker) {
	for _, existing := range s.wakers {
		if existing == w {
			return
		}
	}
	s.wakers = append(s.wakers, w)
}

func (s *invalidationState) empty() bool {
	return len(s.redraw) == 0 && len(s.widgets) == 0 && len(s.wakers) == 0
}

func (s *invalidationState) size() int {
	return len(s.redraw) + len(s.widgets) + len(s.wakers)
}

// extend merges other into s.
func (s *invalidationState) extend(other invalidationState) {
	for t := range other.redraw {
		s.addRedraw(t)
	}
	for k := range other.widgets {
		s.addWidget(k.target, k.id)
	}
	for _, w := range other.wakers {
		s.addWaker(w)
	}
}

// take moves every registered target out of s.
func (s *invalidationState) take() invalidationState {
	out := *s
	*s = invalidationState{}
	return out
}

// invoke delivers every signal and empties s.
func (s *invalidationState) invoke() {
	if s.empty() {
		return
	}
	n := s.size()
	for k := range s.widgets {
		k.target.Invalidate(k.id)
	}
	for t := range s.redraw {
		t.Redraw()
	}
	for _, w := range s.wakers {
		w.Wake()
	}
	*s = invalidationState{}
	observer().BatchFlushed(n)
}

// deliver flushes s immediately, or merges it into the calling goroutine's
// batch if one is active.
func (s invalidationState) deliver() {
	if s.empty() {
		return
	}
	if gs := currentState(); gs != nil && gs.batchDepth > 0 {
		gs.pending.extend(s)
		return
	}
	s.invoke()
}

// InvalidationBatch is the handle passed to a Batch function.
type InvalidationBatch struct {
	state *goroutineState
}

// Batch runs fn with invalidations accumulated instead of delivered. Batches
// nest; signals are delivered once, when the outermost batch returns.
//
// Example:
//
//	value.Batch(func(*value.InvalidationBatch) {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
//	// Each window observing either cell is redrawn once.
func Batch(fn func(*InvalidationBatch)) {
	gs := ensureState()
	gs.batchDepth++
	defer func() {
		gs.batchDepth--
		if gs.batchDepth == 0 {
			pending := gs.pending
			gs.pending = invalidationState{}
			clearState()
			pending.invoke()
		}
	}()
	fn(&InvalidationBatch{state: gs})
}

// Invoke delivers the accumulated invalidations now. It has no effect inside
// a nested batch.
func (b *InvalidationBatch) Invoke() {
	if b.state.batchDepth != 1 {
		return
	}
	pending := b.state.pending
	b.state.pending = invalidationState{}
	pending.invoke()
}
