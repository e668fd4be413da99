// Package valuetest provides testing helpers for code built on package value.
//
// It supplies recording doubles for the rendering and timer boundaries and a
// few assertions that reduce boilerplate in reactive tests.
//
// # Quick Start
//
//	func TestTotal(t *testing.T) {
//	    price := value.New(10)
//	    total := value.MapEach(price, func(p int) int { return p * 2 })
//	    price.Set(15)
//	    valuetest.ExpectValue(t, total, 30)
//	}
//
// # Recording Targets
//
// Target records redraw and invalidate signals:
//
//	target := valuetest.NewTarget()
//	cell.RedrawWhenChanged(target)
//	cell.Set(1)
//	valuetest.ExpectRedraws(t, target, 1)
//
// # Deterministic Debouncing
//
// Scheduler runs delayed closures only when told to:
//
//	sched := valuetest.NewScheduler()
//	out := value.DebouncedEvery(src, time.Second, value.WithScheduler(sched))
//	src.Set(1)
//	sched.Fire()
//	valuetest.ExpectValue(t, out, 1)
package valuetest
