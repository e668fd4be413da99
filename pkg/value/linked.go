package value

import "fmt"

// Linked returns a cell kept in sync with d in both directions.
//
// tIntoR converts values of d into the linked cell, and rIntoT converts back.
// A conversion that returns false leaves the other side unchanged. The first
// conversion of d's current value must succeed; Linked panics otherwise.
//
// The two cells keep each other alive until both are released.
//
// Example:
//
//	celsius := value.New(20.0)
//	fahrenheit := value.Linked(celsius,
//	    func(c float64) (float64, bool) { return c*9/5 + 32, true },
//	    func(f float64) (float64, bool) { return (f - 32) * 5 / 9, true },
//	)
func Linked[T, R any](d *Dynamic[T], tIntoR func(T) (R, bool), rIntoT func(R) (T, bool), opts ...Option[R]) *Dynamic[R] {
	initial, ok := tIntoR(d.Get())
	if !ok {
		panic("value: Linked conversion must succeed with the current value")
	}
	r := New(initial, opts...)

	rWeak := r.Downgrade()
	r.SetSource(ForEachTry[T](d, func(t T) error {
		target, ok := rWeak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		if update, ok := tIntoR(t); ok {
			target.Set(update)
		}
		return nil
	}))

	tWeak := d.Downgrade()
	d.SetSource(ForEachTry[R](r, func(v R) error {
		target, ok := tWeak.Upgrade()
		if !ok {
			return ErrCallbackDisconnected
		}
		defer target.Release()
		if update, ok := rIntoT(v); ok {
			target.Replace(update)
		}
		return nil
	}))

	return r
}

// LinkedString returns a string cell linked to d. Values of d are formatted
// with fmt.Sprint; strings written to the returned cell are parsed with
// parse, and strings that fail to parse leave d unchanged.
//
// Example:
//
//	port := value.New(8080)
//	text := value.LinkedString(port, strconv.Atoi)
//	text.Set("9090") // port.Get() == 9090
func LinkedString[T any](d *Dynamic[T], parse func(string) (T, error)) *Dynamic[string] {
	return Linked(d,
		func(t T) (string, bool) { return fmt.Sprint(t), true },
		func(s string) (T, bool) {
			t, err := parse(s)
			return t, err == nil
		},
	)
}
