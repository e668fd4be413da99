package value

import "testing"

func TestValueConstant(t *testing.T) {
	v := Constant(3)
	if v.IsDynamic() {
		t.Error("IsDynamic() = true for a constant")
	}
	if _, ok := v.Generation(); ok {
		t.Error("constant reported a generation")
	}
	doubled := MapValue(v, func(n int) int { return n * 2 })
	if got := doubled.Get(); got != 6 {
		t.Errorf("Get() = %d, want 6", got)
	}
}

func TestValueDynamic(t *testing.T) {
	d := New(3)
	defer d.Release()
	v := FromDynamic(d)

	doubled := MapValue(v, func(n int) int { return n * 2 })
	d.Set(5)
	if got := doubled.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}
	if gen, ok := v.Generation(); !ok || gen != 1 {
		t.Errorf("Generation() = %v, %v, want gen#1, true", gen, ok)
	}
	doubled.IntoDynamic().Release()
}

func TestReadOnly(t *testing.T) {
	d := New("a")
	ro := FromDynamic(d.Clone()).IntoReadOnly()
	upper := MapReadOnly(ro, func(s string) string { return s + "!" })

	d.Set("b")
	if got := ro.Get(); got != "b" {
		t.Errorf("Get() = %q, want b", got)
	}
	if got := upper.Get(); got != "b!" {
		t.Errorf("mapped Get() = %q, want b!", got)
	}
	d.Release()

	c := ReadOnlyConstant(1)
	if _, ok := c.Generation(); ok {
		t.Error("constant reported a generation")
	}
}

func TestMapReadOnlyFollowsSource(t *testing.T) {
	d := New(1)
	doubled := MapReadOnly(FromReader(d.CreateReader()), func(n int) int { return n * 2 })

	if got := doubled.Get(); got != 2 {
		t.Errorf("Get() = %d, want 2", got)
	}
	d.Set(5)
	if got := doubled.Get(); got != 10 {
		t.Errorf("Get() after Set(5) = %d, want 10", got)
	}

	d.Release()
	if doubled.reader.Connected() {
		t.Error("mapped reader still connected after the source disconnected")
	}
}
