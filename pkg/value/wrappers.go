package value

// Value is either a constant or a *Dynamic. Widgets accept Value so callers
// can pass either.
type Value[T any] struct {
	constant T
	dynamic  *Dynamic[T]
}

// Constant returns a Value that never changes.
func Constant[T any](v T) Value[T] {
	return Value[T]{constant: v}
}

// FromDynamic returns a Value backed by d.
func FromDynamic[T any](d *Dynamic[T]) Value[T] {
	return Value[T]{dynamic: d}
}

// Get returns the current value.
func (v Value[T]) Get() T {
	if v.dynamic != nil {
		return v.dynamic.Get()
	}
	return v.constant
}

// Generation returns the generation of a dynamic value. ok is false for a
// constant.
func (v Value[T]) Generation() (Generation, bool) {
	if v.dynamic != nil {
		return v.dynamic.Generation(), true
	}
	return 0, false
}

// IsDynamic reports whether v is backed by a cell.
func (v Value[T]) IsDynamic() bool {
	return v.dynamic != nil
}

// RedrawWhenChanged registers t on a dynamic value. It does nothing for a
// constant.
func (v Value[T]) RedrawWhenChanged(t RedrawTarget) {
	if v.dynamic != nil {
		v.dynamic.RedrawWhenChanged(t)
	}
}

// IntoDynamic returns the backing cell, or a new cell holding the constant.
func (v Value[T]) IntoDynamic() *Dynamic[T] {
	if v.dynamic != nil {
		return v.dynamic
	}
	return New(v.constant)
}

// MapValue applies fn to v. A dynamic value maps into a new dynamic value.
func MapValue[T, R any](v Value[T], fn func(T) R) Value[R] {
	if v.dynamic != nil {
		return FromDynamic(MapEach[T](v.dynamic, fn))
	}
	return Constant(fn(v.constant))
}

// ReadOnly is either a constant or a *DynamicReader.
type ReadOnly[T any] struct {
	constant T
	reader   *DynamicReader[T]
}

// ReadOnlyConstant returns a ReadOnly that never changes.
func ReadOnlyConstant[T any](v T) ReadOnly[T] {
	return ReadOnly[T]{constant: v}
}

// FromReader returns a ReadOnly backed by r.
func FromReader[T any](r *DynamicReader[T]) ReadOnly[T] {
	return ReadOnly[T]{reader: r}
}

// Get returns the current value.
func (r ReadOnly[T]) Get() T {
	if r.reader != nil {
		return r.reader.Get()
	}
	return r.constant
}

// Generation returns the generation of a dynamic value. ok is false for a
// constant.
func (r ReadOnly[T]) Generation() (Generation, bool) {
	if r.reader != nil {
		return r.reader.Generation(), true
	}
	return 0, false
}

// IntoReadOnly returns v as a ReadOnly. A dynamic value is converted into a
// reader, consuming its handle.
func (v Value[T]) IntoReadOnly() ReadOnly[T] {
	if v.dynamic != nil {
		return FromReader(v.dynamic.IntoReader())
	}
	return ReadOnlyConstant(v.constant)
}

// MapReadOnly applies fn to r. A dynamic value maps into a new reader that
// keeps updating until r's cell disconnects.
func MapReadOnly[T, R any](r ReadOnly[T], fn func(T) R) ReadOnly[R] {
	if r.reader != nil {
		src := r.reader
		mapped := New(fn(Get[T](src)))
		weak := mapped.Downgrade()
		mapped.SetSource(ForEachTry[T](src, func(v T) error {
			target, ok := weak.Upgrade()
			if !ok {
				return ErrCallbackDisconnected
			}
			defer target.Release()
			target.Set(fn(v))
			return nil
		}).Weak())
		reader := mapped.CreateReader()
		src.OnDisconnect(mapped.Release)
		return FromReader(reader)
	}
	return ReadOnlyConstant(fn(r.constant))
}
