package value

// Mutable gives exclusive access to a cell's value inside TryMapMut.
// Accessing the value mutably marks the cell as changed.
type Mutable[T any] struct {
	value   *T
	mutated bool
}

// Get returns the current value without marking the cell as changed.
func (m *Mutable[T]) Get() T {
	return *m.value
}

// Set stores v and marks the cell as changed.
func (m *Mutable[T]) Set(v T) {
	*m.value = v
	m.mutated = true
}

// Ptr returns a pointer to the stored value and marks the cell as changed.
// The pointer must not be retained after the callback returns.
func (m *Mutable[T]) Ptr() *T {
	m.mutated = true
	return m.value
}

// Update replaces the value with fn(current) and marks the cell as changed.
func (m *Mutable[T]) Update(fn func(T) T) {
	m.Set(fn(*m.value))
}

// Mutated reports whether the value has been accessed mutably.
func (m *Mutable[T]) Mutated() bool {
	return m.mutated
}
