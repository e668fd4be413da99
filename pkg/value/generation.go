package value

import "fmt"

// Generation is a tag that represents an individual revision of a cell.
//
// Each time a cell is mutated its generation advances. Equality is the only
// meaningful comparison: the counter wraps around on overflow.
type Generation uint64

// Next returns the following generation.
func (g Generation) Next() Generation {
	return g + 1
}

// String implements fmt.Stringer.
func (g Generation) String() string {
	return fmt.Sprintf("gen#%d", uint64(g))
}

// GenerationalValue is a value paired with the generation it was stored at.
// The two are always read and written together.
type GenerationalValue[T any] struct {
	// Value is the stored value.
	Value T

	generation Generation
}

// Generation returns the generation of this value.
func (g GenerationalValue[T]) Generation() Generation {
	return g.generation
}

// MapGenerational returns a new GenerationalValue containing fn(g.Value)
// with the same generation as g.
func MapGenerational[T, U any](g GenerationalValue[T], fn func(T) U) GenerationalValue[U] {
	return GenerationalValue[U]{
		Value:      fn(g.Value),
		generation: g.generation,
	}
}
