package value

// validationKind is the status of a Validation.
type validationKind uint8

const (
	validationNone validationKind = iota
	validationValid
	validationInvalid
)

// Validation is the status of validating data. The zero value means no
// validation has been performed yet: the data is still in its initial state,
// so errors should be delayed until it changes.
type Validation struct {
	kind    validationKind
	message string
}

// Valid is the status of valid data.
var Valid = Validation{kind: validationValid}

// Invalid returns the status of invalid data with a human-readable message.
func Invalid(message string) Validation {
	return Validation{kind: validationInvalid, message: message}
}

// IsNone reports whether no validation has been performed.
func (v Validation) IsNone() bool { return v.kind == validationNone }

// IsValid reports whether the data is valid.
func (v Validation) IsValid() bool { return v.kind == validationValid }

// IsError reports whether there is a validation error.
func (v Validation) IsError() bool { return v.kind == validationInvalid }

// Message returns the validation error, or hint if there is none.
func (v Validation) Message(hint string) string {
	if v.kind == validationInvalid {
		return v.message
	}
	return hint
}

// And merges two validations. An error wins over everything, then None,
// then Valid.
func (v Validation) And(other Validation) Validation {
	switch {
	case v.kind == validationValid && other.kind == validationValid:
		return Valid
	case v.kind == validationInvalid:
		return v
	case other.kind == validationInvalid:
		return other
	default:
		return Validation{}
	}
}

// String implements fmt.Stringer.
func (v Validation) String() string {
	switch v.kind {
	case validationValid:
		return "valid"
	case validationInvalid:
		return "invalid: " + v.message
	default:
		return "none"
	}
}

// ValidateWith returns a cell holding the result of check for each value of
// s. It is not tied to any Validations group.
func ValidateWith[T any](s Source[T], check func(T) error) *Dynamic[Validation] {
	return MapEach(s, func(v T) Validation {
		if err := check(v); err != nil {
			return Invalid(err.Error())
		}
		return Valid
	})
}

type validationsState uint8

const (
	stateInitial validationsState = iota
	stateResetting
	stateChecked
	stateDisabled
)

// checkMessage is the outcome of a single check.
type checkMessage struct {
	failed  bool
	message string
}

// Validations groups validations so they can be checked together.
//
// Errors are not reported until the validated value changes or IsValid is
// called. IsValid is O(1): the group tracks how many checks are failing.
type Validations struct {
	state   *Dynamic[validationsState]
	invalid *Dynamic[int]
}

// NewValidations returns an empty validation group.
func NewValidations() *Validations {
	return &Validations{
		state:   New(stateInitial),
		invalid: New(0),
	}
}

// Validator is a scope that validations can be added to: a *Validations or
// a conditional scope returned by When and WhenNot.
type Validator interface {
	scope() validationScope
}

type validationScope struct {
	validations *Validations
	condition   *Dynamic[bool]
	not         bool
}

func (v *Validations) scope() validationScope {
	return validationScope{validations: v}
}

// When returns a scope whose validations only apply while condition is true.
func (v *Validations) When(condition *Dynamic[bool]) *WhenValidation {
	return &WhenValidation{validations: v, condition: condition}
}

// WhenNot returns a scope whose validations only apply while condition is
// false.
func (v *Validations) WhenNot(condition *Dynamic[bool]) *WhenValidation {
	return &WhenValidation{validations: v, condition: condition, not: true}
}

// WhenValidation is a conditional validation scope.
type WhenValidation struct {
	validations *Validations
	condition   *Dynamic[bool]
	not         bool
}

func (w *WhenValidation) scope() validationScope {
	return validationScope{validations: w.validations, condition: w.condition, not: w.not}
}

// IsValid reports whether every validation in the group passes. The first
// call also starts reporting errors for values that have not changed yet.
func (v *Validations) IsValid() bool {
	v.state.CompareSwap(stateInitial, stateChecked)
	return v.invalid.Get() == 0
}

// Invalid returns the number of failing validations.
func (v *Validations) Invalid() int {
	return v.invalid.Get()
}

// Reset clears reported errors, returning every validation to None until its
// value changes again.
func (v *Validations) Reset() {
	v.state.Set(stateResetting)
	v.state.Set(stateInitial)
}

// WhenValid wraps handler so it only runs when every validation in v passes.
// Otherwise the zero R is returned.
//
// Example:
//
//	submit := value.WhenValid(form, func(struct{}) bool {
//	    return save()
//	})
func WhenValid[T, R any](v *Validations, handler func(T) R) func(T) R {
	return func(t T) R {
		if v.IsValid() {
			return handler(t)
		}
		var zero R
		return zero
	}
}

// generateValidation returns the function that turns the group state and a
// check outcome into a Validation, keeping the group's invalid count current.
// Every check starts out counted as failing until it is first evaluated.
func (v *Validations) generateValidation(gen func() Generation) func(validationsState, GenerationalValue[checkMessage]) Validation {
	Update[int](v.invalid, func(n int) int { return n + 1 })

	invalidCount := v.invalid
	initialGeneration := gen()
	invalid := true

	return func(current validationsState, outcome GenerationalValue[checkMessage]) Validation {
		newInvalid := current != stateDisabled && outcome.Value.failed
		if invalid != newInvalid {
			if newInvalid {
				Update[int](invalidCount, func(n int) int { return n + 1 })
			} else {
				Update[int](invalidCount, func(n int) int { return n - 1 })
			}
			invalid = newInvalid
		}

		status := Valid
		if outcome.Value.failed {
			status = Invalid(outcome.Value.message)
		}
		switch {
		case current == stateResetting:
			initialGeneration = gen()
			return Validation{}
		case current == stateInitial && initialGeneration == gen():
			return Validation{}
		default:
			return status
		}
	}
}

// Validate checks each value of d with check and returns a cell holding the
// status. The check is part of v: IsValid fails while it fails.
//
// Example:
//
//	form := value.NewValidations()
//	name := value.New("")
//	status := value.Validate(form, name, func(s string) error {
//	    if s == "" {
//	        return errors.New("name is required")
//	    }
//	    return nil
//	})
func Validate[T any](v Validator, d *Dynamic[T], check func(T) error) *Dynamic[Validation] {
	sc := v.scope()
	validation := New(Validation{})
	outcomes := MapEachGenerational[T](d, func(g GenerationalValue[T]) GenerationalValue[checkMessage] {
		return MapGenerational(g, func(t T) checkMessage {
			if err := check(t); err != nil {
				return checkMessage{failed: true, message: err.Error()}
			}
			return checkMessage{}
		})
	})
	f := sc.validations.generateValidation(d.Generation)

	if sc.condition == nil {
		validation.SetSource(ForEach2[validationsState, GenerationalValue[checkMessage]](
			sc.validations.state, outcomes,
			func(state validationsState, outcome GenerationalValue[checkMessage]) {
				validation.Set(f(state, outcome))
			},
		))
		outcomes.Release()
		return validation
	}

	apply := func(condition bool, state validationsState, outcome GenerationalValue[checkMessage]) {
		enabled := condition != sc.not
		if !enabled {
			state = stateDisabled
		}
		result := f(state, outcome)
		if enabled {
			validation.Set(result)
		} else {
			validation.Set(Validation{})
		}
	}
	apply(sc.condition.Get(), sc.validations.state.Get(), outcomes.Get())
	validation.SetSource(ForEach3[bool, validationsState, GenerationalValue[checkMessage]](
		sc.condition, sc.validations.state, outcomes, apply,
	))
	outcomes.Release()
	return validation
}

// ValidateResult adds a validation that fails whenever result holds a
// non-nil error.
func ValidateResult(v Validator, result Source[error]) *Dynamic[Validation] {
	messages := MapEach(result, func(err error) string {
		if err == nil {
			return ""
		}
		return err.Error()
	})
	defer messages.Release()
	return Validate(v, messages, func(message string) error {
		if message == "" {
			return nil
		}
		return validationError(message)
	})
}

type validationError string

func (e validationError) Error() string { return string(e) }
