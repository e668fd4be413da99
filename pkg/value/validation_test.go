package value

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func required(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

func TestValidationsInitialState(t *testing.T) {
	form := NewValidations()
	name := New("")
	defer name.Release()

	status := Validate(form, name, required)
	defer status.Release()

	if !status.Get().IsNone() {
		t.Errorf("status = %v before any check, want none", status.Get())
	}
	if form.IsValid() {
		t.Error("IsValid() = true with an empty required field")
	}
	if got := status.Get(); !got.IsError() || got.Message("hint") != "required" {
		t.Errorf("status after IsValid = %v, want invalid: required", got)
	}

	name.Set("gopher")
	if got := status.Get(); !got.IsValid() {
		t.Errorf("status = %v, want valid", got)
	}
	if !form.IsValid() {
		t.Error("IsValid() = false with a valid field")
	}
}

func TestValidationsReportOnChange(t *testing.T) {
	form := NewValidations()
	name := New("x")
	defer name.Release()
	status := Validate(form, name, required)
	defer status.Release()

	name.Set("")
	if got := status.Get(); !got.IsError() {
		t.Errorf("status = %v after change, want invalid", got)
	}
	if form.Invalid() != 1 {
		t.Errorf("Invalid() = %d, want 1", form.Invalid())
	}
}

func TestValidationsReset(t *testing.T) {
	form := NewValidations()
	name := New("")
	defer name.Release()
	status := Validate(form, name, required)
	defer status.Release()

	form.IsValid()
	if !status.Get().IsError() {
		t.Fatalf("status = %v, want invalid", status.Get())
	}

	form.Reset()
	if got := status.Get(); !got.IsNone() {
		t.Errorf("status after Reset = %v, want none", got)
	}
	if form.IsValid() {
		t.Error("IsValid() after Reset = true, the field is still empty")
	}
}

func TestValidationsWhen(t *testing.T) {
	form := NewValidations()
	enabled := New(false)
	defer enabled.Release()
	email := New("")
	defer email.Release()

	status := Validate(form.When(enabled), email, required)
	defer status.Release()

	if !form.IsValid() {
		t.Error("IsValid() = false with the condition off")
	}
	if !status.Get().IsNone() {
		t.Errorf("status = %v with the condition off, want none", status.Get())
	}

	enabled.Set(true)
	if form.IsValid() {
		t.Error("IsValid() = true with the condition on and an empty field")
	}
	if !status.Get().IsError() {
		t.Errorf("status = %v, want invalid", status.Get())
	}

	enabled.Set(false)
	if !form.IsValid() {
		t.Error("IsValid() = false after turning the condition off")
	}
}

func TestValidationsWhenNot(t *testing.T) {
	form := NewValidations()
	skip := New(true)
	defer skip.Release()
	email := New("")
	defer email.Release()

	status := Validate(form.WhenNot(skip), email, required)
	defer status.Release()

	if !form.IsValid() {
		t.Error("IsValid() = false while skipped")
	}
	skip.Set(false)
	if form.IsValid() {
		t.Error("IsValid() = true once no longer skipped")
	}
}

func TestValidateResult(t *testing.T) {
	form := NewValidations()
	result := New[error](nil)
	defer result.Release()

	status := ValidateResult(form, result)
	defer status.Release()

	if !form.IsValid() {
		t.Error("IsValid() = false with a nil error")
	}
	result.Set(errors.New("port out of range"))
	if got := status.Get(); got.Message("") != "port out of range" {
		t.Errorf("status = %v, want invalid: port out of range", got)
	}
	if form.IsValid() {
		t.Error("IsValid() = true with an error")
	}
}

func TestWhenValid(t *testing.T) {
	form := NewValidations()
	name := New("")
	defer name.Release()
	status := Validate(form, name, required)
	defer status.Release()

	submit := WhenValid(form, func(n int) int { return n * 10 })
	if got := submit(4); got != 0 {
		t.Errorf("submit(4) = %d while invalid, want 0", got)
	}
	name.Set("ok")
	if got := submit(4); got != 40 {
		t.Errorf("submit(4) = %d while valid, want 40", got)
	}
}

func TestValidationAnd(t *testing.T) {
	tests := []struct {
		name string
		a, b Validation
		want Validation
	}{
		{"valid and valid", Valid, Valid, Valid},
		{"invalid wins", Valid, Invalid("bad"), Invalid("bad")},
		{"first invalid wins", Invalid("one"), Invalid("two"), Invalid("one")},
		{"none over valid", Validation{}, Valid, Validation{}},
		{"invalid over none", Validation{}, Invalid("bad"), Invalid("bad")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.And(tt.b); got != tt.want {
				t.Errorf("And() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateWith(t *testing.T) {
	name := New("")
	defer name.Release()
	status := ValidateWith[string](name, required)
	defer status.Release()

	if !status.Get().IsError() {
		t.Errorf("status = %v, want invalid", status.Get())
	}
	name.Set("a")
	if !status.Get().IsValid() {
		t.Errorf("status = %v, want valid", status.Get())
	}
}

func TestValidationsConcurrentWriters(t *testing.T) {
	form := NewValidations()
	const fields = 4
	const writes = 100

	names := make([]*Dynamic[string], fields)
	for i := range names {
		names[i] = New("")
		defer names[i].Release()
		defer Validate(form, names[i], required).Release()
	}
	if form.Invalid() != fields {
		t.Fatalf("Invalid() = %d, want %d", form.Invalid(), fields)
	}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name *Dynamic[string]) {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				name.Set("")
				name.Set(fmt.Sprint("v", i))
			}
		}(name)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			form.Reset()
		}
	}()
	wg.Wait()

	if got := form.Invalid(); got != 0 {
		t.Errorf("Invalid() = %d after every field became non-empty, want 0", got)
	}
	if !form.IsValid() {
		t.Error("IsValid() = false after every field became non-empty")
	}
}
