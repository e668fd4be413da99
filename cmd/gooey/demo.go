package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/value"
)

var demos = map[string]func(w io.Writer, args []string) error{
	"counter":    counterDemo,
	"validation": validationDemo,
	"linked":     linkedDemo,
}

func demoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo <counter|validation|linked> [inputs...]",
		Short: "Run a headless example",
		Long: `Run a headless example of the value core.

  counter     apply + and - operations to a counter and print its label
  validation  feed inputs to a required field and submit after each
  linked      write strings to a port number linked to its text form

Examples:
  gooey demo counter + + -
  gooey demo validation "" "  " gooey
  gooey demo linked 9090 nope 7070`,
		ValidArgs: []string{"counter", "validation", "linked"},
		Args:      cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := demos[args[0]]
			if !ok {
				return errors.New("G400").
					WithDetail(fmt.Sprintf("No demo named %q", args[0])).
					WithSuggestion("Use counter, validation or linked")
			}
			a.installObservers()
			defer value.SetObserver(nil)
			return run(a.out, args[1:])
		},
	}
	return cmd
}

// counterDemo prints a label derived from a counter as + and - are applied.
func counterDemo(w io.Writer, ops []string) error {
	if len(ops) == 0 {
		ops = []string{"+", "+", "-"}
	}

	counter := value.New(0)
	defer counter.Release()
	label := value.MapEach[int](counter, func(n int) string {
		return fmt.Sprintf("count: %d", n)
	})
	defer label.Release()

	fmt.Fprintln(w, label.Get())
	printer := label.ForEach(func(s string) {
		fmt.Fprintln(w, s)
	})
	defer printer.Release()

	for _, op := range ops {
		guard := counter.Lock()
		switch op {
		case "+":
			guard.Update(func(n int) int { return n + 1 })
		case "-":
			guard.Update(func(n int) int { return n - 1 })
		default:
			guard.Unlock()
			return errors.New("G401").WithDetail(fmt.Sprintf("counter operation %q is not + or -", op))
		}
		guard.Unlock()
	}
	return nil
}

func validateInput(input string) error {
	if input == "" {
		return stderrors.New("This field cannot be empty")
	}
	if strings.TrimSpace(input) == "" {
		return stderrors.New("This field must have at least one non-whitespace character")
	}
	return nil
}

// validationDemo sets each input on a required field, printing the field's
// validation and submitting after every input. It finishes with a reset.
func validationDemo(w io.Writer, inputs []string) error {
	if len(inputs) == 0 {
		inputs = []string{"", "  ", "gooey"}
	}

	text := value.New("")
	defer text.Release()
	validations := value.NewValidations()
	status := value.Validate(validations, text, validateInput)
	defer status.Release()

	show := func(v value.Validation) {
		fmt.Fprintf(w, "field: %s\n", v.Message("* required"))
	}
	printer := status.ForEach(show)
	defer printer.Release()

	submit := value.WhenValid(validations, func(input string) bool {
		fmt.Fprintf(w, "submitted %q\n", input)
		return true
	})

	show(status.Get())
	for _, input := range inputs {
		text.Set(input)
		if !submit(input) {
			fmt.Fprintf(w, "rejected %q (%d invalid)\n", input, validations.Invalid())
		}
	}

	text.Take()
	validations.Reset()
	fmt.Fprintln(w, "reset")
	show(status.Get())
	return nil
}

// linkedDemo writes each input to a string cell linked to a port number.
func linkedDemo(w io.Writer, inputs []string) error {
	if len(inputs) == 0 {
		inputs = []string{"9090", "nope", "7070"}
	}

	port := value.New(8080)
	defer port.Release()
	text := value.LinkedString(port, strconv.Atoi)
	defer text.Release()

	fmt.Fprintf(w, "port=%d text=%q\n", port.Get(), text.Get())
	for _, input := range inputs {
		text.Set(input)
		fmt.Fprintf(w, "set %q: port=%d text=%q\n", input, port.Get(), text.Get())
	}
	port.Set(port.Get() + 1)
	fmt.Fprintf(w, "port+1: port=%d text=%q\n", port.Get(), text.Get())
	return nil
}
