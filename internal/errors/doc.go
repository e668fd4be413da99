// Package errors provides structured, actionable errors for the gooey CLI.
//
// Each error has a code (e.g., "G101") that maps to a category, a short
// message and a detailed explanation. Errors can wrap an underlying cause
// and carry a suggestion for the user.
//
// # Error Categories
//
//   - config: configuration file errors
//   - serve: HTTP server errors
//   - cell: errors reported by named cells
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("G101").
//	    WithDetail("No gooey.json found in /srv/app").
//	    WithSuggestion("Pass --config or create gooey.json")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// Output:
//	// ERROR G101: Configuration file not found
//	//
//	//   No gooey.json found in /srv/app
//	//
//	//   Hint: Pass --config or create gooey.json
package errors
