package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Config errors (G100-G119)

	"G100": {
		Category: CategoryConfig,
		Message:  "Configuration read failed",
		Detail:   "The configuration file exists but could not be read.",
	},
	"G101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"G102": {
		Category: CategoryConfig,
		Message:  "Configuration parse failed",
		Detail:   "The configuration file is not valid JSON or YAML.",
	},
	"G103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"G104": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .yaml or .yml.",
	},
	"G105": {
		Category: CategoryConfig,
		Message:  "Configuration watch failed",
		Detail:   "The configuration file could not be watched for changes.",
	},

	// Serve errors (G200-G219)

	"G200": {
		Category: CategoryServe,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"G201": {
		Category: CategoryServe,
		Message:  "Invalid listen address",
	},

	// Cell errors (G300-G319)

	"G300": {
		Category: CategoryCell,
		Message:  "Cell not found",
		Detail:   "No cell with that name is configured.",
	},
	"G301": {
		Category: CategoryCell,
		Message:  "Cell update rejected",
		Detail:   "The request body could not be decoded into the cell's value.",
	},
	"G302": {
		Category: CategoryCell,
		Message:  "Cell locked",
		Detail:   "The cell could not be accessed because it is locked by the current goroutine.",
	},

	// CLI errors (G400-G419)

	"G400": {
		Category: CategoryCLI,
		Message:  "Unknown demo",
		Detail:   "The requested demo does not exist.",
	},
	"G401": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
	"G402": {
		Category: CategoryCLI,
		Message:  "Stress check failed",
		Detail:   "A concurrent writer observed an inconsistent value.",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
