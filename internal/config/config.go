package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edfloreshz/gooey/internal/errors"
)

const (
	// DefaultAddr is the default listen address for gooey serve.
	DefaultAddr = ":8080"

	// DefaultMetricsPath is the default Prometheus endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultShutdownTimeout is the default graceful shutdown timeout.
	DefaultShutdownTimeout = "5s"
)

// FileNames lists the configuration file names Load looks for, in order.
var FileNames = []string{"gooey.json", "gooey.yaml", "gooey.yml"}

// Config represents the complete gooey configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Serve contains HTTP server configuration.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// Observe selects the value observers to install.
	Observe ObserveConfig `json:"observe,omitempty" yaml:"observe,omitempty"`

	// Stress contains defaults for gooey stress.
	Stress StressConfig `json:"stress,omitempty" yaml:"stress,omitempty"`

	// Cells are the named cells exposed by gooey serve.
	Cells []CellConfig `json:"cells,omitempty" yaml:"cells,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error (default: info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json (default: text).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServeConfig contains HTTP server settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// MetricsPath is the path of the Prometheus endpoint. Empty disables it
	// only when Observe.Metrics is false.
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "5s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// ObserveConfig selects observers.
type ObserveConfig struct {
	// Metrics enables Prometheus metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing enables OpenTelemetry spans.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Signals enables capitan signals.
	Signals bool `json:"signals,omitempty" yaml:"signals,omitempty"`

	// SlowCallbacks promotes callback runs slower than this to Info logs.
	SlowCallbacks string `json:"slowCallbacks,omitempty" yaml:"slowCallbacks,omitempty"`
}

// StressConfig contains defaults for the stress command.
type StressConfig struct {
	Writers    int `json:"writers,omitempty" yaml:"writers,omitempty"`
	Iterations int `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Cells      int `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// CellConfig declares a named cell.
type CellConfig struct {
	// Name is the cell's URL name.
	Name string `json:"name" yaml:"name"`

	// Initial is the initial value. Any JSON value is accepted.
	Initial any `json:"initial" yaml:"initial"`

	// Debounce delays watcher updates (e.g., "250ms"). Empty disables it.
	Debounce string `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory, trying each of
// FileNames in order.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("G101").
		WithDetail("No gooey.json or gooey.yaml found in " + dir).
		WithSuggestion("Pass --config or create gooey.yaml")
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("G101").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Check the --config path")
		}
		return nil, errors.New("G100").Wrap(err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the format implied by path's extension, applies
// defaults and validates the result.
func Parse(path string, data []byte) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("G102").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("G102").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
		cfg.normalizeYAML()
	default:
		return nil, errors.New("G104").WithDetail("Unsupported file " + path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, in the format
// implied by its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("G104").WithDetail("Unsupported file " + path)
	}
	if err != nil {
		return errors.New("G100").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("G100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "gooey"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = DefaultMetricsPath
	}
	if c.Serve.ShutdownTimeout == "" {
		c.Serve.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Stress.Writers == 0 {
		c.Stress.Writers = 8
	}
	if c.Stress.Iterations == 0 {
		c.Stress.Iterations = 1000
	}
	if c.Stress.Cells == 0 {
		c.Stress.Cells = 4
	}
}

// normalizeYAML converts YAML-decoded initial values into the shapes
// encoding/json produces, so both formats yield equal configs.
func (c *Config) normalizeYAML() {
	for i := range c.Cells {
		c.Cells[i].Initial = normalize(c.Cells[i].Initial)
	}
}

func normalize(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	default:
		return v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("G103").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.SlowCallbacks(); err != nil {
		return err
	}
	if c.Stress.Writers < 0 || c.Stress.Iterations < 0 || c.Stress.Cells < 0 {
		return errors.New("G103").WithDetail("stress values must not be negative")
	}

	seen := make(map[string]bool, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Name == "" {
			return errors.New("G103").WithDetail("every cell needs a name")
		}
		if strings.ContainsAny(cell.Name, "/ ") {
			return errors.New("G103").
				WithDetail(fmt.Sprintf("cell name %q must not contain '/' or spaces", cell.Name))
		}
		if seen[cell.Name] {
			return errors.New("G103").
				WithDetail(fmt.Sprintf("cell %q is declared twice", cell.Name))
		}
		seen[cell.Name] = true
		if _, err := cell.DebounceDuration(); err != nil {
			return err
		}
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("G103").
			WithDetail(fmt.Sprintf("log.level %q is not a level", c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	return level, nil
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return parseDuration("serve.shutdownTimeout", c.Serve.ShutdownTimeout)
}

// SlowCallbacks returns the parsed slow callback threshold. Zero if unset.
func (c *Config) SlowCallbacks() (time.Duration, error) {
	return parseDuration("observe.slowCallbacks", c.Observe.SlowCallbacks)
}

// Cell returns the cell named name.
func (c *Config) Cell(name string) (CellConfig, bool) {
	for _, cell := range c.Cells {
		if cell.Name == name {
			return cell, true
		}
	}
	return CellConfig{}, false
}

// DebounceDuration returns the parsed debounce period. Zero if unset.
func (cc CellConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("cells."+cc.Name+".debounce", cc.Debounce)
}

// InitialJSON returns the initial value encoded as JSON. A missing initial
// value encodes as null.
func (cc CellConfig) InitialJSON() (string, error) {
	data, err := json.Marshal(cc.Initial)
	if err != nil {
		return "", errors.New("G103").
			WithDetail("cells." + cc.Name + ".initial is not JSON-encodable").
			Wrap(err)
	}
	return string(data), nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("G103").
			WithDetail(fmt.Sprintf("%s %q is not a duration", field, s)).
			WithSuggestion(`Use a Go duration such as "250ms" or "5s"`)
	}
	return d, nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a configuration file, or an error if
// none is found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("G101").
				WithDetail("No configuration found in " + startDir + " or any parent directory").
				WithSuggestion("Pass --config or create gooey.yaml")
		}
		dir = parent
	}
}
