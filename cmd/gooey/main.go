package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/edfloreshz/gooey/internal/config"
	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/observe"
	"github.com/edfloreshz/gooey/pkg/value"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌─┐┌─┐┬ ┬
  │ ┬│ ││ │├┤ └┬┘
  └─┘└─┘└─┘└─┘ ┴
`

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg   *config.Config
	level *slog.LevelVar
	log   *slog.Logger

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, level: new(slog.LevelVar)}

	rootCmd := &cobra.Command{
		Use:   "gooey",
		Short: "Reactive values for Go",
		Long: `gooey drives the reactive value core from the command line.

  • stress: hammer cells with concurrent writers and derived chains
  • demo:   run the counter, validation and linked examples
  • serve:  expose named cells over HTTP and WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to gooey.json or gooey.yaml")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		stressCmd(a),
		demoCmd(a),
		serveCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and installs the logger.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level, _ := cfg.LogLevel()
	a.level.Set(level)
	opts := &slog.HandlerOptions{Level: a.level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(a.errOut, opts)
	} else {
		handler = slog.NewTextHandler(a.errOut, opts)
	}
	a.log = slog.New(handler)
	value.SetLogger(a.log)
	return nil
}

// loadConfig reads --config, or the nearest configuration file, or falls
// back to defaults.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}
	root, err := config.FindProjectRoot(".")
	if err != nil {
		if errors.HasCode(err, "G101") {
			return config.New(), nil
		}
		return nil, err
	}
	return config.Load(root)
}

// installObservers sets the value observer from the configuration. extra
// observers are added to the fan-out. It returns the Prometheus registry the
// metrics were registered with, or nil.
func (a *app) installObservers(extra ...value.Observer) *prometheus.Registry {
	logObserver := observe.NewLogger(a.log)
	logObserver.SlowCallbacks, _ = a.cfg.SlowCallbacks()

	observers := append([]value.Observer{logObserver}, extra...)
	var reg *prometheus.Registry
	if a.cfg.Observe.Metrics {
		reg = prometheus.NewRegistry()
		observers = append(observers, observe.NewMetrics(observe.WithRegistry(reg)))
	}
	if a.cfg.Observe.Tracing {
		observers = append(observers, observe.NewTracer())
	}
	if a.cfg.Observe.Signals {
		observers = append(observers, observe.NewSignals(context.Background()))
	}
	value.SetObserver(observe.Multi(observers...))
	return reg
}

// printBanner prints the gooey banner.
func (a *app) printBanner() {
	fmt.Fprint(a.out, banner)
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.out, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func (a *app) info(format string, args ...any) {
	fmt.Fprintf(a.out, "  %s\n", fmt.Sprintf(format, args...))
}
