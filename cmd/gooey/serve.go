package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/edfloreshz/gooey/internal/config"
	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/internal/server"
	"github.com/edfloreshz/gooey/pkg/value"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve named cells over HTTP",
		Long: `Serve the configured cells over HTTP and WebSocket.

Routes:
  GET  /cells               all cells
  GET  /cells/{name}        one cell
  PUT  /cells/{name}        store a JSON value
  GET  /cells/{name}/watch  WebSocket stream of updates
  GET  /metrics             Prometheus metrics (when observe.metrics is set)

The configuration file is watched; log level changes apply immediately.

Examples:
  gooey serve --config gooey.yaml
  gooey serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Serve.Addr = addr
			}
			return a.runServe(cmd.Context(), nil)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

// runServe serves until ctx is done or a termination signal arrives. ready,
// if set, is called with the bound address before serving starts.
func (a *app) runServe(ctx context.Context, ready func(net.Addr)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := a.installObservers()
	defer value.SetObserver(nil)

	var opts []server.Option
	opts = append(opts, server.WithLogger(a.log))
	if reg != nil {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithMetrics(a.cfg.Serve.MetricsPath,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}

	srv, err := server.New(a.cfg.Cells, opts...)
	if err != nil {
		return err
	}

	// Follow the configuration file so the log level can change live.
	live := value.New(*a.cfg)
	defer live.Release()
	levels := value.MapEach[config.Config](live, func(c config.Config) string { return c.Log.Level })
	defer levels.Release()
	levelHandle := levels.ForEach(func(level string) {
		cfg := config.Config{Log: config.LogConfig{Level: level}}
		if l, err := cfg.LogLevel(); err == nil {
			a.level.Set(l)
			a.log.Info("log level changed", "level", l)
		}
	})
	defer levelHandle.Release()
	if path := a.cfg.Path(); path != "" {
		go func() {
			if err := config.Watch(ctx, path, live, a.log); err != nil {
				a.log.Warn("config watch stopped", "error", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", a.cfg.Serve.Addr)
	if err != nil {
		srv.Close(context.Background())
		return errors.New("G201").WithDetail(a.cfg.Serve.Addr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info("serving cells", "addr", listener.Addr().String(), "cells", len(a.cfg.Cells))
	if ready != nil {
		ready(listener.Addr())
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		srv.Close(context.Background())
		return errors.New("G200").Wrap(err)
	case <-ctx.Done():
	}

	timeout, _ := a.cfg.ShutdownTimeout()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Releasing the cells ends open watches before the HTTP server waits on
	// its connections.
	if err := srv.Close(shutdownCtx); err != nil {
		a.log.Warn("watchers did not finish", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.New("G200").Wrap(err)
	}
	a.log.Info("server stopped")
	return nil
}
