// Package config provides configuration loading for the gooey CLI.
//
// The configuration is stored in gooey.json, gooey.yaml or gooey.yml.
// This package handles loading, saving, validating and live-reloading it.
//
// # Configuration File Structure
//
//	name: demo
//	log:
//	  level: debug
//	  format: json
//	serve:
//	  addr: ":8080"
//	  metricsPath: /metrics
//	  shutdownTimeout: 5s
//	observe:
//	  metrics: true
//	  tracing: false
//	  signals: false
//	  slowCallbacks: 50ms
//	stress:
//	  writers: 8
//	  iterations: 1000
//	  cells: 4
//	cells:
//	  - name: counter
//	    initial: 0
//	  - name: search
//	    initial: ""
//	    debounce: 250ms
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	live := value.New(*cfg)
//	go config.Watch(ctx, cfg.Path(), live, slog.Default())
package config
