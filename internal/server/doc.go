// Package server exposes named cells over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness
//	GET  /cells               every cell's current snapshot
//	GET  /cells/{name}        one snapshot
//	PUT  /cells/{name}        store a JSON value
//	GET  /cells/{name}/watch  WebSocket stream of snapshots
//
// Each cell holds a compact JSON document. Watchers follow the cell's view,
// which is debounced when the cell is configured with a debounce period.
package server
