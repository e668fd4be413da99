package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"sort"

	"github.com/edfloreshz/gooey/internal/config"
	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/value"
)

// Snapshot is the wire form of a cell's value.
type Snapshot struct {
	Name       string          `json:"name"`
	Value      json.RawMessage `json:"value"`
	Generation uint64          `json:"generation"`
}

// Cell is a named JSON cell.
type Cell struct {
	name string
	data *value.Dynamic[string]

	// view is what watchers follow: data itself or a debounced copy.
	view *value.Dynamic[string]
}

func newCell(cc config.CellConfig, scheduler value.Scheduler) (*Cell, error) {
	initial, err := cc.InitialJSON()
	if err != nil {
		return nil, err
	}
	period, err := cc.DebounceDuration()
	if err != nil {
		return nil, err
	}

	c := &Cell{name: cc.Name, data: value.New(initial)}
	if period > 0 {
		var opts []value.DebounceOption
		if scheduler != nil {
			opts = append(opts, value.WithScheduler(scheduler))
		}
		c.view = value.DebouncedWithDelay(c.data, period, opts...)
	} else {
		c.view = c.data.Clone()
	}
	return c, nil
}

// Name returns the cell's name.
func (c *Cell) Name() string {
	return c.name
}

// Snapshot returns the cell's current value.
func (c *Cell) Snapshot() Snapshot {
	g := value.GetGenerational[string](c.data)
	return Snapshot{Name: c.name, Value: json.RawMessage(g.Value), Generation: uint64(g.Generation())}
}

// Store compacts raw and stores it. changed is false if the cell already
// held an equal document.
func (c *Cell) Store(raw []byte) (snap Snapshot, changed bool, err error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Snapshot{}, false, errors.New("G301").Wrap(err)
	}
	_, err = c.data.TryReplace(buf.String())
	switch {
	case err == nil:
		changed = true
	case stderrors.Is(err, value.ErrNoChange):
	default:
		return Snapshot{}, false, errors.New("G302").Wrap(err)
	}
	return c.Snapshot(), changed, nil
}

// Watch returns a reader following the cell's view. The caller releases it.
func (c *Cell) Watch() *value.DynamicReader[string] {
	return c.view.CreateReader()
}

func (c *Cell) release() {
	c.view.Release()
	c.data.Release()
}

// registry holds cells by name.
type registry struct {
	cells map[string]*Cell
	names []string
}

func newRegistry(configs []config.CellConfig, scheduler value.Scheduler) (*registry, error) {
	r := &registry{cells: make(map[string]*Cell, len(configs))}
	for _, cc := range configs {
		if _, dup := r.cells[cc.Name]; dup {
			r.release()
			return nil, errors.New("G103").WithDetail("cell " + cc.Name + " is declared twice")
		}
		c, err := newCell(cc, scheduler)
		if err != nil {
			r.release()
			return nil, err
		}
		r.cells[cc.Name] = c
		r.names = append(r.names, cc.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

func (r *registry) get(name string) (*Cell, error) {
	c, ok := r.cells[name]
	if !ok {
		return nil, errors.New("G300").WithDetail("No cell named " + name)
	}
	return c, nil
}

func (r *registry) snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.cells[name].Snapshot())
	}
	return out
}

func (r *registry) release() {
	for _, c := range r.cells {
		c.release()
	}
}

