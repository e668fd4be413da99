package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/edfloreshz/gooey/internal/errors"
	"github.com/edfloreshz/gooey/pkg/value"
)

// pair is written as a unit; a reader seeing A != B saw a torn write.
type pair struct {
	A, B int
}

// stressCounter counts notifier activity during a stress run.
type stressCounter struct {
	value.NopObserver
	runs       atomic.Int64
	reentrant  atomic.Int64
	superseded atomic.Int64
	deadlocks  atomic.Int64
}

func (c *stressCounter) CallbacksInvoked(value.CellID, int, time.Duration) {
	c.runs.Add(1)
}

func (c *stressCounter) CallbacksSkipped(_ value.CellID, reason value.SkipReason) {
	switch reason {
	case value.SkipReentrant:
		c.reentrant.Add(1)
	case value.SkipSuperseded:
		c.superseded.Add(1)
	}
}

func (c *stressCounter) DeadlockDetected(value.CellID) {
	c.deadlocks.Add(1)
}

// stressOptions are the parameters of a stress run.
type stressOptions struct {
	writers    int
	iterations int
	cells      int
}

// stressReport is the outcome of a stress run.
type stressReport struct {
	writes      int
	generations []value.Generation
	derived     []int
	torn        int64
	runs        int64
	reentrant   int64
	superseded  int64
	deadlocks   int64
	elapsed     time.Duration
}

func stressCmd(a *app) *cobra.Command {
	var opts stressOptions

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent writers against shared cells",
		Long: `Run concurrent writers against shared cells.

Every writer updates each cell through MapMut, setting both halves of a
pair. A derived chain follows every cell, and a callback checks each
observed pair for torn writes. The report lists final generations, the
number of callback runs and how many notifications were coalesced.

Examples:
  gooey stress
  gooey stress --writers 32 --iterations 10000 --cells 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("writers") {
				opts.writers = a.cfg.Stress.Writers
			}
			if !cmd.Flags().Changed("iterations") {
				opts.iterations = a.cfg.Stress.Iterations
			}
			if !cmd.Flags().Changed("cells") {
				opts.cells = a.cfg.Stress.Cells
			}
			if opts.writers <= 0 || opts.iterations <= 0 || opts.cells <= 0 {
				return errors.New("G401").WithDetail("writers, iterations and cells must be positive")
			}

			counter := &stressCounter{}
			a.installObservers(counter)
			defer value.SetObserver(nil)

			report := runStress(opts, counter)
			a.printReport(opts, report)
			if report.torn > 0 {
				return errors.New("G402").WithDetail(fmt.Sprintf("%d torn reads observed", report.torn))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.writers, "writers", "w", 8, "Number of concurrent writers")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 1000, "Writes per writer per cell")
	cmd.Flags().IntVar(&opts.cells, "cells", 4, "Number of shared cells")

	return cmd
}

func runStress(opts stressOptions, counter *stressCounter) stressReport {
	var torn atomic.Int64

	cells := make([]*value.Dynamic[pair], opts.cells)
	sums := make([]*value.Dynamic[int], opts.cells)
	handles := make([]*value.CallbackHandle, 0, opts.cells)
	for i := range cells {
		cells[i] = value.New(pair{})
		handles = append(handles, value.ForEach[pair](cells[i], func(p pair) {
			if p.A != p.B {
				torn.Add(1)
			}
		}))
		doubled := value.MapEach[pair](cells[i], func(p pair) int { return p.A + p.B })
		sums[i] = value.MapEach[int](doubled, func(n int) int { return n / 2 })
		doubled.Release()
	}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < opts.writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < opts.iterations; i++ {
				for _, cell := range cells {
					cell.MapMut(func(m *value.Mutable[pair]) {
						p := m.Ptr()
						p.A++
						p.B++
					})
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	report := stressReport{
		writes:     opts.writers * opts.iterations * opts.cells,
		torn:       torn.Load(),
		runs:       counter.runs.Load(),
		reentrant:  counter.reentrant.Load(),
		superseded: counter.superseded.Load(),
		deadlocks:  counter.deadlocks.Load(),
		elapsed:    elapsed,
	}
	for i, cell := range cells {
		report.generations = append(report.generations, cell.Generation())
		report.derived = append(report.derived, sums[i].Get())
	}

	for _, h := range handles {
		h.Release()
	}
	for i := range cells {
		sums[i].Release()
		cells[i].Release()
	}
	return report
}

func (a *app) printReport(opts stressOptions, r stressReport) {
	a.success("%d writes by %d writers in %s", r.writes, opts.writers, r.elapsed.Round(time.Millisecond))
	for i, g := range r.generations {
		a.info("cell %d: %s, derived %d", i, g, r.derived[i])
	}
	a.info("callback runs:        %d", r.runs)
	a.info("coalesced reentrant:  %d", r.reentrant)
	a.info("coalesced superseded: %d", r.superseded)
	a.info("deadlocks:            %d", r.deadlocks)
	a.info("torn reads:           %d", r.torn)
}
