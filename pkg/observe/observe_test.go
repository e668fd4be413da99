package observe

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edfloreshz/gooey/pkg/value"
)

type countingObserver struct {
	value.NopObserver
	mu     sync.Mutex
	events []string
}

func (c *countingObserver) record(name string) {
	c.mu.Lock()
	c.events = append(c.events, name)
	c.mu.Unlock()
}

func (c *countingObserver) CallbacksInvoked(value.CellID, int, time.Duration) {
	c.record("invoked")
}

func (c *countingObserver) DeadlockDetected(value.CellID) {
	c.record("deadlock")
}

func (c *countingObserver) BatchFlushed(int) {
	c.record("flushed")
}

func (c *countingObserver) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestMultiForwardsToAll(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	m := Multi(a, nil, b)

	m.CallbacksInvoked(1, 2, time.Millisecond)
	m.DeadlockDetected(1)
	m.BatchFlushed(3)

	for i, o := range []*countingObserver{a, b} {
		got := strings.Join(o.Events(), ",")
		if got != "invoked,deadlock,flushed" {
			t.Errorf("observer %d: got %q", i, got)
		}
	}
}

func TestMultiSingleUnwraps(t *testing.T) {
	a := &countingObserver{}
	if got := Multi(a); got != value.Observer(a) {
		t.Errorf("Multi with one observer should return it, got %T", got)
	}
}

func TestMultiFlattens(t *testing.T) {
	a, b, c := &countingObserver{}, &countingObserver{}, &countingObserver{}
	m := Multi(Multi(a, b), c)
	if inner, ok := m.(multi); !ok || len(inner) != 3 {
		t.Fatalf("expected flattened fan-out of 3, got %#v", m)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	l.SlowCallbacks = 10 * time.Millisecond

	l.CallbacksInvoked(1, 1, time.Millisecond)
	if buf.Len() != 0 {
		t.Fatalf("fast run should log at debug, got %q", buf.String())
	}

	l.CallbacksInvoked(1, 1, 20*time.Millisecond)
	if !strings.Contains(buf.String(), "callbacks invoked") {
		t.Errorf("slow run should log at info, got %q", buf.String())
	}

	buf.Reset()
	l.CallbackFailed(7, errors.New("boom"))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=boom") || !strings.Contains(out, "cell=7") {
		t.Errorf("unexpected failure log %q", out)
	}
}

func TestLoggerReceivesCoreEvents(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	value.SetObserver(NewLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	defer value.SetObserver(nil)

	d := value.New(0)
	d.ForEach(func(int) {})
	d.Set(1)
	d.Release()

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	if !strings.Contains(out, "callbacks invoked") {
		t.Errorf("expected a callback run to be logged, got %q", out)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
