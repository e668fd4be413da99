package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edfloreshz/gooey/internal/errors"
)

const testConfig = `log:
  level: error
observe:
  metrics: true
stress:
  writers: 2
  iterations: 10
  cells: 1
cells:
  - name: counter
    initial: 0
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gooey.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q", out)
	}

	out, err = run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version output missing Go version:\n%s", out)
	}
}

func TestMissingConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out, io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "gooey.json"), "version"})
	if err := cmd.Execute(); !errors.HasCode(err, "G101") {
		t.Errorf("error = %v, want G101", err)
	}
}

func TestLogLevelOverride(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	if !errors.HasCode(err, "G103") {
		t.Errorf("error = %v, want G103", err)
	}
}

func TestDemoCounter(t *testing.T) {
	out, err := run(t, "demo", "counter", "+", "+", "-")
	if err != nil {
		t.Fatal(err)
	}
	want := "count: 0\ncount: 1\ncount: 2\ncount: 1\n"
	if out != want {
		t.Errorf("counter demo = %q, want %q", out, want)
	}
}

func TestDemoCounterBadOp(t *testing.T) {
	_, err := run(t, "demo", "counter", "*")
	if !errors.HasCode(err, "G401") {
		t.Errorf("error = %v, want G401", err)
	}
}

func TestDemoValidation(t *testing.T) {
	out, err := run(t, "demo", "validation")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"field: This field cannot be empty",
		`rejected ""`,
		"field: This field must have at least one non-whitespace character",
		`submitted "gooey"`,
		"reset",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("validation demo missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `submitted ""`) {
		t.Errorf("empty input was submitted:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; last != "field: * required" {
		t.Errorf("after reset got %q, want the hint", last)
	}
}

func TestDemoLinked(t *testing.T) {
	out, err := run(t, "demo", "linked")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`port=8080 text="8080"`,
		`set "9090": port=9090 text="9090"`,
		`set "nope": port=9090 text="nope"`,
		`set "7070": port=7070 text="7070"`,
		`port+1: port=7071 text="7071"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("linked demo missing %q:\n%s", want, out)
		}
	}
}

func TestDemoUnknown(t *testing.T) {
	_, err := run(t, "demo", "spinner")
	if !errors.HasCode(err, "G400") {
		t.Errorf("error = %v, want G400", err)
	}
}

func TestStress(t *testing.T) {
	out, err := run(t, "stress", "--writers", "4", "--iterations", "50", "--cells", "2")
	if err != nil {
		t.Fatalf("stress: %v\n%s", err, out)
	}
	for _, want := range []string{"400 writes by 4 writers", "cell 0: gen#200", "cell 1: gen#200", "torn reads:           0"} {
		if !strings.Contains(out, want) {
			t.Errorf("stress output missing %q:\n%s", want, out)
		}
	}
}

func TestStressUsesConfigDefaults(t *testing.T) {
	out, err := run(t, "stress")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "20 writes by 2 writers") {
		t.Errorf("stress did not use config defaults:\n%s", out)
	}
}

func TestStressRejectsZero(t *testing.T) {
	_, err := run(t, "stress", "--writers", "0")
	if !errors.HasCode(err, "G401") {
		t.Errorf("error = %v, want G401", err)
	}
}

func TestServe(t *testing.T) {
	a := &app{configPath: writeConfig(t), out: io.Discard, errOut: io.Discard, level: new(slog.LevelVar)}
	if err := a.setup(); err != nil {
		t.Fatal(err)
	}
	a.cfg.Serve.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- a.runServe(ctx, func(addr net.Addr) { addrs <- addr })
	}()

	var base string
	select {
	case addr := <-addrs:
		base = "http://" + addr.String()
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d %s", path, resp.StatusCode, body)
		}
		return string(body)
	}

	if body := get("/cells/counter"); !strings.Contains(body, `"value":0`) {
		t.Errorf("counter = %s", body)
	}
	if body := get("/metrics"); !strings.Contains(body, "gooey_value_callback_runs_total") {
		t.Errorf("metrics missing value counters:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
