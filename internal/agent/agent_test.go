package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"weather-agent/internal/config"
)

const testFrame = "$,ws=3.3,wd=12,gs=6,gd=12,ws2=2.5,wd2=11,gs10=5,gd10=14," +
	"h=73.4,t=58.5,p=101189.0,r=0.00,dr=0.00,b=3.94,l=1.1,#"

// stationState switches the fake station between failing and serving data,
// and counts the requests it saw.
type stationState struct {
	body atomic.Value // string; "" means respond 503
	hits atomic.Int32
}

func newTestAgent(t *testing.T, state *stationState) *Agent {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state.hits.Add(1)
		body, _ := state.body.Load().(string)
		if body == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	rrdFile := filepath.Join(dir, "weatherData.rrd")
	if err := os.WriteFile(rrdFile, nil, 0o644); err != nil {
		t.Fatalf("seed rrd file: %v", err)
	}

	cfg := &config.Config{}
	cfg.Station.URL = srv.URL
	cfg.Station.PIN = "12345"
	cfg.Station.Mode = "primary"
	cfg.Station.Timeout = time.Second
	cfg.Station.RetryDelay = time.Millisecond
	cfg.Intervals.Poll = 10 * time.Second
	cfg.Intervals.Database = time.Minute
	cfg.Reliability.MaxFailures = 3
	cfg.Reliability.Settle = time.Millisecond
	cfg.Paths.RRDFile = rrdFile
	cfg.Paths.RRDTool = "true" // rrdtool stand-in that always succeeds
	cfg.Paths.ChartsDir = dir
	cfg.Paths.OutputFile = filepath.Join(dir, "weatherData.js")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func outputExists(a *Agent) bool {
	_, err := os.Stat(a.cfg.Paths.OutputFile)
	return err == nil
}

func TestOfflineAfterThresholdThenRecovery(t *testing.T) {
	t.Parallel()
	state := &stationState{}
	a := newTestAgent(t, state)
	ctx := context.Background()

	// Seed the artifact by one good cycle.
	state.body.Store(testFrame)
	a.pollCycle(ctx, time.Now(), false)
	if !outputExists(a) {
		t.Fatal("expected output artifact after a successful cycle")
	}

	// Three failed cycles cross the threshold and remove the artifact.
	state.body.Store("")
	for i := 0; i < 3; i++ {
		if !a.status.Online() {
			t.Fatalf("went offline early, after %d failures", i)
		}
		a.pollCycle(ctx, time.Now(), false)
	}
	if a.status.Online() {
		t.Fatal("expected offline after three failures")
	}
	if outputExists(a) {
		t.Fatal("expected output artifact removed on the offline edge")
	}

	// A single valid frame brings the station back and recreates the artifact.
	state.body.Store(testFrame)
	a.pollCycle(ctx, time.Now(), true)
	if !a.status.Online() {
		t.Fatal("expected online after a successful cycle")
	}
	if a.status.Failures() != 0 {
		t.Fatalf("expected failure count reset, got %d", a.status.Failures())
	}
	if !outputExists(a) {
		t.Fatal("expected output artifact recreated")
	}
}

func TestFailedCycleSkipsPersistence(t *testing.T) {
	t.Parallel()
	state := &stationState{}
	a := newTestAgent(t, state)
	a.db.Tool = "false" // a persistence attempt would be visible as a log'd failure

	// Malformed frame: the cycle fails before persistence.
	state.body.Store("$,ws=3.3,#")
	a.pollCycle(context.Background(), time.Now(), true)
	if a.status.Failures() != 1 {
		t.Fatalf("expected one failed cycle, got %d", a.status.Failures())
	}
	if outputExists(a) {
		t.Fatal("no artifact may be written for a rejected frame")
	}
}

func TestResetCommandRoundTrip(t *testing.T) {
	t.Parallel()
	state := &stationState{}
	a := newTestAgent(t, state)
	ctx := context.Background()

	// Mismatched acknowledgment counts as a failed cycle and stays armed.
	a.reset.arm()
	state.body.Store("busy")
	a.pollCycle(ctx, time.Now(), false)
	if a.reset.Command() == "" {
		t.Fatal("command must stay armed after mismatched acknowledgment")
	}
	if a.status.Failures() != 1 {
		t.Fatalf("expected ack mismatch to count as a failure, got %d", a.status.Failures())
	}

	// Acknowledged reset clears the command; the cycle carries no data.
	state.body.Store("ok")
	a.pollCycle(ctx, time.Now(), false)
	if a.reset.Command() != "" {
		t.Fatalf("command must clear on acknowledgment, got %q", a.reset.Command())
	}
	if outputExists(a) {
		t.Fatal("a reset cycle must not produce an output artifact")
	}
}

// recordingTool writes a shell script that logs the rrdtool subcommand and
// its first argument, one invocation per line.
func recordingTool(t *testing.T) (script, logFile string) {
	t.Helper()
	dir := t.TempDir()
	logFile = filepath.Join(dir, "invocations.log")
	script = filepath.Join(dir, "rrdtool")
	body := "#!/bin/sh\necho \"$1 $2\" >> '" + logFile + "'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write rrdtool stand-in: %v", err)
	}
	return script, logFile
}

func TestRunHonorsActivityCadences(t *testing.T) {
	t.Parallel()
	state := &stationState{}
	state.body.Store(testFrame)
	a := newTestAgent(t, state)

	script, logFile := recordingTool(t)
	a.db.Tool = script
	a.cfg.Intervals.Poll = 50 * time.Millisecond
	a.cfg.Intervals.Database = 200 * time.Millisecond
	a.cfg.Intervals.DayCharts = 300 * time.Millisecond
	a.cfg.Intervals.LongCharts = time.Hour
	a.reset.pollInterval = 0 // keep the midnight reset out of this run

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(1020 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}

	var updates, dayGraphs, longGraphs int
	raw, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read invocation log: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		op, arg, _ := strings.Cut(line, " ")
		switch {
		case op == "update":
			updates++
		case op == "graph" && strings.HasPrefix(filepath.Base(arg), "1d_"):
			dayGraphs++
		case op == "graph":
			longGraphs++
		}
	}
	polls := int(state.hits.Load())

	// Poll ticks every 50ms for a second or so; persistence only every 200ms.
	if polls < 12 {
		t.Fatalf("expected a poll roughly every 50ms, got %d", polls)
	}
	if updates < 2 {
		t.Fatalf("expected a database update roughly every 200ms, got %d", updates)
	}
	if updates >= polls {
		t.Fatalf("database updates must be sparser than polls: %d updates, %d polls", updates, polls)
	}
	// Day charts regenerate in 300ms rounds of five.
	if dayGraphs < 10 {
		t.Fatalf("expected repeated day chart rounds, got %d graphs", dayGraphs)
	}
	// The long tier is an hour out, so only the startup round of 15 runs.
	if longGraphs != 15 {
		t.Fatalf("expected exactly one long chart round of 15, got %d graphs", longGraphs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	state := &stationState{}
	state.body.Store(testFrame)
	a := newTestAgent(t, state)
	a.cfg.Intervals.Poll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
	if outputExists(a) {
		t.Fatal("expected output artifact removed on shutdown")
	}
}
