// Package agent runs the weather station polling loop: it schedules the data
// poll, database persistence, and the two chart-regeneration tiers, tracks
// station reachability, and coordinates the daily maintenance reset.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"weather-agent/internal/config"
	"weather-agent/internal/history"
	"weather-agent/internal/metrics"
	"weather-agent/internal/model"
	"weather-agent/internal/output"
	"weather-agent/internal/rrd"
	"weather-agent/internal/sensor"
	"weather-agent/internal/station"
)

// Agent owns all mutable agent state. Only the Run loop mutates the
// reliability tracker, reset coordinator, and output artifact; chart tasks
// read the rrd database independently.
type Agent struct {
	cfg    *config.Config
	client *station.Client
	conv   sensor.Converter
	out    *output.Writer
	db     *rrd.Database
	graph  *rrd.Grapher
	hist   *history.Store
	met    *metrics.Metrics

	status *statusTracker
	reset  *resetCoordinator
	now    func() time.Time

	chartWG sync.WaitGroup
}

// New wires an agent from config. It fails if the rrdtool database backing
// store does not exist; everything after startup is non-fatal.
func New(cfg *config.Config) (*Agent, error) {
	if _, err := os.Stat(cfg.Paths.RRDFile); err != nil {
		return nil, fmt.Errorf("rrdtool database %s does not exist (run createrrd first): %w", cfg.Paths.RRDFile, err)
	}

	db := &rrd.Database{File: cfg.Paths.RRDFile, Tool: cfg.Paths.RRDTool}
	a := &Agent{
		cfg:    cfg,
		client: station.NewClient(cfg.Station.URL, cfg.Station.Timeout, cfg.Station.RetryCount, cfg.Station.RetryDelay),
		conv:   sensor.Converter{Settings: cfg.SensorSettings(), Mode: cfg.Station.Mode},
		out:    &output.Writer{OutputFile: cfg.Paths.OutputFile, ForwardingFile: cfg.Paths.ForwardingFile},
		db:     db,
		graph:  &rrd.Grapher{DB: db, ChartsDir: cfg.Paths.ChartsDir, Width: cfg.Charts.Width, Height: cfg.Charts.Height},
		status: newStatusTracker(cfg.Reliability.MaxFailures),
		reset:  newResetCoordinator(cfg.Station.PIN, cfg.Intervals.Poll, cfg.Reliability.Settle),
		now:    time.Now,
	}

	if cfg.History.Enabled {
		hist, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.hist = hist
	}
	if cfg.Metrics.Enabled {
		a.met = metrics.New()
	}
	return a, nil
}

// Run drives the control loop until ctx is cancelled. Each iteration fires
// whichever activities are due, then sleeps out the remainder of the poll
// interval to hold a steady cadence. Chart generation runs in goroutines
// that log their own failures and never block the next poll.
func (a *Agent) Run(ctx context.Context) error {
	log.Printf("starting up weather agent process")
	if a.met != nil {
		go a.met.Serve(ctx, a.cfg.Metrics.Addr)
	}

	var lastPoll, lastPersist, lastDay, lastLong time.Time
	for ctx.Err() == nil {
		start := a.now()

		if start.Sub(lastPoll) > a.cfg.Intervals.Poll {
			lastPoll = start
			persistDue := start.Sub(lastPersist) > a.cfg.Intervals.Database
			if persistDue {
				lastPersist = start
			}
			a.pollCycle(ctx, start, persistDue)
		}

		if start.Sub(lastDay) > a.cfg.Intervals.DayCharts {
			lastDay = start
			a.spawnCharts(ctx, rrd.DayCharts())
		}
		if start.Sub(lastLong) > a.cfg.Intervals.LongCharts {
			lastLong = start
			a.spawnCharts(ctx, rrd.LongCharts())
		}

		elapsed := a.now().Sub(start)
		if a.cfg.Verbose {
			log.Printf("processing time: %v", elapsed)
		}
		if remaining := a.cfg.Intervals.Poll - elapsed; remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
			}
		}
	}

	a.shutdown()
	return nil
}

// pollCycle runs the full pipeline for one tick: reset check, fetch, parse,
// convert, output write, and (when due) persistence. Any stage failure marks
// the cycle failed and feeds the reliability tracker; nothing raises past
// this method.
func (a *Agent) pollCycle(ctx context.Context, now time.Time, persistDue bool) {
	if a.met != nil {
		a.met.Cycles.Inc()
	}
	a.reset.check(now)
	command := a.reset.Command()

	fetchStart := a.now()
	frame, err := a.client.Fetch(ctx, command)
	if a.met != nil {
		a.met.FetchSeconds.Observe(a.now().Sub(fetchStart).Seconds())
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.cycleFailed(err)
		return
	}

	if command != "" {
		if err := a.reset.acknowledge(ctx, frame); err != nil {
			a.cycleFailed(fmt.Errorf("%w: got %q", err, frame))
			return
		}
		// A reset cycle carries no data frame; resume polling next tick.
		log.Printf("station reset acknowledged")
		return
	}

	fields, err := sensor.ParseFrame(frame)
	if err != nil {
		a.cycleFailed(err)
		return
	}

	reading, err := a.conv.Convert(fields, now)
	if err != nil {
		var fieldErr *sensor.InvalidFieldError
		if errors.As(err, &fieldErr) && fieldErr.DeviceFault && a.cfg.Reliability.ResetOnSensorFault {
			log.Printf("sensor fault on %s, arming station reset", fieldErr.Field)
			a.reset.arm()
		}
		a.cycleFailed(err)
		return
	}

	if err := a.out.WriteLatest(reading); err != nil {
		log.Printf("%v", err)
	}
	if err := a.out.WriteForwarding(frame); err != nil {
		log.Printf("%v", err)
	}

	if persistDue {
		a.persist(ctx, reading)
	}

	if a.status.Success() {
		log.Printf("station online")
	}
	if a.met != nil {
		a.met.Online.Set(1)
	}
	if a.cfg.Debug {
		log.Printf("update successful")
	}
}

func (a *Agent) persist(ctx context.Context, reading model.Reading) {
	sample, err := reading.Sample()
	if err != nil {
		log.Printf("database update error: %v", err)
		return
	}
	if err := a.db.Update(ctx, sample); err != nil {
		log.Printf("%v", err)
		if a.met != nil {
			a.met.PersistErrors.Inc()
		}
		return
	}
	if a.cfg.Debug {
		log.Printf("database update successful")
	}
	if a.hist != nil {
		obs := model.ObservationFrom(sample, reading.LightPct)
		if err := a.hist.Save(ctx, &obs); err != nil {
			log.Printf("history save: %v", err)
		}
	}
}

// cycleFailed logs the failure, feeds the tracker, and fires the offline side
// effects once on the transition edge.
func (a *Agent) cycleFailed(err error) {
	log.Printf("update failed: %v", err)
	if a.met != nil {
		a.met.Failures.Inc()
	}
	if a.status.Failure() {
		log.Printf("station offline")
		a.out.Remove()
		if a.met != nil {
			a.met.Online.Set(0)
		}
	}
}

func (a *Agent) spawnCharts(ctx context.Context, specs []rrd.ChartSpec) {
	a.chartWG.Add(1)
	go func() {
		defer a.chartWG.Done()
		a.graph.RenderAll(ctx, specs)
	}()
}

// shutdown gives in-flight chart tasks a grace period, closes the history
// store, and removes the output artifact so clients see the agent as gone.
func (a *Agent) shutdown() {
	done := make(chan struct{})
	go func() { a.chartWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Printf("timeout waiting for chart tasks to stop")
	}
	if a.hist != nil {
		if err := a.hist.Close(); err != nil {
			log.Printf("close history store: %v", err)
		}
	}
	a.out.Remove()
	log.Printf("terminating weather agent process")
}
