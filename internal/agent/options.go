package agent

import (
	"context"
	"time"

	"weather-agent/internal/config"
)

// Options defines initialization overrides for the agent.
// Mirrors the CLI flags used in cmd/weatheragent/main.go.
type Options struct {
	ConfigPath   string
	Debug        bool
	Verbose      bool
	PollInterval time.Duration // overrides intervals.poll when > 0
	StationURL   string        // overrides station.url when set
	TestReset    bool          // force a midnight reset window shortly after start
}

// InitAndRun loads config, applies overrides, constructs the agent and runs it.
func InitAndRun(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	cfg.Debug = opts.Debug || opts.Verbose
	cfg.Verbose = opts.Verbose
	if opts.PollInterval > 0 {
		cfg.Intervals.Poll = opts.PollInterval
	}
	if opts.StationURL != "" {
		cfg.Station.URL = opts.StationURL
	}

	a, err := New(cfg)
	if err != nil {
		return err
	}
	if opts.TestReset {
		// Open a fake midnight window 30 seconds from now.
		now := time.Now()
		a.reset.testOffset = 30*time.Second +
			time.Duration(now.Hour())*time.Hour +
			time.Duration(now.Minute())*time.Minute +
			time.Duration(now.Second())*time.Second
	}
	return a.Run(ctx)
}
