package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-agent/internal/agent"
)

func main() {
	var opts agent.Options
	var pollSeconds float64
	flag.StringVar(&opts.ConfigPath, "config", "config/config.yaml", "path to YAML config")
	flag.BoolVar(&opts.Debug, "d", false, "enable debug output")
	flag.BoolVar(&opts.Verbose, "v", false, "enable verbose debug output")
	flag.Float64Var(&pollSeconds, "t", 0, "poll interval override in seconds")
	flag.StringVar(&opts.StationURL, "u", "", "station URL override")
	flag.BoolVar(&opts.TestReset, "test-reset", false, "exercise the midnight reset shortly after start")
	flag.Parse()
	opts.PollInterval = time.Duration(pollSeconds * float64(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Printf("received signal: %v, shutting down...", s)
		cancel()
	}()

	if err := agent.InitAndRun(ctx, opts); err != nil {
		log.Fatalf("weather agent: %v", err)
	}
}
