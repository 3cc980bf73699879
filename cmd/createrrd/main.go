// Command createrrd creates the rrdtool round robin database the agent
// persists to. The file starts empty; running against an existing file is
// refused so history is never clobbered.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"weather-agent/internal/config"
	"weather-agent/internal/rrd"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if _, err := os.Stat(cfg.Paths.RRDFile); err == nil {
		log.Fatalf("rrdtool database %s already exists", cfg.Paths.RRDFile)
	}

	db := &rrd.Database{File: cfg.Paths.RRDFile, Tool: cfg.Paths.RRDTool}
	if err := db.Create(context.Background(), cfg.Intervals.Database); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("created rrdtool database %s", cfg.Paths.RRDFile)
}
