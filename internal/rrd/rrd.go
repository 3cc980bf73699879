// Package rrd drives the external rrdtool process that owns the round robin
// time-series database and renders the charts consumed by the web front end.
package rrd

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"weather-agent/internal/model"
)

// PersistError reports a failed rrdtool invocation, carrying the tool's
// combined output as diagnostic text.
type PersistError struct {
	Op     string // update | graph | create
	Output string
	Err    error
}

func (e *PersistError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("rrdtool %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rrdtool %s: %v: %s", e.Op, e.Err, out)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Database wraps one rrdtool database file.
type Database struct {
	File string
	Tool string // rrdtool binary, defaults to "rrdtool"
}

// Data sources stored in the database, in update order.
var dataSources = []string{"windspeedmph", "winddir", "tempf", "rainin", "pressure", "humidity"}

func (d *Database) tool() string {
	if d.Tool == "" {
		return "rrdtool"
	}
	return d.Tool
}

func (d *Database) run(ctx context.Context, op string, args []string) error {
	out, err := exec.CommandContext(ctx, d.tool(), args...).CombinedOutput()
	if err != nil {
		return &PersistError{Op: op, Output: string(out), Err: err}
	}
	return nil
}

// Update writes one sample to the database.
func (d *Database) Update(ctx context.Context, s model.Sample) error {
	return d.run(ctx, "update", updateArgs(d.File, s))
}

func updateArgs(file string, s model.Sample) []string {
	vals := []float64{s.WindSpeedMPH, s.WindDirDeg, s.TempF, s.RainIn, s.Pressure, s.Humidity}
	parts := make([]string, 0, len(vals)+1)
	parts = append(parts, strconv.FormatInt(s.Time.Unix(), 10))
	for _, v := range vals {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return []string{"update", file, strings.Join(parts, ":")}
}

// Archive sizing for Create.
const (
	archiveDays     = 370 // total retention
	yearStepsPerDay = 48  // consolidation rate of the long archive
)

// Create builds the database file with a short high-resolution archive and a
// one-year consolidated archive. step is the expected update cadence.
func (d *Database) Create(ctx context.Context, step time.Duration) error {
	return d.run(ctx, "create", createArgs(d.File, step))
}

func createArgs(file string, step time.Duration) []string {
	stepSec := int(step / time.Second)
	if stepSec <= 0 {
		stepSec = 60
	}
	heartbeat := 2 * stepSec
	yearPDP := int(math.Round(86400.0 / float64(yearStepsPerDay*stepSec)))
	rows48h := 2 * int(math.Round(86400.0/float64(stepSec)))
	rowsYear := yearStepsPerDay * archiveDays

	args := []string{"create", file, "--step", strconv.Itoa(stepSec)}
	for _, ds := range dataSources {
		args = append(args, fmt.Sprintf("DS:%s:GAUGE:%d:U:U", ds, heartbeat))
	}
	args = append(args,
		fmt.Sprintf("RRA:AVERAGE:0.5:1:%d", rows48h),
		fmt.Sprintf("RRA:AVERAGE:0.5:%d:%d", yearPDP, rowsYear),
	)
	return args
}
