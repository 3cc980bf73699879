package rrd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
)

// Trend modes for a chart's plotted series.
const (
	TrendNone     = 0 // data only
	TrendOnly     = 1 // moving-average trend line only
	TrendWithData = 2 // data plus trend line
)

// ChartSpec describes one rendered chart.
type ChartSpec struct {
	Name      string // output file name without extension
	Series    string // data source to plot
	Label     string // vertical axis label
	Title     string
	Start     string // rrdtool time spec, e.g. now-1d or end-3months
	Lower     float64
	Upper     float64 // bounds used when Lower < Upper, else autoscale flag applies
	Trend     int
	AutoScale bool
}

// Grapher renders chart PNGs from the database into ChartsDir.
type Grapher struct {
	DB        *Database
	ChartsDir string
	Width     int
	Height    int
}

// Render generates a single chart.
func (g *Grapher) Render(ctx context.Context, spec ChartSpec) error {
	return g.DB.run(ctx, "graph", g.graphArgs(spec))
}

// RenderAll generates each chart in turn, logging failures itself so callers
// can dispatch it without observing per-chart errors.
func (g *Grapher) RenderAll(ctx context.Context, specs []ChartSpec) {
	for _, spec := range specs {
		if ctx.Err() != nil {
			return
		}
		if err := g.Render(ctx, spec); err != nil {
			log.Printf("chart %s: %v", spec.Name, err)
		}
	}
}

func (g *Grapher) graphArgs(spec ChartSpec) []string {
	path := filepath.Join(g.ChartsDir, spec.Name+".png")
	args := []string{
		"graph", path,
		"-a", "PNG",
		"-s", spec.Start,
		"-e", "now",
		"-w", strconv.Itoa(g.Width),
		"-h", strconv.Itoa(g.Height),
	}

	if spec.Lower < spec.Upper {
		args = append(args,
			"-l", strconv.FormatFloat(spec.Lower, 'g', -1, 64),
			"-u", strconv.FormatFloat(spec.Upper, 'g', -1, 64),
			"-r")
	} else if spec.AutoScale {
		args = append(args, "-A")
	}
	args = append(args, "-Y", "-v", spec.Label, "-t", spec.Title)

	args = append(args, fmt.Sprintf("DEF:dSeries=%s:%s:AVERAGE", g.DB.File, spec.Series))
	switch spec.Trend {
	case TrendOnly:
		args = append(args,
			"CDEF:smoothed=dSeries,86400,TREND",
			"LINE2:smoothed#0400ff")
	case TrendWithData:
		args = append(args,
			"LINE1:dSeries#0400ff",
			"CDEF:smoothed=dSeries,86400,TREND",
			"LINE2:smoothed#0400ff")
	default:
		args = append(args, "LINE2:dSeries#0400ff")
	}

	if spec.Series == "windspeedmph" {
		args = append(args, g.windDirectionOverlay()...)
	}
	return args
}

// windDirectionOverlay adds the color-coded wind direction bands to the
// sustained wind chart.
func (g *Grapher) windDirectionOverlay() []string {
	args := []string{
		fmt.Sprintf("DEF:wDir=%s:winddir:AVERAGE", g.DB.File),
		"VDEF:wMax=dSeries,MAXIMUM",
		"CDEF:wMaxScaled=dSeries,0,*,wMax,+,-0.15,*",
		"CDEF:ndir=wDir,337.5,GE,wDir,22.5,LE,+,wMaxScaled,0,IF",
		"CDEF:nedir=wDir,22.5,GT,wDir,67.5,LT,*,wMaxScaled,0,IF",
		"CDEF:edir=wDir,67.5,GE,wDir,112.5,LE,*,wMaxScaled,0,IF",
		"CDEF:sedir=wDir,112.5,GT,wDir,157.5,LT,*,wMaxScaled,0,IF",
		"CDEF:sdir=wDir,157.5,GE,wDir,202.5,LE,*,wMaxScaled,0,IF",
		"CDEF:swdir=wDir,202.5,GT,wDir,247.5,LT,*,wMaxScaled,0,IF",
		"CDEF:wdir=wDir,247.5,GE,wDir,292.5,LE,*,wMaxScaled,0,IF",
		"CDEF:nwdir=wDir,292.5,GT,wDir,337.5,LT,*,wMaxScaled,0,IF",
		"AREA:ndir#0000FF:N",
		"AREA:nedir#1E90FF:NE",
		"AREA:edir#00FFFF:E",
		"AREA:sedir#00FF00:SE",
		"AREA:sdir#FFFF00:S",
		"AREA:swdir#FF8C00:SW",
		"AREA:wdir#FF0000:W",
		"AREA:nwdir#FF00FF:NW",
	}
	return args
}

// DayCharts returns the 24-hour chart set.
func DayCharts() []ChartSpec {
	return []ChartSpec{
		{Name: "1d_windspeedmph", Series: "windspeedmph", Label: "miles per hour", Title: "Sustained Wind", Start: "now-1d", AutoScale: true},
		{Name: "1d_tempf", Series: "tempf", Label: "degrees Fahrenheit", Title: "Temperature", Start: "now-1d", AutoScale: true},
		{Name: "1d_pressure", Series: "pressure", Label: "inches Hg", Title: "Barometric Pressure", Start: "now-1d", AutoScale: true},
		{Name: "1d_humidity", Series: "humidity", Label: "percent", Title: "Relative Humidity", Start: "now-1d", AutoScale: true},
		{Name: "1d_rainin", Series: "rainin", Label: "inches", Title: "Rain Fall", Start: "now-1d"},
	}
}

// LongCharts returns the 10-day, 3-month, and 12-month chart sets.
func LongCharts() []ChartSpec {
	specs := []ChartSpec{
		{Name: "10d_windspeedmph", Series: "windspeedmph", Label: "miles per hour", Title: "Sustained Wind", Start: "end-10days", AutoScale: true},
		{Name: "10d_tempf", Series: "tempf", Label: "degrees Fahrenheit", Title: "Temperature", Start: "end-10days", AutoScale: true},
		{Name: "10d_pressure", Series: "pressure", Label: "inches Hg", Title: "Barometric Pressure", Start: "end-10days", AutoScale: true},
		{Name: "10d_humidity", Series: "humidity", Label: "percent", Title: "Relative Humidity", Start: "end-10days", AutoScale: true},
		{Name: "10d_rainin", Series: "rainin", Label: "inches", Title: "Rain Fall", Start: "end-10days"},

		{Name: "3m_windspeedmph", Series: "windspeedmph", Label: "miles per hour", Title: "Sustained Wind", Start: "end-3months", Trend: TrendWithData, AutoScale: true},
		{Name: "3m_tempf", Series: "tempf", Label: "degrees Fahrenheit", Title: "Temperature", Start: "end-3months", Trend: TrendWithData, AutoScale: true},
		{Name: "3m_pressure", Series: "pressure", Label: "inches Hg", Title: "Barometric Pressure", Start: "end-3months", Trend: TrendWithData, AutoScale: true},
		{Name: "3m_humidity", Series: "humidity", Label: "percent", Title: "Relative Humidity", Start: "end-3months", Trend: TrendWithData, AutoScale: true},
		{Name: "3m_rainin", Series: "rainin", Label: "inches", Title: "Rain Fall", Start: "end-3months"},

		{Name: "12m_windspeedmph", Series: "windspeedmph", Label: "miles per hour", Title: "Sustained Wind", Start: "end-12months", Trend: TrendOnly, AutoScale: true},
		{Name: "12m_tempf", Series: "tempf", Label: "degrees Fahrenheit", Title: "Temperature", Start: "end-12months", Trend: TrendOnly, AutoScale: true},
		{Name: "12m_pressure", Series: "pressure", Label: "inches Hg", Title: "Barometric Pressure", Start: "end-12months", Trend: TrendOnly, AutoScale: true},
		{Name: "12m_humidity", Series: "humidity", Label: "percent", Title: "Relative Humidity", Start: "end-12months", Trend: TrendOnly, AutoScale: true},
		{Name: "12m_rainin", Series: "rainin", Label: "inches", Title: "Rain Fall", Start: "end-12months"},
	}
	return specs
}
