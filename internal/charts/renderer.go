// Package charts renders the static PNG charts and the interactive page of a
// report run from the extracted trajectories and statistics table.
package charts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
)

// Chart file names written by RenderAll.
const (
	TrajectoriesFile    = "trajectories_2d.png"
	DensityFile         = "density_grid.png"
	TotalDistanceFile   = "total_distance.png"
	AverageSpeedFile    = "average_speed.png"
	SpeedVsDistanceFile = "speed_vs_distance.png"
	DurationFile        = "duration.png"
	SpeedEvolutionFile  = "speed_evolution.png"
	DirectionsFile      = "directions.png"
	CorrelationFile     = "metric_correlation.png"
	InteractiveFile     = "interactive.html"
)

// Input is what the charts are drawn from.
type Input struct {
	Title        string
	Trajectories []*kinematics.Trajectory
	Stats        []kinematics.Stats
}

type chartJob struct {
	file  string
	build buildFunc
}

var staticCharts = []chartJob{
	{TrajectoriesFile, buildTrajectories},
	{DensityFile, buildDensity},
	{TotalDistanceFile, buildTotalDistance},
	{AverageSpeedFile, buildAverageSpeed},
	{SpeedVsDistanceFile, buildSpeedVsDistance},
	{DurationFile, buildDuration},
	{SpeedEvolutionFile, buildSpeedEvolution},
	{DirectionsFile, buildDirections},
	{CorrelationFile, buildCorrelation},
}

// Renderer writes charts into one output directory.
type Renderer struct {
	fs        fsutil.FileSystem
	outputDir string
	style     config.ChartStyle
}

// NewRenderer creates a renderer writing to outputDir through fsys.
func NewRenderer(fsys fsutil.FileSystem, outputDir string, style config.ChartStyle) *Renderer {
	if style.Workers < 1 {
		style.Workers = 1
	}
	return &Renderer{fs: fsys, outputDir: outputDir, style: style}
}

// OutputDir returns the directory charts are written to.
func (r *Renderer) OutputDir() string { return r.outputDir }

// RenderAll draws every static chart concurrently and returns the file names
// written, in catalogue order. Charts with nothing to draw are skipped.
// The first failure cancels the charts not yet started.
func (r *Renderer) RenderAll(ctx context.Context, in Input) ([]string, error) {
	if err := r.fs.MkdirAll(r.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart dir: %w", err)
	}

	start := time.Now()
	written := make([]bool, len(staticCharts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.style.Workers)
	for i, job := range staticCharts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := job.build(in, r.style)
			if err != nil {
				return fmt.Errorf("build %s: %w", job.file, err)
			}
			if p == nil {
				monitoring.Logf("chart %s: no data, skipped", job.file)
				return nil
			}
			if err := r.savePNG(p, job.file); err != nil {
				return err
			}
			written[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []string
	for i, ok := range written {
		if ok {
			files = append(files, staticCharts[i].file)
		}
	}
	monitoring.Logf("Rendered %d charts to %s in %v", len(files), r.outputDir, time.Since(start).Round(time.Millisecond))
	return files, nil
}

// savePNG rasterises p at the configured size and resolution.
func (r *Renderer) savePNG(p *plot.Plot, name string) error {
	w := vg.Length(r.style.WidthInches) * vg.Inch
	h := vg.Length(r.style.HeightInches) * vg.Inch
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.style.DPI))
	p.Draw(draw.New(c))

	path := filepath.Join(r.outputDir, name)
	f, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
