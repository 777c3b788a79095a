// Command trajectory-report turns a merged tracking document into a
// statistics table, charts and an HTML report, and optionally records the
// run in SQLite and serves the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/trajectory.report/internal/api"
	"github.com/banshee-data/trajectory.report/internal/charts"
	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/report"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
	"github.com/banshee-data/trajectory.report/internal/tracking"
	"github.com/banshee-data/trajectory.report/internal/version"
)

// Config holds the command line settings of one run.
type Config struct {
	DataFile       string
	OutputDir      string
	VizDir         string // default: <output>/visualizations
	ConfigFile     string
	Title          string
	Workers        int
	CodeFiles      stringList
	AnimationFiles stringList
	DBPath         string
	Listen         string
	NoInteractive  bool
	ShowVersion    bool
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Result describes what a run produced.
type Result struct {
	DataFile      string
	RunID         string
	TotalFrames   int
	TotalEntities int
	Stats         []kinematics.Stats
	Charts        []string
	Interactive   string
	VizDir        string
	StatsFile     string
	SummaryFile   string
	ReportFile    string
	Elapsed       time.Duration
}

func main() {
	cfg := parseFlags(flag.CommandLine, os.Args[1:])

	if cfg.ShowVersion {
		fmt.Println("trajectory-report", version.String())
		return
	}
	if cfg.DataFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -data is required")
		flag.CommandLine.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *db.DB
	if cfg.DBPath != "" {
		var err error
		store, err = db.NewDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open results database: %v", err)
		}
		defer store.Close()
	}

	result, err := run(ctx, cfg, fsutil.OSFileSystem{}, timeutil.RealClock{}, store)
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}
	printSummary(os.Stdout, result)

	if cfg.Listen != "" {
		if err := serve(ctx, cfg.Listen, cfg.OutputDir, store); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

func parseFlags(fs *flag.FlagSet, args []string) Config {
	cfg := Config{}

	fs.StringVar(&cfg.DataFile, "data", "", "Merged tracking JSON file (required)")
	fs.StringVar(&cfg.OutputDir, "output", "report", "Output directory for the report, CSV and summary")
	fs.StringVar(&cfg.VizDir, "viz", "", "Chart directory (default <output>/visualizations)")
	fs.StringVar(&cfg.ConfigFile, "config", "", "Report config file (.json, .yaml or .yml)")
	fs.StringVar(&cfg.Title, "title", "", "Report title (overrides config)")
	fs.IntVar(&cfg.Workers, "workers", 0, "Concurrent chart renders (overrides config)")
	fs.Var(&cfg.CodeFiles, "code", "Source file to include in the report (repeatable)")
	fs.Var(&cfg.AnimationFiles, "animation", "MP4 or GIF animation to embed (repeatable)")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite database to record the run in (optional)")
	fs.StringVar(&cfg.Listen, "serve", "", "Serve the report and run API on this address after the run, e.g. :8080")
	fs.BoolVar(&cfg.NoInteractive, "no-interactive", false, "Skip the interactive echarts page")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s -data merged.json [options]\n\n", fs.Name())
		fmt.Fprintf(out, "Trajectory report generator.\n\n")
		fmt.Fprintf(out, "Steps:\n")
		fmt.Fprintf(out, "  1. Load the tracking document and rebuild each entity's trajectory\n")
		fmt.Fprintf(out, "  2. Compute per-entity kinematics (distance, speed, direction, efficiency)\n")
		fmt.Fprintf(out, "  3. Render charts and the interactive page\n")
		fmt.Fprintf(out, "  4. Write the statistics CSV, summary text and HTML report\n")
		fmt.Fprintf(out, "  5. Optionally record the run in SQLite and serve the results\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s -data merged_tracking_data.json -output ./report\n", fs.Name())
		fmt.Fprintf(out, "  %s -data merged.json -code track.py -animation anim.mp4 -db results.db -serve :8080\n", fs.Name())
	}

	// ExitOnError flag sets exit on parse failure.
	_ = fs.Parse(args)
	return cfg
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cfg Config) (*config.ReportConfig, error) {
	rc := config.EmptyReportConfig()
	if cfg.ConfigFile != "" {
		var err error
		if rc, err = config.LoadReportConfig(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if cfg.Title != "" {
		rc.Title = &cfg.Title
	}
	if cfg.Workers > 0 {
		rc.Workers = &cfg.Workers
	}
	return rc, nil
}

func run(ctx context.Context, cfg Config, fsys fsutil.FileSystem, clock timeutil.Clock, store *db.DB) (*Result, error) {
	start := clock.Now()

	rc, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}

	loc, err := rc.Location()
	if err != nil {
		return nil, err
	}

	ds, err := tracking.Load(fsys, cfg.DataFile)
	if err != nil {
		return nil, err
	}
	trajectories := kinematics.BuildTrajectories(ds.Frames)
	stats := kinematics.StatsFor(trajectories)
	monitoring.Logf("Extracted statistics for %d of %d entities", len(stats), len(trajectories))

	vizDir := cfg.VizDir
	if vizDir == "" {
		vizDir = filepath.Join(cfg.OutputDir, "visualizations")
	}
	if err := fsys.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{
		DataFile:      cfg.DataFile,
		TotalFrames:   ds.TotalFrames,
		TotalEntities: ds.InitialEntities,
		Stats:         stats,
		VizDir:        vizDir,
		StatsFile:     filepath.Join(cfg.OutputDir, rc.GetStatsFile()),
		SummaryFile:   filepath.Join(cfg.OutputDir, rc.GetSummaryFile()),
	}

	renderer := charts.NewRenderer(fsys, vizDir, rc.ChartStyle())
	in := charts.Input{Title: rc.GetTitle(), Trajectories: trajectories, Stats: stats}
	if result.Charts, err = renderer.RenderAll(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to render charts: %w", err)
	}
	if !cfg.NoInteractive {
		if result.Interactive, err = renderer.RenderInteractive(in); err != nil {
			return nil, fmt.Errorf("failed to render interactive page: %w", err)
		}
	}

	if err := report.SaveStatsCSV(fsys, result.StatsFile, stats); err != nil {
		return nil, err
	}
	if err := report.SaveSummary(fsys, result.SummaryFile, stats); err != nil {
		return nil, err
	}

	builder := report.NewBuilder(fsys, clock, nil)
	result.ReportFile, err = builder.Build(report.Input{
		Title:          rc.GetTitle(),
		TotalFrames:    ds.TotalFrames,
		TotalEntities:  ds.InitialEntities,
		Stats:          stats,
		OutputDir:      cfg.OutputDir,
		VizDir:         vizDir,
		ReportFile:     rc.GetReportFile(),
		CodeFiles:      cfg.CodeFiles,
		AnimationFiles: animationFiles(cfg.AnimationFiles),
		Location:       loc,
	})
	if err != nil {
		return nil, err
	}

	if store != nil {
		rec := &db.Run{
			Title:         rc.GetTitle(),
			DataFile:      cfg.DataFile,
			OutputDir:     cfg.OutputDir,
			TotalFrames:   ds.TotalFrames,
			TotalEntities: ds.InitialEntities,
			CreatedAt:     clock.Now(),
		}
		if err := store.RecordRun(ctx, rec, stats); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		result.RunID = rec.ID
	}

	result.Elapsed = clock.Since(start)
	return result, nil
}

// animationFiles keeps nil (use the defaults) distinct from an explicit list.
func animationFiles(files stringList) []string {
	if len(files) == 0 {
		return nil
	}
	return files
}

func printSummary(w io.Writer, r *Result) {
	sum := kinematics.Summarise(r.Stats)

	fmt.Fprintln(w, "\n========== Trajectory Report Summary ==========")
	fmt.Fprintf(w, "Data: %s\n", r.DataFile)
	fmt.Fprintf(w, "Frames: %d\n", r.TotalFrames)
	fmt.Fprintf(w, "Entities: %d in first frame, %d with statistics\n", r.TotalEntities, sum.Entities)
	if sum.Entities > 0 {
		fmt.Fprintf(w, "Mean distance: %.2f px\n", sum.MeanTotalDistance)
		fmt.Fprintf(w, "Mean speed: %.2f px/frame\n", sum.MeanAverageSpeed)
		fmt.Fprintf(w, "Most active: %s (%.2f px)\n", sum.MostActive.EntityID, sum.MostActive.TotalDistance)
		fmt.Fprintf(w, "Fastest: %s (%.2f px/frame)\n", sum.Fastest.EntityID, sum.Fastest.AverageSpeed)
		fmt.Fprintf(w, "Dominant direction: %s (%.1f%%)\n", sum.DominantDirection, sum.DominantShare)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Charts: %d in %s\n", len(r.Charts), r.VizDir)
	if r.Interactive != "" {
		fmt.Fprintf(w, "Interactive: %s\n", filepath.Join(r.VizDir, r.Interactive))
	}
	fmt.Fprintf(w, "Statistics CSV: %s\n", r.StatsFile)
	fmt.Fprintf(w, "Summary: %s\n", r.SummaryFile)
	fmt.Fprintf(w, "Report: %s\n", r.ReportFile)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Elapsed: %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(w, "===============================================")
}

// serve blocks until ctx is cancelled, serving the report directory, the run
// API and, with a database, the debug routes.
func serve(ctx context.Context, addr, reportDir string, store *db.DB) error {
	var runs api.RunStore
	if store != nil {
		runs = store
	}
	mux := api.NewServer(runs, reportDir).ServeMux()
	if store != nil {
		if err := store.AttachAdminRoutes(mux); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Serving report on http://%s/", displayAddr(addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
