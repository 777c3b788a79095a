package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/charts"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/testutil"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
	"github.com/banshee-data/trajectory.report/internal/tracking"
)

func init() {
	monitoring.SetLogger(nil)
}

func pondDocument() []byte {
	return testutil.NewTrackingFixture().
		AddColored(0, "1", "white", 0, 0).
		AddColored(0, "2", "yellow", 10, 10).
		AddColored(1, "1", "white", 3, 4).
		AddColored(1, "2", "yellow", 10, 0).
		AddColored(2, "1", "white", 6, 8).
		AddColored(2, "2", "yellow", 10, -10).
		JSON()
}

func memFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("data/merged.json", pondDocument(), 0644))
	return fsys
}

func testClock() *timeutil.MockClock {
	return timeutil.NewMockClock(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
}

func TestRun_WritesOutputs(t *testing.T) {
	fsys := memFS(t)
	configPath := testutil.WriteFile(t, t.TempDir(), "report.yaml", []byte("timezone: UTC\n"))
	cfg := Config{DataFile: "data/merged.json", OutputDir: "out", Title: "Pond", ConfigFile: configPath}

	result, err := run(context.Background(), cfg, fsys, testClock(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFrames)
	assert.Equal(t, 2, result.TotalEntities)
	require.Len(t, result.Stats, 2)
	assert.Equal(t, filepath.Join("out", "visualizations"), result.VizDir)
	assert.Equal(t, charts.InteractiveFile, result.Interactive)
	assert.NotEmpty(t, result.Charts)
	assert.Empty(t, result.RunID)

	for _, name := range []string{result.StatsFile, result.SummaryFile, result.ReportFile} {
		assert.True(t, fsys.Exists(name), name)
	}
	for _, name := range result.Charts {
		assert.True(t, fsys.Exists(filepath.Join(result.VizDir, name)), name)
	}

	page, err := fsys.ReadFile(result.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Pond")
	assert.Contains(t, string(page), "14/03/2025 09:30:00")

	csv, err := fsys.ReadFile(result.StatsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2,"), "longest path first: %s", lines[1])
}

func TestRun_Options(t *testing.T) {
	fsys := memFS(t)
	require.NoError(t, fsys.WriteFile("src/track.go", []byte("package track\n"), 0644))

	cfg := Config{
		DataFile:      "data/merged.json",
		OutputDir:     "out",
		VizDir:        "charts",
		CodeFiles:     stringList{"src/track.go"},
		NoInteractive: true,
	}
	result, err := run(context.Background(), cfg, fsys, testClock(), nil)
	require.NoError(t, err)

	assert.Equal(t, "charts", result.VizDir)
	assert.Empty(t, result.Interactive)
	assert.False(t, fsys.Exists(filepath.Join("charts", charts.InteractiveFile)))

	page, err := fsys.ReadFile(result.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(page), "track.go")
	assert.Contains(t, string(page), "codehilite")
}

func TestRun_RecordsRun(t *testing.T) {
	store, err := db.NewDB(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	cfg := Config{DataFile: "data/merged.json", OutputDir: "out", Title: "Pond"}
	result, err := run(ctx, cfg, memFS(t), testClock(), store)
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	got, err := store.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Pond", got.Title)
	assert.Equal(t, "data/merged.json", got.DataFile)
	assert.Equal(t, 3, got.TotalFrames)

	stats, err := store.RunStats(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Stats, stats)
}

func TestRun_LogsProgressAndTiming(t *testing.T) {
	clock := testClock()
	var (
		mu    sync.Mutex
		lines []string
	)
	monitoring.SetLogger(func(format string, args ...interface{}) {
		line := fmt.Sprintf(format, args...)
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		if strings.HasPrefix(line, "Extracted statistics") {
			clock.Advance(1500 * time.Millisecond)
		}
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	cfg := Config{DataFile: "data/merged.json", OutputDir: "out", NoInteractive: true}
	result, err := run(context.Background(), cfg, memFS(t), clock, nil)
	require.NoError(t, err)

	assert.Contains(t, lines, "Extracted statistics for 2 of 2 entities")
	assert.Equal(t, 1500*time.Millisecond, result.Elapsed)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := run(ctx, Config{DataFile: "missing.json", OutputDir: "out"}, fsutil.NewMemoryFileSystem(), testClock(), nil)
	assert.Error(t, err)

	cfg := Config{DataFile: "data/merged.json", OutputDir: "out", ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}
	_, err = run(ctx, cfg, memFS(t), testClock(), nil)
	assert.Error(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("bad.json", []byte(`{"frames": [`), 0644))
	_, err = run(ctx, Config{DataFile: "bad.json", OutputDir: "out"}, fsys, testClock(), nil)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "report.yaml", []byte("title: From file\nworkers: 2\n"))

	rc, err := loadConfig(Config{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "From file", rc.GetTitle())
	assert.Equal(t, 2, rc.GetWorkers())

	rc, err = loadConfig(Config{ConfigFile: path, Title: "Flag", Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, "Flag", rc.GetTitle())
	assert.Equal(t, 8, rc.GetWorkers())
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("trajectory-report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := parseFlags(fs, []string{
		"-data", "merged.json",
		"-output", "out",
		"-code", "a.py", "-code", "b.go",
		"-animation", "anim.mp4",
		"-workers", "3",
		"-no-interactive",
	})
	assert.Equal(t, "merged.json", cfg.DataFile)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, stringList{"a.py", "b.go"}, cfg.CodeFiles)
	assert.Equal(t, "a.py,b.go", cfg.CodeFiles.String())
	assert.Equal(t, []string{"anim.mp4"}, animationFiles(cfg.AnimationFiles))
	assert.Nil(t, animationFiles(nil))
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.NoInteractive)

	var usage bytes.Buffer
	fs.SetOutput(&usage)
	fs.Usage()
	assert.Contains(t, usage.String(), "-data merged.json")
}

func TestPrintSummary(t *testing.T) {
	stats := kinematics.Extract(mustFrames(t))
	r := &Result{
		DataFile:    "merged.json",
		TotalFrames: 3,
		Stats:       stats,
		Charts:      []string{charts.TrajectoriesFile},
		VizDir:      "viz",
		Interactive: charts.InteractiveFile,
		ReportFile:  "out/report.html",
		RunID:       "run-1",
		Elapsed:     1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	printSummary(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "Trajectory Report Summary")
	assert.Contains(t, out, "Most active: 2 (20.00 px)")
	assert.Contains(t, out, "Charts: 1 in viz")
	assert.Contains(t, out, "Run ID: run-1")
	assert.Contains(t, out, "Elapsed: 1.5s")

	buf.Reset()
	printSummary(&buf, &Result{})
	assert.NotContains(t, buf.String(), "Most active")
	assert.NotContains(t, buf.String(), "Run ID")
}

func mustFrames(t *testing.T) kinematics.FrameSet {
	t.Helper()
	ds, err := tracking.Parse(bytes.NewReader(pondDocument()))
	require.NoError(t, err)
	return ds.Frames
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "0.0.0.0:80", displayAddr("0.0.0.0:80"))
}
