package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/trajectory.report/internal/security"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
)

// DefaultConfigPath is the path to the checked-in report defaults file.
const DefaultConfigPath = "config/report.defaults.json"

// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ReportConfig holds the presentation settings of a report run. Every field
// is optional; the Get* methods supply defaults for anything left unset, so
// partial files are safe.
type ReportConfig struct {
	Title *string `json:"title,omitempty" yaml:"title,omitempty"`

	// Chart geometry
	ChartWidthInches  *float64 `json:"chart_width_in,omitempty" yaml:"chart_width_in,omitempty"`
	ChartHeightInches *float64 `json:"chart_height_in,omitempty" yaml:"chart_height_in,omitempty"`
	ChartDPI          *int     `json:"chart_dpi,omitempty" yaml:"chart_dpi,omitempty"`

	// Palette overrides the generated entity colors. Hex strings, "#rrggbb".
	Palette []string `json:"palette,omitempty" yaml:"palette,omitempty"`

	GridCells     *int `json:"grid_cells,omitempty" yaml:"grid_cells,omitempty"`         // density chart cells per axis
	DirectionBins *int `json:"direction_bins,omitempty" yaml:"direction_bins,omitempty"` // bearing histogram bins
	TopEntities   *int `json:"top_entities,omitempty" yaml:"top_entities,omitempty"`     // speed evolution lines, 0 = all
	Workers       *int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Output file names
	StatsFile   *string `json:"stats_file,omitempty" yaml:"stats_file,omitempty"`
	SummaryFile *string `json:"summary_file,omitempty" yaml:"summary_file,omitempty"`
	ReportFile  *string `json:"report_file,omitempty" yaml:"report_file,omitempty"`

	// Timezone is the IANA zone the report timestamp is shown in. Empty
	// means the machine's zone.
	Timezone *string `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	// EChartsAssetsHost overrides the CDN go-echarts loads its scripts from.
	EChartsAssetsHost *string `json:"echarts_assets_host,omitempty" yaml:"echarts_assets_host,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyReportConfig returns a ReportConfig with all fields unset.
func EmptyReportConfig() *ReportConfig {
	return &ReportConfig{}
}

// LoadReportConfig loads a ReportConfig from a .json, .yaml or .yml file of
// at most 1MB and validates it.
func LoadReportConfig(path string) (*ReportConfig, error) {
	cleanPath := filepath.Clean(path)

	var unmarshal func([]byte, any) error
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("%w: config file must be .json, .yaml or .yml, got %q", ErrUnsupportedFormat, ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyReportConfig()
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *ReportConfig) Validate() error {
	if c.ChartWidthInches != nil && *c.ChartWidthInches <= 0 {
		return fmt.Errorf("chart_width_in must be positive, got %g", *c.ChartWidthInches)
	}
	if c.ChartHeightInches != nil && *c.ChartHeightInches <= 0 {
		return fmt.Errorf("chart_height_in must be positive, got %g", *c.ChartHeightInches)
	}
	if c.ChartDPI != nil && (*c.ChartDPI < 24 || *c.ChartDPI > 600) {
		return fmt.Errorf("chart_dpi must be between 24 and 600, got %d", *c.ChartDPI)
	}
	if c.GridCells != nil && *c.GridCells < 1 {
		return fmt.Errorf("grid_cells must be at least 1, got %d", *c.GridCells)
	}
	if c.DirectionBins != nil && (*c.DirectionBins < 4 || *c.DirectionBins > 360) {
		return fmt.Errorf("direction_bins must be between 4 and 360, got %d", *c.DirectionBins)
	}
	if c.TopEntities != nil && *c.TopEntities < 0 {
		return fmt.Errorf("top_entities must be non-negative, got %d", *c.TopEntities)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	for i, hex := range c.Palette {
		if _, err := ParseHexColor(hex); err != nil {
			return fmt.Errorf("palette[%d]: %w", i, err)
		}
	}
	if c.Timezone != nil {
		if _, err := timeutil.LoadLocation(*c.Timezone); err != nil {
			return err
		}
	}
	for name, v := range map[string]*string{
		"stats_file":   c.StatsFile,
		"summary_file": c.SummaryFile,
		"report_file":  c.ReportFile,
	} {
		if v == nil {
			continue
		}
		if err := security.ValidateFileName(*v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// GetTitle returns the report title or the default.
func (c *ReportConfig) GetTitle() string {
	if c.Title == nil || *c.Title == "" {
		return "Duck Trajectory Analysis"
	}
	return *c.Title
}

// GetChartWidthInches returns the chart width or the default.
func (c *ReportConfig) GetChartWidthInches() float64 {
	if c.ChartWidthInches == nil {
		return 12
	}
	return *c.ChartWidthInches
}

// GetChartHeightInches returns the chart height or the default.
func (c *ReportConfig) GetChartHeightInches() float64 {
	if c.ChartHeightInches == nil {
		return 8
	}
	return *c.ChartHeightInches
}

// GetChartDPI returns the raster resolution or the default.
func (c *ReportConfig) GetChartDPI() int {
	if c.ChartDPI == nil {
		return 150
	}
	return *c.ChartDPI
}

func (c *ReportConfig) GetGridCells() int {
	if c.GridCells == nil {
		return 20
	}
	return *c.GridCells
}

func (c *ReportConfig) GetDirectionBins() int {
	if c.DirectionBins == nil {
		return 16
	}
	return *c.DirectionBins
}

func (c *ReportConfig) GetTopEntities() int {
	if c.TopEntities == nil {
		return 10
	}
	return *c.TopEntities
}

// GetWorkers returns the chart rendering concurrency or the default.
func (c *ReportConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

func (c *ReportConfig) GetStatsFile() string {
	if c.StatsFile == nil {
		return "entity_stats.csv"
	}
	return *c.StatsFile
}

func (c *ReportConfig) GetSummaryFile() string {
	if c.SummaryFile == nil {
		return "summary.txt"
	}
	return *c.SummaryFile
}

func (c *ReportConfig) GetReportFile() string {
	if c.ReportFile == nil {
		return "report.html"
	}
	return *c.ReportFile
}

// GetTimezone returns the configured zone name, empty for local time.
func (c *ReportConfig) GetTimezone() string {
	if c.Timezone == nil {
		return ""
	}
	return *c.Timezone
}

// Location resolves GetTimezone.
func (c *ReportConfig) Location() (*time.Location, error) {
	return timeutil.LoadLocation(c.GetTimezone())
}

// GetEChartsAssetsHost returns the configured assets host, empty for the
// go-echarts default.
func (c *ReportConfig) GetEChartsAssetsHost() string {
	if c.EChartsAssetsHost == nil {
		return ""
	}
	return *c.EChartsAssetsHost
}

// ChartStyle carries everything the chart renderer needs to know about
// appearance. It is passed explicitly; there is no package-level style.
type ChartStyle struct {
	WidthInches   float64
	HeightInches  float64
	DPI           int
	Palette       []color.RGBA // empty: renderer generates colors
	GridCells     int
	DirectionBins int
	TopEntities   int
	Workers       int
	AssetsHost    string
}

// ChartStyle resolves the chart settings with defaults applied. Palette
// entries are assumed valid; call Validate first for user supplied configs.
func (c *ReportConfig) ChartStyle() ChartStyle {
	s := ChartStyle{
		WidthInches:   c.GetChartWidthInches(),
		HeightInches:  c.GetChartHeightInches(),
		DPI:           c.GetChartDPI(),
		GridCells:     c.GetGridCells(),
		DirectionBins: c.GetDirectionBins(),
		TopEntities:   c.GetTopEntities(),
		Workers:       c.GetWorkers(),
		AssetsHost:    c.GetEChartsAssetsHost(),
	}
	for _, hex := range c.Palette {
		if col, err := ParseHexColor(hex); err == nil {
			s.Palette = append(s.Palette, col)
		}
	}
	return s
}

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading # is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
