package report

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/trajectory.report/internal/charts"
	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/timeutil"
	"github.com/banshee-data/trajectory.report/internal/version"
)

// DefaultReportFile is the report page name when none is configured.
const DefaultReportFile = "report.html"

// Input is everything a report page is built from.
type Input struct {
	Title         string
	TotalFrames   int
	TotalEntities int
	Stats         []kinematics.Stats

	// OutputDir receives the page. VizDir holds the chart images; links to
	// them are made relative to OutputDir.
	OutputDir  string
	VizDir     string
	ReportFile string

	// CodeFiles are shown as highlighted listings. Missing files are skipped.
	CodeFiles []string
	// AnimationFiles are shown as video (.mp4) or image (.gif). Nil means
	// DefaultAnimations inside VizDir.
	AnimationFiles []string

	// Location is the zone the generation time is shown in; nil keeps the
	// clock's own zone.
	Location *time.Location
}

// Builder writes report pages.
type Builder struct {
	fs          fsutil.FileSystem
	clock       timeutil.Clock
	templates   TemplateProvider
	highlighter *Highlighter
}

// NewBuilder creates a builder. A nil templates provider uses the templates
// built into the binary.
func NewBuilder(fsys fsutil.FileSystem, clock timeutil.Clock, templates TemplateProvider) *Builder {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Builder{
		fs:          fsys,
		clock:       clock,
		templates:   templates,
		highlighter: NewHighlighter(DefaultCodeStyle),
	}
}

type figure struct {
	Src         string
	Caption     string
	Description string
}

type animation struct {
	Src   string
	Video bool
}

type listing struct {
	Name string
	Code template.HTML
}

type tab struct {
	ID    string
	Label string
	Title string
	Text  string
	Src   string
}

type pageData struct {
	Title         string
	TotalFrames   int
	TotalEntities int
	HasStats      bool
	Summary       kinematics.Summary
	Rows          []kinematics.Stats

	Trajectories2D []figure
	Trajectories3D []figure
	Density        []figure
	Statistics     []figure

	Animations  []animation
	Code        []listing
	CodeCSS     template.CSS
	Tabs        []tab
	Interactive string

	GeneratedAt string
	Version     string
}

// Build renders the report page and returns its path.
func (b *Builder) Build(in Input) (string, error) {
	if err := b.fs.MkdirAll(in.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	data, err := b.pageData(in)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := b.templates.ExecuteTemplate(&buf, ReportTemplate, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	name := in.ReportFile
	if name == "" {
		name = DefaultReportFile
	}
	path := filepath.Join(in.OutputDir, name)
	if err := b.fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	monitoring.Logf("HTML report written to %s", path)
	return path, nil
}

func (b *Builder) pageData(in Input) (*pageData, error) {
	rows := make([]kinematics.Stats, len(in.Stats))
	copy(rows, in.Stats)
	kinematics.SortByTotalDistance(rows)

	data := &pageData{
		Title:         in.Title,
		TotalFrames:   in.TotalFrames,
		TotalEntities: in.TotalEntities,
		HasStats:      len(rows) > 0,
		Summary:       kinematics.Summarise(in.Stats),
		Rows:          rows,
		GeneratedAt:   generatedAt(b.clock.Now(), in.Location),
		Version:       version.String(),
	}
	if data.Title == "" {
		data.Title = "Trajectory Analysis"
	}

	for _, v := range Catalogue {
		file := filepath.Join(in.VizDir, v.File)
		if !b.fs.Exists(file) {
			continue
		}
		fig := figure{Src: relLink(in.OutputDir, file), Caption: v.Caption, Description: v.Description}
		switch v.Section {
		case SectionTrajectories2D:
			data.Trajectories2D = append(data.Trajectories2D, fig)
		case SectionTrajectories3D:
			data.Trajectories3D = append(data.Trajectories3D, fig)
		case SectionDensity:
			data.Density = append(data.Density, fig)
		case SectionStatistics:
			data.Statistics = append(data.Statistics, fig)
		}
	}

	data.Animations = b.animations(in)

	code, err := b.listings(in.CodeFiles)
	if err != nil {
		return nil, err
	}
	data.Code = code
	if len(code) > 0 {
		css, err := b.highlighter.CSS()
		if err != nil {
			return nil, err
		}
		data.CodeCSS = css
	}

	data.Tabs = b.tabs(in)
	if file := filepath.Join(in.VizDir, charts.InteractiveFile); b.fs.Exists(file) {
		data.Interactive = relLink(in.OutputDir, file)
	}
	return data, nil
}

func (b *Builder) animations(in Input) []animation {
	files := in.AnimationFiles
	if files == nil {
		for _, name := range DefaultAnimations {
			files = append(files, filepath.Join(in.VizDir, name))
		}
	}

	var out []animation
	for _, file := range files {
		if !b.fs.Exists(file) {
			monitoring.Skipf("animation", file)
			continue
		}
		switch strings.ToLower(filepath.Ext(file)) {
		case ".mp4":
			out = append(out, animation{Src: relLink(in.OutputDir, file), Video: true})
		case ".gif":
			out = append(out, animation{Src: relLink(in.OutputDir, file)})
		default:
			monitoring.Logf("animation %s: unsupported format, skipped", file)
		}
	}
	return out
}

func (b *Builder) listings(files []string) ([]listing, error) {
	var out []listing
	for _, file := range files {
		src, err := b.fs.ReadFile(file)
		if err != nil {
			monitoring.Logf("code file %s unreadable, skipped: %v", file, err)
			continue
		}
		code, err := b.highlighter.Highlight(file, string(src))
		if err != nil {
			return nil, err
		}
		out = append(out, listing{Name: filepath.Base(file), Code: code})
	}
	return out, nil
}

func (b *Builder) tabs(in Input) []tab {
	candidates := []tab{
		{ID: "tab-trajectories", Label: "Trajectories", Title: "Entity Trajectories", Text: "Complete trajectories of every tracked entity.", Src: charts.TrajectoriesFile},
		{ID: "tab-speeds", Label: "Speeds", Title: "Speed Analysis", Text: "Average speed per entity, fastest first.", Src: charts.AverageSpeedFile},
		{ID: "tab-density", Label: "Heat Maps", Title: "Heat Maps", Text: "Areas where entities were observed most often.", Src: charts.DensityFile},
	}
	var out []tab
	for _, t := range candidates {
		file := filepath.Join(in.VizDir, t.Src)
		if !b.fs.Exists(file) {
			continue
		}
		t.Src = relLink(in.OutputDir, file)
		out = append(out, t)
	}
	return out
}

// relLink returns target as a slash separated URL relative to the report
// directory, or target itself when no relative path exists.
func relLink(outputDir, target string) string {
	rel, err := filepath.Rel(outputDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

func generatedAt(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format("02/01/2006 15:04:05")
}
