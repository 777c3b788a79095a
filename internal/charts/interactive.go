package charts

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
)

// framesColors is the visual map ramp for frame counts (viridis).
var framesColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderInteractive writes InteractiveFile, an echarts page with zoomable
// versions of the main charts. It returns the file name, or "" when there
// are no statistics to show.
func (r *Renderer) RenderInteractive(in Input) (string, error) {
	if len(in.Stats) == 0 {
		monitoring.Logf("chart %s: no data, skipped", InteractiveFile)
		return "", nil
	}
	if err := r.fs.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create chart dir: %w", err)
	}

	page := r.interactivePage(in)

	path := filepath.Join(r.outputDir, InteractiveFile)
	f, err := r.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", InteractiveFile, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return "", fmt.Errorf("render %s: %w", InteractiveFile, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("render %s: %w", InteractiveFile, err)
	}
	return InteractiveFile, nil
}

func (r *Renderer) initOpts(title string) opts.Initialization {
	return opts.Initialization{PageTitle: title, Width: "100%", Height: "560px", AssetsHost: r.style.AssetsHost}
}

func (r *Renderer) interactivePage(in Input) *components.Page {
	title := in.Title
	if title == "" {
		title = "Trajectory Report"
	}

	page := components.NewPage()
	page.PageTitle = title
	if r.style.AssetsHost != "" {
		page.SetAssetsHost(r.style.AssetsHost)
	}
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		r.distanceBar(title, in.Stats),
		r.speedBar(title, in.Stats),
		r.speedDistanceScatter(title, in.Stats),
		r.trajectoryScatter(title, drawable(in.Trajectories)),
	)
	return page
}

func (r *Renderer) distanceBar(title string, rows []kinematics.Stats) *charts.Bar {
	ranked := rankedBy(rows, func(s kinematics.Stats) float64 { return s.TotalDistance })
	data := make([]opts.BarData, len(ranked))
	for i, s := range ranked {
		data[i] = opts.BarData{Value: round2(s.TotalDistance)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: "Total Distance", Subtitle: "pixels, longest first"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(entityIDs(ranked)).
		AddSeries("total_distance", data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(distanceFill)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func (r *Renderer) speedBar(title string, rows []kinematics.Stats) *charts.Bar {
	ranked := rankedBy(rows, func(s kinematics.Stats) float64 { return s.AverageSpeed })
	avg := make([]opts.BarData, len(ranked))
	peak := make([]opts.BarData, len(ranked))
	for i, s := range ranked {
		avg[i] = opts.BarData{Value: round2(s.AverageSpeed)}
		peak[i] = opts.BarData{Value: round2(s.MaxSpeed)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: "Speed", Subtitle: "pixels/frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	bar.SetXAxis(entityIDs(ranked)).
		AddSeries("average_speed", avg, charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(speedFill)})).
		AddSeries("max_speed", peak, charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(roseFill)}))
	return bar
}

func (r *Renderer) speedDistanceScatter(title string, rows []kinematics.Stats) *charts.Scatter {
	data := make([]opts.ScatterData, len(rows))
	maxFrames := 1
	for i, s := range rows {
		data[i] = opts.ScatterData{
			Name:  s.EntityID,
			Value: []interface{}{round2(s.TotalDistance), round2(s.AverageSpeed), s.NumFrames},
		}
		if s.NumFrames > maxFrames {
			maxFrames = s.NumFrames
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: "Average Speed vs Total Distance", Subtitle: "color: frames observed"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Total distance (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Avg speed (px/frame)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxFrames),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: framesColors},
		}),
	)
	scatter.AddSeries("entities", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	return scatter
}

func (r *Renderer) trajectoryScatter(title string, trs []*kinematics.Trajectory) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(r.initOpts(title)),
		charts.WithTitleOpts(opts.Title{Title: "Trajectories", Subtitle: "image coordinates, y grows downward"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(trs) <= legendLimit), Type: "scroll"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (px)", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	colors := entityColors(len(trs), r.style.Palette)
	for i, tr := range trs {
		data := make([]opts.ScatterData, len(tr.Samples))
		for j, s := range tr.Samples {
			data[j] = opts.ScatterData{Value: []interface{}{s.X, s.Y, s.Frame}}
		}
		scatter.AddSeries(tr.EntityID, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}),
		)
	}
	return scatter
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
