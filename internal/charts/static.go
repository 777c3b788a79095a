package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
)

// legendLimit is the most entities named in a legend before it is dropped.
const legendLimit = 20

var (
	distanceFill = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 255}
	speedFill    = color.RGBA{R: 0x9b, G: 0x59, B: 0xb6, A: 255}
	durationFill = color.RGBA{R: 0xe6, G: 0x7e, B: 0x22, A: 255}
	roseFill     = color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 255}
)

// buildFunc builds one chart. A nil plot with a nil error means there is
// nothing to draw and the chart is skipped.
type buildFunc func(in Input, style config.ChartStyle) (*plot.Plot, error)

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// imageAxes flips Y so the plot reads like the video frame, origin top left.
func imageAxes(p *plot.Plot) {
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
}

func legendTopRight(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

func rotateXLabels(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}

func trajectoryXYs(tr *kinematics.Trajectory) plotter.XYs {
	pts := make(plotter.XYs, len(tr.Samples))
	for i, s := range tr.Samples {
		pts[i] = plotter.XY{X: s.X, Y: s.Y}
	}
	return pts
}

func buildTrajectories(in Input, style config.ChartStyle) (*plot.Plot, error) {
	trs := drawable(in.Trajectories)
	if len(trs) == 0 {
		return nil, nil
	}

	p := newPlot("2D Trajectories", "X (pixels)", "Y (pixels)")
	imageAxes(p)
	colors := entityColors(len(trs), style.Palette)

	starts := make(plotter.XYs, len(trs))
	for i, tr := range trs {
		line, err := plotter.NewLine(trajectoryXYs(tr))
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", tr.EntityID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)
		if len(trs) <= legendLimit {
			p.Legend.Add(fmt.Sprintf("%s (%s)", tr.EntityID, tr.Color), line)
		}
		starts[i] = plotter.XY{X: tr.Samples[0].X, Y: tr.Samples[0].Y}
	}

	marks, err := plotter.NewScatter(starts)
	if err != nil {
		return nil, err
	}
	marks.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
	}
	p.Add(marks)
	legendTopRight(p)
	return p, nil
}

func buildDensity(in Input, style config.ChartStyle) (*plot.Plot, error) {
	grid := newDensityGrid(in.Trajectories, style.GridCells)
	if grid == nil {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Presence Density (%dx%d grid, %.0f samples)", style.GridCells, style.GridCells, grid.total())
	p.X.Label.Text = "X (pixels)"
	p.Y.Label.Text = "Y (pixels)"
	imageAxes(p)

	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

// barChart draws one bar per row in row order with the value printed above
// each bar.
func barChart(title, yLabel string, rows []kinematics.Stats, value func(kinematics.Stats) float64, format string, fill color.Color) (*plot.Plot, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	vals := make(plotter.Values, len(rows))
	tops := make(plotter.XYs, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		v := value(r)
		vals[i] = v
		tops[i] = plotter.XY{X: float64(i), Y: v}
		labels[i] = fmt.Sprintf(format, v)
	}

	p := newPlot(title, "Entity", yLabel)
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return nil, err
	}
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: tops, Labels: labels})
	if err != nil {
		return nil, err
	}
	lbl.Offset = vg.Point{X: -vg.Points(8), Y: vg.Points(3)}
	p.Add(lbl)

	p.NominalX(entityIDs(rows)...)
	rotateXLabels(p)
	p.Y.Min = 0
	return p, nil
}

func buildTotalDistance(in Input, _ config.ChartStyle) (*plot.Plot, error) {
	total := func(s kinematics.Stats) float64 { return s.TotalDistance }
	return barChart("Total Distance per Entity", "Total distance (pixels)",
		rankedBy(in.Stats, total), total, "%.1f", distanceFill)
}

func buildAverageSpeed(in Input, _ config.ChartStyle) (*plot.Plot, error) {
	speed := func(s kinematics.Stats) float64 { return s.AverageSpeed }
	return barChart("Average Speed per Entity", "Average speed (pixels/frame)",
		rankedBy(in.Stats, speed), speed, "%.2f", speedFill)
}

func buildDuration(in Input, _ config.ChartStyle) (*plot.Plot, error) {
	duration := func(s kinematics.Stats) float64 { return float64(s.Duration) }
	return barChart("Time on Screen per Entity", "Duration (frames)",
		rankedBy(in.Stats, duration), duration, "%.0f", durationFill)
}

func buildSpeedVsDistance(in Input, style config.ChartStyle) (*plot.Plot, error) {
	rows := in.Stats
	if len(rows) == 0 {
		return nil, nil
	}

	pts := make(plotter.XYs, len(rows))
	minFrames, maxFrames := math.Inf(1), math.Inf(-1)
	for i, r := range rows {
		pts[i] = plotter.XY{X: r.TotalDistance, Y: r.AverageSpeed}
		minFrames = math.Min(minFrames, float64(r.NumFrames))
		maxFrames = math.Max(maxFrames, float64(r.NumFrames))
	}

	p := newPlot("Average Speed vs Total Distance", "Total distance (pixels)", "Average speed (pixels/frame)")
	colors := entityColors(len(rows), style.Palette)

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	// Marker area follows the number of frames the entity was seen in.
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		frac := 0.5
		if maxFrames > minFrames {
			frac = (float64(rows[i].NumFrames) - minFrames) / (maxFrames - minFrames)
		}
		return draw.GlyphStyle{
			Color:  colors[i],
			Radius: vg.Points(4 + 8*math.Sqrt(frac)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)

	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: entityIDs(rows)})
	if err != nil {
		return nil, err
	}
	lbl.Offset = vg.Point{X: vg.Points(10)}
	p.Add(lbl)
	return p, nil
}

func buildSpeedEvolution(in Input, style config.ChartStyle) (*plot.Plot, error) {
	trs := topTrajectories(in.Trajectories, in.Stats, style.TopEntities)
	if len(trs) == 0 {
		return nil, nil
	}

	title := "Speed over Time"
	if style.TopEntities > 0 && len(in.Stats) > style.TopEntities {
		title = fmt.Sprintf("Speed over Time (top %d by distance)", style.TopEntities)
	}
	p := newPlot(title, "Frame", "Speed (pixels/frame)")
	colors := entityColors(len(trs), style.Palette)

	for i, tr := range trs {
		series := kinematics.SpeedSeries(tr)
		pts := make(plotter.XYs, len(series))
		for j, s := range series {
			pts[j] = plotter.XY{X: float64(s.Frame), Y: s.Speed}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", tr.EntityID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		if len(trs) <= legendLimit {
			p.Legend.Add(tr.EntityID, line)
		}
	}
	legendTopRight(p)
	return p, nil
}

func buildDirections(in Input, style config.ChartStyle) (*plot.Plot, error) {
	if len(drawable(in.Trajectories)) == 0 {
		return nil, nil
	}
	counts, dividers := bearingHistogram(in.Trajectories, style.DirectionBins)

	p := newPlot("Movement Directions", "Bearing (0° = +x, 90° = +y)", "Segments")
	bars, err := plotter.NewBarChart(plotter.Values(counts), vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Color = roseFill
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(binLabels(dividers)...)
	rotateXLabels(p)
	p.Y.Min = 0
	return p, nil
}

func buildCorrelation(in Input, _ config.ChartStyle) (*plot.Plot, error) {
	corr := kinematics.CorrelationMatrix(in.Stats)
	if corr == nil {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = "Correlation between Movement Metrics"
	grid := matrixGrid{m: corr}

	hm := plotter.NewHeatMap(grid, coolWarm(21))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	n := corr.SymmetricDim()
	cells := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cells = append(cells, plotter.XY{X: float64(c), Y: float64(r)})
			if v := corr.At(r, c); math.IsNaN(v) {
				labels = append(labels, "n/a")
			} else {
				labels = append(labels, fmt.Sprintf("%.2f", v))
			}
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: cells, Labels: labels})
	if err != nil {
		return nil, err
	}
	lbl.Offset = vg.Point{X: -vg.Points(10), Y: -vg.Points(4)}
	p.Add(lbl)

	p.NominalX(kinematics.CorrelationLabels...)
	rotateXLabels(p)
	ticks := make([]plot.Tick, len(kinematics.CorrelationLabels))
	for i, l := range kinematics.CorrelationLabels {
		ticks[i] = plot.Tick{Value: float64(i), Label: l}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	imageAxes(p)
	return p, nil
}

type coolWarmPalette []color.Color

func (p coolWarmPalette) Colors() []color.Color { return p }

// coolWarm is a blue-white-red diverging palette of n colors.
func coolWarm(n int) coolWarmPalette {
	cold := color.RGBA{R: 0x3b, G: 0x4c, B: 0xc0, A: 255}
	warm := color.RGBA{R: 0xb4, G: 0x04, B: 0x26, A: 255}
	white := color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 255}

	out := make(coolWarmPalette, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		if t < 0.5 {
			out[i] = lerp(cold, white, t*2)
		} else {
			out[i] = lerp(white, warm, (t-0.5)*2)
		}
	}
	return out
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
