package charts

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trajectory.report/internal/kinematics"
)

// densityGrid counts samples per cell of a square grid laid over the
// bounding box of all samples. It satisfies plotter.GridXYZ.
type densityGrid struct {
	counts       *mat.Dense // rows are y cells, columns x cells
	minX, minY   float64
	cellW, cellH float64
}

// newDensityGrid returns nil when there are no samples.
func newDensityGrid(trajectories []*kinematics.Trajectory, cells int) *densityGrid {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, tr := range trajectories {
		for _, s := range tr.Samples {
			minX, maxX = math.Min(minX, s.X), math.Max(maxX, s.X)
			minY, maxY = math.Min(minY, s.Y), math.Max(maxY, s.Y)
			n++
		}
	}
	if n == 0 || cells < 1 {
		return nil
	}

	g := &densityGrid{
		counts: mat.NewDense(cells, cells, nil),
		minX:   minX,
		minY:   minY,
		cellW:  cellSize(minX, maxX, cells),
		cellH:  cellSize(minY, maxY, cells),
	}
	for _, tr := range trajectories {
		for _, s := range tr.Samples {
			c := cellIndex(s.X, minX, g.cellW, cells)
			r := cellIndex(s.Y, minY, g.cellH, cells)
			g.counts.Set(r, c, g.counts.At(r, c)+1)
		}
	}
	return g
}

func cellSize(lo, hi float64, cells int) float64 {
	if hi <= lo {
		return 1
	}
	return (hi - lo) / float64(cells)
}

func cellIndex(v, lo, size float64, cells int) int {
	i := int((v - lo) / size)
	if i >= cells {
		i = cells - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (g *densityGrid) Dims() (c, r int) {
	r, c = g.counts.Dims()
	return c, r
}

func (g *densityGrid) Z(c, r int) float64 { return g.counts.At(r, c) }
func (g *densityGrid) X(c int) float64    { return g.minX + (float64(c)+0.5)*g.cellW }
func (g *densityGrid) Y(r int) float64    { return g.minY + (float64(r)+0.5)*g.cellH }

// total returns the number of samples binned.
func (g *densityGrid) total() float64 {
	return mat.Sum(g.counts)
}

// matrixGrid exposes a square matrix as a GridXYZ with unit spaced cells.
// NaN cells read as zero.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// bearingHistogram bins every segment bearing of every trajectory into bins
// equal slices of [-180, 180]. A bearing of exactly 180 lands in the last bin.
func bearingHistogram(trajectories []*kinematics.Trajectory, bins int) (counts, dividers []float64) {
	dividers = floats.Span(make([]float64, bins+1), -180, 180)
	dividers[bins] = math.Nextafter(180, math.Inf(1))
	counts = make([]float64, bins)

	var all []float64
	for _, tr := range trajectories {
		all = append(all, kinematics.Bearings(tr)...)
	}
	if len(all) == 0 {
		return counts, dividers
	}
	sort.Float64s(all)
	stat.Histogram(counts, dividers, all, nil)
	return counts, dividers
}

// binLabels names each histogram bin by its centre in degrees.
func binLabels(dividers []float64) []string {
	if len(dividers) < 2 {
		return nil
	}
	out := make([]string, len(dividers)-1)
	for i := range out {
		lo, hi := dividers[i], math.Min(dividers[i+1], 180)
		out[i] = fmt.Sprintf("%.0f°", (lo+hi)/2)
	}
	return out
}

// rankedBy returns a copy of rows ordered by key, largest first. Equal keys
// keep their input order.
func rankedBy(rows []kinematics.Stats, key func(kinematics.Stats) float64) []kinematics.Stats {
	out := make([]kinematics.Stats, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

// topTrajectories returns the trajectories of the n entities with the longest
// total distance, longest first. n <= 0 keeps every entity that has a row.
func topTrajectories(trajectories []*kinematics.Trajectory, rows []kinematics.Stats, n int) []*kinematics.Trajectory {
	byID := make(map[string]*kinematics.Trajectory, len(trajectories))
	for _, tr := range trajectories {
		byID[tr.EntityID] = tr
	}
	ranked := rankedBy(rows, func(s kinematics.Stats) float64 { return s.TotalDistance })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]*kinematics.Trajectory, 0, len(ranked))
	for _, s := range ranked {
		if tr, ok := byID[s.EntityID]; ok {
			out = append(out, tr)
		}
	}
	return out
}

// drawable keeps trajectories with at least two samples.
func drawable(trajectories []*kinematics.Trajectory) []*kinematics.Trajectory {
	var out []*kinematics.Trajectory
	for _, tr := range trajectories {
		if tr.Len() >= 2 {
			out = append(out, tr)
		}
	}
	return out
}

func entityIDs(rows []kinematics.Stats) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.EntityID
	}
	return out
}
