package kinematics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a statistics table into the run-level figures shown on
// the report cards, the conclusions and the summary text file.
type Summary struct {
	Entities          int
	MeanTotalDistance float64
	MeanAverageSpeed  float64
	MeanDuration      float64

	// MaxSpeed is the highest per-segment speed of any entity.
	MaxSpeed       float64
	MaxSpeedEntity string

	MostActive Stats // longest total distance
	Fastest    Stats // highest average speed
	Longest    Stats // longest duration

	// DominantDirection is the main_direction shared by most entities and
	// DominantShare the percentage of entities that have it.
	DominantDirection string
	DominantShare     float64
}

// Summarise aggregates rows. Ties resolve to the earliest row. An empty table
// gives the zero Summary.
func Summarise(rows []Stats) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	distances := column(rows, func(s Stats) float64 { return s.TotalDistance })
	speeds := column(rows, func(s Stats) float64 { return s.AverageSpeed })
	durations := column(rows, func(s Stats) float64 { return float64(s.Duration) })

	sum := Summary{
		Entities:          len(rows),
		MeanTotalDistance: stat.Mean(distances, nil),
		MeanAverageSpeed:  stat.Mean(speeds, nil),
		MeanDuration:      stat.Mean(durations, nil),
		MostActive:        rows[argMax(distances)],
		Fastest:           rows[argMax(speeds)],
		Longest:           rows[argMax(durations)],
	}

	peak := rows[argMax(column(rows, func(s Stats) float64 { return s.MaxSpeed }))]
	sum.MaxSpeed = peak.MaxSpeed
	sum.MaxSpeedEntity = peak.EntityID

	counts := make(map[string]int)
	var order []string
	for _, r := range rows {
		if counts[r.MainDirection] == 0 {
			order = append(order, r.MainDirection)
		}
		counts[r.MainDirection]++
	}
	for _, dir := range order {
		if counts[dir] > counts[sum.DominantDirection] {
			sum.DominantDirection = dir
		}
	}
	sum.DominantShare = float64(counts[sum.DominantDirection]) / float64(len(rows)) * 100

	return sum
}

// CorrelationLabels names the metrics of CorrelationMatrix in row order.
var CorrelationLabels = []string{
	"total_distance", "average_speed", "max_speed", "num_frames", "duration",
}

// CorrelationMatrix returns the Pearson correlation between the metrics in
// CorrelationLabels across rows. Cells involving a constant metric are NaN.
// It returns nil with fewer than two rows.
func CorrelationMatrix(rows []Stats) *mat.SymDense {
	if len(rows) < 2 {
		return nil
	}
	cols := [][]float64{
		column(rows, func(s Stats) float64 { return s.TotalDistance }),
		column(rows, func(s Stats) float64 { return s.AverageSpeed }),
		column(rows, func(s Stats) float64 { return s.MaxSpeed }),
		column(rows, func(s Stats) float64 { return float64(s.NumFrames) }),
		column(rows, func(s Stats) float64 { return float64(s.Duration) }),
	}

	k := len(cols)
	corr := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := stat.Correlation(cols[i], cols[j], nil)
			if i == j && !math.IsNaN(v) {
				v = 1
			}
			corr.SetSym(i, j, v)
		}
	}
	return corr
}

func column(rows []Stats, f func(Stats) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

// argMax returns the first index holding the largest value.
func argMax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}
