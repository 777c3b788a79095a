package kinematics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SortedFrames returns a copy of fs ordered by Index. Records sharing an
// index keep their input order. FrameNumber plays no part in the order.
func SortedFrames(fs FrameSet) []FrameRecord {
	out := make([]FrameRecord, len(fs))
	copy(out, fs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// BuildTrajectories groups observations into one Trajectory per entity, in
// order of each entity's first appearance. An entity's color is taken from
// its first record, resolved position or not, as given; observations without
// a position are skipped. Sample frames come from FrameRecord.Frame, so they
// need not ascend when frame numbers disagree with record order.
func BuildTrajectories(fs FrameSet) []*Trajectory {
	byID := make(map[string]*Trajectory)
	var order []*Trajectory

	for _, frame := range SortedFrames(fs) {
		n := frame.Frame()
		for _, obs := range frame.Observations {
			tr, ok := byID[obs.EntityID]
			if !ok {
				tr = &Trajectory{EntityID: obs.EntityID, Color: obs.Color}
				byID[obs.EntityID] = tr
				order = append(order, tr)
			}
			if obs.Position == nil {
				continue
			}
			tr.Samples = append(tr.Samples, Sample{
				Frame: n,
				X:     obs.Position.X,
				Y:     obs.Position.Y,
			})
		}
	}
	return order
}

// ComputeStats derives the statistics row for one trajectory. It returns
// false when the trajectory has fewer than two samples.
func ComputeStats(t *Trajectory) (Stats, bool) {
	n := t.Len()
	if n < 2 {
		return Stats{}, false
	}

	segments := n - 1
	distances := make([]float64, segments)
	speeds := make([]float64, segments)
	var sectors [SectorCount]int

	for i := 1; i < n; i++ {
		a, b := t.Samples[i-1], t.Samples[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		d := math.Sqrt(dx*dx + dy*dy)
		distances[i-1] = d
		speeds[i-1] = d / float64(frameGap(a, b))
		sectors[DirectionSector(dx, dy)]++
	}

	total := orderedSum(distances)

	var avgAcc, maxAcc float64
	if len(speeds) > 1 {
		acc := make([]float64, len(speeds)-1)
		for i := 1; i < len(speeds); i++ {
			acc[i-1] = math.Abs(speeds[i] - speeds[i-1])
		}
		avgAcc = orderedSum(acc) / float64(len(acc))
		maxAcc = floats.Max(acc)
	}

	main := mainSector(sectors)
	first, last := t.Samples[0], t.Samples[n-1]

	var efficiency float64
	if total > 0 {
		direct := math.Sqrt((last.X-first.X)*(last.X-first.X) + (last.Y-first.Y)*(last.Y-first.Y))
		efficiency = direct / total
	}

	return Stats{
		EntityID:        t.EntityID,
		Color:           t.Color,
		NumFrames:       n,
		TotalDistance:   total,
		AverageSpeed:    orderedSum(speeds) / float64(segments),
		MaxSpeed:        floats.Max(speeds),
		AvgAcceleration: avgAcc,
		MaxAcceleration: maxAcc,
		Duration:        last.Frame - first.Frame + 1,
		MainDirection:   DirectionName(main),
		DirPercentage:   float64(sectors[main]) / float64(segments) * 100,
		Efficiency:      efficiency,
		StartX:          first.X,
		StartY:          first.Y,
		EndX:            last.X,
		EndY:            last.Y,
	}, true
}

// Extract runs the whole extractor: sort, group, compute. Entities with fewer
// than two resolved positions are left out. An empty FrameSet yields nil.
func Extract(fs FrameSet) []Stats {
	return StatsFor(BuildTrajectories(fs))
}

// StatsFor computes rows for already grouped trajectories, keeping their order.
func StatsFor(trajectories []*Trajectory) []Stats {
	var out []Stats
	for _, tr := range trajectories {
		if s, ok := ComputeStats(tr); ok {
			out = append(out, s)
		}
	}
	return out
}

// SpeedSeries returns the per-segment speeds of t keyed by the frame each
// segment ends on.
func SpeedSeries(t *Trajectory) []SpeedSample {
	if t.Len() < 2 {
		return nil
	}
	out := make([]SpeedSample, 0, t.Len()-1)
	for i := 1; i < t.Len(); i++ {
		a, b := t.Samples[i-1], t.Samples[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		out = append(out, SpeedSample{
			Frame: b.Frame,
			Speed: math.Sqrt(dx*dx+dy*dy) / float64(frameGap(a, b)),
		})
	}
	return out
}

// SortByTotalDistance orders rows by total distance, longest first. Equal
// distances keep their relative order.
func SortByTotalDistance(rows []Stats) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalDistance > rows[j].TotalDistance
	})
}

// frameGap is the frame difference between two samples, clamped to 1 so
// duplicate frames neither divide by zero nor inflate speed.
func frameGap(a, b Sample) int {
	if gap := b.Frame - a.Frame; gap > 1 {
		return gap
	}
	return 1
}

// orderedSum adds xs left to right. floats.Sum may reassociate the additions.
func orderedSum(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum
}
