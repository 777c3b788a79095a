package kinematics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) *Position { return &Position{X: x, Y: y} }

// track builds a FrameSet holding a single entity with one sample per frame.
func track(id string, samples ...Sample) FrameSet {
	fs := make(FrameSet, 0, len(samples))
	for _, s := range samples {
		fs = append(fs, FrameRecord{
			Index:        s.Frame,
			Observations: []Observation{{EntityID: id, Position: pos(s.X, s.Y), Color: "white"}},
		})
	}
	return fs
}

func TestExtract_ShortTrajectoriesExcluded(t *testing.T) {
	t.Parallel()

	fs := FrameSet{
		{Index: 0, Observations: []Observation{
			{EntityID: "solo", Position: pos(1, 1)},
			{EntityID: "ghost"},
		}},
		{Index: 1, Observations: []Observation{
			{EntityID: "ghost"},
		}},
	}

	assert.Empty(t, Extract(fs))
	assert.Empty(t, Extract(nil))
	assert.Empty(t, Extract(FrameSet{}))
}

func TestComputeStats_WorkedExample(t *testing.T) {
	t.Parallel()

	rows := Extract(track("duck-1",
		Sample{Frame: 0, X: 0, Y: 0},
		Sample{Frame: 1, X: 3, Y: 4},
		Sample{Frame: 2, X: 3, Y: 4},
	))
	require.Len(t, rows, 1)

	want := Stats{
		EntityID:        "duck-1",
		Color:           "white",
		NumFrames:       3,
		TotalDistance:   5,
		AverageSpeed:    2.5,
		MaxSpeed:        5,
		AvgAcceleration: 5,
		MaxAcceleration: 5,
		Duration:        3,
		// first segment points at 53.13°, sector round(1.18)=1; second
		// segment is stationary, atan2(0,0)=0 so sector 0. Tie -> sector 0.
		MainDirection: "Este",
		DirPercentage: 50,
		Efficiency:    1,
		StartX:        0,
		StartY:        0,
		EndX:          3,
		EndY:          4,
	}
	if diff := cmp.Diff(want, rows[0], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeStats_FrameGapUsedUnclamped(t *testing.T) {
	t.Parallel()

	rows := Extract(track("d", Sample{Frame: 0}, Sample{Frame: 5, X: 0, Y: 10}))
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].TotalDistance)
	assert.Equal(t, 2.0, rows[0].AverageSpeed)
	assert.Equal(t, 2.0, rows[0].MaxSpeed)
	assert.Equal(t, 6, rows[0].Duration)
	assert.Zero(t, rows[0].AvgAcceleration, "a single segment has no acceleration")
	assert.Zero(t, rows[0].MaxAcceleration)
}

func TestComputeStats_DuplicateFrameClampsGap(t *testing.T) {
	t.Parallel()

	tr := &Trajectory{EntityID: "d", Samples: []Sample{
		{Frame: 4, X: 0, Y: 0},
		{Frame: 4, X: 6, Y: 8},
	}}
	s, ok := ComputeStats(tr)
	require.True(t, ok)
	assert.Equal(t, 10.0, s.MaxSpeed)
	assert.Equal(t, 1, s.Duration)
}

func TestComputeStats_PureEastMotion(t *testing.T) {
	t.Parallel()

	rows := Extract(track("d",
		Sample{Frame: 0, X: 0},
		Sample{Frame: 1, X: 2},
		Sample{Frame: 3, X: 5},
		Sample{Frame: 4, X: 9},
	))
	require.Len(t, rows, 1)
	assert.Equal(t, "Este", rows[0].MainDirection)
	assert.Equal(t, 100.0, rows[0].DirPercentage)
	assert.Equal(t, 1.0, rows[0].Efficiency)
}

func TestComputeStats_Acceleration(t *testing.T) {
	t.Parallel()

	// speeds 1, 3, 2 -> |accel| 2, 1
	rows := Extract(track("d",
		Sample{Frame: 0, X: 0},
		Sample{Frame: 1, X: 1},
		Sample{Frame: 2, X: 4},
		Sample{Frame: 3, X: 6},
	))
	require.Len(t, rows, 1)
	assert.InDelta(t, 2.0, rows[0].AverageSpeed, 1e-12)
	assert.InDelta(t, 1.5, rows[0].AvgAcceleration, 1e-12)
	assert.InDelta(t, 2.0, rows[0].MaxAcceleration, 1e-12)
}

func TestComputeStats_StationaryEfficiencyIsZero(t *testing.T) {
	t.Parallel()

	rows := Extract(track("d", Sample{Frame: 0, X: 7, Y: 7}, Sample{Frame: 1, X: 7, Y: 7}))
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].TotalDistance)
	assert.Zero(t, rows[0].Efficiency)
	assert.False(t, math.IsNaN(rows[0].Efficiency))
}

func TestComputeStats_DurationIsInclusiveSpan(t *testing.T) {
	t.Parallel()

	rows := Extract(track("d", Sample{Frame: 0}, Sample{Frame: 9, X: 1}))
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Duration)
	assert.Equal(t, 2, rows[0].NumFrames)
}

func TestComputeStats_TriangleInequality(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(30)
		tr := &Trajectory{EntityID: "r"}
		frame := 0
		for i := 0; i < n; i++ {
			frame += rng.Intn(4)
			tr.Samples = append(tr.Samples, Sample{
				Frame: frame,
				X:     rng.Float64() * 640,
				Y:     rng.Float64() * 480,
			})
		}
		s, ok := ComputeStats(tr)
		require.True(t, ok)

		first, last := tr.Samples[0], tr.Samples[n-1]
		direct := math.Hypot(last.X-first.X, last.Y-first.Y)
		assert.GreaterOrEqual(t, s.TotalDistance+1e-9, direct)
		if s.TotalDistance > 0 {
			assert.GreaterOrEqual(t, s.Efficiency, 0.0)
			assert.LessOrEqual(t, s.Efficiency, 1.0+1e-9)
		}
		assert.GreaterOrEqual(t, s.MaxSpeed, s.AverageSpeed)
		assert.GreaterOrEqual(t, s.DirPercentage, 100.0/float64(SectorCount)-1e-9)
	}
}

func TestExtract_FrameOrderIndependent(t *testing.T) {
	t.Parallel()

	frames := FrameSet{
		{Index: 10, Observations: []Observation{{EntityID: "a", Position: pos(10, 0)}, {EntityID: "b", Position: pos(0, 10)}}},
		{Index: 2, Observations: []Observation{{EntityID: "a", Position: pos(2, 0)}}},
		{Index: 0, Observations: []Observation{{EntityID: "a", Position: pos(0, 0)}, {EntityID: "b", Position: pos(0, 0)}}},
		{Index: 9, Observations: []Observation{{EntityID: "b", Position: pos(0, 3)}}},
	}
	want := Extract(frames)
	require.Len(t, want, 2)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make(FrameSet, len(frames))
		copy(shuffled, frames)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if diff := cmp.Diff(want, Extract(shuffled)); diff != "" {
			t.Fatalf("shuffled input changed output (-want +got):\n%s", diff)
		}
	}
}

func TestBuildTrajectories(t *testing.T) {
	t.Parallel()

	fs := FrameSet{
		{Index: 12, Observations: []Observation{{EntityID: "b", Position: pos(5, 5), Color: "red"}}},
		{Index: 2, Observations: []Observation{
			{EntityID: "b", Color: "white"}, // first appearance fixes color, no position
			{EntityID: "a", Position: pos(1, 1)},
		}},
		{Index: 3, Observations: []Observation{{EntityID: "a", Position: pos(2, 2), Color: "black"}}},
	}

	trs := BuildTrajectories(fs)
	require.Len(t, trs, 2)

	assert.Equal(t, "b", trs[0].EntityID, "order follows first appearance in frame order")
	assert.Equal(t, "white", trs[0].Color)
	assert.Equal(t, []Sample{{Frame: 12, X: 5, Y: 5}}, trs[0].Samples)

	assert.Equal(t, "a", trs[1].EntityID)
	assert.Empty(t, trs[1].Color, "no color is left as given")
	assert.Equal(t, []Sample{{Frame: 2, X: 1, Y: 1}, {Frame: 3, X: 2, Y: 2}}, trs[1].Samples)
}

func TestBuildTrajectories_FrameNumberKeepsRecordOrder(t *testing.T) {
	t.Parallel()

	five, two := 5, 2
	fs := FrameSet{
		{Index: 1, FrameNumber: &two, Observations: []Observation{{EntityID: "a", Position: pos(10, 0)}}},
		{Index: 0, FrameNumber: &five, Observations: []Observation{{EntityID: "a", Position: pos(0, 0)}}},
	}

	trs := BuildTrajectories(fs)
	require.Len(t, trs, 1)
	assert.Equal(t, []Sample{{Frame: 5, X: 0, Y: 0}, {Frame: 2, X: 10, Y: 0}}, trs[0].Samples)

	rows := StatsFor(trs)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].StartX)
	assert.Equal(t, 10.0, rows[0].EndX)
	assert.Equal(t, -2, rows[0].Duration)
	assert.Equal(t, "Este", rows[0].MainDirection)
	assert.Equal(t, 10.0, rows[0].MaxSpeed)
}

func TestFrameRecord_Frame(t *testing.T) {
	t.Parallel()

	n := 42
	assert.Equal(t, 7, FrameRecord{Index: 7}.Frame())
	assert.Equal(t, 42, FrameRecord{Index: 7, FrameNumber: &n}.Frame())
}

func TestBuildTrajectories_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	fs := FrameSet{{Index: 5}, {Index: 1}, {Index: 3}}
	_ = BuildTrajectories(fs)
	assert.Equal(t, []int{5, 1, 3}, []int{fs[0].Index, fs[1].Index, fs[2].Index})
}

func TestSpeedSeries(t *testing.T) {
	t.Parallel()

	tr := &Trajectory{Samples: []Sample{{Frame: 0}, {Frame: 2, X: 4}, {Frame: 2, X: 4, Y: 3}}}
	assert.Equal(t, []SpeedSample{{Frame: 2, Speed: 2}, {Frame: 2, Speed: 3}}, SpeedSeries(tr))
	assert.Nil(t, SpeedSeries(&Trajectory{Samples: []Sample{{Frame: 1}}}))
}

func TestSortByTotalDistance(t *testing.T) {
	t.Parallel()

	rows := []Stats{
		{EntityID: "a", TotalDistance: 3},
		{EntityID: "b", TotalDistance: 9},
		{EntityID: "c", TotalDistance: 3},
		{EntityID: "d", TotalDistance: 12},
	}
	SortByTotalDistance(rows)

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.EntityID
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids)
}
