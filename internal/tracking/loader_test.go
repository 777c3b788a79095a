package tracking

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
	"github.com/banshee-data/trajectory.report/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestParse_PreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	doc := testutil.NewTrackingFixture().
		AddColored(10, "zeta", "white", 5, 6).
		AddMissing(10, "alpha", "black").
		AddColored(2, "mid", "", 1, 2).
		JSON()

	ds, err := Parse(strings.NewReader(string(doc)))
	require.NoError(t, err)

	want := kinematics.FrameSet{
		{Index: 10, Observations: []kinematics.Observation{
			{EntityID: "zeta", Position: &kinematics.Position{X: 5, Y: 6}, Color: "white"},
			{EntityID: "alpha", Color: "black"},
		}},
		{Index: 2, Observations: []kinematics.Observation{
			{EntityID: "mid", Position: &kinematics.Position{X: 1, Y: 2}, Color: kinematics.DefaultColor},
		}},
	}
	if diff := cmp.Diff(want, ds.Frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, ds.TotalFrames)
	assert.Equal(t, 3, ds.InitialEntities, "no frame 0: distinct entities")
}

func TestParse_FrameZeroEntities(t *testing.T) {
	t.Parallel()

	doc := testutil.NewTrackingFixture().
		Add(0, "a", 0, 0).
		AddMissing(0, "b", "").
		Add(1, "a", 1, 1).
		Add(1, "c", 4, 4).
		JSON()

	ds, err := Parse(strings.NewReader(string(doc)))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.InitialEntities)
	assert.Equal(t, 2, ds.TotalFrames)
}

func TestParse_FrameNumberSetsSampleFrame(t *testing.T) {
	t.Parallel()

	doc := testutil.NewTrackingFixture().
		Add(0, "a", 0, 0).FrameNumber(0, 100).
		Add(1, "a", 3, 4).FrameNumber(1, 105).
		JSON()

	ds, err := Parse(strings.NewReader(string(doc)))
	require.NoError(t, err)
	require.Len(t, ds.Frames, 2)
	assert.Equal(t, 0, ds.Frames[0].Index)
	assert.Equal(t, 100, ds.Frames[0].Frame())
	assert.Equal(t, 105, ds.Frames[1].Frame())

	rows := kinematics.Extract(ds.Frames)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.0, rows[0].AverageSpeed)
	assert.Equal(t, 6, rows[0].Duration)
}

func TestParse_KeyOrderWinsOverFrameNumber(t *testing.T) {
	t.Parallel()

	doc := testutil.NewTrackingFixture().
		Add(1, "a", 10, 0).FrameNumber(1, 2).
		Add(0, "a", 0, 0).FrameNumber(0, 5).
		JSON()

	ds, err := Parse(strings.NewReader(string(doc)))
	require.NoError(t, err)

	rows := kinematics.Extract(ds.Frames)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, [2]float64{0, 0}, [2]float64{row.StartX, row.StartY})
	assert.Equal(t, [2]float64{10, 0}, [2]float64{row.EndX, row.EndY})
	assert.Equal(t, -2, row.Duration)
	assert.Equal(t, "Este", row.MainDirection)
	assert.Equal(t, 10.0, row.AverageSpeed, "backwards frame gap clamps to 1")
}

func TestParse_FrameNumberForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"integer", `7`, 7},
		{"float", `7.0`, 7},
		{"string", `"7"`, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := `{"frames":{"0":{"frame_number":` + tt.raw + `,"positions":{}}}}`
			ds, err := Parse(strings.NewReader(doc))
			require.NoError(t, err)
			require.Len(t, ds.Frames, 1)
			require.NotNil(t, ds.Frames[0].FrameNumber)
			assert.Equal(t, tt.want, ds.Frames[0].Frame())
		})
	}
}

func TestParse_EmptyAndMissingPositions(t *testing.T) {
	t.Parallel()

	doc := `{"frames":{
		"0":{"positions":{"a":{"position":[]},"b":{"color":"red"},"c":{"position":null}}},
		"1":{},
		"2":{"positions":null}
	}}`
	ds, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, ds.Frames, 3)

	for _, obs := range ds.Frames[0].Observations {
		assert.Nil(t, obs.Position, obs.EntityID)
	}
	assert.Equal(t, "red", ds.Frames[0].Observations[1].Color)
	assert.Empty(t, ds.Frames[1].Observations)
	assert.Empty(t, ds.Frames[2].Observations)
	assert.Equal(t, 3, ds.InitialEntities)
}

func TestParse_Colors(t *testing.T) {
	t.Parallel()

	doc := `{"frames":{"0":{"positions":{
		"absent":{"position":[0,0]},
		"empty":{"position":[0,0],"color":""},
		"null":{"position":[0,0],"color":null},
		"set":{"position":[0,0],"color":"white"}
	}}}}`
	ds, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, ds.Frames, 1)

	got := map[string]string{}
	for _, obs := range ds.Frames[0].Observations {
		got[obs.EntityID] = obs.Color
	}
	assert.Equal(t, map[string]string{
		"absent": kinematics.DefaultColor,
		"empty":  "",
		"null":   "",
		"set":    "white",
	}, got)
}

func TestParse_EmptyDocuments(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{`{}`, `{"frames":{}}`, `{"frames":null}`} {
		ds, err := Parse(strings.NewReader(doc))
		require.NoError(t, err, doc)
		assert.Empty(t, ds.Frames, doc)
		assert.Zero(t, ds.TotalFrames, doc)
		assert.Zero(t, ds.InitialEntities, doc)
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"invalid json", `{"frames":`, "invalid JSON"},
		{"frames not an object", `{"frames":[1,2]}`, "expected object"},
		{"non-integer key", `{"frames":{"first":{"positions":{}}}}`, `frame key "first"`},
		{"non-numeric coordinate", `{"frames":{"0":{"positions":{"a":{"position":["x",1]}}}}}`, `entity "a"`},
		{"wrong arity", `{"frames":{"0":{"positions":{"a":{"position":[1,2,3]}}}}}`, "got 3 values"},
		{"bad frame_number", `{"frames":{"0":{"frame_number":true,"positions":{}}}}`, "frame_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	mem := fsutil.NewMemoryFileSystem()
	doc := testutil.NewTrackingFixture().
		Add(0, "a", 0, 0).
		Add(1, "a", 3, 4).
		Add(2, "a", 3, 4).
		JSON()
	require.NoError(t, mem.WriteFile("/data/merged.json", doc, 0o644))

	ds, err := Load(mem, "/data/merged.json")
	require.NoError(t, err)

	rows := kinematics.Extract(ds.Frames)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0].TotalDistance)
	assert.Equal(t, 2.5, rows[0].AverageSpeed)
	assert.Equal(t, kinematics.DefaultColor, rows[0].Color)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	mem := fsutil.NewMemoryFileSystem()
	_, err := Load(mem, "/missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mem.WriteFile("/bad.json", []byte("not json"), 0o644))
	_, err = Load(mem, "/bad.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/bad.json")
}

func TestLoad_FromDisk(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, t.TempDir(), "merged.json",
		testutil.NewTrackingFixture().Add(0, "a", 1, 1).JSON())
	ds, err := Load(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.TotalFrames)
	assert.Equal(t, 1, ds.InitialEntities)
}
