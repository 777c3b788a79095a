package testutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// TrackingFixture builds tracking documents in the shape the tracker writes:
//
//	{"frames": {"<idx>": {"frame_number": n, "positions": {"<id>": {"position": [x, y], "color": "..."}}}}}
//
// Frames and entities are emitted in the order they were first added, so
// tests can produce out-of-order keys deliberately.
type TrackingFixture struct {
	frames []*fixtureFrame
	byKey  map[string]*fixtureFrame
}

type fixtureFrame struct {
	key         string
	frameNumber *int
	entries     []fixtureEntry
}

type fixtureEntry struct {
	id       string
	position []float64 // nil renders as null
	color    string
}

// NewTrackingFixture returns an empty fixture.
func NewTrackingFixture() *TrackingFixture {
	return &TrackingFixture{byKey: make(map[string]*fixtureFrame)}
}

func (f *TrackingFixture) frame(idx int) *fixtureFrame {
	key := strconv.Itoa(idx)
	fr, ok := f.byKey[key]
	if !ok {
		fr = &fixtureFrame{key: key}
		f.byKey[key] = fr
		f.frames = append(f.frames, fr)
	}
	return fr
}

// Add records id at (x, y) in frame idx with no color.
func (f *TrackingFixture) Add(idx int, id string, x, y float64) *TrackingFixture {
	return f.AddColored(idx, id, "", x, y)
}

// AddColored records id at (x, y) in frame idx with color.
func (f *TrackingFixture) AddColored(idx int, id, color string, x, y float64) *TrackingFixture {
	fr := f.frame(idx)
	fr.entries = append(fr.entries, fixtureEntry{id: id, position: []float64{x, y}, color: color})
	return f
}

// AddMissing records id in frame idx with a null position.
func (f *TrackingFixture) AddMissing(idx int, id, color string) *TrackingFixture {
	fr := f.frame(idx)
	fr.entries = append(fr.entries, fixtureEntry{id: id, color: color})
	return f
}

// EmptyFrame adds frame idx with no positions.
func (f *TrackingFixture) EmptyFrame(idx int) *TrackingFixture {
	f.frame(idx)
	return f
}

// FrameNumber sets the explicit frame_number of frame idx.
func (f *TrackingFixture) FrameNumber(idx, n int) *TrackingFixture {
	f.frame(idx).frameNumber = &n
	return f
}

// JSON renders the fixture.
func (f *TrackingFixture) JSON() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"frames":{`)
	for i, fr := range f.frames {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(&buf, fr.key)
		buf.WriteString(`:{`)
		if fr.frameNumber != nil {
			buf.WriteString(`"frame_number":`)
			buf.WriteString(strconv.Itoa(*fr.frameNumber))
			buf.WriteByte(',')
		}
		buf.WriteString(`"positions":{`)
		for j, e := range fr.entries {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeJSON(&buf, e.id)
			buf.WriteString(`:{"position":`)
			writeJSON(&buf, e.position)
			if e.color != "" {
				buf.WriteString(`,"color":`)
				writeJSON(&buf, e.color)
			}
			buf.WriteByte('}')
		}
		buf.WriteString(`}}`)
	}
	buf.WriteString(`}}`)
	return buf.Bytes()
}

func writeJSON(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	buf.Write(b)
}
