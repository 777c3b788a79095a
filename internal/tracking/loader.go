// Package tracking reads the merged tracking document written by the tracker
// and turns it into the frame records the kinematics extractor consumes.
//
// The document looks like:
//
//	{
//	  "frames": {
//	    "0": {
//	      "frame_number": 0,
//	      "positions": {
//	        "duck_1": {"position": [312.5, 140.0], "color": "white"},
//	        "duck_2": {"position": null, "color": "yellow"}
//	      }
//	    }
//	  }
//	}
//
// Member order inside "positions" is significant: it decides the order in
// which entities first appear and so the order of the statistics table.
package tracking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
	"github.com/banshee-data/trajectory.report/internal/monitoring"
)

// Dataset is a decoded tracking document.
type Dataset struct {
	Frames kinematics.FrameSet

	// TotalFrames is the number of frame records in the document.
	TotalFrames int

	// InitialEntities is the number of entities listed in frame "0", or the
	// number of distinct entities when the document has no frame "0".
	InitialEntities int
}

// Load reads and parses the tracking document at path.
func Load(fsys fsutil.FileSystem, path string) (*Dataset, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking data: %w", err)
	}
	ds, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracking data %s: %w", path, err)
	}
	monitoring.Logf("Loaded %d frames (%d entities in first frame) from %s",
		ds.TotalFrames, ds.InitialEntities, path)
	return ds, nil
}

// Parse decodes a tracking document. A document without a "frames" member
// is valid and empty. Non-integer frame keys, non-numeric coordinates and
// positions that are not [x, y] pairs are errors.
func Parse(r io.Reader) (*Dataset, error) {
	var doc struct {
		Frames json.RawMessage `json:"frames"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	ds := &Dataset{}
	seen := make(map[string]bool)
	frameZero := -1

	err := eachMember(doc.Frames, func(key string, raw json.RawMessage) error {
		rec, err := decodeFrame(key, raw)
		if err != nil {
			return err
		}
		if key == "0" {
			frameZero = len(rec.Observations)
		}
		for _, obs := range rec.Observations {
			seen[obs.EntityID] = true
		}
		ds.Frames = append(ds.Frames, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ds.TotalFrames = len(ds.Frames)
	ds.InitialEntities = frameZero
	if frameZero < 0 {
		ds.InitialEntities = len(seen)
	}
	return ds, nil
}

type rawFrame struct {
	FrameNumber json.RawMessage `json:"frame_number"`
	Positions   json.RawMessage `json:"positions"`
}

type rawObservation struct {
	Position json.RawMessage `json:"position"`
	Color    json.RawMessage `json:"color"` // nil when the key is absent
}

// color returns the observation's color. A missing key means DefaultColor;
// an explicit null or "" stays empty.
func (o *rawObservation) color() string {
	if o.Color == nil {
		return kinematics.DefaultColor
	}
	var c string
	if isNull(o.Color) || json.Unmarshal(o.Color, &c) != nil {
		return ""
	}
	return c
}

func decodeFrame(key string, raw json.RawMessage) (kinematics.FrameRecord, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return kinematics.FrameRecord{}, fmt.Errorf("frame key %q: %w", key, err)
	}

	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return kinematics.FrameRecord{}, fmt.Errorf("frame %q: %w", key, err)
	}

	rec := kinematics.FrameRecord{Index: idx}
	if !isNull(f.FrameNumber) {
		n, err := parseFrameNumber(f.FrameNumber)
		if err != nil {
			return kinematics.FrameRecord{}, fmt.Errorf("frame %q: frame_number: %w", key, err)
		}
		rec.FrameNumber = &n
	}

	err = eachMember(f.Positions, func(id string, raw json.RawMessage) error {
		var o rawObservation
		if err := json.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("frame %q entity %q: %w", key, id, err)
		}
		pos, err := parsePosition(o.Position)
		if err != nil {
			return fmt.Errorf("frame %q entity %q: %w", key, id, err)
		}
		obs := kinematics.Observation{EntityID: id, Position: pos, Color: o.color()}
		rec.Observations = append(rec.Observations, obs)
		return nil
	})
	if err != nil {
		return kinematics.FrameRecord{}, err
	}
	return rec, nil
}

// parsePosition accepts null, [] and [x, y]. The first two mean the tracker
// had no fix and yield nil.
func parsePosition(raw json.RawMessage) (*kinematics.Position, error) {
	if isNull(raw) {
		return nil, nil
	}
	var xy []float64
	if err := json.Unmarshal(raw, &xy); err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	switch len(xy) {
	case 0:
		return nil, nil
	case 2:
		return &kinematics.Position{X: xy[0], Y: xy[1]}, nil
	default:
		return nil, fmt.Errorf("position: want [x, y], got %d values", len(xy))
	}
}

// parseFrameNumber accepts an integer, an integral float or a numeric string.
func parseFrameNumber(raw json.RawMessage) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// eachMember calls fn for every member of the JSON object in raw, in
// document order. Empty input and null are treated as an empty object.
func eachMember(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	if isNull(raw) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
