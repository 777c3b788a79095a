package kinematics

// DefaultColor is the color of an observation whose record has no color key.
const DefaultColor = "yellow"

// Position is a resolved 2D image-space position in pixels.
type Position struct {
	X float64
	Y float64
}

// Observation is one entity's entry in a frame. Position is nil when the
// tracker saw the entity but could not resolve where it was.
type Observation struct {
	EntityID string
	Position *Position
	Color    string
}

// FrameRecord holds every observation made in one frame, in the order the
// source document listed them. Index is the record's key in the document and
// decides processing order. FrameNumber, when set, is the frame value given
// to the record's samples instead of Index.
type FrameRecord struct {
	Index        int
	FrameNumber  *int
	Observations []Observation
}

// Frame returns the frame value of the record's samples.
func (r FrameRecord) Frame() int {
	if r.FrameNumber != nil {
		return *r.FrameNumber
	}
	return r.Index
}

// FrameSet is the full input of one run. Records may be in any order; the
// extractor sorts them by Index.
type FrameSet []FrameRecord

// Sample is one resolved position of an entity.
type Sample struct {
	Frame int
	X     float64
	Y     float64
}

// Trajectory is an entity's resolved positions in record order.
type Trajectory struct {
	EntityID string
	Color    string
	Samples  []Sample
}

// Len returns the number of samples.
func (t *Trajectory) Len() int { return len(t.Samples) }

// Stats is one row of the per-entity statistics table. Speeds are in pixels
// per frame, accelerations in pixels per frame per segment.
type Stats struct {
	EntityID        string  `json:"duck_id"`
	Color           string  `json:"color"`
	NumFrames       int     `json:"num_frames"`
	TotalDistance   float64 `json:"total_distance"`
	AverageSpeed    float64 `json:"average_speed"`
	MaxSpeed        float64 `json:"max_speed"`
	AvgAcceleration float64 `json:"avg_acceleration"`
	MaxAcceleration float64 `json:"max_acceleration"`
	Duration        int     `json:"duration"`
	MainDirection   string  `json:"main_direction"`
	DirPercentage   float64 `json:"dir_percentage"`
	Efficiency      float64 `json:"efficiency"`
	StartX          float64 `json:"start_x"`
	StartY          float64 `json:"start_y"`
	EndX            float64 `json:"end_x"`
	EndY            float64 `json:"end_y"`
}

// SpeedSample is the speed of the segment ending at Frame.
type SpeedSample struct {
	Frame int
	Speed float64
}
