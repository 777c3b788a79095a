package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/trajectory.report/internal/fsutil"
	"github.com/banshee-data/trajectory.report/internal/kinematics"
)

// StatsHeader is the header row of the statistics CSV.
var StatsHeader = []string{
	"duck_id", "color", "num_frames", "total_distance", "average_speed",
	"max_speed", "avg_acceleration", "max_acceleration", "duration",
	"main_direction", "dir_percentage", "efficiency",
	"start_x", "start_y", "end_x", "end_y",
}

// WriteStatsCSV writes rows to w, longest total distance first. rows is not
// modified.
func WriteStatsCSV(w io.Writer, rows []kinematics.Stats) error {
	sorted := make([]kinematics.Stats, len(rows))
	copy(sorted, rows)
	kinematics.SortByTotalDistance(sorted)

	cw := csv.NewWriter(w)
	if err := cw.Write(StatsHeader); err != nil {
		return err
	}
	for _, s := range sorted {
		row := []string{
			s.EntityID,
			s.Color,
			strconv.Itoa(s.NumFrames),
			formatFloat(s.TotalDistance),
			formatFloat(s.AverageSpeed),
			formatFloat(s.MaxSpeed),
			formatFloat(s.AvgAcceleration),
			formatFloat(s.MaxAcceleration),
			strconv.Itoa(s.Duration),
			s.MainDirection,
			formatFloat(s.DirPercentage),
			formatFloat(s.Efficiency),
			formatFloat(s.StartX),
			formatFloat(s.StartY),
			formatFloat(s.EndX),
			formatFloat(s.EndY),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSummary writes the plain text run summary.
func WriteSummary(w io.Writer, rows []kinematics.Stats) error {
	sum := kinematics.Summarise(rows)

	var b bytes.Buffer
	b.WriteString("GLOBAL STATISTICS SUMMARY\n")
	b.WriteString("=========================\n\n")
	fmt.Fprintf(&b, "Entities analysed: %d\n", sum.Entities)
	if sum.Entities > 0 {
		fmt.Fprintf(&b, "Mean total distance: %.2f pixels\n", sum.MeanTotalDistance)
		fmt.Fprintf(&b, "Mean average speed: %.2f pixels/frame\n", sum.MeanAverageSpeed)
		fmt.Fprintf(&b, "Highest speed recorded: %.2f pixels/frame (entity %s)\n", sum.MaxSpeed, sum.MaxSpeedEntity)
		fmt.Fprintf(&b, "Mean time in view: %.1f frames\n\n", sum.MeanDuration)
		fmt.Fprintf(&b, "Most active: %s (distance: %.2f pixels)\n", sum.MostActive.EntityID, sum.MostActive.TotalDistance)
		fmt.Fprintf(&b, "Fastest: %s (speed: %.2f pixels/frame)\n", sum.Fastest.EntityID, sum.Fastest.AverageSpeed)
		fmt.Fprintf(&b, "Longest in view: %s (%d frames)\n", sum.Longest.EntityID, sum.Longest.Duration)
	}
	_, err := w.Write(b.Bytes())
	return err
}

// SaveStatsCSV writes the statistics CSV to path.
func SaveStatsCSV(fsys fsutil.FileSystem, path string, rows []kinematics.Stats) error {
	var buf bytes.Buffer
	if err := WriteStatsCSV(&buf, rows); err != nil {
		return fmt.Errorf("failed to encode stats csv: %w", err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write stats csv: %w", err)
	}
	return nil
}

// SaveSummary writes the summary text file to path.
func SaveSummary(fsys fsutil.FileSystem, path string, rows []kinematics.Stats) error {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, rows); err != nil {
		return err
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
