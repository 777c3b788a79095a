// Package kinematics turns per-frame position records into per-entity motion
// statistics: path length, speed, acceleration, dominant heading and path
// efficiency.
//
// The extractor is a pure function over an in-memory FrameSet. Frames are
// ordered by their integer index before grouping, entities are grouped into
// one Trajectory each, and every Trajectory with at least two samples yields
// one Stats row. Segment sums run in trajectory order so repeated runs over
// the same input are bit-identical.
//
// No file, chart or database code belongs in this package; the tracking,
// charts, report and db packages consume its output.
package kinematics
