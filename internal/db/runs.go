package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/trajectory.report/internal/kinematics"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one execution of the report pipeline.
type Run struct {
	ID            string    `json:"run_id"`
	Title         string    `json:"title"`
	DataFile      string    `json:"data_file"`
	OutputDir     string    `json:"output_dir"`
	TotalFrames   int       `json:"total_frames"`
	TotalEntities int       `json:"total_entities"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordRun stores run and its statistics table in one transaction. An
// empty run.ID is filled with a new UUID and a zero CreatedAt with the
// current time.
func (db *DB) RecordRun(ctx context.Context, run *Run, stats []kinematics.Stats) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs (
			run_id, title, data_file, output_dir, total_frames, total_entities, created_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Title, run.DataFile, run.OutputDir,
		run.TotalFrames, run.TotalEntities, run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entity_stats (
			run_id, entity_id, color, num_frames, total_distance, average_speed,
			max_speed, avg_acceleration, max_acceleration, duration,
			main_direction, dir_percentage, efficiency,
			start_x, start_y, end_x, end_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare stats insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err := stmt.ExecContext(ctx,
			run.ID, s.EntityID, s.Color, s.NumFrames, s.TotalDistance, s.AverageSpeed,
			s.MaxSpeed, s.AvgAcceleration, s.MaxAcceleration, s.Duration,
			s.MainDirection, s.DirPercentage, s.Efficiency,
			s.StartX, s.StartY, s.EndX, s.EndY,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stats for %s: %w", s.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, title, data_file, output_dir, total_frames, total_entities, created_unix`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r       Run
		created int64
	)
	if err := row.Scan(&r.ID, &r.Title, &r.DataFile, &r.OutputDir, &r.TotalFrames, &r.TotalEntities, &created); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all runs.
func (db *DB) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM report_runs ORDER BY created_unix DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM report_runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// RunStats returns the statistics table stored for a run in the order it
// was recorded.
func (db *DB) RunStats(ctx context.Context, id string) ([]kinematics.Stats, error) {
	if _, err := db.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT entity_id, color, num_frames, total_distance, average_speed,
		       max_speed, avg_acceleration, max_acceleration, duration,
		       main_direction, dir_percentage, efficiency,
		       start_x, start_y, end_x, end_y
		FROM entity_stats
		WHERE run_id = ?
		ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer rows.Close()

	stats := []kinematics.Stats{}
	for rows.Next() {
		var s kinematics.Stats
		err := rows.Scan(
			&s.EntityID, &s.Color, &s.NumFrames, &s.TotalDistance, &s.AverageSpeed,
			&s.MaxSpeed, &s.AvgAcceleration, &s.MaxAcceleration, &s.Duration,
			&s.MainDirection, &s.DirPercentage, &s.Efficiency,
			&s.StartX, &s.StartY, &s.EndX, &s.EndY,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run stats: %w", err)
	}
	return stats, nil
}

// DeleteRun removes a run and its statistics.
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_stats WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run stats: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM report_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return tx.Commit()
}
