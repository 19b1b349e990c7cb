package eventdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/wildlife.report/internal/percept"
)

// StatsSnapshot is a point-in-time copy of the detector's running counters,
// taken periodically so counter history survives restarts.
type StatsSnapshot struct {
	SnapshotID             string  `json:"snapshot_id"`
	CapturedAt             int64   `json:"captured_at"`
	FramesProcessed        uint64  `json:"frames_processed"`
	MotionDetections       uint64  `json:"motion_detections"`
	AcceptedDetections     uint64  `json:"accepted_detections"`
	FalsePositivesFiltered uint64  `json:"false_positives_filtered"`
	AnimalDetections       uint64  `json:"animal_detections"`
	NonAnimalDetections    uint64  `json:"non_animal_detections"`
	UnknownDetections      uint64  `json:"unknown_detections"`
	AvgProcessingMillis    float64 `json:"avg_processing_ms"`
}

// NewStatsSnapshot copies the detector counters into a snapshot row.
func NewStatsSnapshot(stats percept.RunningStatistics, at time.Time) *StatsSnapshot {
	return &StatsSnapshot{
		CapturedAt:             at.UnixNano(),
		FramesProcessed:        stats.FramesProcessed,
		MotionDetections:       stats.MotionDetections,
		AcceptedDetections:     stats.AcceptedDetections,
		FalsePositivesFiltered: stats.FalsePositivesFiltered,
		AnimalDetections:       stats.AnimalDetections,
		NonAnimalDetections:    stats.NonAnimalDetections,
		UnknownDetections:      stats.UnknownDetections,
		AvgProcessingMillis:    stats.AvgProcessingMillis,
	}
}

// StatsStore provides persistence for detector statistics snapshots.
type StatsStore struct {
	db *DB
}

// NewStatsStore creates a StatsStore backed by the given database.
func NewStatsStore(db *DB) *StatsStore {
	return &StatsStore{db: db}
}

const snapshotColumns = `snapshot_id, captured_at, frames_processed, motion_detections,
	accepted_detections, false_positives_filtered, animal_detections,
	non_animal_detections, unknown_detections, avg_processing_ms`

// Insert persists a snapshot. An empty SnapshotID gets a generated UUID.
func (s *StatsStore) Insert(snap *StatsSnapshot) error {
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	if snap.CapturedAt == 0 {
		snap.CapturedAt = time.Now().UnixNano()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO stats_snapshots (`+snapshotColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.SnapshotID, snap.CapturedAt, snap.FramesProcessed, snap.MotionDetections,
			snap.AcceptedDetections, snap.FalsePositivesFiltered, snap.AnimalDetections,
			snap.NonAnimalDetections, snap.UnknownDetections, snap.AvgProcessingMillis,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting stats snapshot %s: %w", snap.SnapshotID, err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none exists.
func (s *StatsStore) Latest() (*StatsSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT ` + snapshotColumns + `
		FROM stats_snapshots
		ORDER BY captured_at DESC
		LIMIT 1`)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan stats snapshot: %w", err)
	}
	return snap, nil
}

// ListRecent returns up to limit snapshots, newest first.
func (s *StatsStore) ListRecent(limit int) ([]*StatsSnapshot, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT `+snapshotColumns+`
		FROM stats_snapshots
		ORDER BY captured_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query stats snapshots: %w", err)
	}
	defer rows.Close()

	var out []*StatsSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stats snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(row scanner) (*StatsSnapshot, error) {
	var snap StatsSnapshot
	err := row.Scan(
		&snap.SnapshotID, &snap.CapturedAt, &snap.FramesProcessed, &snap.MotionDetections,
		&snap.AcceptedDetections, &snap.FalsePositivesFiltered, &snap.AnimalDetections,
		&snap.NonAnimalDetections, &snap.UnknownDetections, &snap.AvgProcessingMillis,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
