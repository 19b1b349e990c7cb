package eventdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/wildlife.report/internal/percept"
)

// Detection is one persisted accepted detection. Times are stored as Unix
// nanoseconds so ordering survives the round trip exactly.
type Detection struct {
	DetectionID        string  `json:"detection_id"`
	DetectedAt         int64   `json:"detected_at"`
	Kind               string  `json:"kind"`
	Confidence         float64 `json:"confidence"`
	MotionConfidence   string  `json:"motion_confidence"`
	FalsePositiveScore float64 `json:"false_positive_score"`
	RegionCount        int     `json:"region_count"`
	BoxX               int     `json:"box_x"`
	BoxY               int     `json:"box_y"`
	BoxWidth           int     `json:"box_width"`
	BoxHeight          int     `json:"box_height"`
	RelativeArea       float64 `json:"relative_area"`
	SizeCategory       string  `json:"size_category"`
	MeanIntensity      float64 `json:"mean_intensity"`
	ChangedPixels      int     `json:"changed_pixels"`
	Degraded           bool    `json:"degraded"`
	ProcessingMillis   float64 `json:"processing_ms"`
}

// NewDetection flattens an accepted analysis outcome into a Detection row.
// The primary region is the one with the most changed pixels, matching the
// region the classifier and size estimator looked at.
func NewDetection(res percept.AnalysisResult) *Detection {
	d := &Detection{
		DetectedAt:         res.Timestamp.UnixNano(),
		Kind:               string(res.Classification.Kind),
		Confidence:         res.Confidence,
		MotionConfidence:   res.Motion.Confidence.String(),
		FalsePositiveScore: res.FalsePositiveScore,
		RegionCount:        len(res.Motion.Regions),
		RelativeArea:       res.Size.RelativeArea,
		SizeCategory:       res.Size.Category.String(),
		MeanIntensity:      res.Motion.MeanIntensity,
		ChangedPixels:      res.Motion.ChangedPixels,
		Degraded:           res.Degraded,
		ProcessingMillis:   float64(res.ProcessingTime.Microseconds()) / 1000.0,
	}
	if d.Kind == "" {
		d.Kind = string(percept.KindUnknown)
	}

	var primary percept.MotionRegion
	for _, r := range res.Motion.Regions {
		if r.PixelCount >= primary.PixelCount {
			primary = r
		}
	}
	d.BoxX = primary.Box.X
	d.BoxY = primary.Box.Y
	d.BoxWidth = primary.Box.Width
	d.BoxHeight = primary.Box.Height
	return d
}

// Time returns the detection timestamp.
func (d *Detection) Time() time.Time { return time.Unix(0, d.DetectedAt) }

// DetectionStore provides persistence for accepted detections.
type DetectionStore struct {
	db *DB
}

// NewDetectionStore creates a DetectionStore backed by the given database.
func NewDetectionStore(db *DB) *DetectionStore {
	return &DetectionStore{db: db}
}

const detectionColumns = `detection_id, detected_at, kind, confidence, motion_confidence,
	false_positive_score, region_count, box_x, box_y, box_width, box_height,
	relative_area, size_category, mean_intensity, changed_pixels, degraded, processing_ms`

// Insert persists a detection. An empty DetectionID gets a generated UUID.
func (s *DetectionStore) Insert(d *Detection) error {
	if d.DetectionID == "" {
		d.DetectionID = uuid.New().String()
	}
	if d.DetectedAt == 0 {
		d.DetectedAt = time.Now().UnixNano()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO detections (`+detectionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.DetectionID, d.DetectedAt, d.Kind, d.Confidence, d.MotionConfidence,
			d.FalsePositiveScore, d.RegionCount, d.BoxX, d.BoxY, d.BoxWidth, d.BoxHeight,
			d.RelativeArea, d.SizeCategory, d.MeanIntensity, d.ChangedPixels, d.Degraded,
			d.ProcessingMillis,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting detection %s: %w", d.DetectionID, err)
	}
	return nil
}

// Get returns a single detection by ID.
func (s *DetectionStore) Get(detectionID string) (*Detection, error) {
	row := s.db.QueryRow(`
		SELECT `+detectionColumns+`
		FROM detections
		WHERE detection_id = ?`, detectionID)

	d, err := scanDetection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("detection %s not found", detectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan detection: %w", err)
	}
	return d, nil
}

// ListRecent returns up to limit detections, newest first.
func (s *DetectionStore) ListRecent(limit int) ([]*Detection, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT `+detectionColumns+`
		FROM detections
		ORDER BY detected_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	var out []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListSince returns detections at or after the given time, oldest first.
func (s *DetectionStore) ListSince(since time.Time) ([]*Detection, error) {
	rows, err := s.db.Query(`
		SELECT `+detectionColumns+`
		FROM detections
		WHERE detected_at >= ?
		ORDER BY detected_at ASC`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query detections since %s: %w", since, err)
	}
	defer rows.Close()

	var out []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountByKind returns detection totals grouped by classification kind.
func (s *DetectionStore) CountByKind() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM detections GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count detections by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// Delete removes a detection by ID.
func (s *DetectionStore) Delete(detectionID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM detections WHERE detection_id = ?`, detectionID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("detection %s not found", detectionID)
		}
		return nil
	})
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDetection(row scanner) (*Detection, error) {
	var d Detection
	err := row.Scan(
		&d.DetectionID, &d.DetectedAt, &d.Kind, &d.Confidence, &d.MotionConfidence,
		&d.FalsePositiveScore, &d.RegionCount, &d.BoxX, &d.BoxY, &d.BoxWidth, &d.BoxHeight,
		&d.RelativeArea, &d.SizeCategory, &d.MeanIntensity, &d.ChangedPixels, &d.Degraded,
		&d.ProcessingMillis,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
