package eventdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wildlife.report/internal/percept"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp())
	return db
}

func sampleDetection(at time.Time, kind string) *Detection {
	return &Detection{
		DetectedAt:         at.UnixNano(),
		Kind:               kind,
		Confidence:         0.72,
		MotionConfidence:   "medium",
		FalsePositiveScore: 0.3,
		RegionCount:        1,
		BoxX:               40,
		BoxY:               40,
		BoxWidth:           40,
		BoxHeight:          40,
		RelativeArea:       0.083,
		SizeCategory:       "small",
		MeanIntensity:      0.015,
		ChangedPixels:      900,
		ProcessingMillis:   2.5,
	}
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp())
	version, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op rather than an error.
	require.NoError(t, db.MigrateUp())

	require.NoError(t, db.MigrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestDetectionStoreRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewDetectionStore(db)

	at := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	d := sampleDetection(at, "animal")
	require.NoError(t, store.Insert(d))
	require.NotEmpty(t, d.DetectionID)

	got, err := store.Get(d.DetectionID)
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.Equal(t, at, got.Time().UTC())
}

func TestDetectionStoreListRecent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewDetectionStore(db)

	base := time.Date(2026, 4, 12, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(sampleDetection(base.Add(time.Duration(i)*time.Minute), "animal")))
	}

	out, err := store.ListRecent(3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	// Newest first.
	assert.Equal(t, base.Add(4*time.Minute).UnixNano(), out[0].DetectedAt)
	assert.Equal(t, base.Add(2*time.Minute).UnixNano(), out[2].DetectedAt)
}

func TestDetectionStoreListSince(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewDetectionStore(db)

	base := time.Date(2026, 4, 12, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Insert(sampleDetection(base.Add(time.Duration(i)*time.Hour), "animal")))
	}

	out, err := store.ListSince(base.Add(2 * time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Oldest first.
	assert.Equal(t, base.Add(2*time.Hour).UnixNano(), out[0].DetectedAt)
	assert.Equal(t, base.Add(3*time.Hour).UnixNano(), out[1].DetectedAt)
}

func TestDetectionStoreCountByKind(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewDetectionStore(db)

	now := time.Now()
	require.NoError(t, store.Insert(sampleDetection(now, "animal")))
	require.NoError(t, store.Insert(sampleDetection(now.Add(time.Second), "animal")))
	require.NoError(t, store.Insert(sampleDetection(now.Add(2*time.Second), "unknown")))

	counts, err := store.CountByKind()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"animal": 2, "unknown": 1}, counts)
}

func TestDetectionStoreDelete(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewDetectionStore(db)

	d := sampleDetection(time.Now(), "animal")
	require.NoError(t, store.Insert(d))
	require.NoError(t, store.Delete(d.DetectionID))

	_, err := store.Get(d.DetectionID)
	assert.Error(t, err)
	assert.Error(t, store.Delete(d.DetectionID))
}

func TestNewDetectionFromResult(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	res := percept.AnalysisResult{
		Motion: percept.MotionResult{
			MotionDetected: true,
			Regions: []percept.MotionRegion{
				{Box: percept.BoundingBox{X: 10, Y: 10, Width: 10, Height: 10}, PixelCount: 50},
				{Box: percept.BoundingBox{X: 40, Y: 40, Width: 40, Height: 40}, PixelCount: 900},
			},
			MeanIntensity: 0.015,
			ChangedPixels: 950,
			Confidence:    percept.MotionMedium,
		},
		Classification: percept.ClassificationResult{Kind: percept.KindAnimal, Confidence: 0.8},
		Size:           percept.SizeResult{RelativeArea: 0.083, Category: percept.SizeSmall},
		Confidence:     0.72,
		Accepted:       true,
		ProcessingTime: 2500 * time.Microsecond,
		Timestamp:      at,
	}

	d := NewDetection(res)
	assert.Equal(t, at.UnixNano(), d.DetectedAt)
	assert.Equal(t, "animal", d.Kind)
	assert.Equal(t, "medium", d.MotionConfidence)
	assert.Equal(t, 2, d.RegionCount)
	// The primary region is the one with the most changed pixels.
	assert.Equal(t, 40, d.BoxX)
	assert.Equal(t, 40, d.BoxWidth)
	assert.Equal(t, "small", d.SizeCategory)
	assert.InDelta(t, 2.5, d.ProcessingMillis, 1e-9)
}

func TestStatsStore(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewStatsStore(db)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2026, 4, 12, 6, 0, 0, 0, time.UTC)
	stats := percept.RunningStatistics{
		FramesProcessed:    100,
		MotionDetections:   12,
		AcceptedDetections: 8,
	}
	require.NoError(t, store.Insert(NewStatsSnapshot(stats, base)))

	stats.FramesProcessed = 200
	require.NoError(t, store.Insert(NewStatsSnapshot(stats, base.Add(time.Minute))))

	latest, err = store.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(200), latest.FramesProcessed)

	out, err := store.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
