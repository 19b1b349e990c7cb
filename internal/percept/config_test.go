package percept

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wildlife.report/internal/config"
)

func TestDetectorConfigNormalizeClamps(t *testing.T) {
	t.Parallel()

	cfg := DetectorConfig{
		MotionThreshold:           -5,
		MinMotionFrames:           0,
		FalsePositiveThreshold:    1.5,
		AnimalConfidenceThreshold: -0.2,
		MinConfidence:             0,
		MinObjectSize:             0.9,
		MaxObjectSize:             0.1,
		ProcessingWidth:           -10,
		ProcessingHeight:          240,
	}.Normalize()
	def := DefaultConfig()

	assert.Equal(t, 0, cfg.MotionThreshold)
	assert.Equal(t, 1, cfg.MinMotionFrames)
	assert.Equal(t, def.FalsePositiveThreshold, cfg.FalsePositiveThreshold)
	assert.Equal(t, def.AnimalConfidenceThreshold, cfg.AnimalConfidenceThreshold)
	assert.Equal(t, def.MinConfidence, cfg.MinConfidence)
	// Inverted size bounds fall back to the defaults as a pair.
	assert.Equal(t, def.MinObjectSize, cfg.MinObjectSize)
	assert.Equal(t, def.MaxObjectSize, cfg.MaxObjectSize)
	// A single zero dimension falls back to the default resolution.
	assert.Equal(t, def.ProcessingWidth, cfg.ProcessingWidth)
	assert.Equal(t, def.ProcessingHeight, cfg.ProcessingHeight)
}

func TestDetectorConfigNormalizeUpperThreshold(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MotionThreshold = 300
	assert.Equal(t, 255, cfg.Normalize().MotionThreshold)
}

func TestDetectorConfigNormalizeKeepsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Empty(t, cmp.Diff(cfg, cfg.Normalize()))
}

func TestDetectorConfigPresets(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		assert.Equal(t, 25, cfg.MotionThreshold)
		assert.Equal(t, 2, cfg.MinMotionFrames)
		assert.Equal(t, 320, cfg.ProcessingWidth)
		assert.Equal(t, 240, cfg.ProcessingHeight)
		assert.True(t, cfg.EnableTemporalFiltering)
		assert.True(t, cfg.EnableRegionAnalysis)
		assert.False(t, cfg.AnimalOnly)
	})

	t.Run("low power", func(t *testing.T) {
		t.Parallel()
		cfg := LowPowerConfig()
		assert.Equal(t, 160, cfg.ProcessingWidth)
		assert.Equal(t, 120, cfg.ProcessingHeight)
		assert.Equal(t, 1, cfg.MinMotionFrames)
		assert.False(t, cfg.EnableTemporalFiltering)
		assert.True(t, cfg.FastMode)
	})

	t.Run("high accuracy", func(t *testing.T) {
		t.Parallel()
		cfg := HighAccuracyConfig()
		assert.Equal(t, 640, cfg.ProcessingWidth)
		assert.Equal(t, 480, cfg.ProcessingHeight)
		assert.Equal(t, 3, cfg.MinMotionFrames)
		assert.Equal(t, 0.4, cfg.FalsePositiveThreshold)
		assert.True(t, cfg.AnimalOnly)
	})
}

func TestTuningFromConfigDefaults(t *testing.T) {
	t.Parallel()

	want := DefaultTuning()
	assert.Empty(t, cmp.Diff(want, TuningFromConfig(nil)))

	assert.Equal(t, 8, want.GridCols)
	assert.Equal(t, 6, want.GridRows)
	assert.Equal(t, 10, want.MaxRegions)
	assert.Equal(t, 5, want.HistoryDepth)
	assert.Equal(t, 0.1, want.CellMotionRatio)
	assert.Equal(t, 200, want.MinChangedPixels)
}

func TestTuningFromConfigOverrides(t *testing.T) {
	t.Parallel()

	cols := 16
	depth := 8
	floor := 0.4
	cfg := config.EmptyTuningConfig()
	cfg.GridCols = &cols
	cfg.HistoryDepth = &depth
	cfg.ConsistencyFloor = &floor

	tuning := TuningFromConfig(cfg)
	require.Equal(t, 16, tuning.GridCols)
	require.Equal(t, 8, tuning.HistoryDepth)
	require.Equal(t, 0.4, tuning.ConsistencyFloor)
	// Untouched fields keep their defaults.
	assert.Equal(t, 6, tuning.GridRows)
}
