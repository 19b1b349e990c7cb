package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg := EmptyTuningConfig()

	assert.Equal(t, 8, cfg.GetGridCols())
	assert.Equal(t, 6, cfg.GetGridRows())
	assert.Equal(t, 10, cfg.GetMaxRegions())
	assert.Equal(t, 0.10, cfg.GetCellMotionRatio())
	assert.Equal(t, 200, cfg.GetMinChangedPixels())
	assert.Equal(t, 5, cfg.GetHistoryDepth())
	assert.Equal(t, 0.3, cfg.GetConsistencyFloor())
	assert.Equal(t, 0.2, cfg.GetIntensityFloor())
	assert.Equal(t, 5, cfg.GetRegionCountCeiling())
	assert.Equal(t, 0.6, cfg.GetOversizeFraction())
	assert.Equal(t, 0.3, cfg.GetConsistencyPenalty())
	assert.Equal(t, 0.3, cfg.GetWeakSignalPenalty())
	assert.Equal(t, 0.2, cfg.GetRegionCountPenalty())
	assert.Equal(t, 0.2, cfg.GetOversizePenalty())
	assert.Equal(t, 0.2, cfg.GetTextureBandLow())
	assert.Equal(t, 0.7, cfg.GetTextureBandHigh())
	assert.Equal(t, 1500.0, cfg.GetTextureCeiling())
	assert.Equal(t, 0.15, cfg.GetEdgeBandLow())
	assert.Equal(t, 0.5, cfg.GetEdgeBandHigh())
	assert.Equal(t, 30, cfg.GetEdgeGradientThreshold())
	assert.Equal(t, 4, cfg.GetSampleStrideFast())
	assert.Equal(t, 2, cfg.GetSampleStrideAccurate())
	assert.Equal(t, 8.0, cfg.GetFallbackMeanDiff())
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "partial.json", `{"grid_cols": 16, "oversize_fraction": 0.5}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.GetGridCols())
	assert.Equal(t, 0.5, cfg.GetOversizeFraction())
	// Unset fields keep defaults.
	assert.Equal(t, 6, cfg.GetGridRows())
	assert.Equal(t, 0.3, cfg.GetConsistencyFloor())
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "tuning.yaml", `{}`)

	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "bad.json", `{"grid_cols": `)

	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestValidateRanges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"ratio above one", `{"cell_motion_ratio": 1.5}`},
		{"negative penalty", `{"oversize_penalty": -0.1}`},
		{"zero grid", `{"grid_cols": 0}`},
		{"zero history", `{"history_depth": 0}`},
		{"gradient out of range", `{"edge_gradient_threshold": 600}`},
		{"aspect max below min", `{"aspect_ratio_min": 2.0, "aspect_ratio_max": 1.0}`},
		{"zero texture ceiling", `{"texture_ceiling": 0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, "cfg.json", tc.content)
			_, err := LoadTuningConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestDefaultsFileMatchesEmbeddedDefaults(t *testing.T) {
	t.Parallel()
	cfg := MustLoadDefaultConfig()

	empty := EmptyTuningConfig()
	assert.Equal(t, empty.GetGridCols(), cfg.GetGridCols())
	assert.Equal(t, empty.GetGridRows(), cfg.GetGridRows())
	assert.Equal(t, empty.GetMaxRegions(), cfg.GetMaxRegions())
	assert.Equal(t, empty.GetCellMotionRatio(), cfg.GetCellMotionRatio())
	assert.Equal(t, empty.GetHistoryDepth(), cfg.GetHistoryDepth())
	assert.Equal(t, empty.GetOversizeFraction(), cfg.GetOversizeFraction())
	assert.Equal(t, empty.GetTextureCeiling(), cfg.GetTextureCeiling())
	assert.Equal(t, empty.GetFallbackMeanDiff(), cfg.GetFallbackMeanDiff())
}
