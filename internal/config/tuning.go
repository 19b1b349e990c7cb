package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default heuristic values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for detection heuristics.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime inspection. Every field is
// optional; omitted fields fall back to the documented defaults via the
// Get* accessors, so partial configs are safe.
type TuningConfig struct {
	// Region extraction grid
	GridCols        *int     `json:"grid_cols,omitempty"`
	GridRows        *int     `json:"grid_rows,omitempty"`
	MaxRegions      *int     `json:"max_regions,omitempty"`
	CellMotionRatio *float64 `json:"cell_motion_ratio,omitempty"`
	MinChangedPixels *int    `json:"min_changed_pixels,omitempty"`

	// Temporal consistency filter
	HistoryDepth          *int     `json:"history_depth,omitempty"`
	ConsistencyFloor      *float64 `json:"consistency_floor,omitempty"`
	IntensityFloor        *float64 `json:"intensity_floor,omitempty"`
	RegionCountCeiling    *int     `json:"region_count_ceiling,omitempty"`
	OversizeFraction      *float64 `json:"oversize_fraction,omitempty"`
	ConsistencyPenalty    *float64 `json:"consistency_penalty,omitempty"`
	WeakSignalPenalty     *float64 `json:"weak_signal_penalty,omitempty"`
	RegionCountPenalty    *float64 `json:"region_count_penalty,omitempty"`
	OversizePenalty       *float64 `json:"oversize_penalty,omitempty"`

	// Heuristic classifier bands
	TextureBandLow        *float64 `json:"texture_band_low,omitempty"`
	TextureBandHigh       *float64 `json:"texture_band_high,omitempty"`
	TextureExtremeHigh    *float64 `json:"texture_extreme_high,omitempty"`
	TextureExtremeLow     *float64 `json:"texture_extreme_low,omitempty"`
	TextureCeiling        *float64 `json:"texture_ceiling,omitempty"`
	EdgeBandLow           *float64 `json:"edge_band_low,omitempty"`
	EdgeBandHigh          *float64 `json:"edge_band_high,omitempty"`
	EdgeExtremeHigh       *float64 `json:"edge_extreme_high,omitempty"`
	EdgeExtremeLow        *float64 `json:"edge_extreme_low,omitempty"`
	EdgeGradientThreshold *int     `json:"edge_gradient_threshold,omitempty"`
	SampleStrideFast      *int     `json:"sample_stride_fast,omitempty"`
	SampleStrideAccurate  *int     `json:"sample_stride_accurate,omitempty"`
	AspectRatioMin        *float64 `json:"aspect_ratio_min,omitempty"`
	AspectRatioMax        *float64 `json:"aspect_ratio_max,omitempty"`

	// Fallback path
	FallbackMeanDiff *float64 `json:"fallback_mean_diff,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	checkUnit := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
		return nil
	}
	for name, v := range map[string]*float64{
		"cell_motion_ratio":   c.CellMotionRatio,
		"consistency_floor":   c.ConsistencyFloor,
		"intensity_floor":     c.IntensityFloor,
		"oversize_fraction":   c.OversizeFraction,
		"consistency_penalty": c.ConsistencyPenalty,
		"weak_signal_penalty": c.WeakSignalPenalty,
		"region_count_penalty": c.RegionCountPenalty,
		"oversize_penalty":    c.OversizePenalty,
		"texture_band_low":    c.TextureBandLow,
		"texture_band_high":   c.TextureBandHigh,
		"texture_extreme_high": c.TextureExtremeHigh,
		"texture_extreme_low": c.TextureExtremeLow,
		"edge_band_low":       c.EdgeBandLow,
		"edge_band_high":      c.EdgeBandHigh,
		"edge_extreme_high":   c.EdgeExtremeHigh,
		"edge_extreme_low":    c.EdgeExtremeLow,
	} {
		if err := checkUnit(name, v); err != nil {
			return err
		}
	}

	if c.GridCols != nil && *c.GridCols < 1 {
		return fmt.Errorf("grid_cols must be positive, got %d", *c.GridCols)
	}
	if c.GridRows != nil && *c.GridRows < 1 {
		return fmt.Errorf("grid_rows must be positive, got %d", *c.GridRows)
	}
	if c.MaxRegions != nil && *c.MaxRegions < 1 {
		return fmt.Errorf("max_regions must be positive, got %d", *c.MaxRegions)
	}
	if c.HistoryDepth != nil && *c.HistoryDepth < 1 {
		return fmt.Errorf("history_depth must be positive, got %d", *c.HistoryDepth)
	}
	if c.MinChangedPixels != nil && *c.MinChangedPixels < 0 {
		return fmt.Errorf("min_changed_pixels must be non-negative, got %d", *c.MinChangedPixels)
	}
	if c.EdgeGradientThreshold != nil && (*c.EdgeGradientThreshold < 0 || *c.EdgeGradientThreshold > 510) {
		return fmt.Errorf("edge_gradient_threshold must be in [0,510], got %d", *c.EdgeGradientThreshold)
	}
	if c.SampleStrideFast != nil && *c.SampleStrideFast < 1 {
		return fmt.Errorf("sample_stride_fast must be positive, got %d", *c.SampleStrideFast)
	}
	if c.SampleStrideAccurate != nil && *c.SampleStrideAccurate < 1 {
		return fmt.Errorf("sample_stride_accurate must be positive, got %d", *c.SampleStrideAccurate)
	}
	if c.TextureCeiling != nil && *c.TextureCeiling <= 0 {
		return fmt.Errorf("texture_ceiling must be positive, got %f", *c.TextureCeiling)
	}
	if c.AspectRatioMin != nil && *c.AspectRatioMin <= 0 {
		return fmt.Errorf("aspect_ratio_min must be positive, got %f", *c.AspectRatioMin)
	}
	if c.AspectRatioMax != nil && c.AspectRatioMin != nil && *c.AspectRatioMax < *c.AspectRatioMin {
		return fmt.Errorf("aspect_ratio_max %f below aspect_ratio_min %f", *c.AspectRatioMax, *c.AspectRatioMin)
	}
	if c.FallbackMeanDiff != nil && *c.FallbackMeanDiff < 0 {
		return fmt.Errorf("fallback_mean_diff must be non-negative, got %f", *c.FallbackMeanDiff)
	}

	return nil
}

// GetGridCols returns the grid_cols value or the default.
func (c *TuningConfig) GetGridCols() int {
	if c.GridCols == nil {
		return 8
	}
	return *c.GridCols
}

// GetGridRows returns the grid_rows value or the default.
func (c *TuningConfig) GetGridRows() int {
	if c.GridRows == nil {
		return 6
	}
	return *c.GridRows
}

// GetMaxRegions returns the max_regions value or the default.
func (c *TuningConfig) GetMaxRegions() int {
	if c.MaxRegions == nil {
		return 10
	}
	return *c.MaxRegions
}

// GetCellMotionRatio returns the cell_motion_ratio value or the default.
func (c *TuningConfig) GetCellMotionRatio() float64 {
	if c.CellMotionRatio == nil {
		return 0.10
	}
	return *c.CellMotionRatio
}

// GetMinChangedPixels returns the min_changed_pixels value or the default.
func (c *TuningConfig) GetMinChangedPixels() int {
	if c.MinChangedPixels == nil {
		return 200
	}
	return *c.MinChangedPixels
}

// GetHistoryDepth returns the history_depth value or the default.
func (c *TuningConfig) GetHistoryDepth() int {
	if c.HistoryDepth == nil {
		return 5
	}
	return *c.HistoryDepth
}

// GetConsistencyFloor returns the consistency_floor value or the default.
func (c *TuningConfig) GetConsistencyFloor() float64 {
	if c.ConsistencyFloor == nil {
		return 0.3
	}
	return *c.ConsistencyFloor
}

// GetIntensityFloor returns the intensity_floor value or the default.
func (c *TuningConfig) GetIntensityFloor() float64 {
	if c.IntensityFloor == nil {
		return 0.2
	}
	return *c.IntensityFloor
}

// GetRegionCountCeiling returns the region_count_ceiling value or the default.
func (c *TuningConfig) GetRegionCountCeiling() int {
	if c.RegionCountCeiling == nil {
		return 5
	}
	return *c.RegionCountCeiling
}

// GetOversizeFraction returns the oversize_fraction value or the default.
func (c *TuningConfig) GetOversizeFraction() float64 {
	if c.OversizeFraction == nil {
		return 0.6
	}
	return *c.OversizeFraction
}

// GetConsistencyPenalty returns the consistency_penalty value or the default.
func (c *TuningConfig) GetConsistencyPenalty() float64 {
	if c.ConsistencyPenalty == nil {
		return 0.3
	}
	return *c.ConsistencyPenalty
}

// GetWeakSignalPenalty returns the weak_signal_penalty value or the default.
func (c *TuningConfig) GetWeakSignalPenalty() float64 {
	if c.WeakSignalPenalty == nil {
		return 0.3
	}
	return *c.WeakSignalPenalty
}

// GetRegionCountPenalty returns the region_count_penalty value or the default.
func (c *TuningConfig) GetRegionCountPenalty() float64 {
	if c.RegionCountPenalty == nil {
		return 0.2
	}
	return *c.RegionCountPenalty
}

// GetOversizePenalty returns the oversize_penalty value or the default.
func (c *TuningConfig) GetOversizePenalty() float64 {
	if c.OversizePenalty == nil {
		return 0.2
	}
	return *c.OversizePenalty
}

// GetTextureBandLow returns the texture_band_low value or the default.
func (c *TuningConfig) GetTextureBandLow() float64 {
	if c.TextureBandLow == nil {
		return 0.2
	}
	return *c.TextureBandLow
}

// GetTextureBandHigh returns the texture_band_high value or the default.
func (c *TuningConfig) GetTextureBandHigh() float64 {
	if c.TextureBandHigh == nil {
		return 0.7
	}
	return *c.TextureBandHigh
}

// GetTextureExtremeHigh returns the texture_extreme_high value or the default.
func (c *TuningConfig) GetTextureExtremeHigh() float64 {
	if c.TextureExtremeHigh == nil {
		return 0.9
	}
	return *c.TextureExtremeHigh
}

// GetTextureExtremeLow returns the texture_extreme_low value or the default.
func (c *TuningConfig) GetTextureExtremeLow() float64 {
	if c.TextureExtremeLow == nil {
		return 0.05
	}
	return *c.TextureExtremeLow
}

// GetTextureCeiling returns the texture_ceiling value or the default.
// The ceiling is the empirical local-variance value mapped to a texture
// score of 1.0 on 8-bit input.
func (c *TuningConfig) GetTextureCeiling() float64 {
	if c.TextureCeiling == nil {
		return 1500.0
	}
	return *c.TextureCeiling
}

// GetEdgeBandLow returns the edge_band_low value or the default.
func (c *TuningConfig) GetEdgeBandLow() float64 {
	if c.EdgeBandLow == nil {
		return 0.15
	}
	return *c.EdgeBandLow
}

// GetEdgeBandHigh returns the edge_band_high value or the default.
func (c *TuningConfig) GetEdgeBandHigh() float64 {
	if c.EdgeBandHigh == nil {
		return 0.5
	}
	return *c.EdgeBandHigh
}

// GetEdgeExtremeHigh returns the edge_extreme_high value or the default.
func (c *TuningConfig) GetEdgeExtremeHigh() float64 {
	if c.EdgeExtremeHigh == nil {
		return 0.7
	}
	return *c.EdgeExtremeHigh
}

// GetEdgeExtremeLow returns the edge_extreme_low value or the default.
func (c *TuningConfig) GetEdgeExtremeLow() float64 {
	if c.EdgeExtremeLow == nil {
		return 0.05
	}
	return *c.EdgeExtremeLow
}

// GetEdgeGradientThreshold returns the edge_gradient_threshold value or the default.
func (c *TuningConfig) GetEdgeGradientThreshold() int {
	if c.EdgeGradientThreshold == nil {
		return 30
	}
	return *c.EdgeGradientThreshold
}

// GetSampleStrideFast returns the sample_stride_fast value or the default.
func (c *TuningConfig) GetSampleStrideFast() int {
	if c.SampleStrideFast == nil {
		return 4
	}
	return *c.SampleStrideFast
}

// GetSampleStrideAccurate returns the sample_stride_accurate value or the default.
func (c *TuningConfig) GetSampleStrideAccurate() int {
	if c.SampleStrideAccurate == nil {
		return 2
	}
	return *c.SampleStrideAccurate
}

// GetAspectRatioMin returns the aspect_ratio_min value or the default.
func (c *TuningConfig) GetAspectRatioMin() float64 {
	if c.AspectRatioMin == nil {
		return 0.2
	}
	return *c.AspectRatioMin
}

// GetAspectRatioMax returns the aspect_ratio_max value or the default.
func (c *TuningConfig) GetAspectRatioMax() float64 {
	if c.AspectRatioMax == nil {
		return 5.0
	}
	return *c.AspectRatioMax
}

// GetFallbackMeanDiff returns the fallback_mean_diff value or the default.
// This is the mean absolute frame difference (8-bit scale) above which the
// degraded difference-only path reports motion.
func (c *TuningConfig) GetFallbackMeanDiff() float64 {
	if c.FallbackMeanDiff == nil {
		return 8.0
	}
	return *c.FallbackMeanDiff
}
