package percept

import (
	"github.com/banshee-data/wildlife.report/internal/config"
)

// DetectorConfig holds the immutable-per-run thresholds and toggles for a
// detector. Out-of-range values are clamped or replaced with defaults by
// Normalize rather than rejected; see Reconfigure.
type DetectorConfig struct {
	// MotionThreshold is the per-pixel difference floor on an 8-bit scale.
	// Differences at or below it are treated as noise.
	MotionThreshold int `json:"motion_threshold"`

	// MinMotionFrames is the number of consecutive motion frames required
	// before a detection can be accepted.
	MinMotionFrames int `json:"min_motion_frames"`

	// EnableTemporalFiltering applies the false-positive rejection threshold
	// to the accept decision.
	EnableTemporalFiltering bool `json:"enable_temporal_filtering"`

	// FalsePositiveThreshold rejects a frame when temporal filtering is
	// enabled and the false-positive score reaches this value.
	FalsePositiveThreshold float64 `json:"false_positive_threshold"`

	// AnimalConfidenceThreshold is the classifier's decision threshold on
	// the normalized class scores.
	AnimalConfidenceThreshold float64 `json:"animal_confidence_threshold"`

	// MinConfidence is the blended-confidence floor for accepting a frame.
	MinConfidence float64 `json:"min_confidence"`

	// EnableClassification runs the heuristic classifier on the primary
	// region. When disabled the classification outcome is Unknown at 0.5.
	EnableClassification bool `json:"enable_classification"`

	// AnimalOnly rejects frames whose primary region classifies as
	// non-animal.
	AnimalOnly bool `json:"animal_only"`

	// EnableSizeEstimation computes the size outcome for the primary region.
	EnableSizeEstimation bool `json:"enable_size_estimation"`

	// MinObjectSize and MaxObjectSize bound the plausible relative area of a
	// subject, as fractions of frame area.
	MinObjectSize float64 `json:"min_object_size"`
	MaxObjectSize float64 `json:"max_object_size"`

	// FastMode trades classifier sampling density for lower processing time.
	FastMode bool `json:"fast_mode"`

	// EnableRegionAnalysis selects the full grid pipeline. When disabled the
	// detector runs the degraded difference-only path with a fixed
	// central-half bounding box.
	EnableRegionAnalysis bool `json:"enable_region_analysis"`

	// ProcessingWidth and ProcessingHeight set the working resolution.
	// Zero means "use the incoming frame's resolution".
	ProcessingWidth  int `json:"processing_width"`
	ProcessingHeight int `json:"processing_height"`
}

// DefaultConfig is the balanced preset.
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		MotionThreshold:           25,
		MinMotionFrames:           2,
		EnableTemporalFiltering:   true,
		FalsePositiveThreshold:    0.5,
		AnimalConfidenceThreshold: 0.6,
		MinConfidence:             0.5,
		EnableClassification:      true,
		AnimalOnly:                false,
		EnableSizeEstimation:      true,
		MinObjectSize:             0.01,
		MaxObjectSize:             0.8,
		FastMode:                  false,
		EnableRegionAnalysis:      true,
		ProcessingWidth:           320,
		ProcessingHeight:          240,
	}
}

// LowPowerConfig trades accuracy for battery: smaller working resolution,
// single-frame confirmation, no temporal filtering, sparse sampling.
func LowPowerConfig() DetectorConfig {
	cfg := DefaultConfig()
	cfg.ProcessingWidth = 160
	cfg.ProcessingHeight = 120
	cfg.MinMotionFrames = 1
	cfg.EnableTemporalFiltering = false
	cfg.FastMode = true
	return cfg
}

// HighAccuracyConfig trades processing time for fewer false triggers:
// larger working resolution, multi-frame confirmation, stricter thresholds.
func HighAccuracyConfig() DetectorConfig {
	cfg := DefaultConfig()
	cfg.ProcessingWidth = 640
	cfg.ProcessingHeight = 480
	cfg.MinMotionFrames = 3
	cfg.FalsePositiveThreshold = 0.4
	cfg.AnimalConfidenceThreshold = 0.7
	cfg.MinConfidence = 0.6
	cfg.AnimalOnly = true
	return cfg
}

// Normalize clamps out-of-range values and substitutes defaults so that any
// configuration is usable. It never rejects.
func (c DetectorConfig) Normalize() DetectorConfig {
	def := DefaultConfig()

	if c.MotionThreshold < 0 {
		c.MotionThreshold = 0
	}
	if c.MotionThreshold > 255 {
		c.MotionThreshold = 255
	}
	if c.MinMotionFrames < 1 {
		c.MinMotionFrames = 1
	}
	c.FalsePositiveThreshold = clampOrDefault(c.FalsePositiveThreshold, def.FalsePositiveThreshold)
	c.AnimalConfidenceThreshold = clampOrDefault(c.AnimalConfidenceThreshold, def.AnimalConfidenceThreshold)
	c.MinConfidence = clampOrDefault(c.MinConfidence, def.MinConfidence)
	c.MinObjectSize = clampOrDefault(c.MinObjectSize, def.MinObjectSize)
	c.MaxObjectSize = clampOrDefault(c.MaxObjectSize, def.MaxObjectSize)
	if c.MaxObjectSize < c.MinObjectSize {
		c.MinObjectSize, c.MaxObjectSize = def.MinObjectSize, def.MaxObjectSize
	}
	if c.ProcessingWidth < 0 {
		c.ProcessingWidth = 0
	}
	if c.ProcessingHeight < 0 {
		c.ProcessingHeight = 0
	}
	// Both dimensions or neither.
	if (c.ProcessingWidth == 0) != (c.ProcessingHeight == 0) {
		c.ProcessingWidth = def.ProcessingWidth
		c.ProcessingHeight = def.ProcessingHeight
	}
	return c
}

// clampOrDefault replaces a zero or out-of-range unit value with the default.
func clampOrDefault(v, def float64) float64 {
	if v <= 0 || v > 1 {
		return def
	}
	return v
}

// Tuning holds the resolved heuristic parameters of the pipeline. These were
// embedded constants in early firmware; they are named here so they can be
// tuned and tested without recompilation. Zero value is not usable; start
// from DefaultTuning or TuningFromConfig.
type Tuning struct {
	// Region extraction
	GridCols         int
	GridRows         int
	MaxRegions       int
	CellMotionRatio  float64
	MinChangedPixels int

	// Temporal consistency filter
	HistoryDepth       int
	ConsistencyFloor   float64
	IntensityFloor     float64
	RegionCountCeiling int
	OversizeFraction   float64
	ConsistencyPenalty float64
	WeakSignalPenalty  float64
	RegionCountPenalty float64
	OversizePenalty    float64

	// Classifier
	TextureBandLow        float64
	TextureBandHigh       float64
	TextureExtremeHigh    float64
	TextureExtremeLow     float64
	TextureCeiling        float64
	EdgeBandLow           float64
	EdgeBandHigh          float64
	EdgeExtremeHigh       float64
	EdgeExtremeLow        float64
	EdgeGradientThreshold int
	SampleStrideFast      int
	SampleStrideAccurate  int
	AspectRatioMin        float64
	AspectRatioMax        float64

	// Fallback path
	FallbackMeanDiff float64
}

// DefaultTuning returns the documented default heuristic parameters.
func DefaultTuning() Tuning {
	return TuningFromConfig(config.EmptyTuningConfig())
}

// TuningFromConfig resolves a TuningConfig into concrete parameters,
// substituting the documented defaults for unset fields.
func TuningFromConfig(c *config.TuningConfig) Tuning {
	if c == nil {
		c = config.EmptyTuningConfig()
	}
	return Tuning{
		GridCols:         c.GetGridCols(),
		GridRows:         c.GetGridRows(),
		MaxRegions:       c.GetMaxRegions(),
		CellMotionRatio:  c.GetCellMotionRatio(),
		MinChangedPixels: c.GetMinChangedPixels(),

		HistoryDepth:       c.GetHistoryDepth(),
		ConsistencyFloor:   c.GetConsistencyFloor(),
		IntensityFloor:     c.GetIntensityFloor(),
		RegionCountCeiling: c.GetRegionCountCeiling(),
		OversizeFraction:   c.GetOversizeFraction(),
		ConsistencyPenalty: c.GetConsistencyPenalty(),
		WeakSignalPenalty:  c.GetWeakSignalPenalty(),
		RegionCountPenalty: c.GetRegionCountPenalty(),
		OversizePenalty:    c.GetOversizePenalty(),

		TextureBandLow:        c.GetTextureBandLow(),
		TextureBandHigh:       c.GetTextureBandHigh(),
		TextureExtremeHigh:    c.GetTextureExtremeHigh(),
		TextureExtremeLow:     c.GetTextureExtremeLow(),
		TextureCeiling:        c.GetTextureCeiling(),
		EdgeBandLow:           c.GetEdgeBandLow(),
		EdgeBandHigh:          c.GetEdgeBandHigh(),
		EdgeExtremeHigh:       c.GetEdgeExtremeHigh(),
		EdgeExtremeLow:        c.GetEdgeExtremeLow(),
		EdgeGradientThreshold: c.GetEdgeGradientThreshold(),
		SampleStrideFast:      c.GetSampleStrideFast(),
		SampleStrideAccurate:  c.GetSampleStrideAccurate(),
		AspectRatioMin:        c.GetAspectRatioMin(),
		AspectRatioMax:        c.GetAspectRatioMax(),

		FallbackMeanDiff: c.GetFallbackMeanDiff(),
	}
}
