package percept

import "time"

// BoundingBox is an axis-aligned integer box in processing-frame pixel
// coordinates, always clipped to [0,width)x[0,height).
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int { return b.Width * b.Height }

// clip constrains the box to the frame bounds, shrinking as needed.
func (b BoundingBox) clip(frameW, frameH int) BoundingBox {
	if b.X < 0 {
		b.Width += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.Height += b.Y
		b.Y = 0
	}
	if b.X+b.Width > frameW {
		b.Width = frameW - b.X
	}
	if b.Y+b.Height > frameH {
		b.Height = frameH - b.Y
	}
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}
	return b
}

// MotionRegion is one locus of detected change: a bounding box with a
// normalized intensity score and the number of changed pixels it covers.
// Regions are transient and valid for one frame only.
type MotionRegion struct {
	Box        BoundingBox `json:"box"`
	Intensity  float64     `json:"intensity"` // mean motion ratio of member cells, [0,1]
	PixelCount int         `json:"pixel_count"`
	DetectedAt time.Time   `json:"detected_at"`
}

// MotionConfidence is an ordinal confidence level for the motion outcome.
type MotionConfidence int

const (
	MotionNone MotionConfidence = iota
	MotionLow
	MotionMedium
	MotionHigh
)

// String returns the lowercase name of the confidence level.
func (m MotionConfidence) String() string {
	switch m {
	case MotionLow:
		return "low"
	case MotionMedium:
		return "medium"
	case MotionHigh:
		return "high"
	default:
		return "none"
	}
}

// normalized maps the ordinal onto [0,1] for confidence blending.
func (m MotionConfidence) normalized() float64 {
	return float64(m) / float64(MotionHigh)
}

// MotionResult is the per-frame motion outcome.
type MotionResult struct {
	MotionDetected bool             `json:"motion_detected"`
	Regions        []MotionRegion   `json:"regions,omitempty"`
	MeanIntensity  float64          `json:"mean_intensity"` // mean frame difference, [0,1]
	ChangedPixels  int              `json:"changed_pixels"`
	Confidence     MotionConfidence `json:"confidence"`
}

// Kind is the heuristic classification outcome for a motion region.
type Kind string

const (
	KindAnimal    Kind = "animal"
	KindNonAnimal Kind = "non_animal"
	KindUnknown   Kind = "unknown"
)

// ClassifierFeatures holds the raw measurements behind a classification,
// kept for diagnostics and tuning.
type ClassifierFeatures struct {
	TextureScore float64 `json:"texture_score"` // normalized mean local variance, [0,1]
	EdgeDensity  float64 `json:"edge_density"`  // fraction of samples over gradient threshold
	RelativeArea float64 `json:"relative_area"`
	AspectRatio  float64 `json:"aspect_ratio"`
	SampleCount  int     `json:"sample_count"`
}

// ClassificationResult is the animal/non-animal decision for the primary
// motion region. Derived per frame, never persisted by the core.
type ClassificationResult struct {
	Kind           Kind               `json:"kind"`
	Confidence     float64            `json:"confidence"`
	AnimalScore    float64            `json:"animal_score"`
	NonAnimalScore float64            `json:"non_animal_score"`
	Features       ClassifierFeatures `json:"features"`
}

// SizeCategory is an ordinal size class derived from relative area.
type SizeCategory int

const (
	SizeTiny SizeCategory = iota
	SizeSmall
	SizeMedium
	SizeLarge
	SizeVeryLarge
)

// String returns the lowercase name of the size category.
func (s SizeCategory) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	case SizeVeryLarge:
		return "very_large"
	default:
		return "tiny"
	}
}

// SizeResult is the size estimate for the primary motion region.
type SizeResult struct {
	RelativeArea float64      `json:"relative_area"` // box area / frame area
	WidthRatio   float64      `json:"width_ratio"`   // box width / frame width
	HeightRatio  float64      `json:"height_ratio"`  // box height / frame height
	Category     SizeCategory `json:"category"`
}

// AnalysisResult is the structured outcome of one frame analysis.
type AnalysisResult struct {
	Motion             MotionResult         `json:"motion"`
	Classification     ClassificationResult `json:"classification"`
	Size               SizeResult           `json:"size"`
	FalsePositiveScore float64              `json:"false_positive_score"`
	Accepted           bool                 `json:"accepted"`
	Confidence         float64              `json:"confidence"` // blended overall confidence, [0,1]
	Degraded           bool                 `json:"degraded"`   // true when the fallback path produced the result
	ProcessingTime     time.Duration        `json:"processing_time_ns"`
	Timestamp          time.Time            `json:"timestamp"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
