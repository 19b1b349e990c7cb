// Package percept implements the on-device perception pipeline for a
// wildlife camera: grayscale normalization, frame differencing, grid-based
// region extraction, temporal consistency filtering, heuristic animal
// classification and relative size estimation. The pipeline is fully
// deterministic; identical frame sequences under identical configuration
// produce identical results.
package percept

import (
	"fmt"
	"sync"

	"github.com/banshee-data/wildlife.report/internal/monitoring"
	"github.com/banshee-data/wildlife.report/internal/timeutil"
)

// Blended-confidence weights. Motion strength, classifier confidence and
// the inverted false-positive score combine into the overall confidence.
const (
	motionWeight     = 0.3
	classifierWeight = 0.5
	filterWeight     = 0.2
)

// Motion confidence thresholds on the strongest region's intensity.
const (
	highConfidenceIntensity   = 0.6
	mediumConfidenceIntensity = 0.25
)

// neutralConfidence is reported when classification is disabled or could
// not run; it neither helps nor hurts the blended score.
const neutralConfidence = 0.5

// Detector runs the full per-frame analysis pipeline and carries all
// per-run state: difference buffers, motion history and counters. Safe for
// concurrent use, though frame analysis itself is serialized.
type Detector struct {
	mu sync.Mutex

	cfg        DetectorConfig
	tuning     Tuning
	clock      timeutil.Clock
	diff       *differencer
	classifier *heuristicClassifier
	history    *MotionHistory

	motionFrames int // consecutive frames with detected motion
	stats        RunningStatistics
}

// NewDetector builds a detector from a normalized configuration and
// resolved tuning parameters.
func NewDetector(cfg DetectorConfig, t Tuning) (*Detector, error) {
	if t.GridCols < 1 || t.GridRows < 1 {
		return nil, fmt.Errorf("tuning: grid %dx%d is not usable", t.GridCols, t.GridRows)
	}
	cfg = cfg.Normalize()
	d := &Detector{
		cfg:        cfg,
		tuning:     t,
		clock:      timeutil.RealClock{},
		diff:       newDifferencer(cfg.ProcessingWidth, cfg.ProcessingHeight, uint8(cfg.MotionThreshold)),
		classifier: newClassifier(t, cfg),
		history:    NewMotionHistory(t),
	}
	return d, nil
}

// Config returns the active normalized configuration.
func (d *Detector) Config() DetectorConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Reconfigure swaps the configuration between frames. A working-resolution
// change discards frame continuity; history and counters survive.
func (d *Detector) Reconfigure(cfg DetectorConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg = cfg.Normalize()
	d.cfg = cfg
	d.diff.threshold = uint8(cfg.MotionThreshold)
	if cfg.ProcessingWidth > 0 {
		d.diff.resize(cfg.ProcessingWidth, cfg.ProcessingHeight)
	}
	d.classifier = newClassifier(d.tuning, cfg)
	monitoring.Debugf("[Detector] reconfigured: threshold=%d resolution=%dx%d",
		cfg.MotionThreshold, cfg.ProcessingWidth, cfg.ProcessingHeight)
}

// Reset discards the previous frame, the motion history and the
// consecutive-motion counter. Counters in Stats are unaffected.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diff.reset()
	d.history.Clear()
	d.motionFrames = 0
}

// Stats returns a snapshot of the running counters.
func (d *Detector) Stats() RunningStatistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the running counters.
func (d *Detector) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.reset()
}

// Analyze runs one frame through the pipeline and returns the structured
// outcome. Invalid frames count as processed and yield an empty result
// rather than an error; a camera glitch must not wedge the pipeline.
func (d *Detector) Analyze(frame FrameBuffer) AnalysisResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.clock.Now()
	res := AnalysisResult{Timestamp: start}

	if !frame.Valid() {
		monitoring.Debugf("[Detector] dropping invalid frame (%dx%d, %d channels, %d bytes)",
			frame.Width, frame.Height, frame.Channels, len(frame.Pix))
		res.ProcessingTime = d.clock.Since(start)
		d.stats.record(res)
		return res
	}

	// Zero configured resolution tracks the incoming frame size.
	if d.cfg.ProcessingWidth == 0 {
		d.diff.resize(frame.Width, frame.Height)
	}
	w, h := d.diff.width, d.diff.height

	ds := d.diff.process(frame)

	if d.cfg.EnableRegionAnalysis {
		d.analyzeRegions(&res, ds, w, h)
	} else {
		d.analyzeFallback(&res, ds, w, h)
	}

	res.ProcessingTime = d.clock.Since(start)
	d.stats.record(res)
	return res
}

// analyzeRegions is the full pipeline: grid region extraction, temporal
// scoring, classification and size estimation, then the accept decision.
func (d *Detector) analyzeRegions(res *AnalysisResult, ds diffStats, w, h int) {
	regions := extractRegions(d.diff.diff, w, h, d.tuning, res.Timestamp)
	motion := len(regions) > 0

	res.Motion = MotionResult{
		MotionDetected: motion,
		Regions:        regions,
		MeanIntensity:  ds.meanIntensity(),
		ChangedPixels:  ds.changed,
		Confidence:     motionConfidence(regions),
	}

	d.history.Push(MotionHistoryEntry{
		Timestamp:     res.Timestamp,
		MeanIntensity: ds.meanIntensity(),
		RegionCount:   len(regions),
		Motion:        motion,
	})
	res.FalsePositiveScore = d.history.FalsePositiveScore(regions, w*h)

	if motion {
		d.motionFrames++
	} else {
		d.motionFrames = 0
	}

	res.Classification = ClassificationResult{Kind: KindUnknown, Confidence: neutralConfidence}
	if motion {
		primary := primaryRegion(regions)
		if d.cfg.EnableClassification {
			res.Classification = d.classifier.Classify(d.diff.gray, w, h, primary)
			if res.Classification.Features.SampleCount == 0 {
				res.Classification.Confidence = 0
			}
		}
		if d.cfg.EnableSizeEstimation {
			res.Size = EstimateSize(primary.Box, w, h)
		}
	}

	classConf := neutralConfidence
	if d.cfg.EnableClassification && motion {
		classConf = res.Classification.Confidence
	}
	res.Confidence = clamp01(motionWeight*res.Motion.Confidence.normalized() +
		classifierWeight*classConf +
		filterWeight*(1-res.FalsePositiveScore))

	res.Accepted = d.accept(res)
	if motion && !res.Accepted {
		monitoring.Debugf("[Detector] motion rejected: fp=%.2f conf=%.2f kind=%s streak=%d",
			res.FalsePositiveScore, res.Confidence, res.Classification.Kind, d.motionFrames)
	}
}

// analyzeFallback is the degraded difference-only path used when region
// analysis is disabled: motion is called on the mean frame difference
// alone and localized to the central half of the frame.
func (d *Detector) analyzeFallback(res *AnalysisResult, ds diffStats, w, h int) {
	res.Degraded = true
	motion := !ds.first && ds.meanDiff > d.tuning.FallbackMeanDiff

	var regions []MotionRegion
	if motion {
		box := BoundingBox{X: w / 4, Y: h / 4, Width: w / 2, Height: h / 2}
		regions = []MotionRegion{{
			Box:        box,
			Intensity:  ds.meanIntensity(),
			PixelCount: ds.changed,
			DetectedAt: res.Timestamp,
		}}
	}
	res.Motion = MotionResult{
		MotionDetected: motion,
		Regions:        regions,
		MeanIntensity:  ds.meanIntensity(),
		ChangedPixels:  ds.changed,
	}
	if motion {
		res.Motion.Confidence = MotionMedium
	}

	d.history.Push(MotionHistoryEntry{
		Timestamp:     res.Timestamp,
		MeanIntensity: ds.meanIntensity(),
		RegionCount:   len(regions),
		Motion:        motion,
	})
	res.FalsePositiveScore = d.history.FalsePositiveScore(regions, w*h)

	if motion {
		d.motionFrames++
	} else {
		d.motionFrames = 0
	}

	res.Classification = ClassificationResult{Kind: KindUnknown, Confidence: neutralConfidence}
	if motion && d.cfg.EnableSizeEstimation {
		res.Size = EstimateSize(regions[0].Box, w, h)
	}

	res.Confidence = clamp01(motionWeight*res.Motion.Confidence.normalized() +
		classifierWeight*neutralConfidence +
		filterWeight*(1-res.FalsePositiveScore))

	res.Accepted = d.accept(res)
}

// accept applies the detection gate. Every condition must hold; the gates
// are ANDed so each stage can only veto, never rescue.
func (d *Detector) accept(res *AnalysisResult) bool {
	if !res.Motion.MotionDetected || res.Motion.Confidence < MotionMedium {
		return false
	}
	if d.motionFrames < d.cfg.MinMotionFrames {
		return false
	}
	if d.cfg.EnableTemporalFiltering && res.FalsePositiveScore >= d.cfg.FalsePositiveThreshold {
		return false
	}
	if d.cfg.AnimalOnly && res.Classification.Kind == KindNonAnimal {
		return false
	}
	return res.Confidence >= d.cfg.MinConfidence
}

// motionConfidence maps the strongest region intensity onto the ordinal
// confidence scale.
func motionConfidence(regions []MotionRegion) MotionConfidence {
	if len(regions) == 0 {
		return MotionNone
	}
	max := 0.0
	for _, r := range regions {
		if r.Intensity > max {
			max = r.Intensity
		}
	}
	switch {
	case max >= highConfidenceIntensity:
		return MotionHigh
	case max >= mediumConfidenceIntensity:
		return MotionMedium
	default:
		return MotionLow
	}
}

// primaryRegion picks the region with the most changed pixels, breaking
// ties by scan order.
func primaryRegion(regions []MotionRegion) MotionRegion {
	primary := regions[0]
	for _, r := range regions[1:] {
		if r.PixelCount > primary.PixelCount {
			primary = r
		}
	}
	return primary
}
