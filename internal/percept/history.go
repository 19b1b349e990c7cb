package percept

import "time"

// MotionHistoryEntry is one fixed-size ring-buffer slot summarising a frame.
type MotionHistoryEntry struct {
	Timestamp     time.Time
	MeanIntensity float64 // mean frame difference, [0,1]
	RegionCount   int
	Motion        bool
}

// MotionHistory maintains a short sliding window of per-frame motion
// summaries, overwritten oldest-first. It derives a false-positive
// likelihood from consistency, signal strength and region-shape heuristics.
// The filter only scores; rejection policy lives in the Detector.
type MotionHistory struct {
	entries  []MotionHistoryEntry
	capacity int
	head     int // next write position
	size     int
	tuning   Tuning
}

// NewMotionHistory creates a history ring with the tuning's depth.
func NewMotionHistory(t Tuning) *MotionHistory {
	capacity := t.HistoryDepth
	if capacity < 1 {
		capacity = 5
	}
	return &MotionHistory{
		entries:  make([]MotionHistoryEntry, capacity),
		capacity: capacity,
		tuning:   t,
	}
}

// Push stores a new frame summary, overwriting the oldest if at capacity.
func (h *MotionHistory) Push(e MotionHistoryEntry) {
	h.entries[h.head] = e
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Size returns the number of valid entries.
func (h *MotionHistory) Size() int { return h.size }

// Clear invalidates all entries.
func (h *MotionHistory) Clear() {
	h.head = 0
	h.size = 0
}

// Consistency returns the fraction of valid entries that saw motion.
// Returns 0 when the history is empty.
func (h *MotionHistory) Consistency() float64 {
	if h.size == 0 {
		return 0
	}
	withMotion := 0
	for i := 0; i < h.size; i++ {
		if h.at(i).Motion {
			withMotion++
		}
	}
	return float64(withMotion) / float64(h.size)
}

// meanIntensity averages the valid entries' mean frame differences.
func (h *MotionHistory) meanIntensity() float64 {
	if h.size == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.size; i++ {
		sum += h.at(i).MeanIntensity
	}
	return sum / float64(h.size)
}

// at returns the i-th oldest valid entry.
func (h *MotionHistory) at(i int) MotionHistoryEntry {
	idx := (h.head - h.size + i + h.capacity) % h.capacity
	return h.entries[idx]
}

// FalsePositiveScore estimates the likelihood that the current frame's
// motion is not a genuine wildlife event. Four independently capped
// penalties accumulate and the sum is clamped to [0,1]:
//
//   - sporadic motion across the window resembles noise
//   - a very weak mean difference signal resembles sensor noise
//   - many small regions are typical of wind-moved foliage
//   - one region covering most of the frame is typical of a global
//     lighting change rather than a discrete subject
func (h *MotionHistory) FalsePositiveScore(regions []MotionRegion, frameArea int) float64 {
	t := h.tuning
	var score float64

	if h.Consistency() < t.ConsistencyFloor {
		score += t.ConsistencyPenalty
	}
	if h.meanIntensity() < t.IntensityFloor {
		score += t.WeakSignalPenalty
	}
	if len(regions) > t.RegionCountCeiling {
		score += t.RegionCountPenalty
	}
	if frameArea > 0 {
		for _, r := range regions {
			if float64(r.Box.Area()) > t.OversizeFraction*float64(frameArea) {
				score += t.OversizePenalty
				break
			}
		}
	}
	return clamp01(score)
}
