package percept

import "time"

// RunningStatistics accumulates detector counters across a run. All
// counters are monotonic until Reset.
type RunningStatistics struct {
	FramesProcessed        uint64  `json:"frames_processed"`
	MotionDetections       uint64  `json:"motion_detections"`
	AcceptedDetections     uint64  `json:"accepted_detections"`
	FalsePositivesFiltered uint64  `json:"false_positives_filtered"`
	AnimalDetections       uint64  `json:"animal_detections"`
	NonAnimalDetections    uint64  `json:"non_animal_detections"`
	UnknownDetections      uint64  `json:"unknown_detections"`
	AvgProcessingMillis    float64 `json:"avg_processing_ms"`

	totalProcessing time.Duration
}

// record folds one frame outcome into the counters.
func (s *RunningStatistics) record(res AnalysisResult) {
	s.FramesProcessed++
	s.totalProcessing += res.ProcessingTime
	s.AvgProcessingMillis = float64(s.totalProcessing.Microseconds()) / 1000.0 / float64(s.FramesProcessed)

	if !res.Motion.MotionDetected {
		return
	}
	s.MotionDetections++
	if res.Accepted {
		s.AcceptedDetections++
	} else {
		s.FalsePositivesFiltered++
	}
	switch res.Classification.Kind {
	case KindAnimal:
		s.AnimalDetections++
	case KindNonAnimal:
		s.NonAnimalDetections++
	default:
		s.UnknownDetections++
	}
}

// reset zeroes all counters.
func (s *RunningStatistics) reset() {
	*s = RunningStatistics{}
}
