// Package monitor records per-frame analysis metrics during a run and
// renders them as PNG time series after the run completes. It is intended
// for replay sessions and field tuning, not for continuous operation.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/wildlife.report/internal/percept"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// MotionPlotter accumulates one MotionSample per analyzed frame.
// Call Sample() once per frame, then GeneratePlots() after the run.
type MotionPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	samples   []MotionSample
	startTime time.Time
	frameIdx  int
}

// MotionSample is one frame's worth of plotted metrics.
type MotionSample struct {
	FrameIdx  int
	Timestamp time.Time

	MeanIntensity      float64
	FalsePositiveScore float64
	Confidence         float64
	RegionCount        int
	ChangedPixels      int
	ProcessingMillis   float64
	Accepted           bool
}

// NewMotionPlotter creates a plotter. It records nothing until Start is called.
func NewMotionPlotter() *MotionPlotter {
	return &MotionPlotter{}
}

// Start initializes the plotter for a new run.
// outputDir should be a timestamped directory (e.g., "plots/replay-001/20260830_104500")
func (mp *MotionPlotter) Start(outputDir string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	mp.outputDir = outputDir
	mp.enabled = true
	mp.startTime = time.Time{}
	mp.frameIdx = 0
	mp.samples = nil
	return nil
}

// Stop disables sampling. Call GeneratePlots() to produce output files.
func (mp *MotionPlotter) Stop() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (mp *MotionPlotter) IsEnabled() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.enabled
}

// Sample captures the metrics of one frame analysis.
// Call this once per frame during replay or live processing.
func (mp *MotionPlotter) Sample(res percept.AnalysisResult) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !mp.enabled {
		return
	}

	now := res.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	if mp.startTime.IsZero() {
		mp.startTime = now
	}
	mp.frameIdx++

	mp.samples = append(mp.samples, MotionSample{
		FrameIdx:           mp.frameIdx,
		Timestamp:          now,
		MeanIntensity:      res.Motion.MeanIntensity,
		FalsePositiveScore: res.FalsePositiveScore,
		Confidence:         res.Confidence,
		RegionCount:        len(res.Motion.Regions),
		ChangedPixels:      res.Motion.ChangedPixels,
		ProcessingMillis:   float64(res.ProcessingTime.Microseconds()) / 1000.0,
		Accepted:           res.Accepted,
	})
}

// RunSummary aggregates a run's metrics for the summary file.
type RunSummary struct {
	Frames          int
	Accepted        int
	MeanIntensity   float64
	StdDevIntensity float64
	MeanConfidence  float64
	FPScoreP90      float64
	MeanProcessMs   float64
}

// Summary computes aggregate statistics over the recorded samples.
func (mp *MotionPlotter) Summary() RunSummary {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.summaryLocked()
}

func (mp *MotionPlotter) summaryLocked() RunSummary {
	s := RunSummary{Frames: len(mp.samples)}
	if len(mp.samples) == 0 {
		return s
	}

	intensities := make([]float64, 0, len(mp.samples))
	confidences := make([]float64, 0, len(mp.samples))
	fpScores := make([]float64, 0, len(mp.samples))
	procMs := make([]float64, 0, len(mp.samples))
	for _, smp := range mp.samples {
		intensities = append(intensities, smp.MeanIntensity)
		confidences = append(confidences, smp.Confidence)
		fpScores = append(fpScores, smp.FalsePositiveScore)
		procMs = append(procMs, smp.ProcessingMillis)
		if smp.Accepted {
			s.Accepted++
		}
	}

	s.MeanIntensity, s.StdDevIntensity = stat.MeanStdDev(intensities, nil)
	s.MeanConfidence = stat.Mean(confidences, nil)
	s.MeanProcessMs = stat.Mean(procMs, nil)

	// Quantile requires sorted input.
	sort.Float64s(fpScores)
	s.FPScoreP90 = stat.Quantile(0.9, stat.Empirical, fpScores, nil)
	return s
}

// GeneratePlots creates PNG files for the recorded run plus a summary file.
// Returns the number of plots generated and any error.
func (mp *MotionPlotter) GeneratePlots() (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	if len(mp.samples) == 0 {
		return 0, nil
	}

	plots := []struct {
		name   string
		title  string
		yLabel string
		build  func(p *plot.Plot) error
	}{
		{"motion_intensity.png", "Motion Intensity and False Positive Score", "Score [0,1]", mp.buildIntensityPlot},
		{"confidence.png", "Blended Detection Confidence", "Confidence [0,1]", mp.buildConfidencePlot},
		{"regions.png", "Motion Region Count", "Regions", mp.buildRegionPlot},
		{"processing.png", "Frame Processing Time", "Milliseconds", mp.buildProcessingPlot},
	}

	plotCount := 0
	for _, spec := range plots {
		p := plot.New()
		p.Title.Text = spec.title
		p.X.Label.Text = "Frame"
		p.Y.Label.Text = spec.yLabel

		if err := spec.build(p); err != nil {
			return plotCount, fmt.Errorf("%s: %w", spec.name, err)
		}

		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		file := filepath.Join(mp.outputDir, spec.name)
		if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
			return plotCount, fmt.Errorf("save %s: %w", spec.name, err)
		}
		plotCount++
	}

	if err := mp.writeSummaryLocked(); err != nil {
		return plotCount, err
	}

	return plotCount, nil
}

var (
	colorIntensity  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorFPScore    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorConfidence = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorAccepted   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	colorRegions    = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	colorProcessing = color.RGBA{R: 140, G: 86, B: 75, A: 255}
)

func (mp *MotionPlotter) buildIntensityPlot(p *plot.Plot) error {
	intensityPts := make(plotter.XYs, 0, len(mp.samples))
	fpPts := make(plotter.XYs, 0, len(mp.samples))
	for _, s := range mp.samples {
		intensityPts = append(intensityPts, plotter.XY{X: float64(s.FrameIdx), Y: s.MeanIntensity})
		fpPts = append(fpPts, plotter.XY{X: float64(s.FrameIdx), Y: s.FalsePositiveScore})
	}

	if err := addLine(p, "mean intensity", intensityPts, colorIntensity); err != nil {
		return err
	}
	return addLine(p, "fp score", fpPts, colorFPScore)
}

func (mp *MotionPlotter) buildConfidencePlot(p *plot.Plot) error {
	confPts := make(plotter.XYs, 0, len(mp.samples))
	acceptedPts := make(plotter.XYs, 0, len(mp.samples))
	for _, s := range mp.samples {
		confPts = append(confPts, plotter.XY{X: float64(s.FrameIdx), Y: s.Confidence})
		if s.Accepted {
			acceptedPts = append(acceptedPts, plotter.XY{X: float64(s.FrameIdx), Y: s.Confidence})
		}
	}

	if err := addLine(p, "confidence", confPts, colorConfidence); err != nil {
		return err
	}

	// Accepted frames as scatter markers on top of the confidence line.
	if len(acceptedPts) > 0 {
		scatter, err := plotter.NewScatter(acceptedPts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = colorAccepted
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("accepted", scatter)
	}
	return nil
}

func (mp *MotionPlotter) buildRegionPlot(p *plot.Plot) error {
	regionPts := make(plotter.XYs, 0, len(mp.samples))
	for _, s := range mp.samples {
		regionPts = append(regionPts, plotter.XY{X: float64(s.FrameIdx), Y: float64(s.RegionCount)})
	}
	return addLine(p, "regions", regionPts, colorRegions)
}

func (mp *MotionPlotter) buildProcessingPlot(p *plot.Plot) error {
	procPts := make(plotter.XYs, 0, len(mp.samples))
	for _, s := range mp.samples {
		procPts = append(procPts, plotter.XY{X: float64(s.FrameIdx), Y: s.ProcessingMillis})
	}
	return addLine(p, "processing ms", procPts, colorProcessing)
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func (mp *MotionPlotter) writeSummaryLocked() error {
	s := mp.summaryLocked()
	text := fmt.Sprintf(
		"frames: %d\naccepted: %d\nmean_intensity: %.4f\nstddev_intensity: %.4f\nmean_confidence: %.4f\nfp_score_p90: %.4f\nmean_processing_ms: %.3f\n",
		s.Frames, s.Accepted, s.MeanIntensity, s.StdDevIntensity, s.MeanConfidence, s.FPScoreP90, s.MeanProcessMs)

	file := filepath.Join(mp.outputDir, "summary.txt")
	if err := os.WriteFile(file, []byte(text), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// GetOutputDir returns the current output directory for plots.
func (mp *MotionPlotter) GetOutputDir() string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.outputDir
}

// GetSampleCount returns the number of samples collected.
func (mp *MotionPlotter) GetSampleCount() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.samples)
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir creates a timestamped output directory path for plots.
// For replay files: <baseDir>/<replay_basename>/<timestamp>
// For live data: <baseDir>/live_<timestamp>
func MakePlotOutputDir(baseDir, replayFile string) string {
	ts := FormatTimestamp(time.Now())
	if replayFile != "" {
		base := filepath.Base(replayFile)
		ext := filepath.Ext(base)
		name := base[:len(base)-len(ext)]
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "live_"+ts)
}
