package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/wildlife.report/api"
	"github.com/banshee-data/wildlife.report/internal/config"
	"github.com/banshee-data/wildlife.report/internal/eventdb"
	"github.com/banshee-data/wildlife.report/internal/framestream"
	"github.com/banshee-data/wildlife.report/internal/monitor"
	"github.com/banshee-data/wildlife.report/internal/monitoring"
	"github.com/banshee-data/wildlife.report/internal/percept"
	"github.com/banshee-data/wildlife.report/internal/version"
)

var (
	listen           = flag.String("listen", ":8080", "HTTP listen address")
	dbFile           = flag.String("db", "wildlife_events.db", "Path to the SQLite event database")
	tuningFile       = flag.String("tuning", "", "Path to a tuning JSON file (default: built-in defaults)")
	preset           = flag.String("preset", "default", "Detector preset: default, lowpower, or highaccuracy")
	replayFile       = flag.String("replay", "", "Replay a recorded frame file instead of serving")
	plotDir          = flag.String("plot-dir", "", "Write diagnostic plots to this directory after replay")
	debugLogs        = flag.Bool("debug", false, "Enable verbose per-frame diagnostics")
	snapshotInterval = flag.Int("snapshot-interval", 5, "Statistics snapshot interval in minutes")
)

func detectorConfigForPreset(name string) (percept.DetectorConfig, error) {
	switch name {
	case "default":
		return percept.DefaultConfig(), nil
	case "lowpower":
		return percept.LowPowerConfig(), nil
	case "highaccuracy":
		return percept.HighAccuracyConfig(), nil
	default:
		return percept.DetectorConfig{}, fmt.Errorf("unknown preset %q", name)
	}
}

func loadTuning(path string) (percept.Tuning, error) {
	if path == "" {
		return percept.DefaultTuning(), nil
	}
	tc, err := config.LoadTuningConfig(path)
	if err != nil {
		return percept.Tuning{}, err
	}
	return percept.TuningFromConfig(tc), nil
}

// replayFrames feeds a recorded frame file through the detector, persisting
// every accepted detection. Returns the number of frames processed.
func replayFrames(ctx context.Context, path string, detector *percept.Detector, detections *eventdb.DetectionStore, plotter *monitor.MotionPlotter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	r, err := framestream.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("parse replay file: %w", err)
	}
	log.Printf("Replaying %s (%dx%d, %d channel(s))", path, r.Width(), r.Height(), r.Channels())

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		default:
		}

		frame, err := r.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames++

		res := detector.Analyze(frame)
		if plotter != nil {
			plotter.Sample(res)
		}
		if res.Accepted {
			if err := detections.Insert(eventdb.NewDetection(res)); err != nil {
				log.Printf("failed to persist detection at frame %d: %v", frames, err)
			}
		}
	}
}

func runReplay(ctx context.Context, detector *percept.Detector, detections *eventdb.DetectionStore, stats *eventdb.StatsStore) error {
	var plotter *monitor.MotionPlotter
	if *plotDir != "" {
		plotter = monitor.NewMotionPlotter()
		outDir := monitor.MakePlotOutputDir(*plotDir, *replayFile)
		if err := plotter.Start(outDir); err != nil {
			return fmt.Errorf("start plotter: %w", err)
		}
	}

	start := time.Now()
	frames, err := replayFrames(ctx, *replayFile, detector, detections, plotter)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	running := detector.Stats()
	log.Printf("Replay complete: %d frames in %v, %d accepted detections, %d filtered",
		frames, time.Since(start).Round(time.Millisecond),
		running.AcceptedDetections, running.FalsePositivesFiltered)

	if insertErr := stats.Insert(eventdb.NewStatsSnapshot(running, time.Now())); insertErr != nil {
		log.Printf("failed to record stats snapshot: %v", insertErr)
	}

	if plotter != nil {
		plotter.Stop()
		count, plotErr := plotter.GeneratePlots()
		if plotErr != nil {
			return fmt.Errorf("generate plots: %w", plotErr)
		}
		log.Printf("Wrote %d plots to %s", count, plotter.GetOutputDir())
	}

	return err
}

// snapshotLoop periodically persists the detector's running counters so
// long-lived deployments keep a history even across restarts.
func snapshotLoop(ctx context.Context, detector *percept.Detector, stats *eventdb.StatsStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			running := detector.Stats()
			if running.FramesProcessed == 0 {
				continue
			}
			if err := stats.Insert(eventdb.NewStatsSnapshot(running, time.Now())); err != nil {
				log.Printf("failed to record stats snapshot: %v", err)
			}
		}
	}
}

// Main
func main() {
	flag.Parse()

	if *listen == "" && *replayFile == "" {
		log.Fatal("HTTP listen address is required")
	}

	monitoring.Debug = *debugLogs
	log.Printf("wildlife-camera %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg, err := detectorConfigForPreset(*preset)
	if err != nil {
		log.Fatalf("Invalid preset: %v", err)
	}

	tuning, err := loadTuning(*tuningFile)
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	detector, err := percept.NewDetector(cfg, tuning)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}

	db, err := eventdb.Open(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open event database: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		log.Fatalf("Failed to migrate event database: %v", err)
	}

	detections := eventdb.NewDetectionStore(db)
	stats := eventdb.NewStatsStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Replay mode processes the file and exits without serving HTTP.
	if *replayFile != "" {
		if err := runReplay(ctx, detector, detections, stats); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	var wg sync.WaitGroup

	// Periodic stats snapshot routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshotLoop(ctx, detector, stats, time.Duration(*snapshotInterval)*time.Minute)
		log.Print("snapshot routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(api.NewServer(detector, detections, stats).ServeMux()),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("Starting HTTP server on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
