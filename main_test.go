package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wildlife.report/internal/eventdb"
	"github.com/banshee-data/wildlife.report/internal/framestream"
	"github.com/banshee-data/wildlife.report/internal/percept"
)

func TestDetectorConfigForPreset(t *testing.T) {
	tests := []struct {
		name      string
		wantWidth int
		wantErr   bool
	}{
		{"default", 320, false},
		{"lowpower", 160, false},
		{"highaccuracy", 640, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := detectorConfigForPreset(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, cfg.ProcessingWidth)
		})
	}
}

func TestLoadTuningDefaults(t *testing.T) {
	tuning, err := loadTuning("")
	require.NoError(t, err)
	assert.Equal(t, percept.DefaultTuning(), tuning)
}

func TestLoadTuningFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cell_motion_ratio": 0.25}`), 0644))

	tuning, err := loadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, tuning.CellMotionRatio)

	_, err = loadTuning(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// writeReplayFile produces a short sequence with a moving bright block so at
// least one frame triggers a detection at default tuning.
func writeReplayFile(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	const w, h = 160, 120
	wtr, err := framestream.NewWriter(f, w, h, 1)
	require.NoError(t, err)

	base := make([]byte, w*h)
	for i := range base {
		base[i] = 30
	}
	require.NoError(t, wtr.WriteFrame(base))

	for step := 0; step < 4; step++ {
		frame := make([]byte, w*h)
		copy(frame, base)
		x0 := 40 + step*4
		for y := 40; y < 80; y++ {
			for x := x0; x < x0+40; x++ {
				frame[y*w+x] = 220
			}
		}
		require.NoError(t, wtr.WriteFrame(frame))
	}
	require.NoError(t, wtr.Flush())
}

func TestReplayFrames(t *testing.T) {
	dir := t.TempDir()
	replayPath := filepath.Join(dir, "test.frames")
	writeReplayFile(t, replayPath)

	db, err := eventdb.Open(filepath.Join(dir, "events.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.MigrateUp())

	cfg := percept.DefaultConfig()
	cfg.ProcessingWidth = 160
	cfg.ProcessingHeight = 120
	cfg.MinMotionFrames = 1
	cfg.EnableClassification = false
	detector, err := percept.NewDetector(cfg, percept.DefaultTuning())
	require.NoError(t, err)

	store := eventdb.NewDetectionStore(db)
	frames, err := replayFrames(context.Background(), replayPath, detector, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, frames)

	stats := detector.Stats()
	assert.Equal(t, uint64(5), stats.FramesProcessed)
	assert.Greater(t, stats.AcceptedDetections, uint64(0))

	persisted, err := store.ListRecent(10)
	require.NoError(t, err)
	assert.Equal(t, int(stats.AcceptedDetections), len(persisted))
}

func TestReplayFramesMissingFile(t *testing.T) {
	cfg := percept.DefaultConfig()
	detector, err := percept.NewDetector(cfg, percept.DefaultTuning())
	require.NoError(t, err)

	_, err = replayFrames(context.Background(), "/nonexistent/path.frames", detector, nil, nil)
	assert.Error(t, err)
}
