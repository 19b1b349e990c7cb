package percept

import "github.com/banshee-data/wildlife.report/internal/monitoring"

// diffStats summarises one differencing pass.
type diffStats struct {
	first    bool    // no previous frame existed; diff buffer is all zero
	changed  int     // pixels with a post-threshold difference above zero
	sum      int64   // summed post-threshold differences
	meanDiff float64 // sum / pixel count, 8-bit scale
}

// meanIntensity is the mean frame difference normalized to [0,1].
func (s diffStats) meanIntensity() float64 { return s.meanDiff / 255.0 }

// differencer owns the normalized, previous and difference buffers for one
// detector. All three live in a single allocation sized to the processing
// resolution and released together with the detector; a resolution change
// reallocates and discards frame continuity.
type differencer struct {
	width     int
	height    int
	threshold uint8

	buf  []byte // backing storage: gray | prev | diff
	gray []byte
	prev []byte
	diff []byte

	havePrev bool
}

func newDifferencer(width, height int, threshold uint8) *differencer {
	d := &differencer{threshold: threshold}
	d.resize(width, height)
	return d
}

// resize (re)allocates buffers for the given resolution. Continuity with the
// stored previous frame is lost.
func (d *differencer) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if d.width == width && d.height == height && d.buf != nil {
		return
	}
	n := width * height
	d.width = width
	d.height = height
	d.buf = make([]byte, 3*n)
	d.gray = d.buf[:n]
	d.prev = d.buf[n : 2*n]
	d.diff = d.buf[2*n : 3*n]
	d.havePrev = false
	monitoring.Debugf("[Differencer] buffers sized to %dx%d", width, height)
}

// reset discards the stored previous frame without reallocating.
func (d *differencer) reset() {
	d.havePrev = false
}

// process normalizes the frame to grayscale at the working resolution,
// computes per-pixel absolute differences against the stored previous frame
// with values at or below the motion threshold floored to zero, and advances
// the previous-frame state. The first frame after construction, a reset or a
// resize produces an all-zero difference map.
func (d *differencer) process(f FrameBuffer) diffStats {
	n := d.width * d.height
	if n == 0 {
		return diffStats{first: true}
	}

	normalizeInto(f, d.gray, d.width, d.height)

	if !d.havePrev {
		copy(d.prev, d.gray)
		d.havePrev = true
		for i := range d.diff {
			d.diff[i] = 0
		}
		return diffStats{first: true}
	}

	thresh := int(d.threshold)
	var stats diffStats
	for i := 0; i < n; i++ {
		delta := int(d.gray[i]) - int(d.prev[i])
		if delta < 0 {
			delta = -delta
		}
		if delta <= thresh {
			d.diff[i] = 0
			continue
		}
		d.diff[i] = byte(delta)
		stats.changed++
		stats.sum += int64(delta)
	}
	stats.meanDiff = float64(stats.sum) / float64(n)

	copy(d.prev, d.gray)
	return stats
}
