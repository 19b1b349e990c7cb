// Command gen-frames generates synthetic frame sequence files for testing
// detector replay. Modes cover the interesting field conditions: a moving
// subject, a global lighting change, and sensor noise.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/banshee-data/wildlife.report/internal/framestream"
)

var (
	output   = flag.String("o", "sample.frames", "output path")
	frames   = flag.Int("n", 100, "number of frames")
	width    = flag.Int("w", 320, "frame width")
	height   = flag.Int("h", 240, "frame height")
	channels = flag.Int("c", 1, "channels per pixel (1 or 3)")
	mode     = flag.String("mode", "block", "scene mode: static, block, brightness, or noise")
	seed     = flag.Int64("seed", 1, "random seed for noise mode")
)

const (
	baseLevel  = 40
	blockLevel = 220
)

func fillBase(pix []byte) {
	for i := range pix {
		pix[i] = baseLevel
	}
}

// renderBlock draws a bright square a quarter of the frame tall, sliding
// left to right and wrapping.
func renderBlock(pix []byte, w, h, c, step int) {
	fillBase(pix)
	size := h / 4
	x0 := (step * 3) % (w - size)
	y0 := (h - size) / 2
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			for ch := 0; ch < c; ch++ {
				pix[(y*w+x)*c+ch] = blockLevel
			}
		}
	}
}

// renderBrightness ramps the global level up then back down, the shape of a
// cloud passing or headlights sweeping the scene.
func renderBrightness(pix []byte, step, total int) {
	half := total / 2
	if half == 0 {
		half = 1
	}
	ramp := step
	if ramp > half {
		ramp = total - step
	}
	level := byte(baseLevel + ramp*120/half)
	for i := range pix {
		pix[i] = level
	}
}

func renderNoise(pix []byte, rng *rand.Rand) {
	for i := range pix {
		pix[i] = byte(baseLevel + rng.Intn(30))
	}
}

func main() {
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()

	w, err := framestream.NewWriter(f, *width, *height, *channels)
	if err != nil {
		log.Fatalf("invalid frame geometry: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	pix := make([]byte, *width**height**channels)

	for i := 0; i < *frames; i++ {
		switch *mode {
		case "static":
			fillBase(pix)
		case "block":
			renderBlock(pix, *width, *height, *channels, i)
		case "brightness":
			renderBrightness(pix, i, *frames)
		case "noise":
			renderNoise(pix, rng)
		default:
			log.Fatalf("unknown mode %q", *mode)
		}

		if err := w.WriteFrame(pix); err != nil {
			log.Fatalf("write frame %d: %v", i, err)
		}
		if (i+1)%50 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("✓ Created: %s (%d frames, %dx%d, mode %s)", *output, *frames, *width, *height, *mode)
}
