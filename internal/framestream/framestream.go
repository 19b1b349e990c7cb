// Package framestream reads and writes raw frame sequence files used for
// replay and field capture. The format is a single text header line followed
// by fixed-size frames packed back to back:
//
//	WLFR1 <width> <height> <channels>\n
//	<width*height*channels bytes> ...
package framestream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/banshee-data/wildlife.report/internal/percept"
)

const magic = "WLFR1"

// maxDimension bounds header values so a corrupt file cannot trigger huge
// allocations.
const maxDimension = 1 << 14

// Writer emits frames of a fixed geometry to an underlying stream.
type Writer struct {
	w        *bufio.Writer
	width    int
	height   int
	channels int
}

// NewWriter writes the stream header and returns a Writer for the given
// frame geometry.
func NewWriter(w io.Writer, width, height, channels int) (*Writer, error) {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("invalid channel count %d, want 1 or 3", channels)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s %d %d %d\n", magic, width, height, channels); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: bw, width: width, height: height, channels: channels}, nil
}

// WriteFrame appends one frame. pix must be exactly width*height*channels bytes.
func (w *Writer) WriteFrame(pix []byte) error {
	want := w.width * w.height * w.channels
	if len(pix) != want {
		return fmt.Errorf("frame size %d, want %d", len(pix), want)
	}
	if _, err := w.w.Write(pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Flush drains buffered frames to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader decodes a frame sequence produced by Writer.
type Reader struct {
	r        *bufio.Reader
	width    int
	height   int
	channels int
}

// NewReader parses the stream header and returns a Reader.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var gotMagic string
	var width, height, channels int
	if _, err := fmt.Sscanf(header, "%s %d %d %d", &gotMagic, &width, &height, &channels); err != nil {
		return nil, fmt.Errorf("parse header %q: %w", header, err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bad magic %q, want %q", gotMagic, magic)
	}
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("invalid channel count %d, want 1 or 3", channels)
	}

	return &Reader{r: br, width: width, height: height, channels: channels}, nil
}

// Width returns the frame width from the header.
func (r *Reader) Width() int { return r.width }

// Height returns the frame height from the header.
func (r *Reader) Height() int { return r.height }

// Channels returns the per-pixel channel count from the header.
func (r *Reader) Channels() int { return r.channels }

// ReadFrame returns the next frame, or io.EOF when the stream is exhausted.
// A truncated final frame returns an error wrapping io.ErrUnexpectedEOF.
func (r *Reader) ReadFrame() (percept.FrameBuffer, error) {
	pix := make([]byte, r.width*r.height*r.channels)
	if _, err := io.ReadFull(r.r, pix); err != nil {
		if err == io.EOF {
			return percept.FrameBuffer{}, io.EOF
		}
		return percept.FrameBuffer{}, fmt.Errorf("read frame: %w", err)
	}
	return percept.FrameBuffer{
		Pix:      pix,
		Width:    r.width,
		Height:   r.height,
		Channels: r.channels,
	}, nil
}
