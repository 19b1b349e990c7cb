package percept

// FrameBuffer is a read-only view of caller-owned pixel bytes. The pipeline
// never retains a FrameBuffer past a single Analyze call; callers may reuse
// the backing slice for the next capture.
type FrameBuffer struct {
	Pix      []byte
	Width    int
	Height   int
	Channels int // 1 = grayscale, 3 = packed RGB
}

// Valid reports whether the buffer describes a usable frame: positive
// dimensions, a supported channel count, and enough backing bytes.
func (f FrameBuffer) Valid() bool {
	if f.Pix == nil || f.Width <= 0 || f.Height <= 0 {
		return false
	}
	if f.Channels != 1 && f.Channels != 3 {
		return false
	}
	return len(f.Pix) >= f.Width*f.Height*f.Channels
}

// Luma weights for RGB to intensity conversion, scaled to integer
// arithmetic so the conversion is bit-exact across platforms:
// 0.299/0.587/0.114 expressed in 1/1024ths.
const (
	lumaR     = 306
	lumaG     = 601
	lumaB     = 117
	lumaShift = 10
)

// normalizeInto converts the frame to single-channel intensity at the
// destination resolution using nearest-neighbor sampling. Single-channel
// input at matching resolution is a straight copy. dst must have length
// dstW*dstH.
func normalizeInto(f FrameBuffer, dst []byte, dstW, dstH int) {
	if f.Channels == 1 && f.Width == dstW && f.Height == dstH {
		copy(dst, f.Pix[:dstW*dstH])
		return
	}

	for y := 0; y < dstH; y++ {
		srcY := y * f.Height / dstH
		for x := 0; x < dstW; x++ {
			srcX := x * f.Width / dstW
			if f.Channels == 1 {
				dst[y*dstW+x] = f.Pix[srcY*f.Width+srcX]
				continue
			}
			i := (srcY*f.Width + srcX) * 3
			r := int(f.Pix[i])
			g := int(f.Pix[i+1])
			b := int(f.Pix[i+2])
			dst[y*dstW+x] = byte((r*lumaR + g*lumaG + b*lumaB) >> lumaShift)
		}
	}
}
