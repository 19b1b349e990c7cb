package percept

// Size category breakpoints as fractions of the frame area. A relative
// area landing exactly on a breakpoint resolves to the larger category.
const (
	sizeTinyCeiling   = 0.05
	sizeSmallCeiling  = 0.15
	sizeMediumCeiling = 0.30
	sizeLargeCeiling  = 0.50
)

// EstimateSize maps a region's bounding box to a coarse size class relative
// to the frame. With no camera geometry available the result is only a
// relative measure; absolute size would need distance or a ground-plane
// calibration.
func EstimateSize(box BoundingBox, frameWidth, frameHeight int) SizeResult {
	if frameWidth <= 0 || frameHeight <= 0 {
		return SizeResult{Category: SizeTiny}
	}

	result := SizeResult{
		RelativeArea: float64(box.Area()) / float64(frameWidth*frameHeight),
		WidthRatio:   float64(box.Width) / float64(frameWidth),
		HeightRatio:  float64(box.Height) / float64(frameHeight),
	}
	switch {
	case result.RelativeArea < sizeTinyCeiling:
		result.Category = SizeTiny
	case result.RelativeArea < sizeSmallCeiling:
		result.Category = SizeSmall
	case result.RelativeArea < sizeMediumCeiling:
		result.Category = SizeMedium
	case result.RelativeArea < sizeLargeCeiling:
		result.Category = SizeLarge
	default:
		result.Category = SizeVeryLarge
	}
	return result
}
