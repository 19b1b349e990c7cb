package percept

// heuristicClassifier separates animal-like motion from vegetation, shadow
// and lighting artifacts using local texture and edge statistics sampled
// inside a candidate region. The thresholds are explicit, tunable design
// parameters, not learned weights; this can be replaced by a trained model
// downstream without touching the rest of the pipeline.
//
// Rationale for the bands: fur and hide produce moderate local variance and
// moderate edge density. Foliage churns with very high texture and edge
// content; shadows and exposure shifts are nearly flat in both.
type heuristicClassifier struct {
	tuning Tuning

	stride              int
	minObjectSize       float64
	maxObjectSize       float64
	confidenceThreshold float64
}

// Vote weights. Texture and edge bands carry full weight; plausible size
// and aspect are weaker corroboration, while implausible geometry counts
// fully against.
const (
	bandVote     = 1.0
	geometryVote = 0.5
)

func newClassifier(t Tuning, cfg DetectorConfig) *heuristicClassifier {
	stride := t.SampleStrideAccurate
	if cfg.FastMode {
		stride = t.SampleStrideFast
	}
	if stride < 1 {
		stride = 1
	}
	return &heuristicClassifier{
		tuning:              t,
		stride:              stride,
		minObjectSize:       cfg.MinObjectSize,
		maxObjectSize:       cfg.MaxObjectSize,
		confidenceThreshold: cfg.AnimalConfidenceThreshold,
	}
}

// Classify samples the normalized frame within the region's bounding box and
// scores the animal and non-animal hypotheses. A region too small or too
// close to the frame border to sample yields Unknown with zero confidence.
func (c *heuristicClassifier) Classify(gray []byte, width, height int, region MotionRegion) ClassificationResult {
	t := c.tuning
	box := region.Box.clip(width, height)

	features := c.sample(gray, width, height, box)
	if features.SampleCount == 0 {
		return ClassificationResult{Kind: KindUnknown, Features: features}
	}

	frameArea := width * height
	if frameArea > 0 {
		features.RelativeArea = float64(box.Area()) / float64(frameArea)
	}
	if box.Height > 0 {
		features.AspectRatio = float64(box.Width) / float64(box.Height)
	}

	var animal, nonAnimal float64

	switch {
	case features.TextureScore >= t.TextureBandLow && features.TextureScore <= t.TextureBandHigh:
		animal += bandVote
	case features.TextureScore >= t.TextureExtremeHigh || features.TextureScore <= t.TextureExtremeLow:
		nonAnimal += bandVote
	}

	switch {
	case features.EdgeDensity >= t.EdgeBandLow && features.EdgeDensity <= t.EdgeBandHigh:
		animal += bandVote
	case features.EdgeDensity >= t.EdgeExtremeHigh || features.EdgeDensity <= t.EdgeExtremeLow:
		nonAnimal += bandVote
	}

	if features.RelativeArea >= c.minObjectSize && features.RelativeArea <= c.maxObjectSize {
		animal += geometryVote
	} else {
		nonAnimal += bandVote
	}

	if features.AspectRatio >= t.AspectRatioMin && features.AspectRatio <= t.AspectRatioMax {
		animal += geometryVote
	} else {
		nonAnimal += bandVote
	}

	total := animal + nonAnimal
	if total == 0 {
		return ClassificationResult{Kind: KindUnknown, Features: features}
	}

	result := ClassificationResult{
		AnimalScore:    animal / total,
		NonAnimalScore: nonAnimal / total,
		Features:       features,
	}
	switch {
	case result.AnimalScore > c.confidenceThreshold && result.AnimalScore > result.NonAnimalScore:
		result.Kind = KindAnimal
		result.Confidence = result.AnimalScore
	case result.NonAnimalScore > c.confidenceThreshold && result.NonAnimalScore > result.AnimalScore:
		result.Kind = KindNonAnimal
		result.Confidence = result.NonAnimalScore
	default:
		result.Kind = KindUnknown
		if result.AnimalScore > result.NonAnimalScore {
			result.Confidence = result.AnimalScore
		} else {
			result.Confidence = result.NonAnimalScore
		}
	}
	return result
}

// sample walks a sparse grid inside the box collecting mean 3x3 local
// variance and the fraction of points whose gradient magnitude clears the
// edge threshold. Sample points keep one pixel of margin from the frame
// border so the 3x3 neighborhood and central differences stay in bounds.
func (c *heuristicClassifier) sample(gray []byte, width, height int, box BoundingBox) ClassifierFeatures {
	var features ClassifierFeatures

	x0, y0 := box.X+1, box.Y+1
	x1, y1 := box.X+box.Width-1, box.Y+box.Height-1
	if x0 < 1 {
		x0 = 1
	}
	if y0 < 1 {
		y0 = 1
	}
	if x1 > width-1 {
		x1 = width - 1
	}
	if y1 > height-1 {
		y1 = height - 1
	}

	var varianceSum float64
	edgeHits := 0
	gradientThreshold := c.tuning.EdgeGradientThreshold

	for y := y0; y < y1; y += c.stride {
		for x := x0; x < x1; x += c.stride {
			idx := y*width + x

			// 3x3 local variance.
			var sum, sumSq int
			for dy := -1; dy <= 1; dy++ {
				base := idx + dy*width
				for dx := -1; dx <= 1; dx++ {
					v := int(gray[base+dx])
					sum += v
					sumSq += v * v
				}
			}
			mean := float64(sum) / 9.0
			varianceSum += float64(sumSq)/9.0 - mean*mean

			// Central-difference gradient magnitude.
			gx := int(gray[idx+1]) - int(gray[idx-1])
			if gx < 0 {
				gx = -gx
			}
			gy := int(gray[idx+width]) - int(gray[idx-width])
			if gy < 0 {
				gy = -gy
			}
			if gx+gy > gradientThreshold {
				edgeHits++
			}

			features.SampleCount++
		}
	}

	if features.SampleCount > 0 {
		meanVariance := varianceSum / float64(features.SampleCount)
		features.TextureScore = clamp01(meanVariance / c.tuning.TextureCeiling)
		features.EdgeDensity = float64(edgeHits) / float64(features.SampleCount)
	}
	return features
}
