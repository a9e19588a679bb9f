package uncertainty

import (
	"fmt"
	"math"
	"math/rand"

	"slicetriage/internal/models"
)

// BlurPredictor is a bundled stand-in for an external frozen segmentation
// model: a box blur followed by a logistic squash, with seeded random unit
// dropping when sampling is enabled. It lets the uncertainty phase run end
// to end without a trained backbone and gives tests a real Stochastic
// implementation. It is a stand-in, not a model.
type BlurPredictor struct {
	// Radius is the box-blur radius in pixels
	Radius int

	// Gain scales the logistic squash around the image mean
	Gain float64

	// DropRate is the probability of dropping a blurred unit per pixel
	// while sampling is enabled
	DropRate float64

	sampling bool
	rng      *rand.Rand
}

// NewBlurPredictor creates a stand-in predictor with the given drop rate.
func NewBlurPredictor(dropRate float64) (*BlurPredictor, error) {
	if dropRate <= 0 || dropRate >= 1 {
		return nil, fmt.Errorf("dropRate must be in (0, 1), got %g", dropRate)
	}
	return &BlurPredictor{Radius: 2, Gain: 4.0, DropRate: dropRate}, nil
}

// EnableSampling switches the predictor into stochastic mode with a fixed
// seed. Deterministic: the same seed yields the same sample sequence.
func (b *BlurPredictor) EnableSampling(seed int64) {
	b.sampling = true
	b.rng = rand.New(rand.NewSource(seed))
}

// DisableSampling restores deterministic inference.
func (b *BlurPredictor) DisableSampling() {
	b.sampling = false
	b.rng = nil
}

// Predict blurs the image, drops units if sampling is enabled, and squashes
// the result into a foreground probability map.
func (b *BlurPredictor) Predict(img models.Image) (models.ProbMap, error) {
	if len(img.Data) != img.Width*img.Height {
		return models.ProbMap{}, fmt.Errorf("image data length %d does not match %dx%d",
			len(img.Data), img.Width, img.Height)
	}

	blurred := boxBlur(img, b.Radius)

	// Image mean anchors the logistic midpoint.
	mean := 0.0
	for _, v := range img.Data {
		mean += v
	}
	if len(img.Data) > 0 {
		mean /= float64(len(img.Data))
	}

	out := models.NewProbMap(img.Width, img.Height)
	for i, v := range blurred {
		if b.sampling && b.rng.Float64() < b.DropRate {
			v = 0
		}
		out.Data[i] = 1 / (1 + math.Exp(-b.Gain*(v-mean)))
	}
	return out, nil
}

// boxBlur applies a mean filter of the given radius with clamped borders.
func boxBlur(img models.Image, radius int) []float64 {
	out := make([]float64, len(img.Data))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			sum := 0.0
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sx >= img.Width || sy < 0 || sy >= img.Height {
						continue
					}
					sum += img.Data[sy*img.Width+sx]
					count++
				}
			}
			out[y*img.Width+x] = sum / float64(count)
		}
	}
	return out
}
