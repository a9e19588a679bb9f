// Package uncertainty estimates epistemic uncertainty for slice-level
// segmentation predictions by repeated stochastic inference over a frozen
// predictor. Uncertainty is a signal, not a decision rule: this package
// performs no selection, no correction and no evaluation.
package uncertainty

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"slicetriage/internal/models"
)

// Predictor is the frozen segmentation function: one slice image in, one
// foreground probability map out. The model behind it is a black box; its
// learned parameters are never modified here and no gradients exist.
type Predictor interface {
	Predict(img models.Image) (models.ProbMap, error)
}

// Stochastic is implemented by predictors that can randomize internal units
// at inference time. EnableSampling switches the predictor into stochastic
// mode with a fixed seed; DisableSampling restores deterministic inference.
// The toggle is a scoped resource: the estimator always restores it before
// returning, so no other inference observes an inconsistent state.
type Stochastic interface {
	Predictor
	EnableSampling(seed int64)
	DisableSampling()
}

// Params configures the estimator. All fields are fixed configuration:
// identical inputs and params always produce identical outputs.
type Params struct {
	// NumSamples is the number of stochastic forward passes (T)
	NumSamples int

	// Seed is the base random seed; each slice samples with Seed+sliceID
	Seed int64

	// ForegroundThreshold gates which pixels contribute to the scalar
	// slice uncertainty
	ForegroundThreshold float64
}

// Estimator computes per-pixel entropy maps and per-slice scalar scores.
type Estimator struct {
	predictor Predictor
	params    Params
}

// NewEstimator creates an estimator over the given frozen predictor.
func NewEstimator(predictor Predictor, params Params) (*Estimator, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor must not be nil")
	}
	if params.NumSamples < 1 {
		return nil, fmt.Errorf("numSamples must be at least 1, got %d", params.NumSamples)
	}
	if params.ForegroundThreshold < 0 || params.ForegroundThreshold >= 1 {
		return nil, fmt.Errorf("foregroundThreshold must be in [0, 1), got %g", params.ForegroundThreshold)
	}
	return &Estimator{predictor: predictor, params: params}, nil
}

// EstimateSlice runs T stochastic forward passes for one slice and returns
// the normalized entropy map together with the scalar slice uncertainty.
//
// The scalar is the mean entropy over pixels whose mean probability exceeds
// the foreground threshold. When no pixel qualifies the scalar is NaN: an
// undefined-signal sentinel that downstream consumers must resolve
// explicitly, never rank on.
func (e *Estimator) EstimateSlice(sliceID int, img models.Image) (models.UncertaintyRecord, error) {
	if len(img.Data) != img.Width*img.Height {
		return models.UncertaintyRecord{}, fmt.Errorf(
			"slice %d: image data length %d does not match %dx%d",
			sliceID, len(img.Data), img.Width, img.Height)
	}

	// Enable stochastic units for the duration of the sampling window only.
	if s, ok := e.predictor.(Stochastic); ok {
		s.EnableSampling(e.params.Seed + int64(sliceID))
		defer s.DisableSampling()
	}

	// Accumulate the mean probability map over T passes.
	meanProb := models.NewProbMap(img.Width, img.Height)
	for t := 0; t < e.params.NumSamples; t++ {
		prob, err := e.predictor.Predict(img)
		if err != nil {
			return models.UncertaintyRecord{}, fmt.Errorf("slice %d: sample %d: %w", sliceID, t, err)
		}
		if !prob.SameShape(meanProb) {
			return models.UncertaintyRecord{}, fmt.Errorf(
				"slice %d: predictor returned %dx%d map for %dx%d input",
				sliceID, prob.Width, prob.Height, img.Width, img.Height)
		}
		floats.Add(meanProb.Data, prob.Data)
	}
	floats.Scale(1/float64(e.params.NumSamples), meanProb.Data)

	entropyMap := binaryEntropy(meanProb)
	score := aggregate(entropyMap, meanProb, e.params.ForegroundThreshold)

	return models.UncertaintyRecord{
		SliceID:          sliceID,
		UncertaintyMap:   entropyMap,
		SliceUncertainty: score,
	}, nil
}

// EstimateVolume computes uncertainty for every slice of a patient in slice
// order. Slices are processed sequentially: the predictor's sampling toggle
// is shared state, and the per-slice seed already makes results independent
// of ordering, so parallel fan-out belongs at the patient level.
func (e *Estimator) EstimateVolume(patient models.PatientSlices) (models.PatientUncertainty, error) {
	out := models.PatientUncertainty{
		PatientID: patient.PatientID,
		Slices:    make([]models.UncertaintyRecord, 0, len(patient.Slices)),
	}
	for _, rec := range patient.Slices {
		ur, err := e.EstimateSlice(rec.SliceID, rec.Image)
		if err != nil {
			return models.PatientUncertainty{}, fmt.Errorf("patient %s: %w", patient.PatientID, err)
		}
		out.Slices = append(out.Slices, ur)
	}
	return out, nil
}

// binaryEntropy computes the voxel-wise binary entropy of a probability map,
// H(p) = -p*log(p) - (1-p)*log(1-p), normalized to [0,1] by log 2.
// Probabilities are clipped away from 0 and 1 to guard log(0).
func binaryEntropy(prob models.ProbMap) models.ProbMap {
	const eps = 1e-10
	out := models.NewProbMap(prob.Width, prob.Height)
	for i, p := range prob.Data {
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		h := -(p*math.Log(p) + (1-p)*math.Log(1-p))
		out.Data[i] = h / math.Ln2
	}
	return out
}

// aggregate reduces the entropy map to a scalar: the mean entropy over
// foreground-relevant pixels. Returns NaN when no pixel is relevant.
func aggregate(entropy, meanProb models.ProbMap, threshold float64) float64 {
	relevant := make([]float64, 0, len(entropy.Data))
	for i, p := range meanProb.Data {
		if p > threshold {
			relevant = append(relevant, entropy.Data[i])
		}
	}
	if len(relevant) == 0 {
		return math.NaN()
	}
	return stat.Mean(relevant, nil)
}
