// Package impact computes the global volumetric impact of correcting each
// slice of a predicted segmentation volume. Impact is a signal, not a
// decision rule: it answers how much a slice matters for the final 3D
// result, using no ground truth and no uncertainty.
package impact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"slicetriage/internal/models"
)

// Estimator computes per-slice impact scores from a predicted-mask volume.
//
// The score is the slice's foreground pixel count weighted by axial
// connectivity, normalized by the volume maximum and optionally compressed
// with a square root. Connectivity biases toward tumor-core slices over
// isolated peripheral ones; the sqrt bounds the influence of a single very
// large slice on ranking.
type Estimator struct {
	// UseConnectivity weights each slice by adjacent-slice foreground
	UseConnectivity bool

	// UseSqrtTransform applies the concave sqrt stabilization
	UseSqrtTransform bool
}

// NewEstimator creates an impact estimator.
func NewEstimator(useConnectivity, useSqrtTransform bool) *Estimator {
	return &Estimator{
		UseConnectivity:  useConnectivity,
		UseSqrtTransform: useSqrtTransform,
	}
}

// Compute produces one impact record per prediction slice, in slice order.
// Output scores are deterministic and lie in [0,1]; an all-empty volume
// yields uniform zero impact.
func (e *Estimator) Compute(patient models.PatientPredictions) (models.PatientImpact, error) {
	n := len(patient.Slices)
	if n == 0 {
		return models.PatientImpact{}, fmt.Errorf("patient %s: prediction volume has no slices", patient.PatientID)
	}

	// Step 1: raw foreground counts per slice.
	raw := make([]float64, n)
	for i, rec := range patient.Slices {
		raw[i] = float64(rec.PredMask.ForegroundCount())
	}

	// Step 2: connectivity weighting. w_i = (1 + n_i) / 3 where n_i counts
	// the axially adjacent slices that also contain foreground.
	if e.UseConnectivity {
		weights := connectivityWeights(patient.Slices)
		floats.Mul(raw, weights)
	}

	// Step 3: normalize by the volume maximum. A zero maximum means every
	// slice is empty; impacts stay zero rather than dividing by zero.
	if max := floats.Max(raw); max > 0 {
		floats.Scale(1/max, raw)
	}

	// Step 4: concave stabilization.
	if e.UseSqrtTransform {
		for i, v := range raw {
			raw[i] = math.Sqrt(v)
		}
	}

	out := models.PatientImpact{
		PatientID: patient.PatientID,
		Slices:    make([]models.ImpactRecord, n),
	}
	for i, rec := range patient.Slices {
		out.Slices[i] = models.ImpactRecord{
			SliceID:     rec.SliceID,
			ImpactScore: raw[i],
		}
	}
	return out, nil
}

// connectivityWeights returns (1 + adjacent-foreground count) / 3 per slice.
func connectivityWeights(slices []models.PredictionRecord) []float64 {
	n := len(slices)
	weights := make([]float64, n)
	for i := range slices {
		adjacent := 0
		if i > 0 && slices[i-1].PredMask.HasForeground() {
			adjacent++
		}
		if i < n-1 && slices[i+1].PredMask.HasForeground() {
			adjacent++
		}
		weights[i] = (1 + float64(adjacent)) / 3
	}
	return weights
}
