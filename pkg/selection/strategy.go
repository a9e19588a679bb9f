// Package selection implements the budget-constrained slice-selection
// strategies: Random and Uniform baselines, the fused impact-weighted
// uncertainty policy, and the ground-truth Oracle upper bound. All
// strategies share one contract so their comparison stays fair: the
// evaluation iterates a roster of Strategy values under identical inputs.
package selection

import (
	"fmt"
	"math"

	"slicetriage/internal/models"
)

// Signals carries the per-patient read-only inputs a strategy may consume.
// SliceIDs is the authoritative ordered ID list; the score and mask slices,
// when present, are index-aligned with it.
type Signals struct {
	PatientID string

	// SliceIDs is the patient's full ordered slice-ID range
	SliceIDs []int

	// Uncertainty holds normalized scalar slice uncertainties in [0,1].
	// Entries may be NaN for slices with no foreground-relevant pixels.
	Uncertainty []float64

	// Impact holds normalized impact scores in [0,1]
	Impact []float64

	// PredMasks and GTMasks are consumed only by the Oracle upper bound
	PredMasks []models.Mask
	GTMasks   []models.Mask
}

// Strategy is the common selection contract. Select returns at most budget
// distinct slice IDs drawn from sig.SliceIDs. A budget of zero is valid and
// yields an empty selection; a budget of at least N yields all N IDs.
// Strategies are deterministic unless explicitly stochastic.
type Strategy interface {
	Name() string
	Select(sig Signals, budget int) (models.Selection, error)
}

// SignalsFromArtifacts assembles scoring signals from the uncertainty and
// impact artifacts of one patient, verifying their alignment. A slice
// present in one artifact but not the other is a pipeline integrity bug and
// fails loudly.
func SignalsFromArtifacts(unc models.PatientUncertainty, imp models.PatientImpact) (Signals, error) {
	if unc.PatientID != imp.PatientID {
		return Signals{}, fmt.Errorf("patient ID mismatch between uncertainty (%s) and impact (%s)",
			unc.PatientID, imp.PatientID)
	}
	if err := models.CheckAligned("uncertainty", unc.SliceIDs(), "impact", imp.SliceIDs()); err != nil {
		return Signals{}, err
	}

	sig := Signals{
		PatientID:   unc.PatientID,
		SliceIDs:    unc.SliceIDs(),
		Uncertainty: make([]float64, len(unc.Slices)),
		Impact:      make([]float64, len(imp.Slices)),
	}
	for i, s := range unc.Slices {
		sig.Uncertainty[i] = s.SliceUncertainty
	}
	for i, s := range imp.Slices {
		sig.Impact[i] = s.ImpactScore
	}
	return sig, nil
}

// AttachMasks adds the per-slice masks the Oracle requires, verifying that
// predictions and ground truth cover the same slice IDs as the signals.
func (sig *Signals) AttachMasks(preds models.PatientPredictions, gt models.PatientSlices) error {
	if err := models.CheckAligned("signals", sig.SliceIDs, "predictions", preds.SliceIDs()); err != nil {
		return err
	}
	if err := models.CheckAligned("predictions", preds.SliceIDs(), "ground truth", gt.SliceIDs()); err != nil {
		return err
	}
	sig.PredMasks = make([]models.Mask, len(preds.Slices))
	sig.GTMasks = make([]models.Mask, len(gt.Slices))
	for i := range preds.Slices {
		sig.PredMasks[i] = preds.Slices[i].PredMask
		sig.GTMasks[i] = gt.Slices[i].Mask
	}
	return nil
}

// clampBudget resolves the effective budget against the slice count.
// Negative budgets are rejected; budgets at or above N select everything.
func clampBudget(budget, n int) (int, error) {
	if budget < 0 {
		return 0, fmt.Errorf("budget must be non-negative, got %d", budget)
	}
	if budget > n {
		return n, nil
	}
	return budget, nil
}

// checkScores validates that a score vector covers every slice ID and stays
// within [0,1]. NaN entries are permitted only when allowNaN is set; the
// caller is then responsible for an explicit fallback before ranking.
func checkScores(kind string, scores []float64, ids []int, allowNaN bool) error {
	if len(scores) != len(ids) {
		return fmt.Errorf("%s signal missing: %d scores for %d slices", kind, len(scores), len(ids))
	}
	for i, v := range scores {
		if math.IsNaN(v) {
			if allowNaN {
				continue
			}
			return fmt.Errorf("%s score for slice %d is NaN", kind, ids[i])
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%s score for slice %d out of [0,1]: %g", kind, ids[i], v)
		}
	}
	return nil
}
