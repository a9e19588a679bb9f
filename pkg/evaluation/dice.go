// Package evaluation scores corrected volumes against ground truth and
// drives the multi-strategy, multi-budget comparison across a patient set.
// Evaluation only: no selection logic lives here.
package evaluation

import (
	"fmt"

	"slicetriage/internal/models"
)

// VolumeDice computes the Dice similarity coefficient over an entire 3D
// volume given as aligned per-slice mask sequences:
//
//	Dice = 2|P ∩ G| / (|P| + |G|)
//
// The score is computed over the stacked volume, not per slice then
// averaged. Edge cases: both volumes empty scores 1.0 (perfect agreement);
// exactly one empty scores 0.0. Per-slice shape mismatches are alignment
// errors, never coerced.
func VolumeDice(pred, gt []models.Mask) (float64, error) {
	if len(pred) != len(gt) {
		return 0, fmt.Errorf("slice count mismatch: %d vs %d", len(pred), len(gt))
	}

	intersection := 0
	predSum := 0
	gtSum := 0
	for i := range pred {
		if !pred[i].SameShape(gt[i]) {
			return 0, fmt.Errorf("shape mismatch at slice index %d: %dx%d vs %dx%d",
				i, pred[i].Width, pred[i].Height, gt[i].Width, gt[i].Height)
		}
		for j := range pred[i].Data {
			p := pred[i].Data[j] > 0
			g := gt[i].Data[j] > 0
			if p {
				predSum++
			}
			if g {
				gtSum++
			}
			if p && g {
				intersection++
			}
		}
	}

	if predSum == 0 && gtSum == 0 {
		return 1, nil
	}
	if predSum == 0 || gtSum == 0 {
		return 0, nil
	}
	return 2 * float64(intersection) / float64(predSum+gtSum), nil
}

// CorrectedDice scores a corrected volume against the patient's ground
// truth, verifying slice-ID alignment first.
func CorrectedDice(corrected models.CorrectedVolume, gt models.PatientSlices) (float64, error) {
	corrIDs := make([]int, len(corrected.Slices))
	corrMasks := make([]models.Mask, len(corrected.Slices))
	for i, s := range corrected.Slices {
		corrIDs[i] = s.SliceID
		corrMasks[i] = s.Mask
	}
	if err := models.CheckAligned("corrected", corrIDs, "ground truth", gt.SliceIDs()); err != nil {
		return 0, err
	}

	gtMasks := make([]models.Mask, len(gt.Slices))
	for i, s := range gt.Slices {
		gtMasks[i] = s.Mask
	}
	return VolumeDice(corrMasks, gtMasks)
}

// PredictionDice scores the uncorrected prediction volume against ground
// truth. This is the No-Correction baseline value.
func PredictionDice(preds models.PatientPredictions, gt models.PatientSlices) (float64, error) {
	if err := models.CheckAligned("predictions", preds.SliceIDs(), "ground truth", gt.SliceIDs()); err != nil {
		return 0, err
	}
	predMasks := make([]models.Mask, len(preds.Slices))
	for i, s := range preds.Slices {
		predMasks[i] = s.PredMask
	}
	gtMasks := make([]models.Mask, len(gt.Slices))
	for i, s := range gt.Slices {
		gtMasks[i] = s.Mask
	}
	return VolumeDice(predMasks, gtMasks)
}
