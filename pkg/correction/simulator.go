// Package correction simulates perfect expert correction: selected slices
// are replaced with ground truth, all others keep the model prediction.
// Simulation only, no noise, no partial corrections, no evaluation.
package correction

import (
	"fmt"

	"slicetriage/internal/models"
)

// Apply produces the corrected volume for one patient. It is a pure
// function of its inputs.
//
// Preconditions are enforced before any output is produced: predictions and
// ground truth must cover the identical ordered slice IDs with identical
// per-slice shapes, and every selected ID must exist in the volume. Any
// violation is a fatal precondition failure for this patient, because it
// indicates upstream misalignment that would silently corrupt every
// downstream metric.
func Apply(preds models.PatientPredictions, gt models.PatientSlices, sel models.Selection) (models.CorrectedVolume, error) {
	if preds.PatientID != gt.PatientID {
		return models.CorrectedVolume{}, fmt.Errorf(
			"patient ID mismatch between predictions (%s) and ground truth (%s)",
			preds.PatientID, gt.PatientID)
	}
	if sel.PatientID != "" && sel.PatientID != preds.PatientID {
		return models.CorrectedVolume{}, fmt.Errorf(
			"patient ID mismatch between predictions (%s) and selection (%s)",
			preds.PatientID, sel.PatientID)
	}
	if err := models.CheckAligned("predictions", preds.SliceIDs(), "ground truth", gt.SliceIDs()); err != nil {
		return models.CorrectedVolume{}, err
	}

	valid := make(map[int]bool, len(preds.Slices))
	for _, rec := range preds.Slices {
		valid[rec.SliceID] = true
	}
	selected := make(map[int]bool, len(sel.SliceIDs))
	for _, id := range sel.SliceIDs {
		if !valid[id] {
			return models.CorrectedVolume{}, fmt.Errorf("selected slice %d does not exist in volume", id)
		}
		if selected[id] {
			return models.CorrectedVolume{}, fmt.Errorf("selected slice %d appears more than once", id)
		}
		selected[id] = true
	}

	out := models.CorrectedVolume{
		PatientID: preds.PatientID,
		Selected:  append([]int(nil), sel.SliceIDs...),
		Slices:    make([]models.CorrectedSlice, len(preds.Slices)),
	}
	for i := range preds.Slices {
		pred := preds.Slices[i]
		truth := gt.Slices[i]
		if !pred.PredMask.SameShape(truth.Mask) {
			return models.CorrectedVolume{}, fmt.Errorf(
				"shape mismatch for slice %d: %dx%d vs %dx%d",
				pred.SliceID, pred.PredMask.Width, pred.PredMask.Height,
				truth.Mask.Width, truth.Mask.Height)
		}

		var mask models.Mask
		if selected[pred.SliceID] {
			mask = truth.Mask.Clone()
		} else {
			mask = pred.PredMask.Clone()
		}
		out.Slices[i] = models.CorrectedSlice{SliceID: pred.SliceID, Mask: mask}
	}
	return out, nil
}
