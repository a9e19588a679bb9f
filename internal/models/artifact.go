package models

import (
	"fmt"
	"math"
)

// SliceRecord is one entry of the per-patient slice dataset artifact:
// the slice image and its ground-truth mask. Slice IDs are stable,
// zero-indexed and order-significant within a patient.
type SliceRecord struct {
	SliceID int   `msgpack:"slice_id"`
	Image   Image `msgpack:"image"`
	Mask    Mask  `msgpack:"mask"`
}

// PatientSlices is the slice dataset artifact for one patient, produced by
// the external data-loading collaborator.
type PatientSlices struct {
	PatientID string        `msgpack:"patient_id"`
	Slices    []SliceRecord `msgpack:"slices"`
}

// PredictionRecord is one entry of the per-patient prediction artifact,
// produced by the external frozen-model collaborator.
type PredictionRecord struct {
	SliceID  int     `msgpack:"slice_id"`
	ProbMap  ProbMap `msgpack:"prob_map"`
	PredMask Mask    `msgpack:"pred_mask"`
}

// PatientPredictions is the prediction artifact for one patient.
type PatientPredictions struct {
	PatientID string             `msgpack:"patient_id"`
	Slices    []PredictionRecord `msgpack:"slices"`
}

// UncertaintyRecord holds the per-slice uncertainty signal: a normalized
// entropy map and a scalar slice score. The scalar is NaN when the slice has
// no foreground-relevant pixels; consumers must treat NaN as a sentinel, not
// as a valid score.
type UncertaintyRecord struct {
	SliceID          int     `msgpack:"slice_id"`
	UncertaintyMap   ProbMap `msgpack:"uncertainty_map"`
	SliceUncertainty float64 `msgpack:"slice_uncertainty"`
}

// Defined reports whether the scalar slice uncertainty is a valid score.
func (r UncertaintyRecord) Defined() bool {
	return !math.IsNaN(r.SliceUncertainty)
}

// PatientUncertainty is the uncertainty artifact for one patient.
type PatientUncertainty struct {
	PatientID string              `msgpack:"patient_id"`
	Slices    []UncertaintyRecord `msgpack:"slices"`
}

// ImpactRecord holds the per-slice volumetric impact signal in [0,1].
type ImpactRecord struct {
	SliceID     int     `msgpack:"slice_id"`
	ImpactScore float64 `msgpack:"impact_score"`
}

// PatientImpact is the impact artifact for one patient.
type PatientImpact struct {
	PatientID string         `msgpack:"patient_id"`
	Slices    []ImpactRecord `msgpack:"slices"`
}

// SliceIDs returns the ordered slice IDs of a patient dataset.
func (p PatientSlices) SliceIDs() []int {
	ids := make([]int, len(p.Slices))
	for i, s := range p.Slices {
		ids[i] = s.SliceID
	}
	return ids
}

// SliceIDs returns the ordered slice IDs of a prediction artifact.
func (p PatientPredictions) SliceIDs() []int {
	ids := make([]int, len(p.Slices))
	for i, s := range p.Slices {
		ids[i] = s.SliceID
	}
	return ids
}

// SliceIDs returns the ordered slice IDs of an uncertainty artifact.
func (p PatientUncertainty) SliceIDs() []int {
	ids := make([]int, len(p.Slices))
	for i, s := range p.Slices {
		ids[i] = s.SliceID
	}
	return ids
}

// SliceIDs returns the ordered slice IDs of an impact artifact.
func (p PatientImpact) SliceIDs() []int {
	ids := make([]int, len(p.Slices))
	for i, s := range p.Slices {
		ids[i] = s.SliceID
	}
	return ids
}

// CheckAligned verifies that two artifacts for the same patient carry the
// identical ordered slice-ID sequence. A mismatch is an alignment error:
// fatal for the patient, never silently coerced.
func CheckAligned(kindA string, idsA []int, kindB string, idsB []int) error {
	if len(idsA) != len(idsB) {
		return fmt.Errorf("slice count mismatch between %s and %s: %d vs %d",
			kindA, kindB, len(idsA), len(idsB))
	}
	for i := range idsA {
		if idsA[i] != idsB[i] {
			return fmt.Errorf("slice ID mismatch between %s and %s at index %d: %d vs %d",
				kindA, kindB, i, idsA[i], idsB[i])
		}
	}
	return nil
}
