package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slicetriage/internal/models"
)

// fixture builds a 3-slice patient where every prediction disagrees with
// ground truth, so corrected and uncorrected slices are distinguishable.
func fixture() (models.PatientPredictions, models.PatientSlices) {
	preds := models.PatientPredictions{PatientID: "p1"}
	gt := models.PatientSlices{PatientID: "p1"}
	for i := 0; i < 3; i++ {
		predMask := models.NewMask(2, 2)
		predMask.Data[0] = 1
		gtMask := models.NewMask(2, 2)
		gtMask.Data[3] = 1

		preds.Slices = append(preds.Slices, models.PredictionRecord{SliceID: i, PredMask: predMask})
		gt.Slices = append(gt.Slices, models.SliceRecord{SliceID: i, Mask: gtMask})
	}
	return preds, gt
}

func TestApplyReplacesExactlySelectedSlices(t *testing.T) {
	preds, gt := fixture()
	sel := models.Selection{PatientID: "p1", SliceIDs: []int{1}}

	out, err := Apply(preds, gt, sel)
	require.NoError(t, err)
	require.Len(t, out.Slices, 3)
	assert.Equal(t, []int{1}, out.Selected)

	// Selected slices equal ground truth exactly; all others equal the
	// prediction exactly. Both directions of the invariant.
	assert.True(t, out.Slices[0].Mask.Equal(preds.Slices[0].PredMask))
	assert.True(t, out.Slices[1].Mask.Equal(gt.Slices[1].Mask))
	assert.True(t, out.Slices[2].Mask.Equal(preds.Slices[2].PredMask))

	assert.False(t, out.Slices[0].Mask.Equal(gt.Slices[0].Mask))
	assert.False(t, out.Slices[1].Mask.Equal(preds.Slices[1].PredMask))
}

func TestApplyEmptySelectionKeepsPredictions(t *testing.T) {
	preds, gt := fixture()

	out, err := Apply(preds, gt, models.Selection{PatientID: "p1"})
	require.NoError(t, err)
	for i := range out.Slices {
		assert.True(t, out.Slices[i].Mask.Equal(preds.Slices[i].PredMask))
	}
}

func TestApplyFullSelectionMatchesGroundTruth(t *testing.T) {
	preds, gt := fixture()
	sel := models.Selection{PatientID: "p1", SliceIDs: []int{0, 1, 2}}

	out, err := Apply(preds, gt, sel)
	require.NoError(t, err)
	for i := range out.Slices {
		assert.True(t, out.Slices[i].Mask.Equal(gt.Slices[i].Mask))
	}
}

func TestApplyCopiesAreIndependent(t *testing.T) {
	preds, gt := fixture()

	out, err := Apply(preds, gt, models.Selection{SliceIDs: []int{0}})
	require.NoError(t, err)

	// Mutating the corrected volume must not leak into the inputs.
	out.Slices[0].Mask.Data[0] = 7
	out.Slices[1].Mask.Data[0] = 7
	assert.Equal(t, uint8(0), gt.Slices[0].Mask.Data[0])
	assert.Equal(t, uint8(1), preds.Slices[1].PredMask.Data[0])
}

func TestApplyRejectsPatientMismatch(t *testing.T) {
	preds, gt := fixture()
	gt.PatientID = "p2"
	_, err := Apply(preds, gt, models.Selection{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patient ID mismatch")

	_, gt = fixture()
	_, err = Apply(preds, gt, models.Selection{PatientID: "p9"})
	assert.Error(t, err)
}

func TestApplyRejectsMisalignedVolumes(t *testing.T) {
	preds, gt := fixture()
	gt.Slices = gt.Slices[:2]
	_, err := Apply(preds, gt, models.Selection{})
	assert.Error(t, err)

	preds, gt = fixture()
	gt.Slices[1].SliceID = 9
	_, err = Apply(preds, gt, models.Selection{})
	assert.Error(t, err)
}

func TestApplyRejectsUnknownSelectedSlice(t *testing.T) {
	preds, gt := fixture()
	_, err := Apply(preds, gt, models.Selection{SliceIDs: []int{5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestApplyRejectsDuplicateSelection(t *testing.T) {
	preds, gt := fixture()
	_, err := Apply(preds, gt, models.Selection{SliceIDs: []int{1, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestApplyRejectsShapeMismatch(t *testing.T) {
	preds, gt := fixture()
	gt.Slices[2].Mask = models.NewMask(4, 4)
	_, err := Apply(preds, gt, models.Selection{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}
