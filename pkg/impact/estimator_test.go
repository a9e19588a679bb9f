package impact

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slicetriage/internal/models"
)

// maskWithForeground builds a 2x2 mask with the given number of foreground
// pixels.
func maskWithForeground(count int) models.Mask {
	m := models.NewMask(2, 2)
	for i := 0; i < count; i++ {
		m.Data[i] = 1
	}
	return m
}

func predictions(counts ...int) models.PatientPredictions {
	p := models.PatientPredictions{PatientID: "p1"}
	for i, c := range counts {
		p.Slices = append(p.Slices, models.PredictionRecord{
			SliceID:  i,
			PredMask: maskWithForeground(c),
		})
	}
	return p
}

func scores(t *testing.T, imp models.PatientImpact) []float64 {
	t.Helper()
	out := make([]float64, len(imp.Slices))
	for i, s := range imp.Slices {
		out[i] = s.ImpactScore
	}
	return out
}

func TestComputeRawNormalization(t *testing.T) {
	est := NewEstimator(false, false)

	imp, err := est.Compute(predictions(1, 4, 0))
	require.NoError(t, err)

	assert.Equal(t, []float64{0.25, 1.0, 0.0}, scores(t, imp))
	assert.Equal(t, []int{0, 1, 2}, imp.SliceIDs())
}

func TestComputeConnectivityWeighting(t *testing.T) {
	est := NewEstimator(true, false)

	// Counts 1, 4, 0: the first two slices each have one foreground
	// neighbor, the empty tail slice borders a foreground slice. Weighted
	// counts are 2/3, 8/3 and 0; normalizing by the maximum gives 1/4, 1, 0.
	imp, err := est.Compute(predictions(1, 4, 0))
	require.NoError(t, err)

	got := scores(t, imp)
	assert.InDelta(t, 0.25, got[0], 1e-12)
	assert.InDelta(t, 1.0, got[1], 1e-12)
	assert.InDelta(t, 0.0, got[2], 1e-12)
}

func TestComputeConnectivityFavorsInteriorSlices(t *testing.T) {
	est := NewEstimator(true, false)

	// Equal foreground everywhere: the interior slice has two foreground
	// neighbors and must outrank the boundary slices.
	imp, err := est.Compute(predictions(2, 2, 2))
	require.NoError(t, err)

	got := scores(t, imp)
	assert.Greater(t, got[1], got[0])
	assert.Greater(t, got[1], got[2])
	assert.Equal(t, got[0], got[2])
}

func TestComputeSqrtTransform(t *testing.T) {
	est := NewEstimator(false, true)

	imp, err := est.Compute(predictions(1, 4))
	require.NoError(t, err)

	got := scores(t, imp)
	assert.InDelta(t, math.Sqrt(0.25), got[0], 1e-12)
	assert.InDelta(t, 1.0, got[1], 1e-12)
}

func TestComputeEmptyVolumeYieldsZeroImpact(t *testing.T) {
	est := NewEstimator(true, true)

	imp, err := est.Compute(predictions(0, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0}, scores(t, imp))
}

func TestComputeScoresStayInUnitRange(t *testing.T) {
	est := NewEstimator(true, true)

	imp, err := est.Compute(predictions(3, 1, 4, 0, 2))
	require.NoError(t, err)

	for _, s := range imp.Slices {
		assert.GreaterOrEqual(t, s.ImpactScore, 0.0)
		assert.LessOrEqual(t, s.ImpactScore, 1.0)
	}
}

func TestComputeDeterministic(t *testing.T) {
	est := NewEstimator(true, true)
	preds := predictions(3, 1, 4, 0, 2)

	a, err := est.Compute(preds)
	require.NoError(t, err)
	b, err := est.Compute(preds)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeRejectsEmptyPatient(t *testing.T) {
	est := NewEstimator(true, true)
	_, err := est.Compute(models.PatientPredictions{PatientID: "p1"})
	assert.Error(t, err)
}
