package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskForegroundCount(t *testing.T) {
	m := NewMask(3, 2)
	assert.Equal(t, 0, m.ForegroundCount())
	assert.False(t, m.HasForeground())

	m.Data[0] = 1
	m.Data[4] = 255
	assert.Equal(t, 2, m.ForegroundCount())
	assert.True(t, m.HasForeground())
}

func TestMaskEqualIgnoresLabelValues(t *testing.T) {
	a := NewMask(2, 2)
	b := NewMask(2, 2)
	a.Data[1] = 1
	b.Data[1] = 255

	// Foreground is any value above zero, so differing labels still agree.
	assert.True(t, a.Equal(b))

	b.Data[2] = 1
	assert.False(t, a.Equal(b))
}

func TestMaskEqualShapeMismatch(t *testing.T) {
	a := NewMask(2, 2)
	b := NewMask(4, 1)
	assert.False(t, a.Equal(b))
}

func TestMaskCloneIsIndependent(t *testing.T) {
	a := NewMask(2, 2)
	a.Data[0] = 1

	b := a.Clone()
	b.Data[0] = 0
	assert.Equal(t, uint8(1), a.Data[0])
}

func TestProbMapThreshold(t *testing.T) {
	p := NewProbMap(2, 2)
	p.Data = []float64{0.1, 0.5, 0.51, 0.9}

	m := p.Threshold(0.5)
	assert.Equal(t, []uint8{0, 0, 1, 1}, m.Data)
}

func TestUncertaintyRecordDefined(t *testing.T) {
	assert.True(t, UncertaintyRecord{SliceUncertainty: 0.3}.Defined())
	assert.False(t, UncertaintyRecord{SliceUncertainty: math.NaN()}.Defined())
}

func TestCheckAligned(t *testing.T) {
	require.NoError(t, CheckAligned("a", []int{0, 1, 2}, "b", []int{0, 1, 2}))

	err := CheckAligned("a", []int{0, 1}, "b", []int{0, 1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slice count mismatch")

	err = CheckAligned("a", []int{0, 1, 2}, "b", []int{0, 2, 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slice ID mismatch")
}

func TestSliceIDsOrder(t *testing.T) {
	p := PatientSlices{
		PatientID: "p1",
		Slices: []SliceRecord{
			{SliceID: 0},
			{SliceID: 1},
			{SliceID: 2},
		},
	}
	assert.Equal(t, []int{0, 1, 2}, p.SliceIDs())
}
