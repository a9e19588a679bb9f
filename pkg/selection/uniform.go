package selection

import (
	"math"

	"slicetriage/internal/models"
)

// Uniform selects B slices at evenly spaced intervals across the volume
// depth: the depth is divided into B+1 intervals and the slice nearest each
// interior boundary is taken. Deterministic; guarantees spatial coverage
// rather than error targeting, and avoids the first and last slices, which
// are often empty in axial brain volumes.
type Uniform struct{}

// NewUniform creates the uniform-spacing baseline.
func NewUniform() *Uniform { return &Uniform{} }

// Name implements Strategy.
func (u *Uniform) Name() string { return "Uniform" }

// Select implements Strategy.
func (u *Uniform) Select(sig Signals, budget int) (models.Selection, error) {
	n := len(sig.SliceIDs)
	b, err := clampBudget(budget, n)
	if err != nil {
		return models.Selection{}, err
	}

	var selected []int
	if b == n {
		selected = append([]int(nil), sig.SliceIDs...)
	} else {
		interval := float64(n) / float64(b+1)
		selected = make([]int, 0, b)
		for i := 1; i <= b; i++ {
			idx := int(math.Round(float64(i)*interval)) - 1
			if idx < 0 {
				idx = 0
			}
			if idx > n-1 {
				idx = n - 1
			}
			selected = append(selected, sig.SliceIDs[idx])
		}
	}

	return models.Selection{
		PatientID: sig.PatientID,
		Strategy:  u.Name(),
		Budget:    b,
		SliceIDs:  selected,
	}, nil
}
