package selection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"slicetriage/internal/models"
)

// Fused is the impact-weighted uncertainty policy: each slice gets the joint
// priority score S_i = alpha*U_i + (1-alpha)*I_i and the top B slices by
// score are selected. Alpha is a fixed configuration constant, never fit
// from data. Alpha 1 degenerates to uncertainty-only ranking and alpha 0 to
// impact-only ranking; both baselines are produced by this one
// implementation, which keeps their comparison with the fused policy fair.
type Fused struct {
	label string
	alpha float64
}

// NewFused creates a fused selector with the given display label and fusion
// weight. Alpha outside [0,1] is rejected before any computation.
func NewFused(label string, alpha float64) (*Fused, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0, 1], got %g", alpha)
	}
	if label == "" {
		label = "IWUO"
	}
	return &Fused{label: label, alpha: alpha}, nil
}

// Name implements Strategy.
func (f *Fused) Name() string { return f.label }

// Alpha returns the fixed fusion weight.
func (f *Fused) Alpha() float64 { return f.alpha }

// Scores computes the joint priority score per slice. Slices with an
// undefined (NaN) uncertainty are scored with an explicit fallback of zero
// uncertainty: a slice the model sees no foreground in carries no
// correction-priority signal, and the fallback keeps it rankable without
// poisoning the sort order.
func (f *Fused) Scores(sig Signals) ([]float64, error) {
	if err := checkScores("uncertainty", sig.Uncertainty, sig.SliceIDs, true); err != nil {
		return nil, err
	}
	if err := checkScores("impact", sig.Impact, sig.SliceIDs, false); err != nil {
		return nil, err
	}

	scores := make([]float64, len(sig.SliceIDs))
	for i := range scores {
		u := sig.Uncertainty[i]
		if math.IsNaN(u) {
			u = 0
		}
		scores[i] = f.alpha*u + (1-f.alpha)*sig.Impact[i]
	}
	return scores, nil
}

// Select implements Strategy. Slices are ranked by descending joint score
// with a stable sort, so ties resolve to the lower slice ID and identical
// inputs always yield the identical selection.
func (f *Fused) Select(sig Signals, budget int) (models.Selection, error) {
	b, err := clampBudget(budget, len(sig.SliceIDs))
	if err != nil {
		return models.Selection{}, err
	}

	scores, err := f.Scores(sig)
	if err != nil {
		return models.Selection{}, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	selected := make([]int, b)
	for i := 0; i < b; i++ {
		selected[i] = sig.SliceIDs[order[i]]
	}

	return models.Selection{
		PatientID: sig.PatientID,
		Strategy:  f.label,
		Budget:    b,
		Alpha:     f.alpha,
		SliceIDs:  selected,
	}, nil
}

// ScoreStats summarizes the joint score distribution for verbose output.
func (f *Fused) ScoreStats(sig Signals) (mean, std, min, max float64, err error) {
	scores, err := f.Scores(sig)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	mean = stat.Mean(scores, nil)
	std = math.Sqrt(stat.PopVariance(scores, nil))
	min = floats.Min(scores)
	max = floats.Max(scores)
	return mean, std, min, max, nil
}
