package selection

import (
	"fmt"
	"sort"

	"slicetriage/internal/models"
)

// Oracle selects the B slices with the highest ground-truth error, measured
// as 1 minus the per-slice Dice between prediction and ground truth.
//
// This is an upper bound only, not a deployable policy: it requires ground
// truth, which no real reviewer-assistance system has at selection time. It
// exists to calibrate how far a practical policy sits from the best possible
// budget-constrained choice. Every selection it returns is marked
// UpperBound, and reports refuse to surface such rows without the label.
type Oracle struct{}

// NewOracle creates the ground-truth upper bound.
func NewOracle() *Oracle { return &Oracle{} }

// Name implements Strategy.
func (o *Oracle) Name() string { return "Oracle" }

// Select implements Strategy. Ties in error resolve to the lower slice ID.
func (o *Oracle) Select(sig Signals, budget int) (models.Selection, error) {
	n := len(sig.SliceIDs)
	b, err := clampBudget(budget, n)
	if err != nil {
		return models.Selection{}, err
	}
	if len(sig.PredMasks) != n || len(sig.GTMasks) != n {
		return models.Selection{}, fmt.Errorf(
			"oracle requires prediction and ground-truth masks for all %d slices, got %d and %d",
			n, len(sig.PredMasks), len(sig.GTMasks))
	}

	errors := make([]float64, n)
	for i := range sig.SliceIDs {
		d, err := sliceDice(sig.PredMasks[i], sig.GTMasks[i])
		if err != nil {
			return models.Selection{}, fmt.Errorf("slice %d: %w", sig.SliceIDs[i], err)
		}
		errors[i] = 1 - d
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return errors[order[i]] > errors[order[j]]
	})

	selected := make([]int, b)
	for i := 0; i < b; i++ {
		selected[i] = sig.SliceIDs[order[i]]
	}

	return models.Selection{
		PatientID:  sig.PatientID,
		Strategy:   o.Name(),
		Budget:     b,
		SliceIDs:   selected,
		UpperBound: true,
	}, nil
}

// sliceDice computes the per-slice Dice coefficient. Two empty masks agree
// perfectly.
func sliceDice(pred, gt models.Mask) (float64, error) {
	if !pred.SameShape(gt) {
		return 0, fmt.Errorf("shape mismatch: %dx%d vs %dx%d",
			pred.Width, pred.Height, gt.Width, gt.Height)
	}
	intersection := 0
	for i := range pred.Data {
		if pred.Data[i] > 0 && gt.Data[i] > 0 {
			intersection++
		}
	}
	total := pred.ForegroundCount() + gt.ForegroundCount()
	if total == 0 {
		return 1, nil
	}
	return 2 * float64(intersection) / float64(total), nil
}
