package selection

import (
	"slicetriage/internal/models"
)

// NoCorrection is the budget-ignoring baseline: it never selects a slice,
// so the corrected volume equals the raw prediction. Its Dice is constant
// across budgets and anchors the comparison of every other strategy.
type NoCorrection struct{}

// NewNoCorrection creates the no-correction baseline.
func NewNoCorrection() *NoCorrection { return &NoCorrection{} }

// Name implements Strategy.
func (n *NoCorrection) Name() string { return "No Correction" }

// Select implements Strategy and always returns an empty selection.
func (n *NoCorrection) Select(sig Signals, budget int) (models.Selection, error) {
	if _, err := clampBudget(budget, len(sig.SliceIDs)); err != nil {
		return models.Selection{}, err
	}
	return models.Selection{
		PatientID: sig.PatientID,
		Strategy:  n.Name(),
		Budget:    0,
		SliceIDs:  nil,
	}, nil
}
