package evaluation

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"slicetriage/internal/models"
)

// Aggregate summarizes per-patient cells into one row per
// (strategy, budget fraction): mean, population standard deviation, median,
// min, max and the contributing patient count. Skipped patients simply do
// not contribute cells, so they are excluded here by construction.
func Aggregate(cells []models.EvaluationCell, strategies []string, budgets []float64) ([]models.AggregateCell, error) {
	type key struct {
		strategy string
		budget   float64
	}
	scores := make(map[key][]float64)
	upper := make(map[key]bool)
	for _, c := range cells {
		k := key{c.Strategy, c.BudgetFraction}
		scores[k] = append(scores[k], c.Dice)
		if c.UpperBound {
			upper[k] = true
		}
	}

	out := make([]models.AggregateCell, 0, len(strategies)*len(budgets))
	for _, strategy := range strategies {
		for _, budget := range budgets {
			k := key{strategy, budget}
			agg := models.AggregateCell{
				Strategy:       strategy,
				BudgetFraction: budget,
				UpperBound:     upper[k],
			}
			data := scores[k]
			if len(data) > 0 {
				var err error
				if agg.Mean, err = stats.Mean(data); err != nil {
					return nil, fmt.Errorf("aggregating %s at %g: %w", strategy, budget, err)
				}
				if agg.Std, err = stats.StandardDeviation(data); err != nil {
					return nil, fmt.Errorf("aggregating %s at %g: %w", strategy, budget, err)
				}
				if agg.Median, err = stats.Median(data); err != nil {
					return nil, fmt.Errorf("aggregating %s at %g: %w", strategy, budget, err)
				}
				if agg.Min, err = stats.Min(data); err != nil {
					return nil, fmt.Errorf("aggregating %s at %g: %w", strategy, budget, err)
				}
				if agg.Max, err = stats.Max(data); err != nil {
					return nil, fmt.Errorf("aggregating %s at %g: %w", strategy, budget, err)
				}
				agg.Count = len(data)
			}
			out = append(out, agg)
		}
	}
	return out, nil
}
