package evaluation

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"slicetriage/internal/models"
	"slicetriage/pkg/correction"
	"slicetriage/pkg/selection"
)

// PatientStore supplies the four per-patient input artifacts. The msgpack
// file store implements it; tests use in-memory fakes.
type PatientStore interface {
	// PatientIDs lists the patients that have all four required artifacts
	PatientIDs() ([]string, error)

	LoadGroundTruth(patientID string) (models.PatientSlices, error)
	LoadPredictions(patientID string) (models.PatientPredictions, error)
	LoadUncertainty(patientID string) (models.PatientUncertainty, error)
	LoadImpact(patientID string) (models.PatientImpact, error)
}

// Orchestrator runs the patient x budget x strategy evaluation loop.
//
// Fairness invariant: every strategy at a given budget is scored against the
// identical ground truth through the identical correction operator, so Dice
// differences are attributable only to which slices were chosen.
type Orchestrator struct {
	store      PatientStore
	strategies []selection.Strategy

	// budgetFractions are budgets as fractions of each patient's slice
	// count; the per-patient budget is round(N * fraction)
	budgetFractions []float64

	// workers bounds how many patients are evaluated concurrently
	workers int

	// verbose enables per-patient progress output
	verbose bool
}

// NewOrchestrator creates an evaluation run driver. Budget fractions above 1
// are rejected here, before any computation.
func NewOrchestrator(store PatientStore, strategies []selection.Strategy, budgetFractions []float64, workers int, verbose bool) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}
	if len(budgetFractions) == 0 {
		return nil, fmt.Errorf("at least one budget fraction is required")
	}
	for _, b := range budgetFractions {
		if b < 0 || b > 1 {
			return nil, fmt.Errorf("budget fractions must be in [0, 1], got %g", b)
		}
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		store:           store,
		strategies:      strategies,
		budgetFractions: budgetFractions,
		workers:         workers,
		verbose:         verbose,
	}, nil
}

// patientOutcome is one worker's result slot. Slots are pre-allocated per
// patient index, so concurrent workers never share mutable state.
type patientOutcome struct {
	cells []models.EvaluationCell
	skip  *models.SkippedPatient
}

// Run evaluates every strategy at every budget for every patient and
// aggregates the resulting Dice scores. A patient whose artifacts are
// missing or misaligned is skipped with a recorded warning and excluded
// from aggregates; it never aborts the run for other patients.
func (o *Orchestrator) Run(ctx context.Context) (models.EvaluationResult, error) {
	ids, err := o.store.PatientIDs()
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("listing patients: %w", err)
	}
	if len(ids) == 0 {
		return models.EvaluationResult{}, fmt.Errorf("no patients with all required artifacts")
	}
	sort.Strings(ids)

	if o.verbose {
		fmt.Printf("Evaluating %d strategies x %d budgets over %d patients\n",
			len(o.strategies), len(o.budgetFractions), len(ids))
	}

	outcomes := make([]patientOutcome, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cells, err := o.evaluatePatient(id)
			if err != nil {
				log.Printf("Warning: skipping patient %s: %v", id, err)
				outcomes[i] = patientOutcome{skip: &models.SkippedPatient{PatientID: id, Reason: err.Error()}}
				return nil
			}
			if o.verbose {
				fmt.Printf("Patient %s: %d result cells\n", id, len(cells))
			}
			outcomes[i] = patientOutcome{cells: cells}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.EvaluationResult{}, err
	}

	result := models.EvaluationResult{
		RunID:   uuid.NewString(),
		Budgets: append([]float64(nil), o.budgetFractions...),
	}
	for _, s := range o.strategies {
		result.Strategies = append(result.Strategies, s.Name())
	}
	for _, out := range outcomes {
		if out.skip != nil {
			result.Skipped = append(result.Skipped, *out.skip)
			continue
		}
		result.Cells = append(result.Cells, out.cells...)
	}

	result.Aggregates, err = Aggregate(result.Cells, result.Strategies, result.Budgets)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("aggregating results: %w", err)
	}
	return result, nil
}

// evaluatePatient runs the budget x strategy grid for one patient.
func (o *Orchestrator) evaluatePatient(patientID string) ([]models.EvaluationCell, error) {
	gt, err := o.store.LoadGroundTruth(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading ground truth: %w", err)
	}
	preds, err := o.store.LoadPredictions(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}
	unc, err := o.store.LoadUncertainty(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading uncertainty: %w", err)
	}
	imp, err := o.store.LoadImpact(patientID)
	if err != nil {
		return nil, fmt.Errorf("loading impact: %w", err)
	}

	sig, err := selection.SignalsFromArtifacts(unc, imp)
	if err != nil {
		return nil, err
	}
	if err := sig.AttachMasks(preds, gt); err != nil {
		return nil, err
	}

	// Baseline Dice of the uncorrected volume; reused wherever the
	// effective budget rounds to zero.
	baseline, err := PredictionDice(preds, gt)
	if err != nil {
		return nil, err
	}

	n := len(sig.SliceIDs)
	cells := make([]models.EvaluationCell, 0, len(o.budgetFractions)*len(o.strategies))
	for _, fraction := range o.budgetFractions {
		budget := int(math.Round(float64(n) * fraction))
		for _, strat := range o.strategies {
			cell := models.EvaluationCell{
				PatientID:      patientID,
				Strategy:       strat.Name(),
				BudgetFraction: fraction,
				Budget:         budget,
			}

			// A zero budget is still a real Select call: the strategy
			// returns an empty selection but its metadata, including the
			// upper-bound marker, must reach the cell.
			sel, err := strat.Select(sig, budget)
			if err != nil {
				return nil, fmt.Errorf("strategy %s at budget %d: %w", strat.Name(), budget, err)
			}
			cell.UpperBound = sel.UpperBound

			if len(sel.SliceIDs) == 0 {
				cell.Dice = baseline
				cells = append(cells, cell)
				continue
			}

			corrected, err := correction.Apply(preds, gt, sel)
			if err != nil {
				return nil, fmt.Errorf("strategy %s at budget %d: %w", strat.Name(), budget, err)
			}
			dice, err := CorrectedDice(corrected, gt)
			if err != nil {
				return nil, fmt.Errorf("strategy %s at budget %d: %w", strat.Name(), budget, err)
			}
			cell.Dice = dice
			cells = append(cells, cell)
		}
	}
	return cells, nil
}
