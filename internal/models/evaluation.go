package models

// EvaluationCell is one entry of the per-run result table, keyed by
// (patient, strategy, budget fraction).
type EvaluationCell struct {
	PatientID string `msgpack:"patient_id"`
	Strategy  string `msgpack:"strategy"`

	// BudgetFraction is the configured budget as a fraction of the
	// patient's slice count; Budget is the rounded per-patient slice count.
	BudgetFraction float64 `msgpack:"budget_fraction"`
	Budget         int     `msgpack:"budget"`

	Dice float64 `msgpack:"dice"`

	// UpperBound propagates the oracle marker into the result table so that
	// reports cannot surface oracle rows unlabeled.
	UpperBound bool `msgpack:"upper_bound"`
}

// AggregateCell summarizes one (strategy, budget fraction) pair across the
// patient population.
type AggregateCell struct {
	Strategy       string  `msgpack:"strategy"`
	BudgetFraction float64 `msgpack:"budget_fraction"`

	Mean   float64 `msgpack:"mean"`
	Std    float64 `msgpack:"std"`
	Median float64 `msgpack:"median"`
	Min    float64 `msgpack:"min"`
	Max    float64 `msgpack:"max"`
	Count  int     `msgpack:"count"`

	UpperBound bool `msgpack:"upper_bound"`
}

// SkippedPatient records a patient excluded from a run, with the reason.
// Skips are per-patient: they never abort the run for other patients.
type SkippedPatient struct {
	PatientID string `msgpack:"patient_id"`
	Reason    string `msgpack:"reason"`
}

// EvaluationResult is the full output of one evaluation run. Cells are
// append-only during the run; aggregates are derived once all patients
// complete.
type EvaluationResult struct {
	RunID      string           `msgpack:"run_id"`
	Budgets    []float64        `msgpack:"budgets"`
	Strategies []string         `msgpack:"strategies"`
	Cells      []EvaluationCell `msgpack:"cells"`
	Aggregates []AggregateCell  `msgpack:"aggregates"`
	Skipped    []SkippedPatient `msgpack:"skipped"`
}
