package models

// Selection is the output of a slice-selection strategy for one patient at
// one budget: at most Budget distinct slice IDs, all valid within the
// patient's slice range. Selections are computed fresh per
// (patient, strategy, budget) and never mutated.
type Selection struct {
	PatientID string `msgpack:"patient_id"`
	Strategy  string `msgpack:"strategy"`

	// Budget is the effective slice budget B the selection was computed for.
	Budget int `msgpack:"budget"`

	// Alpha is the fusion weight used by weighted strategies; zero-valued
	// for strategies that carry no weight.
	Alpha float64 `msgpack:"alpha"`

	// Seed is the random seed used by stochastic strategies; zero-valued
	// for deterministic ones.
	Seed int64 `msgpack:"seed"`

	SliceIDs []int `msgpack:"selected_slices"`

	// UpperBound marks selections produced with access to ground truth.
	// Such results are calibration bounds, not deployable policies, and
	// every consuming report must label them as upper bounds.
	UpperBound bool `msgpack:"upper_bound"`
}

// CorrectedSlice is one slice of a corrected volume.
type CorrectedSlice struct {
	SliceID int  `msgpack:"slice_id"`
	Mask    Mask `msgpack:"mask"`
}

// CorrectedVolume is the output of the correction simulator: the full
// ordered slice sequence where selected slices equal ground truth and all
// others equal the original prediction.
type CorrectedVolume struct {
	PatientID string           `msgpack:"patient_id"`
	Selected  []int            `msgpack:"selected_slices"`
	Slices    []CorrectedSlice `msgpack:"corrected_slices"`
}
