package selection

import (
	"math/rand"

	"slicetriage/internal/models"
)

// Random selects min(B, N) distinct slice IDs uniformly at random. It is the
// lower-bound baseline: no domain knowledge, every slice equally likely.
// Deterministic for a fixed seed, stochastic across seeds.
type Random struct {
	Seed int64
}

// NewRandom creates the random baseline with the given seed.
func NewRandom(seed int64) *Random {
	return &Random{Seed: seed}
}

// Name implements Strategy.
func (r *Random) Name() string { return "Random" }

// Select implements Strategy. A fresh generator is seeded per call so that
// repeated selections with the same inputs return the same IDs.
func (r *Random) Select(sig Signals, budget int) (models.Selection, error) {
	b, err := clampBudget(budget, len(sig.SliceIDs))
	if err != nil {
		return models.Selection{}, err
	}

	ids := make([]int, len(sig.SliceIDs))
	copy(ids, sig.SliceIDs)

	rng := rand.New(rand.NewSource(r.Seed))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	return models.Selection{
		PatientID: sig.PatientID,
		Strategy:  r.Name(),
		Budget:    b,
		Seed:      r.Seed,
		SliceIDs:  append([]int(nil), ids[:b]...),
	}, nil
}
