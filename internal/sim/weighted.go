package sim

import "math/rand"

// weightedChoice pairs a value with its relative weight.
type weightedChoice[T any] struct {
	value  T
	weight int
}

// pickWeighted draws one value from the given distribution. Probabilities are
// declared as data at the call sites (guest class roll, request count roll,
// menu item roll) so they all share this one sampler. Non-positive weights
// are skipped; if every weight is non-positive the first value wins.
func pickWeighted[T any](rng *rand.Rand, choices []weightedChoice[T]) T {
	total := 0
	for _, c := range choices {
		if c.weight > 0 {
			total += c.weight
		}
	}
	if total <= 0 {
		return choices[0].value
	}
	n := rng.Intn(total)
	for _, c := range choices {
		if c.weight <= 0 {
			continue
		}
		n -= c.weight
		if n < 0 {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}

// randBetween returns a random duration in [min, max].
func randBetween(rng *rand.Rand, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + rng.Int63n(max-min+1)
}
