package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickWeighted_RespectsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choices := []weightedChoice[string]{
		{value: "common", weight: 90},
		{value: "rare", weight: 10},
	}

	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		counts[pickWeighted(rng, choices)]++
	}

	assert.Greater(t, counts["common"], 8500)
	assert.Greater(t, counts["rare"], 500)
}

func TestPickWeighted_SkipsNonPositiveWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choices := []weightedChoice[string]{
		{value: "never", weight: 0},
		{value: "always", weight: 1},
		{value: "negative", weight: -5},
	}

	for i := 0; i < 100; i++ {
		assert.Equal(t, "always", pickWeighted(rng, choices))
	}
}

func TestPickWeighted_AllZeroFallsBackToFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	choices := []weightedChoice[int]{
		{value: 7, weight: 0},
		{value: 8, weight: 0},
	}
	assert.Equal(t, 7, pickWeighted(rng, choices))
}

func TestRandBetween(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	assert.Equal(t, int64(5), randBetween(rng, 5, 5))
	assert.Equal(t, int64(5), randBetween(rng, 5, 3), "inverted range collapses to min")

	for i := 0; i < 1000; i++ {
		v := randBetween(rng, 10, 20)
		assert.GreaterOrEqual(t, v, int64(10))
		assert.LessOrEqual(t, v, int64(20))
	}
}
