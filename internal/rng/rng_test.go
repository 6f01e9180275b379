package rng_test

import (
	"testing"

	"github.com/jetsetilly/crowdcade/internal/rng"
	"github.com/stretchr/testify/assert"
)

func TestIntnStaysInRange(t *testing.T) {
	r := rng.New()
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
}

func TestZeroSeedIsDeterministic(t *testing.T) {
	a := rng.NewZeroSeed()
	b := rng.NewZeroSeed()
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}
