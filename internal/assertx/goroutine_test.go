package assertx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jetsetilly/crowdcade/internal/assertx"
)

func TestSameGoroutineAcceptsRepeatedCallsFromSameGoroutine(t *testing.T) {
	var g assertx.SameGoroutine
	assert.True(t, g.Check())
	assert.True(t, g.Check())
	assert.True(t, g.Check())
}

func TestSameGoroutineRejectsADifferentGoroutine(t *testing.T) {
	var g assertx.SameGoroutine
	assert.True(t, g.Check())

	done := make(chan bool, 1)
	go func() { done <- g.Check() }()
	assert.False(t, <-done)
}

func TestGoroutineIDDiffersAcrossGoroutines(t *testing.T) {
	idCh := make(chan uint64, 1)
	go func() { idCh <- assertx.GoroutineID() }()
	other := <-idCh
	assert.NotEqual(t, assertx.GoroutineID(), other)
}
