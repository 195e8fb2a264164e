package prng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterministicSeedsAreReproducible(t *testing.T) {
	a := NewDeterministic(3)
	b := NewDeterministic(3)
	require.Equal(t, a.RandomBytes(64), b.RandomBytes(64))
}

func TestDifferentPartyIDsDiverge(t *testing.T) {
	a := NewDeterministic(1)
	b := NewDeterministic(2)
	require.NotEqual(t, a.RandomBytes(32), b.RandomBytes(32))
}

func TestRefillCrossesPipelineBoundary(t *testing.T) {
	p := NewDeterministic(9)
	out := p.RandomBytes(bufSize + 5)
	require.Len(t, out, bufSize+5)
}
