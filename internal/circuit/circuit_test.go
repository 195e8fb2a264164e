package circuit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// threeInputAND is `out = a AND b AND c`, wires 0,1,2 inputs, 3,4 AND
// intermediates, 4 is the circuit output (single-bit).
const threeInputAND = `2 5
3 1 1 1
1 1
2 1 0 1 3 AND
2 1 3 2 4 AND
`

func parseSorted(t *testing.T, src string) *Circuit {
	t.Helper()
	c, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, c.Sort())
	return c
}

func TestParseAndSort(t *testing.T) {
	c := parseSorted(t, threeInputAND)
	require.Equal(t, 5, c.NWires)
	require.Equal(t, 2, c.NumAND())
}

func TestEvalCustomBoolean(t *testing.T) {
	c := parseSorted(t, threeInputAND)
	xor := func(a, b bool) bool { return a != b }
	and := func(a, b bool) bool { return a && b }
	inv := func(a bool) bool { return !a }

	out, err := EvalCustom(c, []bool{true, true, true}, xor, and, inv)
	require.NoError(t, err)
	require.True(t, out)

	out, err = EvalCustom(c, []bool{true, false, true}, xor, and, inv)
	require.NoError(t, err)
	require.False(t, out)
}

func TestGateWireBoundsOffByOneFix(t *testing.T) {
	g := Gate{In: []int{0, 1}, Out: []int{2}}
	_, err := g.GateWireIn(1) // valid: len(In)==2, index 1 ok
	require.NoError(t, err)
	_, err = g.GateWireIn(2) // must be rejected under i >= size
	require.Error(t, err)
	_, err = g.GateWireOut(0)
	require.NoError(t, err)
	_, err = g.GateWireOut(1)
	require.Error(t, err)
}

func TestUnsortableCircuitErrors(t *testing.T) {
	// Gate references a wire (5) that is never an input or another gate's
	// output, so the graph can never become ready.
	src := `1 3
1 1
1 1
2 1 5 1 2 AND
`
	c, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Error(t, c.Sort())
}

func TestFingerprintStable(t *testing.T) {
	c1 := parseSorted(t, threeInputAND)
	c2 := parseSorted(t, threeInputAND)
	require.Equal(t, c1.Fingerprint(), c2.Fingerprint())
}
