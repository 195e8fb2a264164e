package preprocessing_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/netmesh/nettest"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/preprocessing"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// TestRunEndToEndReconstructs stands up a real N=4,T=1 mesh, runs
// preprocessing.Run on every party, and checks that the prover's literal
// output secret agrees with the degree-T reconstruction from any T+1
// verifiers' shares, per spec.md §4.J.
func TestRunEndToEndReconstructs(t *testing.T) {
	const n, tt, k, reps, nout = 4, 1, 4, 2, 3
	f := field.MustNew(k)
	xcoords := preprocessing.BaseXCoords(f, n)
	params := preprocessing.Params{N: n, T: tt, Repetitions: reps}

	outputs := make([][]field.Elem, n+1)
	dir := t.TempDir()
	errs, err := nettest.RunMesh(dir, n, func(idx int, p *player.Player) error {
		gen := prng.NewDeterministic(uint32(idx))
		out, err := preprocessing.Run(p, gen, f, params, nout, xcoords, nil)
		if err != nil {
			return err
		}
		outputs[idx] = out
		return nil
	})
	require.NoError(t, err)
	for i, e := range errs {
		require.NoErrorf(t, e, "party %d", i)
	}

	interpXs := xcoords[:tt+1] // verifiers 1..T+1
	for sample := 0; sample < nout; sample++ {
		ys := make([]field.Elem, tt+1)
		for i := 0; i <= tt; i++ {
			ys[i] = outputs[i+1][sample]
		}
		recon := reedsolomon.Interpolate(interpXs, ys, f.Zero())
		require.Truef(t, recon.Equal(outputs[0][sample]), "sample %d: reconstructed %v != prover %v", sample, recon, outputs[0][sample])
	}
}

func TestSealedShareFileRoundTrip(t *testing.T) {
	fBase := field.MustNew(4)
	fExt := field.MustNew(12)

	pub, priv, err := preprocessing.GenerateKeyPair()
	require.NoError(t, err)

	base := []field.Elem{fBase.FromUint64(3), fBase.FromUint64(7), fBase.FromUint64(1)}
	ext := []field.Elem{fExt.FromUint64(100), fExt.FromUint64(200)}

	var buf bytes.Buffer
	require.NoError(t, preprocessing.WriteShareFile(&buf, pub, fBase, fExt, base, ext))

	gotBase, gotExt, err := preprocessing.ReadShareFile(&buf, priv, fBase, fExt, len(base), len(ext))
	require.NoError(t, err)
	for i := range base {
		require.True(t, base[i].Equal(gotBase[i]))
	}
	for i := range ext {
		require.True(t, ext[i].Equal(gotExt[i]))
	}
}
