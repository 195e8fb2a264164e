// Package cliutil collects the small pieces of glue every cmd/ entrypoint
// needs — circuit loading, a production zap logger, and unsealing a
// party's own preprocessed share file into a plain bit stream the proof
// packages can read sequentially — so each binary's main.go stays focused
// on argument parsing and wiring.
package cliutil

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/preprocessing"
	"github.com/feta-zk/feta/internal/publicinput"
)

// NewLogger builds the structured logger every driver program reports
// cheat/inconsistency events through.
func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// LoadCircuit parses and topologically sorts the Bristol-Fashion circuit
// at path.
func LoadCircuit(path string) (*circuit.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cliutil: opening circuit file: %w", err)
	}
	defer f.Close()
	c, err := circuit.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cliutil: parsing circuit: %w", err)
	}
	if err := c.Sort(); err != nil {
		return nil, fmt.Errorf("cliutil: sorting circuit: %w", err)
	}
	return c, nil
}

// LogRunCommitment commits this run's public parameters (the circuit's
// content fingerprint, the player count and threshold, and the batch size,
// zero for the unbatched flavours) to a KZG blob and logs the commitment.
// The prover and every verifier call this with the same inputs, so the
// logged commitments agree exactly when the parties agree on what run they
// are in; a mismatch pins down a wrong circuit file or argument before the
// protocol produces a confusing rejection. Commitment failure is logged
// and swallowed — this is an integrity anchor over metadata, never a
// protocol step.
func LogRunCommitment(log *zap.Logger, c *circuit.Circuit, n, t, batchSize int) {
	commitment, err := publicinput.Commit(publicinput.Params{
		Fingerprint: c.Fingerprint(),
		N:           n,
		T:           t,
		BatchSize:   batchSize,
	})
	if err != nil {
		log.Warn("public-input commitment unavailable", zap.Error(err))
		return
	}
	log.Info("run public-input commitment",
		zap.String("circuit", c.Fingerprint()),
		zap.String("commitment", fmt.Sprintf("%x", commitment.Commitment[:])),
	)
}

// KeyPaths returns the conventional HPKE sealing keypair file paths for
// player idx, matching the reference's "Player<i>.pre" share-file naming.
func KeyPaths(idx int) (pub, priv string) {
	return fmt.Sprintf("Player%d.hpke.pub", idx), fmt.Sprintf("Player%d.hpke.priv", idx)
}

// SharePath returns the conventional preprocessed share file name for
// player idx, per original_source/{log,tn3,tn4}/{prover,verifier}.cpp's
// "Player<i>.pre" convention.
func SharePath(idx int) string {
	return fmt.Sprintf("Player%d.pre", idx)
}

// OpenPreprocessing opens player idx's sealed share file, opens it under
// its own HPKE private key, re-encodes the requested number of base- and
// (optionally) extension-field elements as a plain bit stream, and returns
// it as a bitio.BitReader ready for a proof package's GFReader wrapping.
func OpenPreprocessing(idx int, fldBase, fldExt *field.Field, nShare, nCheck int) (bitio.BitReader, error) {
	_, privPath := KeyPaths(idx)
	priv, err := preprocessing.ReadPrivateKey(privPath)
	if err != nil {
		return nil, fmt.Errorf("cliutil: reading HPKE private key: %w", err)
	}
	f, err := os.Open(SharePath(idx))
	if err != nil {
		return nil, fmt.Errorf("cliutil: opening share file: %w", err)
	}
	defer f.Close()

	ext := fldExt
	if ext == nil {
		ext = fldBase
	}
	base, extShares, err := preprocessing.ReadShareFile(f, priv, fldBase, ext, nShare, nCheck)
	if err != nil {
		return nil, fmt.Errorf("cliutil: opening sealed share file: %w", err)
	}

	w := bitio.NewBufferBitWriter()
	bw := bitio.NewGFWriter(fldBase, w)
	for _, e := range base {
		bw.Next(e)
	}
	if nCheck > 0 {
		ew := bitio.NewGFWriter(ext, w)
		for _, e := range extShares {
			ew.Next(e)
		}
	}
	return bitio.NewBufferBitReader(w.Drain()), nil
}
