// Command prove-log runs the prover's (player 0's) side of the Log proof
// flavour: it loads a circuit and a private input, evaluates the circuit
// against its own preprocessing share, constructs a proof, and broadcasts
// it to every verifier.
//
// Usage: prove-log <net> <circuit> <private_input>
//
// Grounded on original_source/log/prover.cpp's main().
package main

import (
	"fmt"
	"os"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/cliutil"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/logproof"
	"github.com/feta-zk/feta/internal/player"
)

const (
	n, t, k, kExt = 4, 1, 3, 87
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: prove-log <net> <circuit> <private_input>")
	}
	netPath, circuitPath, inputPath := args[0], args[1], args[2]

	c, err := cliutil.LoadCircuit(circuitPath)
	if err != nil {
		return err
	}

	log, err := cliutil.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cliutil.LogRunCommitment(log, c, n, t, 0)

	shareField := field.MustNew(k)
	checkField := field.MustNew(kExt)
	lift, err := field.NewLiftBasis(shareField, checkField)
	if err != nil {
		return err
	}
	params := logproof.Params{N: n, T: t, ShareField: shareField, CheckField: checkField, Lift: lift}

	nShare, nCheck := logproof.RequiredCounts(c)
	preproc, err := cliutil.OpenPreprocessing(0, shareField, checkField, nShare, nCheck)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening private input: %w", err)
	}
	defer inputFile.Close()
	privateInput := bitio.NewFileBitReader(inputFile)

	proof, err := logproof.Prove(c, privateInput, params, preproc)
	if err != nil {
		return fmt.Errorf("proving: %w", err)
	}

	netFile, err := os.Open(netPath)
	if err != nil {
		return fmt.Errorf("opening network config: %w", err)
	}
	defer netFile.Close()
	p, err := player.New(0, n, netFile)
	if err != nil {
		return fmt.Errorf("establishing mesh: %w", err)
	}
	if err := p.SendAll(proof, false, -1); err != nil {
		return fmt.Errorf("broadcasting proof: %w", err)
	}

	fmt.Println("proof broadcast to all verifiers")
	return nil
}
