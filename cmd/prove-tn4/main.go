// Command prove-tn4 runs the prover's (player 0's) side of the TN4 proof
// flavour: it masks every input bit and AND-gate output against its own
// preprocessing share and broadcasts the result to every verifier.
//
// Usage: prove-tn4 <net> <circuit> <private_input>
//
// Grounded on original_source/tn4/prover.cpp's main().
package main

import (
	"fmt"
	"os"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/cliutil"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/tn4proof"
)

const (
	n, t, k = 5, 1, 3
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: prove-tn4 <net> <circuit> <private_input>")
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

	f := field.MustNew(k)
	params := tn4proof.Params{N: n, T: t, Repetitions: tn4proof.DefaultRepetitions(f), Field: f}

	nShare := tn4proof.RequiredCount(c)
	preproc, err := cliutil.OpenPreprocessing(0, f, nil, nShare, 0)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening private input: %w", err)
	}
	defer inputFile.Close()
	privateInput := bitio.NewFileBitReader(inputFile)

	proof, err := tn4proof.Prove(c, privateInput, params, preproc)
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
