// Command verify-tn4 runs one verifier's side of the TN4 proof flavour: it
// receives the prover's broadcast proof, folds every AND gate's operands
// into its own random linear combinations, and coordinates the final
// opening round with the other verifiers.
//
// Usage: verify-tn4 <net> <player_number> <circuit>
//
// Grounded on original_source/tn4/verifier.cpp's main().
package main

import (
	"fmt"
	"os"
	"strconv"

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
		return fmt.Errorf("usage: verify-tn4 <net> <player_number> <circuit>")
	}
	netPath := args[0]
	playerNum, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid player_number: %w", err)
	}
	circuitPath := args[2]

	c, err := cliutil.LoadCircuit(circuitPath)
	if err != nil {
		return err
	}

	f := field.MustNew(k)
	params := tn4proof.Params{N: n, T: t, Repetitions: tn4proof.DefaultRepetitions(f), Field: f}

	nShare := tn4proof.RequiredCount(c)
	preproc, err := cliutil.OpenPreprocessing(playerNum, f, nil, nShare, 0)
	if err != nil {
		return err
	}

	log, err := cliutil.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cliutil.LogRunCommitment(log, c, n, t, 0)

	netFile, err := os.Open(netPath)
	if err != nil {
		return fmt.Errorf("opening network config: %w", err)
	}
	defer netFile.Close()
	p, err := player.New(playerNum, n, netFile)
	if err != nil {
		return fmt.Errorf("establishing mesh: %w", err)
	}

	proofRaw, err := p.RecvFrom(0, false)
	if err != nil {
		return fmt.Errorf("receiving proof: %w", err)
	}

	accepted, err := tn4proof.Verify(c, params, proofRaw, preproc, p, log)
	if err != nil {
		return fmt.Errorf("verifying: %w", err)
	}
	if accepted {
		fmt.Println("Proof accepted")
	} else {
		fmt.Println("Proof rejected")
	}
	return nil
}
