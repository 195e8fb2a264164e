// Command verify-log runs one verifier's side of the Log proof flavour: it
// receives the prover's broadcast proof, replays the circuit against its
// own preprocessing share, and coordinates the final opening round with
// the other verifiers.
//
// Usage: verify-log <net> <player_number> <circuit>
//
// Grounded on original_source/log/verifier.cpp's main().
package main

import (
	"fmt"
	"os"
	"strconv"

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
		return fmt.Errorf("usage: verify-log <net> <player_number> <circuit>")
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

	shareField := field.MustNew(k)
	checkField := field.MustNew(kExt)
	lift, err := field.NewLiftBasis(shareField, checkField)
	if err != nil {
		return err
	}
	params := logproof.Params{N: n, T: t, ShareField: shareField, CheckField: checkField, Lift: lift}

	nShare, nCheck := logproof.RequiredCounts(c)
	preproc, err := cliutil.OpenPreprocessing(playerNum, shareField, checkField, nShare, nCheck)
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

	accepted, err := logproof.Verify(c, params, proofRaw, preproc, p, log)
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
