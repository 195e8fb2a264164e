// Command verify-tn3 runs one verifier's side of the TN3 proof flavour: it
// receives the prover's broadcast proof parts, replays the circuit and
// Schwartz-Zippel checks against its own preprocessing share, and
// coordinates the final opening round with the other verifiers.
//
// Usage: verify-tn3 <net> <player_number> <circuit> <batch_size>
//
// Grounded on original_source/tn3/verifier.cpp's main().
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/feta-zk/feta/internal/cliutil"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/tn3proof"
)

const (
	n, t, k = 4, 1, 27
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: verify-tn3 <net> <player_number> <circuit> <batch_size>")
	}
	netPath := args[0]
	playerNum, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid player_number: %w", err)
	}
	circuitPath := args[2]
	n2, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid batch_size: %w", err)
	}

	c, err := cliutil.LoadCircuit(circuitPath)
	if err != nil {
		return err
	}

	f := field.MustNew(k)
	params := tn3proof.Params{N: n, T: t, Field: f}

	nShare := tn3proof.RequiredCount(c, n2)
	preproc, err := cliutil.OpenPreprocessing(playerNum, f, nil, nShare, 0)
	if err != nil {
		return err
	}

	log, err := cliutil.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cliutil.LogRunCommitment(log, c, n, t, n2)

	netFile, err := os.Open(netPath)
	if err != nil {
		return fmt.Errorf("opening network config: %w", err)
	}
	defer netFile.Close()
	p, err := player.New(playerNum, n, netFile)
	if err != nil {
		return fmt.Errorf("establishing mesh: %w", err)
	}

	blob, err := p.RecvFrom(0, false)
	if err != nil {
		return fmt.Errorf("receiving proof: %w", err)
	}
	if len(blob) < 4 {
		return fmt.Errorf("malformed proof: too short")
	}
	part1Len := binary.LittleEndian.Uint32(blob[:4])
	rest := blob[4:]
	if uint32(len(rest)) < part1Len {
		return fmt.Errorf("malformed proof: truncated part1")
	}
	part1, part2 := rest[:part1Len], rest[part1Len:]

	accepted, err := tn3proof.Verify(c, params, n2, part1, part2, preproc, p, log)
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
