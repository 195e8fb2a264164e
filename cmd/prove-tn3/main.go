// Command prove-tn3 runs the prover's (player 0's) side of the TN3 proof
// flavour, batching AND-gate operands into groups of the given batch size
// before broadcasting both proof parts to every verifier.
//
// Usage: prove-tn3 <net> <circuit> <private_input> <batch_size>
//
// Grounded on original_source/tn3/prover.cpp's main().
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/feta-zk/feta/internal/bitio"
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
		return fmt.Errorf("usage: prove-tn3 <net> <circuit> <private_input> <batch_size>")
	}
	netPath, circuitPath, inputPath := args[0], args[1], args[2]
	n2, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid batch_size: %w", err)
	}

	c, err := cliutil.LoadCircuit(circuitPath)
	if err != nil {
		return err
	}

	log, err := cliutil.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	cliutil.LogRunCommitment(log, c, n, t, n2)

	f := field.MustNew(k)
	params := tn3proof.Params{N: n, T: t, Field: f}

	nShare := tn3proof.RequiredCount(c, n2)
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

	part1, part2, err := tn3proof.Prove(c, privateInput, params, n2, preproc)
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

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(part1)))
	blob := append(append(append([]byte{}, lenPrefix[:]...), part1...), part2...)
	if err := p.SendAll(blob, false, -1); err != nil {
		return fmt.Errorf("broadcasting proof: %w", err)
	}

	fmt.Println("proof broadcast to all verifiers")
	return nil
}
