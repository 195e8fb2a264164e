// Command preprocess runs one party's side of the offline correlated-
// randomness phase shared by all three proof flavours (spec.md §4.J) and
// seals the resulting shares to Player<player_num>.pre.
//
// Usage: preprocess --flavor {log,tn3,tn4} <net> <player_num> <n1> [n2]
// n2 is required for --flavor=log (the extension-field share count) and
// must be omitted otherwise.
//
// Grounded on original_source/preprocessing.cpp's main().
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/cliutil"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/preprocessing"
)

// flavourDefaults mirrors each flavour's original_source/<flavour>/config.h:
// its verifier count N, corruption threshold T, and field width(s).
type flavourDefaults struct {
	n, t, k, kExt int
}

var flavours = map[string]flavourDefaults{
	"log": {n: 4, t: 1, k: 3, kExt: 87},
	"tn3": {n: 4, t: 1, k: 27},
	"tn4": {n: 5, t: 1, k: 3},
}

func repetitions(k int) int { return (40 + k - 1) / k }

// flavourValue is a pflag.Value that only admits the three known proof
// flavours, so a typo is rejected at flag-parse time with the valid
// choices in the message rather than surfacing later as an unknown-key
// lookup.
type flavourValue string

var _ pflag.Value = (*flavourValue)(nil)

func (f *flavourValue) String() string { return string(*f) }

func (f *flavourValue) Type() string { return "flavour" }

func (f *flavourValue) Set(s string) error {
	if _, ok := flavours[s]; !ok {
		return fmt.Errorf("unknown flavour %q (want log, tn3, or tn4)", s)
	}
	*f = flavourValue(s)
	return nil
}

func main() {
	var flavour flavourValue

	cmd := &cobra.Command{
		Use:   "preprocess <net> <player_num> <n1> [n2]",
		Short: "Run the offline preprocessing phase for one party",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(string(flavour), args)
		},
	}
	cmd.Flags().Var(&flavour, "flavor", "proof flavour: log, tn3, or tn4")
	_ = cmd.MarkFlagRequired("flavor")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func run(flavour string, args []string) error {
	defaults, ok := flavours[flavour]
	if !ok {
		return fmt.Errorf("unknown --flavor %q (want log, tn3, or tn4)", flavour)
	}

	netPath := args[0]
	playerNum, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid player_num: %w", err)
	}
	n1, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid n1: %w", err)
	}
	haveN2 := len(args) == 4
	if flavour == "log" && !haveN2 {
		return fmt.Errorf("--flavor=log requires n2 (the extension-field share count)")
	}
	if flavour != "log" && haveN2 {
		return fmt.Errorf("--flavor=%s does not take n2", flavour)
	}
	var n2 int
	if haveN2 {
		n2, err = strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid n2: %w", err)
		}
	}

	log, err := cliutil.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	netFile, err := os.Open(netPath)
	if err != nil {
		return fmt.Errorf("opening network config: %w", err)
	}
	defer netFile.Close()
	p, err := player.New(playerNum, defaults.n, netFile)
	if err != nil {
		return fmt.Errorf("establishing mesh: %w", err)
	}

	gen, err := prng.NewFromEntropy(uint32(playerNum))
	if err != nil {
		return err
	}

	onInconsistent := func(rep int) {
		log.Warn("preprocessing linear-combination mismatch", zap.Int("repetition", rep))
	}

	shareField := field.MustNew(defaults.k)
	baseParams := preprocessing.Params{N: defaults.n, T: defaults.t, Repetitions: repetitions(defaults.k)}
	baseXcoords := preprocessing.BaseXCoords(shareField, defaults.n)
	base, err := preprocessing.Run(p, gen, shareField, baseParams, n1, baseXcoords, onInconsistent)
	if err != nil {
		return fmt.Errorf("running base-field preprocessing: %w", err)
	}

	extField := shareField
	var ext []field.Elem
	if haveN2 {
		extField = field.MustNew(defaults.kExt)
		lift, err := field.NewLiftBasis(shareField, extField)
		if err != nil {
			return fmt.Errorf("building lift basis: %w", err)
		}
		extParams := preprocessing.Params{N: defaults.n, T: defaults.t, Repetitions: repetitions(defaults.kExt)}
		extXcoords := preprocessing.ExtXCoords(lift, defaults.n)
		ext, err = preprocessing.Run(p, gen, extField, extParams, n2, extXcoords, onInconsistent)
		if err != nil {
			return fmt.Errorf("running extension-field preprocessing: %w", err)
		}
	}

	pubPath, privPath := cliutil.KeyPaths(playerNum)
	pub, _, err := preprocessing.LoadOrGenerateKeyPair(pubPath, privPath)
	if err != nil {
		return fmt.Errorf("loading HPKE keypair: %w", err)
	}

	out, err := os.Create(cliutil.SharePath(playerNum))
	if err != nil {
		return fmt.Errorf("creating share file: %w", err)
	}
	defer out.Close()
	if err := preprocessing.WriteShareFile(out, pub, shareField, extField, base, ext); err != nil {
		return fmt.Errorf("sealing share file: %w", err)
	}

	fmt.Printf("wrote %d base and %d extension shares to %s\n", len(base), len(ext), cliutil.SharePath(playerNum))
	return nil
}
