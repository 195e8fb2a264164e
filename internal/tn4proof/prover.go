package tn4proof

import (
	"fmt"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
)

// Prove evaluates circ on privateInput, masking every input bit and
// AND-gate output against a fresh preprocessing share, and returns the
// masked differences as the entire proof — no batching, no compression,
// no Schwartz-Zippel padding. Every verifier independently folds the
// AND-gate operands into its own random linear combinations once it
// receives this broadcast.
//
// Grounded on tn4/prover.cpp's main().
func Prove(c *circuit.Circuit, privateInput bitio.BitReader, params Params, preproc bitio.BitReader) ([]byte, error) {
	preprocessing := bitio.NewGFReader(params.Field, preproc)
	outputWriter := bitio.NewBufferBitWriter()
	output := bitio.NewGFWriter(params.Field, outputWriter)

	wires := make([]bool, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			bit, err := privateInput.GetBit()
			if err != nil {
				return nil, fmt.Errorf("tn4proof: reading private input: %w", err)
			}
			mask, err := preprocessing.Next()
			if err != nil {
				return nil, err
			}
			inpElem := params.Field.Zero()
			if bit {
				inpElem = params.Field.One()
			}
			output.Next(mask.Sub(inpElem))
			wires = append(wires, bit)
		}
	}

	var evalErr error
	result, err := circuit.EvalCustom(c, wires,
		func(a, b bool) bool { return a != b },
		func(a, b bool) bool {
			mask, err := preprocessing.Next()
			if err != nil {
				evalErr = err
				return false
			}
			and := a && b
			andElem := params.Field.Zero()
			if and {
				andElem = params.Field.One()
			}
			output.Next(mask.Sub(andElem))
			return and
		},
		func(a bool) bool { return !a },
	)
	if err != nil {
		return nil, err
	}
	if evalErr != nil {
		return nil, evalErr
	}
	if result {
		return nil, fmt.Errorf("tn4proof: circuit did not evaluate to 0 on this witness")
	}

	return outputWriter.Drain(), nil
}
