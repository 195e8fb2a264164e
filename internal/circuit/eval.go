package circuit

import "fmt"

// EvalCustom is the generic circuit evaluator: it allocates a wires array
// of length NWires, copies inputs to its prefix, and for each gate in
// (sorted) order applies the caller-supplied operator. It mirrors the
// reference implementation's eval_custom<T,F1,F2,F3>, parametric in value
// type T via Go generics instead of C++ templates.
//
// MAND, EQ, and EQW are out of scope here, matching spec.md §4.G: the proof
// flavours only ever drive XOR/AND/INV circuits (MergeANDGates, the pass
// that groups AND gates into MAND gates, is not run before proving or
// verifying, so EvalCustom never evaluates a MAND gate).
func EvalCustom[T any](c *Circuit, inputs []T, fxor func(a, b T) T, fand func(a, b T) T, finv func(a T) T) (T, error) {
	if !c.sorted {
		var zero T
		return zero, fmt.Errorf("%w: EvalCustom requires a sorted circuit", ErrCircuit)
	}
	wires := make([]T, c.NWires)
	if len(inputs) > len(wires) {
		var zero T
		return zero, fmt.Errorf("%w: more input bits (%d) than wires (%d)", ErrCircuit, len(inputs), len(wires))
	}
	copy(wires, inputs)

	for _, g := range c.Gates {
		switch g.Type {
		case XOR:
			a, err := g.GateWireIn(0)
			if err != nil {
				return wires[0], err
			}
			b, err := g.GateWireIn(1)
			if err != nil {
				return wires[0], err
			}
			out, err := g.GateWireOut(0)
			if err != nil {
				return wires[0], err
			}
			wires[out] = fxor(wires[a], wires[b])
		case AND:
			a, err := g.GateWireIn(0)
			if err != nil {
				return wires[0], err
			}
			b, err := g.GateWireIn(1)
			if err != nil {
				return wires[0], err
			}
			out, err := g.GateWireOut(0)
			if err != nil {
				return wires[0], err
			}
			wires[out] = fand(wires[a], wires[b])
		case INV:
			a, err := g.GateWireIn(0)
			if err != nil {
				return wires[0], err
			}
			out, err := g.GateWireOut(0)
			if err != nil {
				return wires[0], err
			}
			wires[out] = finv(wires[a])
		default:
			var zero T
			return zero, fmt.Errorf("%w: gate type %s not supported by EvalCustom", ErrCircuit, g.Type)
		}
	}

	last := c.NWires - 1
	return wires[last], nil
}
