// Package circuit implements the Bristol-Fashion Boolean circuit format:
// parsing, topological sort, and a generic evaluator parametric over a
// value type and its XOR/AND/INV operators.
package circuit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/zeebo/blake3"
)

// GateType enumerates the Bristol-Fashion gate kinds this project consumes.
type GateType int

const (
	XOR GateType = iota
	AND
	INV
	EQ
	EQW
	MAND
)

func (g GateType) String() string {
	switch g {
	case XOR:
		return "XOR"
	case AND:
		return "AND"
	case INV:
		return "INV"
	case EQ:
		return "EQ"
	case EQW:
		return "EQW"
	case MAND:
		return "MAND"
	default:
		return "?"
	}
}

// ErrCircuit reports a structural problem with a circuit: malformed input,
// an unsortable gate graph, or an accessor used against the wrong gate
// type. All are fatal per spec.md §7 (failure taxonomy classes 1 and 2).
var ErrCircuit = errors.New("circuit")

// Gate is one gate in the circuit: its type and its input/output wire
// indices.
type Gate struct {
	Type GateType
	In   []int
	Out  []int
}

// Circuit is a topologically-ordered list of gates over NWires wires, with
// declared input/output wire-width arities.
type Circuit struct {
	NWires int
	InputWidths  []int // width (in bits) of each declared input
	OutputWidths []int // width (in bits) of each declared output

	Gates []Gate

	// AndMap enumerates, in evaluation order, the indices into Gates of
	// every AND gate; populated by Sort.
	AndMap []int
	sorted bool
}

// NumInputs is the number of declared (possibly multi-bit) inputs.
func (c *Circuit) NumInputs() int { return len(c.InputWidths) }

// NumOutputs is the number of declared (possibly multi-bit) outputs.
func (c *Circuit) NumOutputs() int { return len(c.OutputWidths) }

func (c *Circuit) NumIWires(i int) int { return c.InputWidths[i] }
func (c *Circuit) NumOWires(i int) int { return c.OutputWidths[i] }

// inputBase returns the wire index of the first bit of declared input i.
func (c *Circuit) inputBase(i int) int {
	base := 0
	for j := 0; j < i; j++ {
		base += c.InputWidths[j]
	}
	return base
}

func (c *Circuit) totalInputWires() int {
	n := 0
	for _, w := range c.InputWidths {
		n += w
	}
	return n
}

func (c *Circuit) totalOutputWires() int {
	n := 0
	for _, w := range c.OutputWidths {
		n += w
	}
	return n
}

// outputBase returns the wire index of the first bit of declared output i,
// counting from the top of the wire space the way Bristol-Fashion circuits
// place outputs at the highest indices.
func (c *Circuit) outputBase(i int) int {
	base := c.NWires - c.totalOutputWires()
	for j := 0; j < i; j++ {
		base += c.OutputWidths[j]
	}
	return base
}

// GateWireIn validates and returns gate g's i-th input wire index.
//
// Bound check is strictly i >= size, not i > size: spec.md §9 flags the
// reference's `i > size` as an off-by-one bug admitting an out-of-bounds
// read of one extra input; this implementation uses the corrected check.
func (g Gate) GateWireIn(i int) (int, error) {
	if i < 0 || i >= len(g.In) {
		return 0, fmt.Errorf("%w: input index %d out of bounds (%d inputs)", ErrCircuit, i, len(g.In))
	}
	return g.In[i], nil
}

// GateWireOut is GateWireIn for output wires.
func (g Gate) GateWireOut(i int) (int, error) {
	if i < 0 || i >= len(g.Out) {
		return 0, fmt.Errorf("%w: output index %d out of bounds (%d outputs)", ErrCircuit, i, len(g.Out))
	}
	return g.Out[i], nil
}

// Parse reads a circuit in the Bristol-Fashion text format described in
// spec.md §6.
func Parse(r io.Reader) (*Circuit, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	readFields := func() ([]string, error) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			return strings.Fields(line), nil
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: unexpected end of input", ErrCircuit)
	}

	readInts := func() ([]int, error) {
		fields, err := readFields()
		if err != nil {
			return nil, err
		}
		ints := make([]int, len(fields))
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed integer %q: %v", ErrCircuit, f, err)
			}
			ints[i] = n
		}
		return ints, nil
	}

	header, err := readInts()
	if err != nil {
		return nil, err
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%w: expected \"nGates nWires\", got %d fields", ErrCircuit, len(header))
	}
	nGates, nWires := header[0], header[1]

	inLine, err := readInts()
	if err != nil {
		return nil, err
	}
	if len(inLine) < 1 || len(inLine) != inLine[0]+1 {
		return nil, fmt.Errorf("%w: malformed input-width line", ErrCircuit)
	}
	inputWidths := inLine[1:]

	outLine, err := readInts()
	if err != nil {
		return nil, err
	}
	if len(outLine) < 1 || len(outLine) != outLine[0]+1 {
		return nil, fmt.Errorf("%w: malformed output-width line", ErrCircuit)
	}
	outputWidths := outLine[1:]

	c := &Circuit{NWires: nWires, InputWidths: inputWidths, OutputWidths: outputWidths}

	for len(c.Gates) < nGates {
		fields, err := readFields()
		if err != nil {
			return nil, err
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: malformed gate line", ErrCircuit)
		}
		nin, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: malformed gate arity %q", ErrCircuit, fields[0])
		}
		nout, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: malformed gate arity %q", ErrCircuit, fields[1])
		}
		if len(fields) != 2+nin+nout+1 {
			return nil, fmt.Errorf("%w: gate line field count does not match declared arity", ErrCircuit)
		}
		rest := fields[2 : 2+nin+nout]
		wires := make([]int, len(rest))
		for i, f := range rest {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed wire index %q", ErrCircuit, f)
			}
			wires[i] = n
		}
		opStr := fields[len(fields)-1]
		var typ GateType
		switch strings.ToUpper(opStr) {
		case "XOR":
			typ = XOR
		case "AND":
			typ = AND
		case "INV":
			typ = INV
		case "EQ":
			typ = EQ
		case "EQW":
			typ = EQW
		case "MAND":
			typ = MAND
		default:
			return nil, fmt.Errorf("%w: unknown gate operator %q", ErrCircuit, opStr)
		}
		c.Gates = append(c.Gates, Gate{
			Type: typ,
			In:   append([]int(nil), wires[:nin]...),
			Out:  append([]int(nil), wires[nin:nin+nout]...),
		})
	}

	return c, nil
}

// Sort performs a Kahn-style topological sort in place: repeatedly emits a
// gate all of whose inputs are already "used" (declared circuit inputs or
// outputs of an already-emitted gate). Returns ErrCircuit if no such gate
// exists and gates remain, meaning the circuit is not acyclic over its
// declared wiring.
func (c *Circuit) Sort() error {
	used := bitset.New(uint(c.NWires))
	for i := 0; i < c.totalInputWires(); i++ {
		used.Set(uint(i))
	}

	remaining := append([]Gate(nil), c.Gates...)
	ordered := make([]Gate, 0, len(remaining))

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0:0]
		for _, g := range remaining {
			ready := true
			for _, in := range g.In {
				if !used.Test(uint(in)) {
					ready = false
					break
				}
			}
			if !ready {
				next = append(next, g)
				continue
			}
			for _, out := range g.Out {
				used.Set(uint(out))
			}
			ordered = append(ordered, g)
			progressed = true
		}
		if !progressed {
			return fmt.Errorf("%w: circuit is not topologically sortable (cyclic or dangling input)", ErrCircuit)
		}
		remaining = next
	}

	c.Gates = ordered
	c.AndMap = nil
	for i, g := range c.Gates {
		if g.Type == AND {
			c.AndMap = append(c.AndMap, i)
		}
	}
	c.sorted = true
	return nil
}

// NumAND returns the number of AND gates (the "total_num_AND" count the
// proof flavours size their preprocessing and triple buffers against).
func (c *Circuit) NumAND() int { return len(c.AndMap) }

// Fingerprint returns a short content hash of the circuit's gate list,
// logged by every executable at startup so a prover and its verifiers can
// confirm out-of-band that they loaded the same circuit file. This is a
// [SUPPLEMENT] convenience, not part of the protocol's soundness.
func (c *Circuit) Fingerprint() string {
	h := blake3.New()
	for _, g := range c.Gates {
		fmt.Fprintf(h, "%d|%v|%v;", g.Type, g.In, g.Out)
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum[:8])
}
