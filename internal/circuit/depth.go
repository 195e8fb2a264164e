package circuit

// ComputeDepth returns, for a sorted circuit, the depth of every wire: the
// length of the longest gate chain feeding it, with declared circuit inputs
// at depth 0. It is the prerequisite computation for MergeANDGates.
func (c *Circuit) ComputeDepth() []int {
	depth := make([]int, c.NWires)
	for _, g := range c.Gates {
		d := 0
		for _, in := range g.In {
			if depth[in]+1 > d {
				d = depth[in] + 1
			}
		}
		for _, out := range g.Out {
			depth[out] = d
		}
	}
	return depth
}

// MergeANDGates groups AND gates that share the same depth into MAND gates
// of matching width, the way the reference implementation's
// merge_AND_gates pass does to reduce multiplication-triple bookkeeping.
// This is a structural optimization available to callers that parse a
// circuit ahead of time; the proof flavours in this project evaluate
// AND-gate-at-a-time (matching the reference prover/verifier source, which
// never actually calls merge_AND_gates on its own eval_custom path) so this
// pass is not on the online proving path.
func (c *Circuit) MergeANDGates() {
	depth := c.ComputeDepth()
	byDepth := map[int][]int{}
	for i, g := range c.Gates {
		if g.Type == AND {
			d := depth[g.Out[0]]
			byDepth[d] = append(byDepth[d], i)
		}
	}

	merged := make([]Gate, 0, len(c.Gates))
	consumed := make([]bool, len(c.Gates))
	for i, g := range c.Gates {
		if consumed[i] {
			continue
		}
		if g.Type != AND {
			merged = append(merged, g)
			continue
		}
		group := byDepth[depth[g.Out[0]]]
		if len(group) <= 1 {
			merged = append(merged, g)
			consumed[i] = true
			continue
		}
		var ins, outs []int
		for _, idx := range group {
			ins = append(ins, c.Gates[idx].In...)
			outs = append(outs, c.Gates[idx].Out...)
			consumed[idx] = true
		}
		merged = append(merged, Gate{Type: MAND, In: ins, Out: outs})
	}

	c.Gates = merged
	c.AndMap = nil
	for i, g := range c.Gates {
		if g.Type == AND {
			c.AndMap = append(c.AndMap, i)
		}
	}
}
