package analysis

import "github.com/kernelforge/kernelir/internal/ir"

// Dominators holds, per reachable block, its immediate dominator and loop-
// header flag. The algorithm is Cooper, Harvey & Kennedy's "A Simple, Fast
// Dominance Algorithm" (https://www.cs.rice.edu/~keith/EMBED/dom.pdf), ported
// from the teacher's ssa/pass_cfg.go calculateDominators/intersect.
type Dominators struct {
	cfg      *CFG
	rpoIndex map[ir.BasicBlockID]int
	idoms    map[ir.BasicBlockID]ir.BasicBlock
	loop     map[ir.BasicBlockID]bool
}

// ComputeDominators runs the fixed-point dominance computation over cfg's
// reverse post order, then flags loop headers: a block is a loop header iff
// one of its predecessors is dominated by it (a back edge).
func ComputeDominators(cfg *CFG) *Dominators {
	blocks := cfg.scope.Blocks()
	rpoIndex := make(map[ir.BasicBlockID]int, len(blocks))
	for i, b := range blocks {
		rpoIndex[b.ID()] = i
	}

	d := &Dominators{cfg: cfg, rpoIndex: rpoIndex, idoms: make(map[ir.BasicBlockID]ir.BasicBlock, len(blocks))}
	if len(blocks) == 0 {
		d.loop = map[ir.BasicBlockID]bool{}
		return d
	}
	entry := blocks[0]
	d.idoms[entry.ID()] = entry

	changed := true
	for changed {
		changed = false
		for _, blk := range blocks[1:] {
			var u ir.BasicBlock
			for _, pred := range blk.Preds() {
				if d.idoms[pred.ID()] == nil {
					continue
				}
				if u == nil {
					u = pred
				} else {
					u = d.GetImmediateCommonDominator(u, pred)
				}
			}
			if cur := d.idoms[blk.ID()]; cur == nil || cur.ID() != u.ID() {
				d.idoms[blk.ID()] = u
				changed = true
			}
		}
	}

	d.loop = make(map[ir.BasicBlockID]bool)
	for _, blk := range blocks {
		for _, pred := range blk.Preds() {
			if d.Dominates(blk, pred) {
				d.loop[blk.ID()] = true
			}
		}
	}
	return d
}

// GetImmediateCommonDominator returns the nearest block that dominates both
// a and b (Cooper/Harvey/Kennedy's "intersect"): walk the two candidates up
// their idom chains in lockstep by reverse-post-order index until they
// coincide. Both a and b must already have a computed immediate dominator
// (i.e. be reachable from the entry block), as every predecessor visited by
// ComputeDominators's own fixed-point loop is by construction.
func (d *Dominators) GetImmediateCommonDominator(a, b ir.BasicBlock) ir.BasicBlock {
	f1, f2 := a, b
	for f1.ID() != f2.ID() {
		for d.rpoIndex[f1.ID()] > d.rpoIndex[f2.ID()] {
			f1 = d.idoms[f1.ID()]
		}
		for d.rpoIndex[f2.ID()] > d.rpoIndex[f1.ID()] {
			f2 = d.idoms[f2.ID()]
		}
	}
	return f1
}

// ImmediateDominator returns b's immediate dominator, or b itself for the
// entry block.
func (d *Dominators) ImmediateDominator(b ir.BasicBlock) ir.BasicBlock {
	return d.idoms[b.ID()]
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (d *Dominators) Dominates(a, b ir.BasicBlock) bool {
	cur := b
	for {
		if cur.ID() == a.ID() {
			return true
		}
		idom := d.idoms[cur.ID()]
		if idom == nil || idom.ID() == cur.ID() {
			return cur.ID() == a.ID()
		}
		cur = idom
	}
}

// IsLoopHeader reports whether b is the target of a back edge.
func (d *Dominators) IsLoopHeader(b ir.BasicBlock) bool {
	return d.loop[b.ID()]
}
