// Package analysis computes read-only facts over a built ir.Method: CFG
// traversal order, dominance, loop headers and if-conversion candidates.
// Every analysis here consumes an *ir.Scope, so a method with an unresolved
// builder terminator is rejected once, at Scope construction, rather than by
// each analysis independently.
package analysis

import "github.com/kernelforge/kernelir/internal/ir"

// CFG holds the reverse-post-order block list and, per block, the reachable
// successor blocks in program order — the shape every later analysis here
// (Dominators, IfInfos) is built against (grounded on the teacher's
// builder.reversePostOrderedBasicBlocks / basicBlock.success).
type CFG struct {
	scope *ir.Scope
	succs map[ir.BasicBlockID][]ir.BasicBlock
}

// BuildCFG derives successor lists for every block in scope from its
// terminator's targets.
func BuildCFG(scope *ir.Scope) *CFG {
	succs := make(map[ir.BasicBlockID][]ir.BasicBlock, len(scope.Blocks()))
	for _, b := range scope.Blocks() {
		term := b.Terminator()
		if term == nil {
			continue
		}
		var ss []ir.BasicBlock
		for _, t := range term.Targets() {
			ss = append(ss, t.DestinationBlock())
		}
		succs[b.ID()] = ss
	}
	return &CFG{scope: scope, succs: succs}
}

// Scope returns the Scope this CFG was built from.
func (c *CFG) Scope() *ir.Scope { return c.scope }

// Successors returns b's successor blocks, in the order its terminator
// targets them (for a switch, default first).
func (c *CFG) Successors(b ir.BasicBlock) []ir.BasicBlock {
	return c.succs[b.ID()]
}

// Predecessors delegates to ir.BasicBlock.Preds, kept here too so call sites
// doing CFG work don't need to reach back into the ir package for it.
func (c *CFG) Predecessors(b ir.BasicBlock) []ir.BasicBlock {
	return b.Preds()
}
