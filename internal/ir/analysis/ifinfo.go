package analysis

import "github.com/kernelforge/kernelir/internal/ir"

// IfInfo describes one diamond-shaped if/else region recognized in a
// method's CFG: a header H ending in a ConditionalBranch whose two arms
// converge on a shared merge block. TrueBlock/FalseBlock are each arm's
// entry block (H's direct successors); the arm itself may contain any
// number of blocks between that entry and the predecessor that actually
// branches into MergeBlock — trueExit/falseExit are the BranchTarget edges
// feeding MergeBlock from whichever block that turns out to be. IfInfos.Create
// recognizes this general shape; IsSimpleIf is a separate, stricter filter
// layered on top for the one kind of diamond transform.IfConversionPass can
// actually rewrite today: a single-block arm directly exiting to the merge.
type IfInfo struct {
	Header      ir.BasicBlock
	Cond        *ir.Value
	TrueBlock   ir.BasicBlock // entry block of the true arm (Header's true successor)
	FalseBlock  ir.BasicBlock // entry block of the false arm (Header's false successor)
	MergeBlock  ir.BasicBlock
	TrueTarget  *ir.Value // the header's true-arm BranchTarget into TrueBlock
	FalseTarget *ir.Value // the header's false-arm BranchTarget into FalseBlock
	trueExit    *ir.Value // BranchTarget feeding MergeBlock from the true side
	falseExit   *ir.Value // BranchTarget feeding MergeBlock from the false side
}

// Variable returns, for the i-th parameter of MergeBlock, the pair of values
// supplied along the true and false arms — exactly the (condition, trueValue,
// falseValue) triple a replacement Predicate value needs.
func (info *IfInfo) Variable(i int) (trueValue, falseValue *ir.Value) {
	return info.trueExit.Arguments()[i].ResolvedTarget(), info.falseExit.Arguments()[i].ResolvedTarget()
}

// IsSimpleIf reports whether this general diamond is also "simple": each arm
// is exactly the single block directly reached from Header and directly
// exiting to MergeBlock (spec.md §4.5's additional, stricter check layered on
// top of the general recognizer), and both arms are small and side-effect
// free enough to safely duplicate into the header: each arm's body must not
// exceed maxBlockSize values, and the two arms' sizes must not differ by
// more than maxSizeDifference.
func (info *IfInfo) IsSimpleIf(maxBlockSize, maxSizeDifference int) bool {
	if info.trueExit.BasicBlock().ID() != info.TrueBlock.ID() {
		return false
	}
	if info.falseExit.BasicBlock().ID() != info.FalseBlock.ID() {
		return false
	}
	if info.TrueBlock.PredCount() != 1 || info.FalseBlock.PredCount() != 1 {
		return false
	}
	if info.TrueBlock.Terminator().Kind() != ir.ValueKindUnconditionalBranch {
		return false
	}
	if info.FalseBlock.Terminator().Kind() != ir.ValueKindUnconditionalBranch {
		return false
	}

	tb, fb := bodyLen(info.TrueBlock), bodyLen(info.FalseBlock)
	if tb > maxBlockSize || fb > maxBlockSize {
		return false
	}
	diff := tb - fb
	if diff < 0 {
		diff = -diff
	}
	if diff > maxSizeDifference {
		return false
	}
	return !hasSideEffects(info.TrueBlock) && !hasSideEffects(info.FalseBlock)
}

func bodyLen(b ir.BasicBlock) int {
	n := 0
	for range b.Body() {
		n++
	}
	return n
}

func hasSideEffects(b ir.BasicBlock) bool {
	return b.HasSideEffects()
}

// IfInfos is the set of diamond regions found in one CFG.
type IfInfos struct {
	infos []*IfInfo
}

// All returns every recognized region, merge-block order.
func (ii *IfInfos) All() []*IfInfo { return ii.infos }

// Create implements spec.md §4.5's general recognizer: sweep every block M
// with exactly two predecessors, compute H = GetImmediateCommonDominator of
// those two predecessors, and accept the region iff H ends in a
// ConditionalBranch whose two successors each dominate one of M's two
// predecessors (one per arm). This is deliberately independent of how many
// blocks lie between H's successor and the predecessor that actually
// branches into M — IsSimpleIf is the separate, stricter filter for the
// single-block-arm case transform.IfConversionPass rewrites.
func Create(dominators *Dominators) *IfInfos {
	result := &IfInfos{}
	cfg := dominators.cfg
	for _, m := range cfg.scope.Blocks() {
		if m.PredCount() != 2 {
			continue
		}
		preds := m.Preds()
		p0, p1 := preds[0], preds[1]

		h := dominators.GetImmediateCommonDominator(p0, p1)
		term := h.Terminator()
		if term == nil || term.Kind() != ir.ValueKindConditionalBranch {
			continue
		}
		trueTarget, falseTarget := term.Targets()[0], term.Targets()[1]
		trueEntry, falseEntry := trueTarget.DestinationBlock(), falseTarget.DestinationBlock()

		truePred, falsePred := assignArms(dominators, trueEntry, falseEntry, p0, p1)
		if truePred == nil || falsePred == nil {
			continue
		}
		trueExit := edgeInto(truePred, m)
		falseExit := edgeInto(falsePred, m)
		if trueExit == nil || falseExit == nil {
			continue
		}

		result.infos = append(result.infos, &IfInfo{
			Header:      h,
			Cond:        term.Operands()[0].ResolvedTarget(),
			TrueBlock:   trueEntry,
			FalseBlock:  falseEntry,
			MergeBlock:  m,
			TrueTarget:  trueTarget,
			FalseTarget: falseTarget,
			trueExit:    trueExit,
			falseExit:   falseExit,
		})
	}
	return result
}

// assignArms decides, of m's two predecessors p0 and p1, which one is
// reached through the true arm (dominated by trueEntry) and which through
// the false arm (dominated by falseEntry). Either return value is nil if the
// predecessors don't split cleanly one-per-arm.
func assignArms(d *Dominators, trueEntry, falseEntry, p0, p1 ir.BasicBlock) (truePred, falsePred ir.BasicBlock) {
	side := func(p ir.BasicBlock) int {
		switch {
		case d.Dominates(trueEntry, p):
			return 1
		case d.Dominates(falseEntry, p):
			return -1
		default:
			return 0
		}
	}
	s0, s1 := side(p0), side(p1)
	switch {
	case s0 == 1 && s1 == -1:
		return p0, p1
	case s0 == -1 && s1 == 1:
		return p1, p0
	default:
		return nil, nil
	}
}

// edgeInto returns p's BranchTarget value whose destination is dest, or nil
// if p's terminator never targets it.
func edgeInto(p, dest ir.BasicBlock) *ir.Value {
	term := p.Terminator()
	if term == nil {
		return nil
	}
	for _, t := range term.Targets() {
		if t.DestinationBlock().ID() == dest.ID() {
			return t
		}
	}
	return nil
}
