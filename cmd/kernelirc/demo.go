package main

import (
	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/types"
)

// demoKernel is one of the small, named sample kernels the CLI can dump or
// if-convert, standing in for the CPU kernel source a real front end would
// lower into this IR.
type demoKernel struct {
	name  string
	build func(ctx *ir.Context) (*ir.Method, *ir.MethodBuilder, error)
}

var demoKernels = map[string]demoKernel{
	"abs_diff": {name: "abs_diff", build: buildAbsDiffKernel},
	"max":      {name: "max", build: buildMaxKernel},
	"clamp":    {name: "clamp", build: buildClampKernel},
}

// buildAbsDiffKernel: func abs_diff(a i32, b i32) i32 { if b < a { a - b }
// else { b - a } } — the minimal if/else-with-a-value diamond.
func buildAbsDiffKernel(ctx *ir.Context) (*ir.Method, *ir.MethodBuilder, error) {
	m := ctx.NewMethod("abs_diff", []types.Handle{types.I32, types.I32}, types.I32)
	mb, err := m.CreateBuilder()
	if err != nil {
		return nil, nil, err
	}

	entry, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	trueBlk, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	falseBlk, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	merge, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	result, err := merge.AddParameter(types.I32, "result")
	if err != nil {
		return nil, nil, err
	}

	a, b := m.Params().At(0), m.Params().At(1)
	cond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, b, a)
	if err != nil {
		return nil, nil, err
	}
	tTarget, err := entry.NewBranchTargetBuilder(trueBlk.Block()).Seal()
	if err != nil {
		return nil, nil, err
	}
	fTarget, err := entry.NewBranchTargetBuilder(falseBlk.Block()).Seal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := entry.CreateConditionalBranch(cond, tTarget, fTarget); err != nil {
		return nil, nil, err
	}

	dTrue, err := trueBlk.AddBinary(ir.BinaryOpSub, types.I32, a, b)
	if err != nil {
		return nil, nil, err
	}
	tb1 := trueBlk.NewBranchTargetBuilder(merge.Block())
	if err := tb1.AddArgument(dTrue); err != nil {
		return nil, nil, err
	}
	target1, err := tb1.Seal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := trueBlk.CreateUnconditionalBranch(target1); err != nil {
		return nil, nil, err
	}

	dFalse, err := falseBlk.AddBinary(ir.BinaryOpSub, types.I32, b, a)
	if err != nil {
		return nil, nil, err
	}
	tb2 := falseBlk.NewBranchTargetBuilder(merge.Block())
	if err := tb2.AddArgument(dFalse); err != nil {
		return nil, nil, err
	}
	target2, err := tb2.Seal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := falseBlk.CreateUnconditionalBranch(target2); err != nil {
		return nil, nil, err
	}

	if _, err := merge.CreateReturn(result); err != nil {
		return nil, nil, err
	}
	return m, mb, nil
}

// buildMaxKernel: func max(a i32, b i32) i32 { if a < b { b } else { a } }
func buildMaxKernel(ctx *ir.Context) (*ir.Method, *ir.MethodBuilder, error) {
	m := ctx.NewMethod("max", []types.Handle{types.I32, types.I32}, types.I32)
	mb, err := m.CreateBuilder()
	if err != nil {
		return nil, nil, err
	}
	entry, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	merge, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	result, err := merge.AddParameter(types.I32, "result")
	if err != nil {
		return nil, nil, err
	}
	a, b := m.Params().At(0), m.Params().At(1)
	cond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, a, b)
	if err != nil {
		return nil, nil, err
	}
	tb := entry.NewBranchTargetBuilder(merge.Block())
	if err := tb.AddArgument(b); err != nil {
		return nil, nil, err
	}
	fb := entry.NewBranchTargetBuilder(merge.Block())
	if err := fb.AddArgument(a); err != nil {
		return nil, nil, err
	}
	tTarget, err := tb.Seal()
	if err != nil {
		return nil, nil, err
	}
	fTarget, err := fb.Seal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := entry.CreateConditionalBranch(cond, tTarget, fTarget); err != nil {
		return nil, nil, err
	}
	if _, err := merge.CreateReturn(result); err != nil {
		return nil, nil, err
	}
	return m, mb, nil
}

// buildClampKernel: func clamp(x i32, lo i32, hi i32) i32. Two predicates
// compute a region code (0 inside, 1 below lo, 2 above hi), a three-way
// switch dispatches on it, and each arm passes x, lo or hi to the merge
// block, which returns it.
func buildClampKernel(ctx *ir.Context) (*ir.Method, *ir.MethodBuilder, error) {
	m := ctx.NewMethod("clamp", []types.Handle{types.I32, types.I32, types.I32}, types.I32)
	mb, err := m.CreateBuilder()
	if err != nil {
		return nil, nil, err
	}
	entry, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	below, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	inside, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	above, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	merge, err := mb.CreateBlock()
	if err != nil {
		return nil, nil, err
	}
	result, err := merge.AddParameter(types.I32, "result")
	if err != nil {
		return nil, nil, err
	}

	x, lo, hi := m.Params().At(0), m.Params().At(1), m.Params().At(2)
	belowCond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, x, lo)
	if err != nil {
		return nil, nil, err
	}
	aboveCond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, hi, x)
	if err != nil {
		return nil, nil, err
	}
	regionF, err := entry.AddConstant(types.I32, 0)
	if err != nil {
		return nil, nil, err
	}
	regionT, err := entry.AddConstant(types.I32, 1)
	if err != nil {
		return nil, nil, err
	}
	regionA, err := entry.AddConstant(types.I32, 2)
	if err != nil {
		return nil, nil, err
	}
	regionBelow, err := entry.AddPredicate(types.I32, belowCond, regionT, regionF)
	if err != nil {
		return nil, nil, err
	}
	region, err := entry.AddPredicate(types.I32, aboveCond, regionA, regionBelow)
	if err != nil {
		return nil, nil, err
	}

	defaultTB := entry.NewBranchTargetBuilder(inside.Block())
	defaultTarget, err := defaultTB.Seal()
	if err != nil {
		return nil, nil, err
	}
	belowTB := entry.NewBranchTargetBuilder(below.Block())
	belowTarget, err := belowTB.Seal()
	if err != nil {
		return nil, nil, err
	}
	aboveTB := entry.NewBranchTargetBuilder(above.Block())
	aboveTarget, err := aboveTB.Seal()
	if err != nil {
		return nil, nil, err
	}
	if _, err := entry.CreateSwitchBranch(region, defaultTarget, belowTarget, aboveTarget); err != nil {
		return nil, nil, err
	}

	for _, pair := range []struct {
		b      *ir.BlockBuilder
		result *ir.Value
	}{{below, lo}, {inside, x}, {above, hi}} {
		tb := pair.b.NewBranchTargetBuilder(merge.Block())
		if err := tb.AddArgument(pair.result); err != nil {
			return nil, nil, err
		}
		target, err := tb.Seal()
		if err != nil {
			return nil, nil, err
		}
		if _, err := pair.b.CreateUnconditionalBranch(target); err != nil {
			return nil, nil, err
		}
	}

	if _, err := merge.CreateReturn(result); err != nil {
		return nil, nil, err
	}
	return m, mb, nil
}
