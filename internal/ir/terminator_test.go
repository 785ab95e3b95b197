package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/types"
)

// TestTrivialReturn is scenario S1: one block, CreateReturn(42), nothing else.
func TestTrivialReturn(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("answer", nil, types.I32)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)

	v, err := entry.AddConstant(types.I32, 42)
	require.NoError(t, err)
	ret, err := entry.CreateReturn(v)
	require.NoError(t, err)

	require.Equal(t, ir.ValueKindReturn, ret.Kind())
	require.Empty(t, entry.Block().Body())
	require.Equal(t, v, ret.Operands()[0].ResolvedTarget())
	require.NoError(t, mb.Dispose())
}

// TestConditionalBranchCanonical is scenario S2.
func TestConditionalBranchCanonical(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("pick", []types.Handle{types.I1}, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	blockT, err := mb.CreateBlock()
	require.NoError(t, err)
	blockF, err := mb.CreateBlock()
	require.NoError(t, err)

	p := m.Params().At(0)
	tTarget, err := entry.NewBranchTargetBuilder(blockT.Block()).Seal()
	require.NoError(t, err)
	fTarget, err := entry.NewBranchTargetBuilder(blockF.Block()).Seal()
	require.NoError(t, err)
	br, err := entry.CreateConditionalBranch(p, tTarget, fTarget)
	require.NoError(t, err)

	require.Equal(t, ir.ValueKindConditionalBranch, br.Kind())
	require.Equal(t, blockT.Block(), br.Targets()[0].DestinationBlock())
	require.Equal(t, blockF.Block(), br.Targets()[1].DestinationBlock())

	_, err = blockT.CreateReturn(nil)
	require.NoError(t, err)
	_, err = blockF.CreateReturn(nil)
	require.NoError(t, err)
	require.NoError(t, mb.Dispose())
}

// TestSwitchDegenerateCanonicalization is scenario S3: a switch with a single
// case is rewritten at construction into a conditional branch on index == 0.
func TestSwitchDegenerateCanonicalization(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("degenerate_switch", []types.Handle{types.I32}, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	t0, err := mb.CreateBlock()
	require.NoError(t, err)
	t1, err := mb.CreateBlock()
	require.NoError(t, err)

	x := m.Params().At(0)
	defaultTarget, err := entry.NewBranchTargetBuilder(t0.Block()).Seal()
	require.NoError(t, err)
	caseTarget, err := entry.NewBranchTargetBuilder(t1.Block()).Seal()
	require.NoError(t, err)

	br, err := entry.CreateSwitchBranch(x, defaultTarget, caseTarget)
	require.NoError(t, err)

	require.Equal(t, ir.ValueKindConditionalBranch, br.Kind(), "a single-case switch must canonicalize to a conditional branch")
	require.Equal(t, t0.Block(), br.Targets()[0].DestinationBlock())
	require.Equal(t, t1.Block(), br.Targets()[1].DestinationBlock())

	cond := br.Operands()[0].ResolvedTarget()
	require.Equal(t, ir.ValueKindBinary, cond.Kind())
	require.Equal(t, ir.BinaryOpICmpEq, cond.BinaryOp())

	_, err = t0.CreateReturn(nil)
	require.NoError(t, err)
	_, err = t1.CreateReturn(nil)
	require.NoError(t, err)
	require.NoError(t, mb.Dispose())
}

// TestSwitchBranchMultipleCases checks that two or more case targets still
// produce a genuine ValueKindSwitchBranch.
func TestSwitchBranchMultipleCases(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("real_switch", []types.Handle{types.I32}, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	d, err := mb.CreateBlock()
	require.NoError(t, err)
	c0, err := mb.CreateBlock()
	require.NoError(t, err)
	c1, err := mb.CreateBlock()
	require.NoError(t, err)

	x := m.Params().At(0)
	defaultTarget, err := entry.NewBranchTargetBuilder(d.Block()).Seal()
	require.NoError(t, err)
	case0, err := entry.NewBranchTargetBuilder(c0.Block()).Seal()
	require.NoError(t, err)
	case1, err := entry.NewBranchTargetBuilder(c1.Block()).Seal()
	require.NoError(t, err)

	br, err := entry.CreateSwitchBranch(x, defaultTarget, case0, case1)
	require.NoError(t, err)
	require.Equal(t, ir.ValueKindSwitchBranch, br.Kind())
	require.Len(t, br.Targets(), 3)

	_, err = d.CreateReturn(nil)
	require.NoError(t, err)
	_, err = c0.CreateReturn(nil)
	require.NoError(t, err)
	_, err = c1.CreateReturn(nil)
	require.NoError(t, err)
	require.NoError(t, mb.Dispose())
}

// TestParameterReplacementDropsBranchArgument is scenario S6: replacing a
// block parameter drops the matching argument from every BranchTarget
// supplying it, once the builder is disposed.
func TestParameterReplacementDropsBranchArgument(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("drop_arg", []types.Handle{types.I32}, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	dest, err := mb.CreateBlock()
	require.NoError(t, err)
	p, err := dest.AddParameter(types.I32, "p")
	require.NoError(t, err)
	q, err := dest.AddParameter(types.I32, "q")
	require.NoError(t, err)

	arg := m.Params().At(0)
	tb := entry.NewBranchTargetBuilder(dest.Block())
	require.NoError(t, tb.AddArgument(arg))
	require.NoError(t, tb.AddArgument(arg))
	target, err := tb.Seal()
	require.NoError(t, err)
	_, err = entry.CreateUnconditionalBranch(target)
	require.NoError(t, err)
	_, err = dest.CreateReturn(nil)
	require.NoError(t, err)

	require.Equal(t, 2, len(target.Arguments()))
	require.Equal(t, 2, dest.Block().ParamCount())

	require.NoError(t, p.Replace(q))
	require.NoError(t, mb.Dispose())

	require.Equal(t, 1, dest.Block().ParamCount())
	require.Equal(t, 1, len(target.Arguments()))
	require.Equal(t, arg, target.Arguments()[0].ResolvedTarget())
	require.Equal(t, q, dest.Block().Param(0))
}
