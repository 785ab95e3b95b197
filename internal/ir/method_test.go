package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/types"
)

// buildAbsDiff builds:
//
//	func abs_diff(a i32, b i32) i32 {
//	  blk0: ()
//	    cond = icmp_lt b, a
//	    cbr cond, blk1, blk2
//	  blk1: ()
//	    d = sub a, b
//	    -> blk3(d)
//	  blk2: ()
//	    d = sub b, a
//	    -> blk3(d)
//	  blk3: (i32 result)
//	    ret result
//	}
func buildAbsDiff(t *testing.T) (*ir.Context, *ir.Method) {
	t.Helper()
	ctx := ir.NewContext()
	m := ctx.NewMethod("abs_diff", []types.Handle{types.I32, types.I32}, types.I32)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)

	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	trueBlk, err := mb.CreateBlock()
	require.NoError(t, err)
	falseBlk, err := mb.CreateBlock()
	require.NoError(t, err)
	merge, err := mb.CreateBlock()
	require.NoError(t, err)

	result, err := merge.AddParameter(types.I32, "result")
	require.NoError(t, err)

	a, b := m.Params().At(0), m.Params().At(1)

	cond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, b, a)
	require.NoError(t, err)

	trueTB := entry.NewBranchTargetBuilder(trueBlk.Block())
	trueTarget, err := trueTB.Seal()
	require.NoError(t, err)
	falseTB := entry.NewBranchTargetBuilder(falseBlk.Block())
	falseTarget, err := falseTB.Seal()
	require.NoError(t, err)
	_, err = entry.CreateConditionalBranch(cond, trueTarget, falseTarget)
	require.NoError(t, err)

	dTrue, err := trueBlk.AddBinary(ir.BinaryOpSub, types.I32, a, b)
	require.NoError(t, err)
	tb1 := trueBlk.NewBranchTargetBuilder(merge.Block())
	require.NoError(t, tb1.AddArgument(dTrue))
	target1, err := tb1.Seal()
	require.NoError(t, err)
	_, err = trueBlk.CreateUnconditionalBranch(target1)
	require.NoError(t, err)

	dFalse, err := falseBlk.AddBinary(ir.BinaryOpSub, types.I32, b, a)
	require.NoError(t, err)
	tb2 := falseBlk.NewBranchTargetBuilder(merge.Block())
	require.NoError(t, tb2.AddArgument(dFalse))
	target2, err := tb2.Seal()
	require.NoError(t, err)
	_, err = falseBlk.CreateUnconditionalBranch(target2)
	require.NoError(t, err)

	_, err = merge.CreateReturn(result)
	require.NoError(t, err)

	require.NoError(t, mb.Dispose())
	return ctx, m
}

func TestBuildAbsDiff(t *testing.T) {
	_, m := buildAbsDiff(t)
	require.Equal(t, 4, len(m.Blocks()))
	require.Equal(t, "abs_diff", m.Name())

	scope, err := ir.NewScope(m)
	require.NoError(t, err)
	require.Len(t, scope.Blocks(), 4)
	require.Equal(t, 0, scope.RPOIndex(m.EntryBlock()))
}

func TestFormatMethod(t *testing.T) {
	_, m := buildAbsDiff(t)
	out := ir.FormatMethod(m)
	require.Contains(t, out, "func abs_diff(")
	require.Contains(t, out, "cbr")
	require.Contains(t, out, "ret")
}

func TestMethodBuilder_SingleCheckout(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("f", nil, types.Void)
	mb1, err := m.CreateBuilder()
	require.NoError(t, err)
	_, err = m.CreateBuilder()
	require.Error(t, err)
	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	require.Equal(t, ir.InvalidState, irErr.Kind)

	require.NoError(t, mb1.Dispose())
	mb2, err := m.CreateBuilder()
	require.NoError(t, err)
	require.NoError(t, mb2.Dispose())
}

func TestBranchTargetArityMismatch(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("g", nil, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	dest, err := mb.CreateBlock()
	require.NoError(t, err)
	_, err = dest.AddParameter(types.I32, "p")
	require.NoError(t, err)

	tb := entry.NewBranchTargetBuilder(dest.Block())
	_, err = tb.Seal()
	require.Error(t, err)
	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	require.Equal(t, ir.InvalidArgument, irErr.Kind)
}

func TestReplaceIdempotent(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("h", []types.Handle{types.I32}, types.Void)
	mb, err := m.CreateBuilder()
	require.NoError(t, err)
	entry, err := mb.CreateBlock()
	require.NoError(t, err)
	a := m.Params().At(0)
	zero, err := entry.AddConstant(types.I32, 0)
	require.NoError(t, err)
	sum, err := entry.AddBinary(ir.BinaryOpAdd, types.I32, a, zero)
	require.NoError(t, err)

	require.NoError(t, sum.Replace(a))
	require.NoError(t, sum.Replace(a)) // idempotent
	require.True(t, sum.IsReplaced())
	require.Equal(t, a, sum.ResolvedTarget())

	_, err = entry.CreateReturn(nil)
	require.NoError(t, err)
	require.NoError(t, mb.Dispose())
}
