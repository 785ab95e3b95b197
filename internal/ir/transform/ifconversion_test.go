package transform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/ir/transform"
	"github.com/kernelforge/kernelir/internal/types"
)

// buildAbsDiff mirrors the diamond fixture in internal/ir and
// internal/ir/analysis: a 4-block abs-difference function whose branches
// are small and balanced enough for the default Config to convert.
func buildAbsDiff(t *testing.T) (*ir.Method, *ir.MethodBuilder) {
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
	result, err := merge.AddParameter(types.I32, "r")
	require.NoError(t, err)

	a, b := m.Params().At(0), m.Params().At(1)
	cond, err := entry.AddBinary(ir.BinaryOpICmpLt, types.I1, b, a)
	require.NoError(t, err)
	tTarget, err := entry.NewBranchTargetBuilder(trueBlk.Block()).Seal()
	require.NoError(t, err)
	fTarget, err := entry.NewBranchTargetBuilder(falseBlk.Block()).Seal()
	require.NoError(t, err)
	_, err = entry.CreateConditionalBranch(cond, tTarget, fTarget)
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
	return m, mb
}

func TestIfConversionCollapsesDiamond(t *testing.T) {
	m, mb := buildAbsDiff(t)

	pass := &transform.IfConversionPass{Config: transform.DefaultConfig()}
	require.NoError(t, pass.Run(mb))
	require.NoError(t, mb.Dispose())

	scope, err := ir.NewScope(m)
	require.NoError(t, err)
	blocks := scope.Blocks()
	require.Len(t, blocks, 1, "arms and the merge block are folded into the header (spec.md §4.6 step 6)")

	header := blocks[0]
	require.Equal(t, ir.ValueKindReturn, header.Terminator().Kind(),
		"the header takes over the exit block's original terminator")

	var sawPredicate bool
	for _, v := range header.Body() {
		if v.Kind() == ir.ValueKindPredicate {
			sawPredicate = true
		}
	}
	require.True(t, sawPredicate, "header must carry the merged predicate value")
}

// TestIfConversionSkipsSideEffects is scenario S5: a diamond whose true arm
// stores to memory is left untouched, since duplicating a store into the
// header would execute it unconditionally.
func TestIfConversionSkipsSideEffects(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("maybe_store", []types.Handle{types.I1, types.I32, types.I32}, types.I32)
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
	result, err := merge.AddParameter(types.I32, "r")
	require.NoError(t, err)

	cond, base, val := m.Params().At(0), m.Params().At(1), m.Params().At(2)
	tTarget, err := entry.NewBranchTargetBuilder(trueBlk.Block()).Seal()
	require.NoError(t, err)
	fTarget, err := entry.NewBranchTargetBuilder(falseBlk.Block()).Seal()
	require.NoError(t, err)
	_, err = entry.CreateConditionalBranch(cond, tTarget, fTarget)
	require.NoError(t, err)

	_, err = trueBlk.AddStore(val, base, 0)
	require.NoError(t, err)
	tb1 := trueBlk.NewBranchTargetBuilder(merge.Block())
	require.NoError(t, tb1.AddArgument(val))
	target1, err := tb1.Seal()
	require.NoError(t, err)
	_, err = trueBlk.CreateUnconditionalBranch(target1)
	require.NoError(t, err)

	tb2 := falseBlk.NewBranchTargetBuilder(merge.Block())
	require.NoError(t, tb2.AddArgument(val))
	target2, err := tb2.Seal()
	require.NoError(t, err)
	_, err = falseBlk.CreateUnconditionalBranch(target2)
	require.NoError(t, err)

	_, err = merge.CreateReturn(result)
	require.NoError(t, err)

	pass := &transform.IfConversionPass{Config: transform.DefaultConfig()}
	require.NoError(t, pass.Run(mb))
	require.NoError(t, mb.Dispose())

	scope, err := ir.NewScope(m)
	require.NoError(t, err)
	require.Len(t, scope.Blocks(), 4, "a side-effecting arm must not be converted, leaving the diamond's four blocks intact")
}

func TestConfigValidation(t *testing.T) {
	_, err := transform.NewConfig(0, 1)
	require.Error(t, err)
	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	require.Equal(t, ir.InvalidArgument, irErr.Kind)

	cfg, err := transform.NewConfig(4, 2)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaxBlockSize)
}
