package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/types"
)

// TestParameterCollectionAddAndIndexing exercises Add/Contains/IndexOf: Add
// accepts a parameter value allocated by a different collection entirely,
// the way a concatenating merge assembles one list out of another's values.
func TestParameterCollectionAddAndIndexing(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("dst", []types.Handle{types.I32}, types.Void)
	donor := ctx.NewMethod("donor", []types.Handle{types.F32}, types.Void)

	pc := m.Params()
	extra := donor.Params().At(0)

	require.False(t, pc.Contains(extra))
	require.Equal(t, -1, pc.IndexOf(extra))

	require.NoError(t, pc.Add(extra))
	require.Equal(t, 2, pc.Len())
	require.True(t, pc.Contains(extra))
	require.Equal(t, 1, pc.IndexOf(extra))
	require.Equal(t, 1, extra.Index())
}

// TestParameterCollectionInsertAtFront verifies prepending renumbers every
// existing parameter's Index.
func TestParameterCollectionInsertAtFront(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("dst", []types.Handle{types.I32, types.I64}, types.Void)
	donor := ctx.NewMethod("donor", []types.Handle{types.F64}, types.Void)

	pc := m.Params()
	p0, p1 := pc.At(0), pc.At(1)
	front := donor.Params().At(0)

	require.NoError(t, pc.InsertAtFront(front))
	require.Equal(t, 3, pc.Len())
	require.Equal(t, front, pc.At(0))
	require.Equal(t, 0, front.Index())
	require.Equal(t, p0, pc.At(1))
	require.Equal(t, 1, p0.Index())
	require.Equal(t, p1, pc.At(2))
	require.Equal(t, 2, p1.Index())
}

// TestParameterCollectionAddRange verifies concatenating one collection's
// parameters onto another's, in order, with indices renumbered.
func TestParameterCollectionAddRange(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("dst", []types.Handle{types.I32}, types.Void)
	src := ctx.NewMethod("src", []types.Handle{types.F32, types.F64}, types.Void)

	pc, srcPC := m.Params(), src.Params()
	s0, s1 := srcPC.At(0), srcPC.At(1)

	require.NoError(t, pc.AddRange(srcPC))
	require.Equal(t, 3, pc.Len())
	require.Equal(t, s0, pc.At(1))
	require.Equal(t, s1, pc.At(2))
	require.Equal(t, 1, s0.Index())
	require.Equal(t, 2, s1.Index())
}

// TestParameterCollectionRemoveValue verifies removal by identity finds the
// right index and compacts exactly like positional Remove.
func TestParameterCollectionRemoveValue(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewMethod("dst", []types.Handle{types.I32, types.I64, types.F32}, types.Void)
	pc := m.Params()
	p0, p1, p2 := pc.At(0), pc.At(1), pc.At(2)

	require.NoError(t, pc.RemoveValue(p1))
	require.Equal(t, 2, pc.Len())
	require.False(t, pc.Contains(p1))
	require.Equal(t, p0, pc.At(0))
	require.Equal(t, p2, pc.At(1))
	require.Equal(t, 1, p2.Index())

	require.Error(t, pc.RemoveValue(p1), "removing an already-removed value must fail")
}
