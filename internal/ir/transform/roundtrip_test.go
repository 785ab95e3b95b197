package transform_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kernelforge/kernelir/internal/ir"
)

// blockShape renders one block's structure as a plain string, independent of
// its NodeID/BasicBlockID: the round-trip law only promises the rebuilt
// method is isomorphic "up to node identity", and RebuildMethod
// allocates every cloned value a fresh ID, so comparing raw IDs (including
// through Value.String's "%s%d") would report a mismatch even for a
// perfectly faithful rebuild. pos maps a method's own blocks to their
// position in Blocks(), so branch targets are compared by relative index
// instead of absolute ID. Like blockIDs in scope_test.go, it renders block
// state into plain strings before handing it to cmp.Diff, though blockIDs
// keeps the IDs themselves.
func blockShape(b ir.BasicBlock, pos map[ir.BasicBlockID]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "params=%d", b.ParamCount())
	for _, v := range b.Body() {
		fmt.Fprintf(&sb, " %s", v.Kind())
	}
	term := b.Terminator()
	fmt.Fprintf(&sb, " | %s", term.Kind())
	for _, target := range term.Targets() {
		fmt.Fprintf(&sb, " ->%d(%d)", pos[target.DestinationBlock().ID()], len(target.Arguments()))
	}
	return sb.String()
}

// methodShape renders every block of m in order, giving a single
// ID-agnostic structural fingerprint for the whole method: block count,
// per-block parameter count and body value kinds, and terminator kind plus
// edge shape (relative destination, argument count) for every outgoing
// branch target.
func methodShape(m *ir.Method) []string {
	blocks := m.Blocks()
	pos := make(map[ir.BasicBlockID]int, len(blocks))
	for i, b := range blocks {
		pos[b.ID()] = i
	}
	shapes := make([]string, len(blocks))
	for i, b := range blocks {
		shapes[i] = blockShape(b, pos)
	}
	return shapes
}

// TestRebuildMethodPreservesStructuralShape exercises the round-trip law by
// cmp.Diff-ing the ID-agnostic block/edge shape of a method against its
// RebuildMethod clone, built under an entirely separate Context. The shape
// ignores NodeIDs and BasicBlockIDs, so any difference reported here
// reflects a real structural divergence, not a renumbering artifact.
func TestRebuildMethodPreservesStructuralShape(t *testing.T) {
	m, mb := buildAbsDiff(t)
	require.NoError(t, mb.Dispose())

	cloneCtx := ir.NewContext()
	clone, err := ir.RebuildMethod(cloneCtx, m)
	require.NoError(t, err)

	if diff := cmp.Diff(methodShape(m), methodShape(clone)); diff != "" {
		t.Fatalf("rebuilt method diverges in block/edge shape (-src +clone):\n%s", diff)
	}
}
