package ir

// Scope is a frozen snapshot of a Method's block structure in reverse
// post-order, the traversal every analysis in internal/ir/analysis and
// internal/ir/transform is built against (spec.md §5, grounded on the
// teacher's builder.LayoutBlocks / passCalculateImmediateDominators use of
// reverse post-order). Building a Scope is also where spec.md §9's Open
// Question 2 is enforced: a method still carrying a transient
// ValueKindBuilderTerminator is rejected here, before any analysis can see
// it, rather than deferring the failure to whichever pass happens to visit
// it first.
type Scope struct {
	method *Method
	rpo    []*basicBlock
	index  map[BasicBlockID]int
}

// NewScope computes and freezes a reverse-post-order traversal of m's
// reachable blocks starting at the entry block.
func NewScope(m *Method) (*Scope, error) {
	entry := m.EntryBlock()
	if entry == nil {
		return nil, newError(InvalidState, "method %q has no entry block", m.name)
	}

	// Only blocks reachable from the entry are validated and included: a
	// disposed block (e.g. an if-conversion arm folded away by
	// transform.IfConversionPass) legitimately carries no terminator, and
	// since nothing can reach it any more it is simply excluded below
	// rather than treated as a corrupt method.
	visited := make(map[BasicBlockID]bool, len(m.order))
	var postorder []*basicBlock
	var visitErr error
	var visit func(*basicBlock)
	visit = func(b *basicBlock) {
		if visited[b.id] || visitErr != nil {
			return
		}
		visited[b.id] = true
		if b.terminator == nil {
			visitErr = newError(Internal, "block %s of method %q has no terminator", b.id, m.name)
			return
		}
		if b.terminator.kind == ValueKindBuilderTerminator {
			visitErr = newError(Internal, "block %s of method %q still has an unresolved builder terminator", b.id, m.name)
			return
		}
		for _, t := range b.terminator.targets {
			if t.destBlock != nil {
				visit(t.destBlock)
			}
		}
		postorder = append(postorder, b)
	}
	visit(entry.(*basicBlock))
	if visitErr != nil {
		return nil, visitErr
	}

	rpo := make([]*basicBlock, len(postorder))
	for i, b := range postorder {
		rpo[len(postorder)-1-i] = b
	}

	idx := make(map[BasicBlockID]int, len(rpo))
	for i, b := range rpo {
		idx[b.id] = i
	}
	return &Scope{method: m, rpo: rpo, index: idx}, nil
}

// Method returns the Method this Scope was built from.
func (s *Scope) Method() *Method { return s.method }

// Blocks returns the reachable blocks in reverse post-order.
func (s *Scope) Blocks() []BasicBlock {
	out := make([]BasicBlock, len(s.rpo))
	for i, b := range s.rpo {
		out[i] = b
	}
	return out
}

// RPOIndex returns b's position in the reverse post-order, or -1 if b is
// unreachable from the entry block (and so was excluded when the Scope was
// built).
func (s *Scope) RPOIndex(b BasicBlock) int {
	bb, ok := b.(*basicBlock)
	if !ok {
		return -1
	}
	if i, ok := s.index[bb.id]; ok {
		return i
	}
	return -1
}
