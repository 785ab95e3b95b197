package ir

import "github.com/kernelforge/kernelir/internal/types"

// ParameterOwner is the capability interface spec.md §9 introduces in place
// of letting every caller poke at a parameter list directly: anything that
// owns an ordered, append-only-until-pruned list of ValueKindParameter
// values (a Method's signature, or a BasicBlock's block-parameter list)
// implements it, and ParameterCollection drives it generically.
type ParameterOwner interface {
	// NewParameter allocates and appends a new parameter of type t, returning
	// it already sealed (parameters have no operands).
	NewParameter(t types.Handle, name string) (*Value, error)

	// OnParameterRemoved is invoked by ParameterCollection.Remove after a
	// parameter is spliced out, so the owner can fix up every other
	// structure indexed by parameter position (e.g. a BasicBlock must drop
	// the matching argument from every predecessor's BranchTarget).
	OnParameterRemoved(removed *Value, index int) error
}

// ParameterCollection is the reusable ordered-list-of-parameters behavior
// shared by Method signatures and BasicBlock parameter lists (spec.md §4.2):
// owners embed one and get Append/At/Len/Remove for free, paying only for
// the two ParameterOwner callbacks.
type ParameterCollection struct {
	owner  ParameterOwner
	params []*Value
}

// initParameterCollection binds pc to its owner; must be called before use.
func initParameterCollection(pc *ParameterCollection, owner ParameterOwner) {
	pc.owner = owner
}

// Len returns the current parameter count.
func (pc *ParameterCollection) Len() int { return len(pc.params) }

// At returns the parameter at index i, or nil if out of range.
func (pc *ParameterCollection) At(i int) *Value {
	if i < 0 || i >= len(pc.params) {
		return nil
	}
	return pc.params[i]
}

// All returns the full parameter list. Callers must not mutate the slice.
func (pc *ParameterCollection) All() []*Value { return pc.params }

// append records a freshly allocated parameter value at the next index.
// Called by owner implementations from inside NewParameter, after the Value
// itself has been allocated.
func (pc *ParameterCollection) append(p *Value) {
	p.paramIndex = len(pc.params)
	pc.params = append(pc.params, p)
}

// updateIndices reassigns every parameter's Index to its current slice
// position, restoring the invariant that Index always matches position
// (spec.md §4.2) after any insertion or removal.
func (pc *ParameterCollection) updateIndices() {
	for i, p := range pc.params {
		p.paramIndex = i
	}
}

// Add appends an already-allocated parameter value to the end of the list.
// Unlike append (used internally by NewParameter for a value this collection
// itself just allocated), Add accepts a parameter value from elsewhere —
// e.g. another ParameterCollection — for callers assembling a merged
// parameter list (spec.md §4.2's "add").
func (pc *ParameterCollection) Add(p *Value) error {
	if p.kind != ValueKindParameter {
		return newError(InvalidArgument, "Add requires a parameter value, got %s", p.kind)
	}
	pc.params = append(pc.params, p)
	p.paramIndex = len(pc.params) - 1
	return nil
}

// InsertAtFront prepends p, shifting every existing parameter's Index up by
// one (spec.md §4.2's "insert-at-front, with index renumbering").
func (pc *ParameterCollection) InsertAtFront(p *Value) error {
	if p.kind != ValueKindParameter {
		return newError(InvalidArgument, "InsertAtFront requires a parameter value, got %s", p.kind)
	}
	widened := make([]*Value, len(pc.params)+1)
	widened[0] = p
	copy(widened[1:], pc.params)
	pc.params = widened
	pc.updateIndices()
	return nil
}

// AddRange appends every parameter in src, in order, to pc (spec.md §4.2's
// "add-range from another builder/collection") — the primitive a
// concatenating block merge needs for its parameter lists.
func (pc *ParameterCollection) AddRange(src *ParameterCollection) error {
	for _, p := range src.params {
		if err := pc.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// IndexOf returns p's current position, or -1 if p is not a member of pc.
func (pc *ParameterCollection) IndexOf(p *Value) int {
	for i, q := range pc.params {
		if q == p {
			return i
		}
	}
	return -1
}

// Contains reports whether p is a member of pc.
func (pc *ParameterCollection) Contains(p *Value) bool {
	return pc.IndexOf(p) >= 0
}

// RemoveValue removes p by identity rather than position, delegating to
// Remove once its index is found (spec.md §4.2's "remove", as distinct from
// the positional "remove-at" Remove already provides).
func (pc *ParameterCollection) RemoveValue(p *Value) error {
	i := pc.IndexOf(p)
	if i < 0 {
		return newError(InvalidArgument, "parameter is not a member of this collection")
	}
	return pc.Remove(i)
}

// Remove deletes the parameter at index i, shifts every later parameter's
// Index down by one, and invokes owner.OnParameterRemoved so the owner can
// keep any parallel structure (branch-target argument lists) in sync
// (spec.md §4.2 edge case: "removing a block parameter must update every
// predecessor's argument list").
func (pc *ParameterCollection) Remove(i int) error {
	if i < 0 || i >= len(pc.params) {
		return newError(InvalidArgument, "parameter index %d out of range [0,%d)", i, len(pc.params))
	}
	removed := pc.params[i]
	pc.params = append(pc.params[:i:i], pc.params[i+1:]...)
	pc.updateIndices()
	return pc.owner.OnParameterRemoved(removed, i)
}

// PerformRemoval drops every parameter that has been Replace'd, compacting
// and renumbering the rest in one pass (spec.md §4.2's "terminal
// PerformRemoval that drops every replaced parameter and compacts indices").
// Used by if-conversion to retire an exit block's parameters once each has
// been replaced by a Predicate value, before merging the block away.
func (pc *ParameterCollection) PerformRemoval() error {
	for i := 0; i < len(pc.params); {
		if pc.params[i].IsReplaced() {
			if err := pc.Remove(i); err != nil {
				return err
			}
			continue
		}
		i++
	}
	return nil
}
