package ir

import (
	"fmt"

	"github.com/kernelforge/kernelir/internal/types"
)

// ValueKind discriminates the concrete flavor of a Value. Go has no union
// types, so — exactly like the teacher's wazevo/ssa.Instruction — every
// concrete Node kind in this core is the single flattened Value struct below,
// and each field's meaning depends on Kind.
type ValueKind uint8

const (
	ValueKindInvalid ValueKind = iota

	// ValueKindParameter is a function or block parameter (spec.md §3/§4.2).
	// Operands: none.
	ValueKindParameter

	// ValueKindNull is a parentless null/zero constant of a type.
	// Operands: none.
	ValueKindNull

	// ValueKindConstant is an integer or float literal. Operands: none;
	// Immediate holds the raw bit pattern.
	ValueKindConstant

	// ValueKindBinary is a two-operand arithmetic/comparison instruction.
	// Operands: [lhs, rhs]. BinaryOp selects the operation.
	ValueKindBinary

	// ValueKindUnary is a one-operand arithmetic instruction. Operands: [x].
	ValueKindUnary

	// ValueKindLoad reads Type from [base+Immediate]. Operands: [base].
	ValueKindLoad

	// ValueKindStore writes Operands[0] to [Operands[1]+Immediate].
	// Operands: [value, base].
	ValueKindStore

	// ValueKindCall invokes Callee with Operands as arguments.
	ValueKindCall

	// ValueKindPredicate is select(condition, trueValue, falseValue).
	// Operands: [condition, trueValue, falseValue].
	ValueKindPredicate

	// ValueKindBranchTarget is the edge object between a terminator and a
	// destination block (spec.md §3/§4.4). Operands are the block-argument
	// list, positionally matched to DestBlock's parameters.
	ValueKindBranchTarget

	// --- Terminator kinds (spec.md §3) ---

	// ValueKindReturn: 0 targets, 1 argument (possibly absent for void).
	ValueKindReturn

	// ValueKindUnconditionalBranch: 1 target, 0 arguments of its own (the
	// BranchTarget carries the block arguments).
	ValueKindUnconditionalBranch

	// ValueKindConditionalBranch: 2 targets {true, false}, 1 Int1 argument.
	ValueKindConditionalBranch

	// ValueKindSwitchBranch: N>=1 targets, target[0] is default, 1 integer
	// argument.
	ValueKindSwitchBranch

	// ValueKindBuilderTerminator is a transient placeholder terminator used
	// only mid-construction; it must be replaced by a real terminator before
	// any analysis runs (spec.md §9 Open Question 2).
	ValueKindBuilderTerminator
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindParameter:
		return "param"
	case ValueKindNull:
		return "null"
	case ValueKindConstant:
		return "const"
	case ValueKindBinary:
		return "binary"
	case ValueKindUnary:
		return "unary"
	case ValueKindLoad:
		return "load"
	case ValueKindStore:
		return "store"
	case ValueKindCall:
		return "call"
	case ValueKindPredicate:
		return "predicate"
	case ValueKindBranchTarget:
		return "target"
	case ValueKindReturn:
		return "ret"
	case ValueKindUnconditionalBranch:
		return "branch"
	case ValueKindConditionalBranch:
		return "cbranch"
	case ValueKindSwitchBranch:
		return "switch"
	case ValueKindBuilderTerminator:
		return "pending-terminator"
	default:
		return "invalid"
	}
}

// IsTerminator reports whether k is one of the terminator kinds.
func (k ValueKind) IsTerminator() bool {
	switch k {
	case ValueKindReturn, ValueKindUnconditionalBranch, ValueKindConditionalBranch,
		ValueKindSwitchBranch, ValueKindBuilderTerminator:
		return true
	default:
		return false
	}
}

// hasSideEffect reports whether a body value of this kind counts towards
// BasicBlock.HasSideEffects (spec.md §4.3).
func (k ValueKind) hasSideEffect() bool {
	switch k {
	case ValueKindStore, ValueKindCall:
		return true
	default:
		return false
	}
}

// BinaryOp selects the operation of a ValueKindBinary value.
type BinaryOp uint8

const (
	BinaryOpInvalid BinaryOp = iota
	BinaryOpAdd
	BinaryOpSub
	BinaryOpMul
	BinaryOpICmpEq
	BinaryOpICmpNe
	BinaryOpICmpLt
	BinaryOpAnd
	BinaryOpOr
	BinaryOpXor
)

func (o BinaryOp) String() string {
	switch o {
	case BinaryOpAdd:
		return "add"
	case BinaryOpSub:
		return "sub"
	case BinaryOpMul:
		return "mul"
	case BinaryOpICmpEq:
		return "icmp_eq"
	case BinaryOpICmpNe:
		return "icmp_ne"
	case BinaryOpICmpLt:
		return "icmp_lt"
	case BinaryOpAnd:
		return "and"
	case BinaryOpOr:
		return "or"
	case BinaryOpXor:
		return "xor"
	default:
		return "invalid_op"
	}
}

// Node is the common surface every graph entity exposes, independent of its
// concrete kind. *Value is the only type that implements it: Go has no sum
// types, so — like the teacher's single ssa.Instruction struct standing in
// for every instruction kind — every concrete Node here is a Value
// discriminated by its Kind, rather than a family of distinct Go types.
type Node interface {
	ID() NodeID
	Kind() ValueKind
	BasicBlock() BasicBlock
	Type() types.Handle
	Operands() []ValueReference
	Sealed() bool
	IsReplaced() bool
}

// Value is every concrete Node in the graph (spec.md §3: "Value (Node,
// concrete kinds). Discriminated by a ValueKind tag"). It is allocated from
// a Method's arena.Pool[Value] and its address is its identity for as long
// as the owning Method lives.
type Value struct {
	id   NodeID
	kind ValueKind
	blk  *basicBlock // nil for function parameters and shared constants
	typ  types.Handle

	sealed      bool
	operands    []ValueReference
	replacement *Value

	// linked-list position within blk.body; unused for terminators,
	// function parameters, branch targets, constants and null values.
	prev, next *Value

	// ValueKindParameter only.
	paramIndex int
	debugName  string

	// Terminator kinds only: the BranchTarget values this terminator exits
	// through, in target order (target[0] is the switch default).
	targets []*Value

	// ValueKindBranchTarget only.
	destBlock *basicBlock

	// ValueKindCall only.
	callee *Method

	// ValueKindBinary only.
	binaryOp BinaryOp

	// ValueKindConstant only: the raw bit pattern.
	immediate uint64
}

var _ Node = (*Value)(nil)

// ID implements Node.
func (v *Value) ID() NodeID { return v.id }

// Kind returns the discriminant of this value.
func (v *Value) Kind() ValueKind { return v.kind }

// BasicBlock implements Node: the parent block, or nil for function
// parameters and shared constants.
func (v *Value) BasicBlock() BasicBlock {
	if v.blk == nil {
		return nil
	}
	return v.blk
}

// Type implements Node.
func (v *Value) Type() types.Handle { return v.typ }

// Operands implements Node. The returned slice must not be mutated by
// callers; it is immutable once Sealed returns true.
func (v *Value) Operands() []ValueReference { return v.operands }

// Sealed implements Node.
func (v *Value) Sealed() bool { return v.sealed }

// seal freezes operands in place, transitioning from under-construction to
// immutable-operands state. Idempotent for constructors that provide
// operands up front (spec.md §4.1).
func (v *Value) seal(operands []ValueReference) {
	if v.sealed {
		return
	}
	v.operands = operands
	v.sealed = true
}

// IsReplaced implements Node.
func (v *Value) IsReplaced() bool { return v.replacement != nil }

// ResolvedTarget follows the replacement chain (collapsing lazily) to the
// value that should now be treated as this one's definition.
func (v *Value) ResolvedTarget() *Value {
	cur := v
	for cur.replacement != nil {
		cur = cur.replacement
	}
	if cur != v {
		// Path-compress so future resolutions are O(1); safe because
		// replacement is monotone (spec.md §4.1).
		v.replacement = cur
	}
	return cur
}

// Replace implements the replace-with protocol of spec.md §4.1: requires
// other is either not in a block or is in the same method as v. Idempotent:
// calling Replace twice with the same target has the same effect as once.
func (v *Value) Replace(other *Value) error {
	if v.replacement != nil {
		if v.replacement == other {
			return nil
		}
		return newError(InvalidState, "value %d already replaced with %d, cannot replace with %d",
			v.id, v.replacement.id, other.id)
	}
	if other.blk != nil && v.blk != nil && other.blk.method != v.blk.method {
		return newError(InvalidArgument,
			"cannot replace value %d with value %d from a different method", v.id, other.id)
	}
	v.replacement = other
	return nil
}

// Index returns the position of a ValueKindParameter in its owning
// ParameterCollection.
func (v *Value) Index() int {
	return v.paramIndex
}

// Name returns the debug name of a ValueKindParameter, or "" if unset.
func (v *Value) Name() string {
	return v.debugName
}

// Targets returns the BranchTarget values a terminator exits through.
func (v *Value) Targets() []*Value {
	return v.targets
}

// DestinationBlock returns the block a ValueKindBranchTarget reaches.
func (v *Value) DestinationBlock() BasicBlock {
	if v.destBlock == nil {
		return nil
	}
	return v.destBlock
}

// Arguments returns the block-argument list of a ValueKindBranchTarget.
func (v *Value) Arguments() []ValueReference {
	return v.operands
}

// Callee returns the called Method of a ValueKindCall.
func (v *Value) Callee() *Method {
	return v.callee
}

// BinaryOp returns the operation of a ValueKindBinary.
func (v *Value) BinaryOp() BinaryOp {
	return v.binaryOp
}

// UnaryOp returns the operation of a ValueKindUnary. It reinterprets the
// same underlying opcode field Binary uses, since a Value never needs both
// at once.
func (v *Value) UnaryOp() UnaryOp {
	return UnaryOp(v.binaryOp)
}

// Immediate returns the raw bit pattern of a ValueKindConstant, or the byte
// offset of a ValueKindLoad/ValueKindStore.
func (v *Value) Immediate() uint64 {
	return v.immediate
}

// Rebuild clones v into a new method via mb, remapping each operand through
// rebuild. Used for inlining/specialisation (spec.md §4.1).
func (v *Value) Rebuild(mb *MethodBuilder, rebuild func(*Value) *Value) (*Value, error) {
	if v.kind == ValueKindBuilderTerminator {
		return nil, newError(Incompatible, "cannot Rebuild a transient BuilderTerminator; it must be replaced first")
	}
	clone := mb.m.allocValue(v.kind, v.typ)
	clone.debugName = v.debugName
	clone.binaryOp = v.binaryOp
	clone.immediate = v.immediate
	clone.callee = v.callee

	ops := make([]ValueReference, len(v.operands))
	for i, op := range v.operands {
		if !op.Valid() {
			continue
		}
		ops[i] = RefTo(rebuild(op.ResolvedTarget()))
	}
	clone.seal(ops)
	return clone, nil
}

// Accept is the double-dispatch hook for passes: rather than a virtual-call
// visitor (impossible without inheritance), it performs an exhaustive switch
// on Kind, per spec.md §9's re-architecture note.
func (v *Value) Accept(vis Visitor) error {
	switch v.kind {
	case ValueKindParameter:
		vis.VisitParameter(v)
	case ValueKindNull:
		vis.VisitNull(v)
	case ValueKindConstant:
		vis.VisitConstant(v)
	case ValueKindBinary:
		vis.VisitBinary(v)
	case ValueKindUnary:
		vis.VisitUnary(v)
	case ValueKindLoad:
		vis.VisitLoad(v)
	case ValueKindStore:
		vis.VisitStore(v)
	case ValueKindCall:
		vis.VisitCall(v)
	case ValueKindPredicate:
		vis.VisitPredicate(v)
	case ValueKindBranchTarget:
		vis.VisitBranchTarget(v)
	case ValueKindReturn:
		vis.VisitReturn(v)
	case ValueKindUnconditionalBranch:
		vis.VisitUnconditionalBranch(v)
	case ValueKindConditionalBranch:
		vis.VisitConditionalBranch(v)
	case ValueKindSwitchBranch:
		vis.VisitSwitchBranch(v)
	case ValueKindBuilderTerminator:
		return newError(Internal, "Accept called on a transient BuilderTerminator; must be replaced before any analysis runs")
	default:
		return newError(Internal, "unhandled ValueKind %d in Accept", v.kind)
	}
	return nil
}

// Visitor is the exhaustive set of per-kind callbacks Accept dispatches to.
type Visitor interface {
	VisitParameter(*Value)
	VisitNull(*Value)
	VisitConstant(*Value)
	VisitBinary(*Value)
	VisitUnary(*Value)
	VisitLoad(*Value)
	VisitStore(*Value)
	VisitCall(*Value)
	VisitPredicate(*Value)
	VisitBranchTarget(*Value)
	VisitReturn(*Value)
	VisitUnconditionalBranch(*Value)
	VisitConditionalBranch(*Value)
	VisitSwitchBranch(*Value)
}

// String renders a short debug form used by tests/goldens only (spec.md §6).
func (v *Value) String() string {
	return fmt.Sprintf("%s%d", v.kind, v.id)
}

// ValueReference is an operand handle: a Value plus implicit resolution
// through the replacement chain. ValueReferences are what Node.Operands
// stores so that in-place rewrites (Replace) propagate without rewalking the
// graph (spec.md §3/§9).
type ValueReference struct {
	target *Value
}

// RefTo builds a ValueReference pointing directly at v.
func RefTo(v *Value) ValueReference { return ValueReference{target: v} }

// Valid reports whether this reference points anywhere.
func (r ValueReference) Valid() bool { return r.target != nil }

// DirectTarget returns the value as originally stored, without following any
// replacement chain — needed at call sites that must observe the literal
// operand as written (spec.md §9).
func (r ValueReference) DirectTarget() *Value { return r.target }

// ResolvedTarget walks the replacement chain to the value that should now be
// treated as this reference's definition. This is what most call sites want.
func (r ValueReference) ResolvedTarget() *Value {
	if r.target == nil {
		return nil
	}
	return r.target.ResolvedTarget()
}
