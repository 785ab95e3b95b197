package ir

import "github.com/kernelforge/kernelir/internal/types"

// UnaryOp selects the operation of a ValueKindUnary value.
type UnaryOp uint8

const (
	UnaryOpInvalid UnaryOp = iota
	UnaryOpNeg
	UnaryOpNot
)

func (o UnaryOp) String() string {
	switch o {
	case UnaryOpNeg:
		return "neg"
	case UnaryOpNot:
		return "not"
	default:
		return "invalid_unary"
	}
}

// newBodyValue allocates and validates placement of a new non-terminator
// body value, shared by every typed constructor below. The body is kept
// apart from the terminator, so a value may be appended to a block that is
// already terminated; it still precedes the terminator.
func (b *BlockBuilder) newBodyValue(kind ValueKind) (*Value, error) {
	if b.blk.disposed {
		return nil, newError(InvalidState, "block %s is disposed", b.blk.id)
	}
	v := b.mb.m.allocValue(kind, types.Void)
	v.blk = b.blk
	return v, nil
}

func (b *BlockBuilder) finish(v *Value, t types.Handle, operands ...*Value) (*Value, error) {
	v.typ = t
	refs := make([]ValueReference, len(operands))
	for i, o := range operands {
		if o == nil {
			return nil, newError(InvalidArgument, "operand %d of new %s value is nil", i, v.kind)
		}
		refs[i] = RefTo(o)
	}
	v.seal(refs)
	if v.kind.hasSideEffect() {
		b.blk.sideEffects = true
	}
	b.appendBody(v)
	return v, nil
}

// AddBinary appends a two-operand arithmetic/comparison value.
func (b *BlockBuilder) AddBinary(op BinaryOp, t types.Handle, lhs, rhs *Value) (*Value, error) {
	v, err := b.newBodyValue(ValueKindBinary)
	if err != nil {
		return nil, err
	}
	v.binaryOp = op
	return b.finish(v, t, lhs, rhs)
}

// AddUnary appends a one-operand arithmetic value.
func (b *BlockBuilder) AddUnary(op UnaryOp, t types.Handle, x *Value) (*Value, error) {
	v, err := b.newBodyValue(ValueKindUnary)
	if err != nil {
		return nil, err
	}
	v.binaryOp = BinaryOp(op) // shares the opcode field; distinguished by Kind
	return b.finish(v, t, x)
}

// AddConstant returns an integer or float literal carrying the given raw
// bit pattern. Like a function parameter, a constant has no parent block:
// it is not appended to this block's body.
func (b *BlockBuilder) AddConstant(t types.Handle, immediate uint64) (*Value, error) {
	if b.blk.disposed {
		return nil, newError(InvalidState, "block %s is disposed", b.blk.id)
	}
	v := b.mb.m.allocValue(ValueKindConstant, t)
	v.immediate = immediate
	v.seal(nil)
	return v, nil
}

// AddNull returns a null/zero value of type t. Like a constant, it has no
// parent block and is not appended to this block's body.
func (b *BlockBuilder) AddNull(t types.Handle) (*Value, error) {
	if b.blk.disposed {
		return nil, newError(InvalidState, "block %s is disposed", b.blk.id)
	}
	v := b.mb.m.allocValue(ValueKindNull, t)
	v.seal(nil)
	return v, nil
}

// AddLoad appends a read of type t from base+offset.
func (b *BlockBuilder) AddLoad(t types.Handle, base *Value, offset uint64) (*Value, error) {
	v, err := b.newBodyValue(ValueKindLoad)
	if err != nil {
		return nil, err
	}
	v.immediate = offset
	return b.finish(v, t, base)
}

// AddStore appends a write of value to base+offset.
func (b *BlockBuilder) AddStore(value, base *Value, offset uint64) (*Value, error) {
	v, err := b.newBodyValue(ValueKindStore)
	if err != nil {
		return nil, err
	}
	v.immediate = offset
	return b.finish(v, types.Void, value, base)
}

// AddCall appends an invocation of callee with args, producing a value of
// callee's declared result type.
func (b *BlockBuilder) AddCall(callee *Method, args ...*Value) (*Value, error) {
	if len(args) != callee.sig.Len() {
		return nil, newError(InvalidArgument, "call to %q supplies %d argument(s), expected %d", callee.name, len(args), callee.sig.Len())
	}
	v, err := b.newBodyValue(ValueKindCall)
	if err != nil {
		return nil, err
	}
	v.callee = callee
	return b.finish(v, callee.result, args...)
}

// AddPredicate appends select(condition, trueValue, falseValue); condition
// must be i1 (spec.md §8 property 3).
func (b *BlockBuilder) AddPredicate(t types.Handle, condition, trueValue, falseValue *Value) (*Value, error) {
	if !condition.typ.Equal(types.I1) {
		return nil, newError(InvalidArgument, "predicate condition must be i1, got %s", condition.typ)
	}
	v, err := b.newBodyValue(ValueKindPredicate)
	if err != nil {
		return nil, err
	}
	return b.finish(v, t, condition, trueValue, falseValue)
}
