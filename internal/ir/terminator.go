package ir

import "github.com/kernelforge/kernelir/internal/types"

// CreateReturn builds and installs a ValueKindReturn terminator. value must
// be nil iff the Method's ResultType is types.Void (spec.md §4.3 edge case:
// "a Return's argument count must match the function's void-ness").
func (b *BlockBuilder) CreateReturn(value *Value) (*Value, error) {
	result := b.mb.m.result
	if result.IsVoid() {
		if value != nil {
			return nil, newError(InvalidArgument, "function %q is void, Return must not carry a value", b.mb.m.name)
		}
	} else {
		if value == nil {
			return nil, newError(InvalidArgument, "function %q returns %s, Return requires a value", b.mb.m.name, result)
		}
		if !value.typ.Equal(result) {
			return nil, newError(InvalidArgument, "function %q returns %s, got %s", b.mb.m.name, result, value.typ)
		}
	}
	v := b.mb.m.allocValue(ValueKindReturn, types.Void)
	var refs []ValueReference
	if value != nil {
		refs = []ValueReference{RefTo(value)}
	}
	v.seal(refs)
	if err := b.SetTerminator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateUnconditionalBranch installs a single-target branch through an
// already-sealed BranchTarget (spec.md §4.4).
func (b *BlockBuilder) CreateUnconditionalBranch(target *Value) (*Value, error) {
	if target.kind != ValueKindBranchTarget {
		return nil, newError(InvalidArgument, "CreateUnconditionalBranch requires a branch target value")
	}
	v := b.mb.m.allocValue(ValueKindUnconditionalBranch, types.Void)
	v.targets = []*Value{target}
	v.seal(nil)
	if err := b.SetTerminator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateConditionalBranch installs a two-way branch. cond must have type
// types.I1 (spec.md §8 property 3: "every branching condition is Int1").
func (b *BlockBuilder) CreateConditionalBranch(cond *Value, trueTarget, falseTarget *Value) (*Value, error) {
	if !cond.typ.Equal(types.I1) {
		return nil, newError(InvalidArgument, "conditional branch condition must be i1, got %s", cond.typ)
	}
	if trueTarget.kind != ValueKindBranchTarget || falseTarget.kind != ValueKindBranchTarget {
		return nil, newError(InvalidArgument, "CreateConditionalBranch requires branch target values")
	}
	v := b.mb.m.allocValue(ValueKindConditionalBranch, types.Void)
	v.targets = []*Value{trueTarget, falseTarget}
	v.seal([]ValueReference{RefTo(cond)})
	if err := b.SetTerminator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateSwitchBranch installs an N-way integer switch: defaultTarget is
// targets[0], and cases follow in order, selected by case index 1..N
// matching index's value (spec.md §4.5). A switch with exactly one case is
// rewritten at construction into a conditional branch on index == 0, true
// going to defaultTarget and false to the case target (spec.md §4.6 "Switch
// lowering": "a switch with exactly two targets is rewritten at construction
// into a conditional branch ... this is a constructor-time canonicalisation,
// not a pass").
func (b *BlockBuilder) CreateSwitchBranch(index *Value, defaultTarget *Value, caseTargets ...*Value) (*Value, error) {
	if defaultTarget.kind != ValueKindBranchTarget {
		return nil, newError(InvalidArgument, "CreateSwitchBranch requires branch target values")
	}
	if len(caseTargets) == 0 {
		return nil, newError(InvalidArgument, "CreateSwitchBranch requires at least one case target")
	}
	for i, t := range caseTargets {
		if t.kind != ValueKindBranchTarget {
			return nil, newError(InvalidArgument, "case target %d is not a branch target value", i)
		}
	}
	if !index.typ.BasicValueType().IsInt() {
		return nil, newError(InvalidArgument, "switch index must be an integer type, got %s", index.typ)
	}

	if len(caseTargets) == 1 {
		return b.createDegenerateSwitch(index, defaultTarget, caseTargets[0])
	}

	v := b.mb.m.allocValue(ValueKindSwitchBranch, types.Void)
	v.targets = append([]*Value{defaultTarget}, caseTargets...)
	v.seal([]ValueReference{RefTo(index)})
	if err := b.SetTerminator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// createDegenerateSwitch builds the index == 0 comparison and installs it as
// a ConditionalBranch in place of a two-target switch.
func (b *BlockBuilder) createDegenerateSwitch(index, defaultTarget, caseTarget *Value) (*Value, error) {
	zero, err := b.AddConstant(index.typ, 0)
	if err != nil {
		return nil, err
	}
	cond, err := b.AddBinary(BinaryOpICmpEq, types.I1, index, zero)
	if err != nil {
		return nil, err
	}
	return b.CreateConditionalBranch(cond, defaultTarget, caseTarget)
}
