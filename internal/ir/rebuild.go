package ir

import "github.com/kernelforge/kernelir/internal/types"

// RebuildMethod clones src into a fresh Method of the same signature with a
// single identity parameter mapping: every block is recreated in declaration
// order, every body value via Value.Rebuild, and every terminator
// reconstructed through the normal Create* constructors so construction-time
// canonicalisation (e.g. the degenerate-switch rewrite) still applies to the
// clone exactly as it would to a hand-built method. This exercises the
// round-trip law (spec.md §8: "Rebuild from method M into fresh method M'
// with identity parameter mapping yields M' isomorphic to M (same CFG shape,
// same value kinds, same operand graph up to node identity)").
func RebuildMethod(ctx *Context, src *Method) (*Method, error) {
	paramTypes := make([]types.Handle, src.sig.Len())
	for i, p := range src.sig.All() {
		paramTypes[i] = p.Type()
	}
	dst := ctx.NewMethod(src.name, paramTypes, src.result)
	mb, err := dst.CreateBuilder()
	if err != nil {
		return nil, err
	}

	values := make(map[*Value]*Value)
	for i, p := range src.sig.All() {
		values[p] = dst.sig.At(i)
	}

	builders := make(map[*basicBlock]*BlockBuilder, len(src.order))
	newBlocks := make(map[*basicBlock]*basicBlock, len(src.order))
	for _, b := range src.order {
		nb, err := mb.CreateBlock()
		if err != nil {
			return nil, err
		}
		builders[b] = nb
		newBlocks[b] = nb.blk
		for i := 0; i < b.ParamCount(); i++ {
			old := b.Param(i)
			np, err := nb.AddParameter(old.Type(), old.Name())
			if err != nil {
				return nil, err
			}
			values[old] = np
		}
	}

	rebuildValue := func(v *Value) *Value {
		if r, ok := values[v]; ok {
			return r
		}
		return v
	}
	rebuildTarget := func(nb *BlockBuilder, t *Value) (*Value, error) {
		tb := nb.NewBranchTargetBuilder(newBlocks[t.destBlock])
		for _, a := range t.Arguments() {
			if !a.Valid() {
				continue
			}
			if err := tb.AddArgument(rebuildValue(a.ResolvedTarget())); err != nil {
				return nil, err
			}
		}
		return tb.Seal()
	}

	for _, b := range src.order {
		nb := builders[b]
		for _, v := range b.Body() {
			clone, err := v.Rebuild(mb, rebuildValue)
			if err != nil {
				return nil, err
			}
			if err := nb.AppendRebuilt(clone); err != nil {
				return nil, err
			}
			values[v] = clone
		}

		term := b.Terminator()
		switch term.Kind() {
		case ValueKindReturn:
			var result *Value
			if ops := term.Operands(); len(ops) == 1 && ops[0].Valid() {
				result = rebuildValue(ops[0].ResolvedTarget())
			}
			if _, err := nb.CreateReturn(result); err != nil {
				return nil, err
			}
		case ValueKindUnconditionalBranch:
			target, err := rebuildTarget(nb, term.Targets()[0])
			if err != nil {
				return nil, err
			}
			if _, err := nb.CreateUnconditionalBranch(target); err != nil {
				return nil, err
			}
		case ValueKindConditionalBranch:
			cond := rebuildValue(term.Operands()[0].ResolvedTarget())
			tTarget, err := rebuildTarget(nb, term.Targets()[0])
			if err != nil {
				return nil, err
			}
			fTarget, err := rebuildTarget(nb, term.Targets()[1])
			if err != nil {
				return nil, err
			}
			if _, err := nb.CreateConditionalBranch(cond, tTarget, fTarget); err != nil {
				return nil, err
			}
		case ValueKindSwitchBranch:
			idx := rebuildValue(term.Operands()[0].ResolvedTarget())
			targets := term.Targets()
			def, err := rebuildTarget(nb, targets[0])
			if err != nil {
				return nil, err
			}
			cases := make([]*Value, len(targets)-1)
			for i, t := range targets[1:] {
				ct, err := rebuildTarget(nb, t)
				if err != nil {
					return nil, err
				}
				cases[i] = ct
			}
			if _, err := nb.CreateSwitchBranch(idx, def, cases...); err != nil {
				return nil, err
			}
		default:
			return nil, newError(Incompatible, "cannot Rebuild a %s terminator", term.Kind())
		}
	}

	if err := mb.Dispose(); err != nil {
		return nil, err
	}
	return dst, nil
}
