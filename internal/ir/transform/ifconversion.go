package transform

import (
	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/ir/analysis"
)

// Config tunes how aggressively IfConversion collapses diamond regions into
// straight-line code. Both fields must be >= 1; NewConfig validates that and
// returns InvalidArgument otherwise, since a zero-size budget can never admit
// even the smallest non-empty arm.
type Config struct {
	// MaxBlockSize caps the number of body values either arm of an if/else
	// diamond may contain to still be converted.
	MaxBlockSize int
	// MaxSizeDifference caps how much the two arms' sizes may differ.
	MaxSizeDifference int
}

// DefaultConfig returns the conservative default: tiny, balanced diamonds
// only, so conversion never turns a cheap branch into meaningfully more
// unconditional work on the common path.
func DefaultConfig() Config {
	return Config{MaxBlockSize: 2, MaxSizeDifference: 1}
}

// NewConfig validates cfg, returning InvalidArgument if either field is out
// of range.
func NewConfig(maxBlockSize, maxSizeDifference int) (Config, error) {
	if maxBlockSize < 1 {
		return Config{}, ir.NewInvalidArgument("MaxBlockSize must be >= 1, got %d", maxBlockSize)
	}
	if maxSizeDifference < 1 {
		return Config{}, ir.NewInvalidArgument("MaxSizeDifference must be >= 1, got %d", maxSizeDifference)
	}
	return Config{MaxBlockSize: maxBlockSize, MaxSizeDifference: maxSizeDifference}, nil
}

// IfConversionPass rewrites every simple if/else diamond in a method into
// straight-line code: both arms' bodies are duplicated into the header, and
// the merge block's parameters are replaced by Predicate values selecting
// between the two arms' results on the original condition. This trades a
// branch for unconditional execution of both arms, so it is only applied
// where Config bounds the arms are small and balanced enough for that to be
// worthwhile (spec.md §4.6).
type IfConversionPass struct {
	Config Config
}

func (p *IfConversionPass) Name() string { return "if-conversion" }

// Run applies the pass, converting every eligible diamond exactly once. It
// does not re-scan after converting, so nested diamonds beyond the first
// layer require a second Run (e.g. via a fixed-point driver in RunPasses's
// caller) to fully flatten.
func (p *IfConversionPass) Run(mb *ir.MethodBuilder) error {
	scope, err := ir.NewScope(mb.Method())
	if err != nil {
		return err
	}
	cfg := analysis.BuildCFG(scope)
	dominators := analysis.ComputeDominators(cfg)
	infos := analysis.Create(dominators)

	for _, info := range infos.All() {
		if !info.IsSimpleIf(p.Config.MaxBlockSize, p.Config.MaxSizeDifference) {
			continue
		}
		if err := convertOne(mb, info); err != nil {
			return err
		}
	}
	return nil
}

// convertOne performs the six-step rewrite for a single diamond (spec.md
// §4.6):
//  1. Clone the true arm's body into the header, remapping operands through
//     a per-conversion substitution map.
//  2. Clone the false arm's body into the header the same way.
//  3. For each merge-block parameter, fetch the (trueValue, falseValue)
//     pair the two arms supplied, remapped through the same substitution.
//  4. Emit a Predicate(cond, trueValue', falseValue') value in the header
//     for each merge parameter and Replace the parameter with it.
//  5. Drop the now-replaced parameters, point the header at the merge block
//     with an unconditional branch, and dispose both arms, now unreachable.
//  6. Merge the (now zero-parameter, single-predecessor) merge block into
//     the header, which also takes over its terminator — collapsing the
//     whole diamond down to the single header block, per "merge exitBlock
//     into entryBlock without importing its (now-replaced) parameters."
func convertOne(mb *ir.MethodBuilder, info *analysis.IfInfo) error {
	hb, err := mb.BuilderFor(info.Header)
	if err != nil {
		return err
	}

	mapping := make(map[*ir.Value]*ir.Value)
	rebuildOne := func(v *ir.Value) *ir.Value {
		if r, ok := mapping[v]; ok {
			return r
		}
		return v
	}
	cloneArmInto := func(arm ir.BasicBlock) error {
		for _, v := range arm.Body() {
			clone, err := v.Rebuild(mb, rebuildOne)
			if err != nil {
				return err
			}
			if err := hb.AppendRebuilt(clone); err != nil {
				return err
			}
			mapping[v] = clone
		}
		return nil
	}
	if err := cloneArmInto(info.TrueBlock); err != nil {
		return err
	}
	if err := cloneArmInto(info.FalseBlock); err != nil {
		return err
	}

	n := info.MergeBlock.ParamCount()
	for i := 0; i < n; i++ {
		trueVal, falseVal := info.Variable(i)
		trueVal, falseVal = rebuildOne(trueVal), rebuildOne(falseVal)
		pv, err := hb.AddPredicate(info.MergeBlock.Param(i).Type(), info.Cond, trueVal, falseVal)
		if err != nil {
			return err
		}
		if err := info.MergeBlock.Param(i).Replace(pv); err != nil {
			return err
		}
	}

	mergeB, err := mb.BuilderFor(info.MergeBlock)
	if err != nil {
		return err
	}
	if err := mergeB.PerformParameterRemoval(); err != nil {
		return err
	}

	target, err := hb.NewBranchTargetBuilder(info.MergeBlock).Seal()
	if err != nil {
		return err
	}
	if _, err := hb.CreateUnconditionalBranch(target); err != nil {
		return err
	}

	trueB, err := mb.BuilderFor(info.TrueBlock)
	if err != nil {
		return err
	}
	if err := trueB.Dispose(); err != nil {
		return err
	}
	falseB, err := mb.BuilderFor(info.FalseBlock)
	if err != nil {
		return err
	}
	if err := falseB.Dispose(); err != nil {
		return err
	}

	return hb.MergeBlock(false)
}
