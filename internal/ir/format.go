package ir

import (
	"fmt"
	"strings"
)

// FormatValue renders a value's debug string; most kinds render as
// "<type> <kind><id> = <op> <operands>", while parameters, constants, null
// values, branch targets and terminators have their own shorter forms,
// mirroring the teacher's Value.Format (ssa/vs.go) but adapted to the
// reference-based operand model here instead of a packed-uint64 Value.
func FormatValue(v *Value) string {
	switch v.kind {
	case ValueKindParameter:
		name := v.debugName
		if name == "" {
			name = fmt.Sprintf("param%d", v.paramIndex)
		}
		return fmt.Sprintf("%s %s", v.typ, name)
	case ValueKindNull:
		return fmt.Sprintf("%s null", v.typ)
	case ValueKindConstant:
		return fmt.Sprintf("%s %#x", v.typ, v.immediate)
	case ValueKindBranchTarget:
		args := formatOperands(v.operands)
		return fmt.Sprintf("-> %s(%s)", v.destBlock.id, args)
	case ValueKindReturn:
		if len(v.operands) == 0 {
			return "ret"
		}
		return fmt.Sprintf("ret %s", formatOperands(v.operands))
	case ValueKindUnconditionalBranch:
		return FormatValue(v.targets[0])
	case ValueKindConditionalBranch:
		return fmt.Sprintf("cbr %s, %s, %s", formatOperands(v.operands), FormatValue(v.targets[0]), FormatValue(v.targets[1]))
	case ValueKindSwitchBranch:
		parts := make([]string, len(v.targets))
		for i, t := range v.targets {
			parts[i] = FormatValue(t)
		}
		return fmt.Sprintf("switch %s [%s]", formatOperands(v.operands), strings.Join(parts, ", "))
	case ValueKindBinary:
		return fmt.Sprintf("%s %s = %s %s", v.typ, v, v.binaryOp, formatOperands(v.operands))
	case ValueKindPredicate:
		return fmt.Sprintf("%s %s = predicate %s", v.typ, v, formatOperands(v.operands))
	case ValueKindCall:
		name := ""
		if v.callee != nil {
			name = v.callee.name
		}
		return fmt.Sprintf("%s %s = call %s(%s)", v.typ, v, name, formatOperands(v.operands))
	default:
		return fmt.Sprintf("%s %s = %s %s", v.typ, v, v.kind, formatOperands(v.operands))
	}
}

func formatOperands(refs []ValueReference) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		if !r.Valid() {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = r.ResolvedTarget().String()
	}
	return strings.Join(parts, ", ")
}

// FormatBlock renders a full block: header line followed by one line per
// body value and its terminator, matching the teacher's layout in
// builder.Format (ssa/builder.go).
func FormatBlock(b BasicBlock) string {
	bb := b.(*basicBlock)
	var sb strings.Builder
	sb.WriteString(bb.FormatHeader())
	sb.WriteByte('\n')
	for v := bb.bodyHead; v != nil; v = v.next {
		sb.WriteString("\t")
		sb.WriteString(FormatValue(v))
		sb.WriteByte('\n')
	}
	if bb.terminator != nil {
		sb.WriteString("\t")
		sb.WriteString(FormatValue(bb.terminator))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatMethod renders every block of m in declaration order.
func FormatMethod(m *Method) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("func %s(", m.name))
	params := make([]string, m.sig.Len())
	for i, p := range m.sig.All() {
		params[i] = FormatValue(p)
	}
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(fmt.Sprintf(") %s\n", m.result))
	for _, b := range m.order {
		if b.disposed {
			continue
		}
		sb.WriteString(FormatBlock(b))
	}
	return sb.String()
}
