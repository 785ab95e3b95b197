package ir

import (
	"sync"

	"github.com/kernelforge/kernelir/internal/arena"
	"github.com/kernelforge/kernelir/internal/types"
)

// Context owns every Method compiled in one invocation of kernelir: it hands
// out monotonic NodeIDs across all of them (spec.md §3: "a unique id
// (monotonically assigned per IR context)") and is the unit a CLI invocation
// or an embedding program constructs once and reuses.
type Context struct {
	mu       sync.Mutex
	nextNode NodeID
	nextMeth MethodID
	methods  []*Method
}

// NewContext returns a fresh, empty Context.
func NewContext() *Context {
	return &Context{}
}

// nextNodeID returns the next globally unique NodeID, guarded by mu so that
// concurrently-compiled methods sharing one Context never collide (spec.md
// §9: "method compilation may proceed concurrently against one context").
func (c *Context) nextNodeID() NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextNode
	c.nextNode++
	return id
}

// NewMethod declares a new Method with the given signature and returns it
// unsealed, ready for a single MethodBuilder to populate via CreateBuilder.
func (c *Context) NewMethod(name string, paramTypes []types.Handle, result types.Handle) *Method {
	c.mu.Lock()
	id := c.nextMeth
	c.nextMeth++
	c.mu.Unlock()

	m := &Method{
		id:     id,
		name:   name,
		ctx:    c,
		result: result,
	}
	m.values = arena.NewPool[Value]()
	m.blocks = arena.NewPool[basicBlock]()
	initParameterCollection(&m.sig, m)
	for _, t := range paramTypes {
		if _, err := m.NewParameter(t, ""); err != nil {
			panic("BUG: declaring a signature parameter cannot fail: " + err.Error())
		}
	}

	c.mu.Lock()
	c.methods = append(c.methods, m)
	c.mu.Unlock()
	return m
}

// Method is a single compiled function: a signature, a Context-owned arena
// of Values and basicBlocks, and an ordered block list (spec.md §3/§5).
// Exactly one MethodBuilder may be checked out against a Method at a time
// (spec.md §9's single-builder-per-method handshake).
type Method struct {
	id     MethodID
	name   string
	ctx    *Context
	result types.Handle
	sig    ParameterCollection

	values arena.Pool[Value]
	blocks arena.Pool[basicBlock]

	order []*basicBlock // declaration order, including disposed blocks

	builderOut bool // true while a MethodBuilder is checked out
	builderMu  sync.Mutex
}

// ID returns the Method's unique id within its Context.
func (m *Method) ID() MethodID { return m.id }

// Name returns the declared function name.
func (m *Method) Name() string { return m.name }

// ResultType returns the declared return type, or types.Void for a function
// with no return value.
func (m *Method) ResultType() types.Handle { return m.result }

// Params exposes the function's parameters as the Method's own
// ParameterCollection. The returned collection is not a copy: its mutators
// (Add, InsertAtFront, Remove, ...) change the signature directly, whether or
// not a builder is checked out.
func (m *Method) Params() *ParameterCollection { return &m.sig }

// NewParameter implements ParameterOwner for the function signature itself.
func (m *Method) NewParameter(t types.Handle, name string) (*Value, error) {
	p := m.allocValue(ValueKindParameter, t)
	p.debugName = name
	p.seal(nil)
	m.sig.append(p)
	return p, nil
}

// OnParameterRemoved implements ParameterOwner and does nothing:
// ParameterCollection has already renumbered the remaining parameters, and
// existing ir.Values of kind Call against this Method keep their operand
// lists unchanged.
func (m *Method) OnParameterRemoved(*Value, int) error {
	return nil
}

// Blocks returns every basic block in declaration order. The entry block is
// always order[0].
func (m *Method) Blocks() []BasicBlock {
	out := make([]BasicBlock, len(m.order))
	for i, b := range m.order {
		out[i] = b
	}
	return out
}

// EntryBlock returns the function's unique entry block.
func (m *Method) EntryBlock() BasicBlock {
	if len(m.order) == 0 {
		return nil
	}
	return m.order[0]
}

// allocValue allocates and minimally initializes a Value from this Method's
// arena, mirroring the teacher's builder.allocateValue.
func (m *Method) allocValue(kind ValueKind, t types.Handle) *Value {
	v := m.values.Allocate()
	v.id = m.ctx.nextNodeID()
	v.kind = kind
	v.typ = t
	v.paramIndex = -1
	v.prev, v.next = nil, nil
	v.operands = nil
	v.replacement = nil
	v.sealed = false
	v.blk = nil
	v.targets = nil
	v.destBlock = nil
	v.callee = nil
	v.binaryOp = BinaryOpInvalid
	v.immediate = 0
	v.debugName = ""
	return v
}

// newBasicBlock allocates a fresh, empty, unparented basicBlock from this
// Method's arena and appends it to the declaration order.
func (m *Method) newBasicBlock() *basicBlock {
	bb := m.blocks.Allocate()
	bb.id = BasicBlockID(len(m.order))
	bb.method = m
	bb.bodyHead, bb.bodyTail = nil, nil
	bb.terminator = nil
	bb.incoming = nil
	bb.disposed = false
	bb.sideEffects = false
	initParameterCollection(&bb.params, bb)
	m.order = append(m.order, bb)
	return bb
}

// CreateBuilder checks out the single MethodBuilder allowed to mutate this
// Method at a time (spec.md §9). Calling CreateBuilder again before the
// first MethodBuilder's Dispose returns InvalidState.
func (m *Method) CreateBuilder() (*MethodBuilder, error) {
	m.builderMu.Lock()
	defer m.builderMu.Unlock()
	if m.builderOut {
		return nil, newError(InvalidState, "method %q already has a builder checked out", m.name)
	}
	m.builderOut = true
	return &MethodBuilder{m: m}, nil
}

// MethodBuilder is the mutation surface for a Method: creating blocks,
// wiring terminators, and finally releasing the exclusive lock Method
// enforces (spec.md §9).
type MethodBuilder struct {
	m        *Method
	disposed bool
}

// Method returns the Method this builder is checked out against.
func (mb *MethodBuilder) Method() *Method { return mb.m }

// CreateBlock declares a new, empty basic block and returns a BlockBuilder
// to populate it.
func (mb *MethodBuilder) CreateBlock() (*BlockBuilder, error) {
	if mb.disposed {
		return nil, newError(InvalidState, "builder for method %q already disposed", mb.m.name)
	}
	bb := mb.m.newBasicBlock()
	return &BlockBuilder{mb: mb, blk: bb}, nil
}

// BuilderFor returns a BlockBuilder over an already-existing block, for
// transform passes that need to rewrite a block discovered through
// analysis rather than one they just created.
func (mb *MethodBuilder) BuilderFor(b BasicBlock) (*BlockBuilder, error) {
	bb, ok := b.(*basicBlock)
	if !ok || bb.method != mb.m {
		return nil, newError(InvalidArgument, "block does not belong to method %q", mb.m.name)
	}
	return &BlockBuilder{mb: mb, blk: bb}, nil
}

// Dispose releases this builder's exclusive lock on the Method, committing
// every change made through it: every Replace'd parameter — function or
// block — is dropped and, for a block parameter, the matching argument is
// stripped from every live predecessor BranchTarget (spec.md §4.3 "Dispose
// commits: drop replaced parameters, map branch-target arguments ... apply
// scheduled removals"; §8 boundary behavior "removing a parameter while its
// target arguments are live drops the arguments on builder disposal"). A
// disposed builder must not be used again.
func (mb *MethodBuilder) Dispose() error {
	if mb.disposed {
		return nil
	}
	for _, bb := range mb.m.order {
		if bb.disposed {
			continue
		}
		if err := bb.params.PerformRemoval(); err != nil {
			return err
		}
	}
	if err := mb.m.sig.PerformRemoval(); err != nil {
		return err
	}

	mb.m.builderMu.Lock()
	mb.m.builderOut = false
	mb.m.builderMu.Unlock()
	mb.disposed = true
	return nil
}
