package ir

import "fmt"

// NodeID is the unique, monotonically assigned identifier of every Node in
// an IR Context (spec.md §3: "a unique id (monotonically assigned per IR
// context)").
type NodeID uint32

const invalidNodeID NodeID = ^NodeID(0)

// BasicBlockID is the unique id of a BasicBlock within its Method.
type BasicBlockID uint32

func (id BasicBlockID) String() string {
	return fmt.Sprintf("blk%d", uint32(id))
}

// MethodID is the unique id of a Method within an IR Context.
type MethodID uint32
