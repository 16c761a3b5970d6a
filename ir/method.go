package ir

// BasicBlock is an ordered sequence of values terminated by one
// terminator value.
type BasicBlock struct {
	// Ordinal is this block's unique position within the method; used
	// as the state-machine lowering's switch selector value.
	Ordinal int
	// Values lists, in textual order, the handles of every Value
	// defined in this block. The last entry's Op must be a terminator
	// (Return, BranchUnconditional, BranchIf, or BranchSwitch).
	Values []ValueHandle
}

// Terminator returns the handle of the block's terminating value.
// Panics if the block has no values (malformed IR).
func (b BasicBlock) Terminator() ValueHandle {
	return b.Values[len(b.Values)-1]
}

// Param is a method parameter: an SSA value with a positional index.
type Param struct {
	Name string
	Type TypeHandle
}

// MethodGraph is a finite set of basic blocks with an entry.
type MethodGraph struct {
	Name string

	// Types is this method's type arena. TypeHandle values index here.
	// Index 0 is reserved for TypeVoid and need not be populated.
	Types []Type

	Params []Param
	Result TypeHandle // TypeVoid for a void-returning method

	// Values is the flat SSA value arena; ValueHandle indexes here.
	Values []Value

	Blocks []BasicBlock
	Entry  BlockHandle

	// External marks a method as an external/intrinsic declaration with
	// no body to emit; the Function Emitter skips it.
	External bool

	// Intrinsic, if non-nil, identifies this method as a registered
	// intrinsic. The Function Emitter skips it like External; the
	// Intrinsic Router shortcuts Call values that target it to a direct
	// WGSL built-in instead of a function call.
	Intrinsic *IntrinsicID
}

// IntrinsicID enumerates the intrinsics the Intrinsic Router recognizes
// by call-target identity rather than by re-deriving an opcode mapping.
type IntrinsicID uint8

const (
	IntrinsicAbs IntrinsicID = iota
	IntrinsicSign
	IntrinsicMin
	IntrinsicMax
	IntrinsicClamp
	IntrinsicPow
	IntrinsicFma
	IntrinsicAtan2
	IntrinsicRcp
	IntrinsicRsqrt
	IntrinsicSqrt
	IntrinsicFloor
	IntrinsicCeil
	IntrinsicRound
)

// Block returns the basic block for the given handle.
func (m *MethodGraph) Block(h BlockHandle) *BasicBlock { return &m.Blocks[h] }

// Value returns the SSA value for the given handle.
func (m *MethodGraph) Value(h ValueHandle) *Value { return &m.Values[h] }

// Type resolves a TypeHandle to its Type node. TypeVoid resolves to the
// zero Type (Inner == nil).
func (m *MethodGraph) Type(h TypeHandle) Type {
	if h == TypeVoid {
		return Type{}
	}
	return m.Types[h]
}

// Successors returns the blocks a block's terminator may transfer
// control to, in a stable order (true-then-false for BranchIf, case
// order then default for BranchSwitch).
func (m *MethodGraph) Successors(b BlockHandle) []BlockHandle {
	term := m.Value(m.Block(b).Terminator())
	switch op := term.Op.(type) {
	case BranchUnconditional:
		return []BlockHandle{op.Target}
	case BranchIf:
		return []BlockHandle{op.True, op.False}
	case BranchSwitch:
		out := make([]BlockHandle, 0, len(op.Cases)+1)
		for _, c := range op.Cases {
			out = append(out, c.Target)
		}
		return append(out, op.Default)
	default:
		return nil
	}
}

// KernelIndexType describes the declared dimensionality of a compute
// entry point's index parameter.
type KernelIndexType uint8

const (
	KernelIndexNone KernelIndexType = iota
	KernelIndex1D
	KernelIndex2D
	KernelIndex3D
)

// SharedAllocSpec describes a workgroup-shared memory allocation.
type SharedAllocSpec struct {
	Name    string
	Elem    TypeHandle
	Count   uint32 // element count; runtime-sized allocations go in DynamicShared
	Dynamic bool
}

// Program is the full unit handed to the generator: one kernel entry
// point plus whatever non-entry methods it (transitively) calls.
type Program struct {
	Entry     *MethodGraph
	IndexType KernelIndexType

	Helpers []*MethodGraph

	Shared        []SharedAllocSpec
	DynamicShared []SharedAllocSpec
}

// Method resolves a MethodRef to its MethodGraph.
func (p *Program) Method(ref MethodRef) *MethodGraph { return p.Helpers[ref] }
