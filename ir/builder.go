package ir

// Builder assembles a MethodGraph incrementally. It mirrors the shape of
// an SSA builder a front-end would drive (cf. wazero's wazevo frontend,
// which drives an ssa.Builder with AllocateBasicBlock/InsertValue-style
// calls) so that a host framework emitting this IR has an ergonomic,
// append-only construction API instead of hand-indexing arenas.
//
// Builder performs no validation beyond handle-range bookkeeping; a
// malformed graph (e.g. a block with no terminator) is not rejected
// here; the generator reports it as an InternalError.
type Builder struct {
	m            *MethodGraph
	typeIndex    map[string]TypeHandle
	currentBlock BlockHandle
}

// NewBuilder creates a Builder for a fresh method named name.
func NewBuilder(name string) *Builder {
	b := &Builder{
		m: &MethodGraph{
			Name:  name,
			Types: []Type{{}}, // slot 0 reserved for TypeVoid
		},
		typeIndex: make(map[string]TypeHandle),
	}
	return b
}

// Method returns the graph built so far. Safe to call repeatedly; the
// Builder continues to own and mutate the returned graph.
func (b *Builder) Method() *MethodGraph { return b.m }

// DeclareType interns inner under key, returning its handle. Calling
// DeclareType again with the same key returns the same handle without
// appending a duplicate entry — mirrors the Type Mapper's own cache at
// the IR-construction boundary.
func (b *Builder) DeclareType(key string, inner TypeInner) TypeHandle {
	if h, ok := b.typeIndex[key]; ok {
		return h
	}
	h := TypeHandle(len(b.m.Types))
	b.m.Types = append(b.m.Types, Type{Inner: inner})
	b.typeIndex[key] = h
	return h
}

// AddParam appends a parameter and returns its positional index. A
// block reads parameter i's value as ValueHandle(i); AddParam reserves
// that handle in the Values arena with a NullConstant placeholder so a
// later InsertValue call can never be assigned the same handle.
func (b *Builder) AddParam(name string, t TypeHandle) int {
	b.m.Params = append(b.m.Params, Param{Name: name, Type: t})
	b.m.Values = append(b.m.Values, Value{Type: TypeVoid, Op: NullConstant{}})
	return len(b.m.Params) - 1
}

// AllocateBasicBlock appends a new, empty basic block and returns its
// handle. The first block allocated becomes the entry block.
func (b *Builder) AllocateBasicBlock() BlockHandle {
	h := BlockHandle(len(b.m.Blocks))
	b.m.Blocks = append(b.m.Blocks, BasicBlock{Ordinal: int(h)})
	if h == 0 {
		b.m.Entry = h
	}
	return h
}

// SetInsertionBlock selects which block subsequent InsertValue calls
// append to.
func (b *Builder) SetInsertionBlock(h BlockHandle) { b.currentBlock = h }

// InsertValue appends a value of type t with opcode op to the current
// insertion block and returns its handle.
func (b *Builder) InsertValue(t TypeHandle, op Op) ValueHandle {
	h := ValueHandle(len(b.m.Values))
	b.m.Values = append(b.m.Values, Value{Type: t, Op: op})
	blk := &b.m.Blocks[b.currentBlock]
	blk.Values = append(blk.Values, h)
	return h
}
