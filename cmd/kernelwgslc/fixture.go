// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/kernelwgsl/ir"
)

// fixture is the JSON test/demo input format this CLI accepts: a
// direct, hand-writable encoding of an ir.Program, since the real
// front-end that produces method graphs is an external collaborator
// out of this module's scope.
type fixture struct {
	IndexType string           `json:"index_type"`
	Entry     fixtureMethod    `json:"entry"`
	Helpers   []fixtureMethod  `json:"helpers"`
	Shared    []fixtureShared  `json:"shared"`
}

type fixtureShared struct {
	Name  string `json:"name"`
	Elem  string `json:"elem"`
	Count uint32 `json:"count"`
}

type fixtureMethod struct {
	Name      string          `json:"name"`
	Params    []fixtureParam  `json:"params"`
	Result    string          `json:"result"`
	Types     []fixtureType   `json:"types"`
	Blocks    [][]fixtureValue `json:"blocks"`
	External  bool            `json:"external"`
	Intrinsic string          `json:"intrinsic"`
}

// fixtureParam describes one method parameter. Type names a scalar
// kind directly (e.g. "f32"); TypeRef, when set, indexes the owning
// method's Types arena instead, for parameters that bind a view,
// pointer, or struct shape.
type fixtureParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	TypeRef *int   `json:"type_ref,omitempty"`
}

// fixtureType describes one entry of a method's type arena. Kind
// selects the TypeInner variant; the remaining fields are interpreted
// according to Kind.
type fixtureType struct {
	Kind   string        `json:"kind"` // scalar | index | pointer | view | struct
	Scalar string        `json:"scalar,omitempty"`
	Dim    string        `json:"dim,omitempty"`    // index: 1d|2d|3d
	Elem   int           `json:"elem,omitempty"`    // pointer/view: element type index
	Space  string        `json:"space,omitempty"`   // pointer: global|shared|local
	Dims   uint8         `json:"dims,omitempty"`    // view dimensionality
	ID     uint32        `json:"id,omitempty"`      // struct
	Fields []fixtureField `json:"fields,omitempty"`
}

type fixtureField struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

// fixtureValue is one SSA value: Op names the opcode, the rest of the
// fields are interpreted according to Op. Handles below refer to
// positions within the method's flattened value list (parameters
// occupy handles [0, len(Params))).
type fixtureValue struct {
	Op     string `json:"op"`
	Type   int    `json:"type"` // index into Types, or -1 for void

	// Operands, interpreted per Op.
	Left, Right, A, B, C, Operand, Source, Target  int
	Pointer, Value, Base, Index, Condition, Compare int
	NewValue, Target2                               int
	FieldIndex                                       uint32
	Kind                                              string // arithmetic/compare/unary sub-kind name
	Axis                                              string
	Bits                                               uint64
	Branch                                             *fixtureBranch `json:"branch,omitempty"`
	Incoming                                            []fixturePhiIncoming `json:"incoming,omitempty"`
	Args                                                 []int          `json:"args,omitempty"`
	Method                                               int            `json:"method,omitempty"`
	Text                                                 string         `json:"text,omitempty"`
	Message                                              string         `json:"message,omitempty"`
	Fields                                               []int          `json:"fields,omitempty"`
	Count                                                 uint32         `json:"count,omitempty"`
	Elem                                                  int            `json:"elem,omitempty"`
	Dims                                                  uint8          `json:"dims,omitempty"`
	Space                                                 string         `json:"space,omitempty"`
}

type fixtureBranch struct {
	// unconditional
	Target *int `json:"target,omitempty"`
	// if
	True  *int `json:"true,omitempty"`
	False *int `json:"false,omitempty"`
	// switch
	Cases   []fixtureCase `json:"cases,omitempty"`
	Default *int          `json:"default,omitempty"`
}

type fixtureCase struct {
	Value  int64 `json:"value"`
	Target int   `json:"target"`
}

type fixturePhiIncoming struct {
	Block int `json:"block"`
	Value int `json:"value"`
}

func loadFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

func (f *fixture) buildProgram() (*ir.Program, error) {
	entry, err := buildMethod(&f.Entry)
	if err != nil {
		return nil, fmt.Errorf("entry method %q: %w", f.Entry.Name, err)
	}

	helpers := make([]*ir.MethodGraph, len(f.Helpers))
	for i := range f.Helpers {
		h, err := buildMethod(&f.Helpers[i])
		if err != nil {
			return nil, fmt.Errorf("helper method %q: %w", f.Helpers[i].Name, err)
		}
		helpers[i] = h
	}

	shared := make([]ir.SharedAllocSpec, len(f.Shared))
	for i, s := range f.Shared {
		kind, ok := scalarKindNames[s.Elem]
		if !ok {
			return nil, fmt.Errorf("shared allocation %q: unknown scalar %q", s.Name, s.Elem)
		}
		shared[i] = ir.SharedAllocSpec{Name: s.Name, Count: s.Count, Elem: internType(entry, ir.Scalar{Kind: kind})}
	}

	return &ir.Program{
		Entry:     entry,
		IndexType: indexTypeNames[f.IndexType],
		Helpers:   helpers,
		Shared:    shared,
	}, nil
}

var indexTypeNames = map[string]ir.KernelIndexType{
	"":   ir.KernelIndexNone,
	"1d": ir.KernelIndex1D,
	"2d": ir.KernelIndex2D,
	"3d": ir.KernelIndex3D,
}

var scalarKindNames = map[string]ir.ScalarKind{
	"bool": ir.ScalarBool,
	"i8":   ir.ScalarI8, "i16": ir.ScalarI16, "i32": ir.ScalarI32, "i64": ir.ScalarI64,
	"u8": ir.ScalarU8, "u16": ir.ScalarU16, "u32": ir.ScalarU32, "u64": ir.ScalarU64,
	"f16": ir.ScalarF16, "f32": ir.ScalarF32, "f64": ir.ScalarF64,
}

// internType appends inner to m's type arena and returns its handle;
// used for types the fixture format synthesizes rather than declares
// explicitly (e.g. shared-memory element types).
func internType(m *ir.MethodGraph, inner ir.TypeInner) ir.TypeHandle {
	h := ir.TypeHandle(len(m.Types))
	m.Types = append(m.Types, ir.Type{Inner: inner})
	return h
}

func buildMethod(fm *fixtureMethod) (*ir.MethodGraph, error) {
	m := &ir.MethodGraph{Name: fm.Name, Types: []ir.Type{{}}, External: fm.External}

	typeHandles := make([]ir.TypeHandle, len(fm.Types))
	for i, ft := range fm.Types {
		inner, err := buildTypeInner(ft, typeHandles)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", i, err)
		}
		typeHandles[i] = internType(m, inner)
	}
	resolve := func(idx int) ir.TypeHandle {
		if idx < 0 || idx >= len(typeHandles) {
			return ir.TypeVoid
		}
		return typeHandles[idx]
	}

	for _, p := range fm.Params {
		t := ir.TypeVoid
		switch {
		case p.TypeRef != nil:
			t = resolve(*p.TypeRef)
		default:
			if kind, ok := scalarKindNames[p.Type]; ok {
				t = internType(m, ir.Scalar{Kind: kind})
			}
		}
		m.Params = append(m.Params, ir.Param{Name: p.Name, Type: t})
	}
	m.Result = ir.TypeVoid
	if kind, ok := scalarKindNames[fm.Result]; ok {
		m.Result = internType(m, ir.Scalar{Kind: kind})
	}

	if id, ok := intrinsicNames[fm.Intrinsic]; ok {
		m.Intrinsic = &id
	}

	// Reserve one placeholder Values slot per parameter so that
	// ir.ValueHandle(i), i < len(m.Params) — the positional
	// parameter-reference convention blocks use to read argument i —
	// can never collide with a handle InsertValue-equivalent block
	// processing below assigns to a real computed value.
	for range m.Params {
		m.Values = append(m.Values, ir.Value{Type: ir.TypeVoid, Op: ir.NullConstant{}})
	}

	for bi, blockVals := range fm.Blocks {
		m.Blocks = append(m.Blocks, ir.BasicBlock{Ordinal: bi})
		for _, fv := range blockVals {
			op, t, err := buildOp(fv, resolve)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", bi, err)
			}
			h := ir.ValueHandle(len(m.Values))
			m.Values = append(m.Values, ir.Value{Type: t, Op: op})
			m.Blocks[bi].Values = append(m.Blocks[bi].Values, h)
		}
	}

	return m, nil
}

var intrinsicNames = map[string]ir.IntrinsicID{
	"abs": ir.IntrinsicAbs, "sign": ir.IntrinsicSign, "min": ir.IntrinsicMin, "max": ir.IntrinsicMax,
	"clamp": ir.IntrinsicClamp, "pow": ir.IntrinsicPow, "fma": ir.IntrinsicFma, "atan2": ir.IntrinsicAtan2,
	"rcp": ir.IntrinsicRcp, "rsqrt": ir.IntrinsicRsqrt, "sqrt": ir.IntrinsicSqrt,
	"floor": ir.IntrinsicFloor, "ceil": ir.IntrinsicCeil, "round": ir.IntrinsicRound,
}

func buildTypeInner(ft fixtureType, typeHandles []ir.TypeHandle) (ir.TypeInner, error) {
	resolve := func(idx int) ir.TypeHandle {
		if idx < 0 || idx >= len(typeHandles) {
			return ir.TypeVoid
		}
		return typeHandles[idx]
	}
	switch ft.Kind {
	case "scalar":
		kind, ok := scalarKindNames[ft.Scalar]
		if !ok {
			return nil, fmt.Errorf("unknown scalar %q", ft.Scalar)
		}
		return ir.Scalar{Kind: kind}, nil
	case "index":
		dims := map[string]ir.IndexDim{"1d": ir.Index1D, "2d": ir.Index2D, "3d": ir.Index3D, "": ir.IndexNone}
		return ir.IndexType{Dim: dims[ft.Dim]}, nil
	case "pointer":
		spaces := map[string]ir.AddressSpace{"global": ir.SpaceGlobal, "shared": ir.SpaceShared, "local": ir.SpaceLocal, "": ir.SpaceLocal}
		return ir.Pointer{Elem: resolve(ft.Elem), Space: spaces[ft.Space]}, nil
	case "view":
		return ir.View{Elem: resolve(ft.Elem), Dims: ft.Dims}, nil
	case "struct":
		fields := make([]ir.StructField, len(ft.Fields))
		for i, f := range ft.Fields {
			fields[i] = ir.StructField{Name: f.Name, Type: resolve(f.Type)}
		}
		return ir.Struct{ID: ft.ID, Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", ft.Kind)
	}
}

var binaryOpNames = map[string]ir.BinaryArithOp{
	"add": ir.ArithAdd, "sub": ir.ArithSub, "mul": ir.ArithMul, "div": ir.ArithDiv, "rem": ir.ArithRem,
	"and": ir.ArithAnd, "or": ir.ArithOr, "xor": ir.ArithXor, "shl": ir.ArithShl, "shr": ir.ArithShr,
	"min": ir.ArithMin, "max": ir.ArithMax, "pow": ir.ArithPow,
}

var unaryOpNames = map[string]ir.UnaryArithOp{
	"neg": ir.UnaryNeg, "not": ir.UnaryNot, "sin": ir.UnarySin, "cos": ir.UnaryCos, "tan": ir.UnaryTan,
	"asin": ir.UnaryAsin, "acos": ir.UnaryAcos, "atan": ir.UnaryAtan,
	"sinh": ir.UnarySinh, "cosh": ir.UnaryCosh, "tanh": ir.UnaryTanh,
	"exp": ir.UnaryExp, "exp2": ir.UnaryExp2, "log": ir.UnaryLog, "log2": ir.UnaryLog2,
	"sqrt": ir.UnarySqrt, "rsqrt": ir.UnaryRsqrt, "rcp": ir.UnaryRcp,
	"floor": ir.UnaryFloor, "ceil": ir.UnaryCeil, "abs": ir.UnaryAbs,
	"isnan": ir.UnaryIsNaN, "isinf": ir.UnaryIsInf,
}

var compareOpNames = map[string]ir.CompareOp{
	"eq": ir.CmpEq, "ne": ir.CmpNe, "lt": ir.CmpLt, "le": ir.CmpLe, "gt": ir.CmpGt, "ge": ir.CmpGe,
}

var atomicOpNames = map[string]ir.AtomicOp{
	"add": ir.AtomicAdd, "and": ir.AtomicAnd, "or": ir.AtomicOr, "xor": ir.AtomicXor,
	"max": ir.AtomicMax, "min": ir.AtomicMin, "exchange": ir.AtomicExchange,
}

var axisNames = map[string]ir.Axis{"x": ir.AxisX, "y": ir.AxisY, "z": ir.AxisZ}

func buildOp(fv fixtureValue, resolve func(int) ir.TypeHandle) (ir.Op, ir.TypeHandle, error) {
	t := resolve(fv.Type)
	vh := func(i int) ir.ValueHandle { return ir.ValueHandle(i) }

	switch fv.Op {
	case "binary_arith":
		op, ok := binaryOpNames[fv.Kind]
		if !ok {
			return nil, t, fmt.Errorf("unknown binary kind %q", fv.Kind)
		}
		return ir.BinaryArith{Op: op, Left: vh(fv.Left), Right: vh(fv.Right)}, t, nil
	case "unary_arith":
		op, ok := unaryOpNames[fv.Kind]
		if !ok {
			return nil, t, fmt.Errorf("unknown unary kind %q", fv.Kind)
		}
		return ir.UnaryArith{Op: op, Operand: vh(fv.Operand)}, t, nil
	case "ternary_arith":
		return ir.TernaryArith{Op: ir.TernaryMultiplyAdd, A: vh(fv.A), B: vh(fv.B), C: vh(fv.C)}, t, nil
	case "compare":
		op, ok := compareOpNames[fv.Kind]
		if !ok {
			return nil, t, fmt.Errorf("unknown compare kind %q", fv.Kind)
		}
		return ir.Compare{Op: op, Left: vh(fv.Left), Right: vh(fv.Right)}, t, nil
	case "convert":
		return ir.Convert{Target: t, Source: vh(fv.Source)}, t, nil
	case "bitcast":
		return ir.Bitcast{Target: t, Source: vh(fv.Source)}, t, nil
	case "pointer_cast":
		return ir.PointerCast{Target: t, Source: vh(fv.Source)}, t, nil
	case "load":
		return ir.Load{Pointer: vh(fv.Pointer)}, t, nil
	case "store":
		return ir.Store{Pointer: vh(fv.Pointer), Value: vh(fv.Value)}, ir.TypeVoid, nil
	case "element_address":
		return ir.ElementAddress{Base: vh(fv.Base), Index: vh(fv.Index)}, t, nil
	case "field_address":
		return ir.FieldAddress{Base: vh(fv.Base), FieldIndex: fv.FieldIndex}, t, nil
	case "alloca":
		return ir.Alloca{Elem: resolve(fv.Elem), Count: fv.Count}, t, nil
	case "new_view":
		return ir.NewView{Elem: resolve(fv.Elem), Dims: fv.Dims}, t, nil
	case "primitive_constant":
		return ir.PrimitiveConstant{Bits: fv.Bits}, t, nil
	case "null_constant":
		return ir.NullConstant{}, t, nil
	case "structure_create":
		fields := make([]ir.ValueHandle, len(fv.Fields))
		for i, f := range fv.Fields {
			fields[i] = vh(f)
		}
		return ir.StructureCreate{Fields: fields}, t, nil
	case "get_field":
		return ir.GetField{Base: vh(fv.Base), FieldIndex: fv.FieldIndex}, t, nil
	case "set_field":
		return ir.SetField{Target: vh(fv.Target), FieldIndex: fv.FieldIndex, Value: vh(fv.Value)}, ir.TypeVoid, nil
	case "grid_index":
		return ir.GridIndex{Axis: axisNames[fv.Axis]}, t, nil
	case "group_index":
		return ir.GroupIndex{Axis: axisNames[fv.Axis]}, t, nil
	case "group_dimension":
		return ir.GroupDimension{Axis: axisNames[fv.Axis]}, t, nil
	case "grid_dimension":
		return ir.GridDimension{Axis: axisNames[fv.Axis]}, t, nil
	case "warp_size":
		return ir.WarpSize{}, t, nil
	case "lane_id":
		return ir.LaneID{}, t, nil
	case "phi":
		incoming := make([]ir.PhiIncoming, len(fv.Incoming))
		for i, inc := range fv.Incoming {
			incoming[i] = ir.PhiIncoming{Block: ir.BlockHandle(inc.Block), Value: vh(inc.Value)}
		}
		return ir.Phi{Incoming: incoming}, t, nil
	case "return":
		if fv.Branch != nil && fv.Branch.Target != nil {
			v := vh(*fv.Branch.Target)
			return ir.Return{Value: &v}, ir.TypeVoid, nil
		}
		return ir.Return{}, ir.TypeVoid, nil
	case "branch_unconditional":
		if fv.Branch == nil || fv.Branch.Target == nil {
			return nil, t, fmt.Errorf("branch_unconditional requires target")
		}
		return ir.BranchUnconditional{Target: ir.BlockHandle(*fv.Branch.Target)}, ir.TypeVoid, nil
	case "branch_if":
		if fv.Branch == nil || fv.Branch.True == nil || fv.Branch.False == nil {
			return nil, t, fmt.Errorf("branch_if requires true/false")
		}
		return ir.BranchIf{Condition: vh(fv.Condition), True: ir.BlockHandle(*fv.Branch.True), False: ir.BlockHandle(*fv.Branch.False)}, ir.TypeVoid, nil
	case "branch_switch":
		if fv.Branch == nil || fv.Branch.Default == nil {
			return nil, t, fmt.Errorf("branch_switch requires default")
		}
		cases := make([]ir.SwitchCase, len(fv.Branch.Cases))
		for i, c := range fv.Branch.Cases {
			cases[i] = ir.SwitchCase{Value: c.Value, Target: ir.BlockHandle(c.Target)}
		}
		return ir.BranchSwitch{Selector: vh(fv.Condition), Cases: cases, Default: ir.BlockHandle(*fv.Branch.Default)}, ir.TypeVoid, nil
	case "generic_atomic":
		op, ok := atomicOpNames[fv.Kind]
		if !ok {
			return nil, t, fmt.Errorf("unknown atomic kind %q", fv.Kind)
		}
		return ir.GenericAtomic{Op: op, Pointer: vh(fv.Pointer), Value: vh(fv.Value)}, t, nil
	case "atomic_cas":
		return ir.AtomicCompareAndSwap{Pointer: vh(fv.Pointer), Compare: vh(fv.Compare), NewValue: vh(fv.NewValue)}, t, nil
	case "memory_barrier":
		return ir.MemoryBarrier{}, ir.TypeVoid, nil
	case "workgroup_barrier":
		return ir.WorkgroupBarrier{}, ir.TypeVoid, nil
	case "predicate_barrier":
		return ir.PredicateBarrier{Predicate: vh(fv.Condition)}, ir.TypeVoid, nil
	case "subgroup_broadcast":
		return ir.SubgroupBroadcast{Value: vh(fv.Value)}, t, nil
	case "subgroup_shuffle":
		return ir.SubgroupShuffle{Kind: ir.ShuffleGeneric, Value: vh(fv.Value), Delta: vh(fv.A)}, t, nil
	case "call":
		args := make([]ir.ValueHandle, len(fv.Args))
		for i, a := range fv.Args {
			args[i] = vh(a)
		}
		return ir.Call{Method: ir.MethodRef(fv.Method), Args: args}, t, nil
	case "raw_emit":
		return ir.RawEmit{Text: fv.Text}, ir.TypeVoid, nil
	case "debug_assert":
		return ir.DebugAssert{Condition: vh(fv.Condition), Message: fv.Message}, ir.TypeVoid, nil
	default:
		return nil, t, fmt.Errorf("unknown op %q", fv.Op)
	}
}
