// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/kernelwgsl/ir"
)

// paramKind tags how a method parameter is realized as a WGSL binding:
// a tagged union of parameter shapes.
type paramKind uint8

const (
	paramScalar paramKind = iota
	paramStruct
	paramView
)

// paramBinding is one entry of the Binding Table.
type paramBinding struct {
	Index    int
	Kind     paramKind
	Dims     uint8
	WGSLType string // element type, unwrapped of array<>/atomic<>
	Atomic   bool
	Emulated bool // this parameter's backing buffer is 64-bit emulated

	BindingIndex       int
	StrideBindingIndex int // -1 if none

	// VarName is the WGSL identifier of this parameter's storage
	// binding (paramN, set by classifyParams).
	VarName string
}

// methodGen is the per-method generation context shared by the
// Control-Flow Lowerer (cfg.go) and the Value Emitter (values.go), the
// same role naga's per-Writer scratch state plays in its
// hlsl/glsl Writer.writeFunction.
type methodGen struct {
	gen *generator
	m   *ir.MethodGraph
	an  *ir.Analysis

	vars *varTable
	out  *lineWriter

	isEntry bool
	params  []paramBinding // only populated for the entry method

	// paramOf maps a parameter's SSA value handle to its binding
	// metadata, populated by classifyParams for every bound parameter.
	paramOf map[ir.ValueHandle]*paramBinding

	// elemOf records, for each ElementAddress result that indexes an
	// atomic or 64-bit-emulated parameter, which parameter and index
	// expression it represents.
	elemOf map[ir.ValueHandle]elemRef

	hoisted map[ir.ValueHandle]bool
	visited map[ir.BlockHandle]bool

	returnVar string // hoisted "_return_val" name, set lazily

	// bitsSeq is the per-method counter for "_bits_N" IEEE-754
	// round-trip temporaries emitted by storeEmulated64; scoped here
	// rather than package-level so concurrent Compile calls never race
	// or cross-contaminate each other's generated names.
	bitsSeq int

	err error
}

// generator is the whole-compile context: one per Compile call,
// shared across the entry method and every helper.
type generator struct {
	opts  *Options
	prog  *ir.Program
	types *typeMapper
	info  Info
}

func newGenerator(opts *Options) *generator {
	return &generator{opts: opts, types: newTypeMapper()}
}

func (g *generator) newMethodGen(m *ir.MethodGraph, isEntry bool) *methodGen {
	mg := &methodGen{
		gen:     g,
		m:       m,
		an:      ir.Analyze(m),
		vars:    newVarTable(),
		out:     newLineWriter(),
		isEntry: isEntry,
		paramOf: make(map[ir.ValueHandle]*paramBinding),
		elemOf:  make(map[ir.ValueHandle]elemRef),
		hoisted: make(map[ir.ValueHandle]bool),
		visited: make(map[ir.BlockHandle]bool),
	}
	return mg
}

func (mg *methodGen) typeName(t ir.TypeHandle) string {
	return mg.gen.types.Name(mg.m, t, mg.gen.opts.EnableF64Emulation, mg.gen.opts.EnableI64Emulation)
}

func (mg *methodGen) fail(kind ErrorKind, detail string, block, value int) {
	if mg.err == nil {
		mg.err = &Error{Kind: kind, Method: mg.m.Name, Detail: detail, Block: block, Value: value}
	}
}

func (mg *methodGen) diagnostic(s string) {
	mg.gen.info.Diagnostics = append(mg.gen.info.Diagnostics, s)
	logger := mg.gen.opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("wgsl generation diagnostic", "method", mg.m.Name, "detail", s)
}

// prescanHoists computes the hoisted set in a first pass: phis and
// values consumed outside their defining block. No other values are
// hoisted; a value used only inside its own block keeps a `let`
// declaration there, whichever structured arm the block sits in.
func (mg *methodGen) prescanHoists() {
	definedIn := make(map[ir.ValueHandle]ir.BlockHandle)
	for bi := range mg.m.Blocks {
		b := ir.BlockHandle(bi)
		for _, v := range mg.m.Block(b).Values {
			definedIn[v] = b
		}
	}

	usesOf := func(op ir.Op) []ir.ValueHandle {
		switch o := op.(type) {
		case ir.BinaryArith:
			return []ir.ValueHandle{o.Left, o.Right}
		case ir.UnaryArith:
			return []ir.ValueHandle{o.Operand}
		case ir.TernaryArith:
			return []ir.ValueHandle{o.A, o.B, o.C}
		case ir.Compare:
			return []ir.ValueHandle{o.Left, o.Right}
		case ir.Convert:
			return []ir.ValueHandle{o.Source}
		case ir.Bitcast:
			return []ir.ValueHandle{o.Source}
		case ir.PointerCast:
			return []ir.ValueHandle{o.Source}
		case ir.Load:
			return []ir.ValueHandle{o.Pointer}
		case ir.Store:
			return []ir.ValueHandle{o.Pointer, o.Value}
		case ir.ElementAddress:
			return []ir.ValueHandle{o.Base, o.Index}
		case ir.FieldAddress:
			return []ir.ValueHandle{o.Base}
		case ir.StructureCreate:
			return o.Fields
		case ir.GetField:
			return []ir.ValueHandle{o.Base}
		case ir.SetField:
			return []ir.ValueHandle{o.Target, o.Value}
		case ir.GenericAtomic:
			return []ir.ValueHandle{o.Pointer, o.Value}
		case ir.AtomicCompareAndSwap:
			return []ir.ValueHandle{o.Pointer, o.Compare, o.NewValue}
		case ir.PredicateBarrier:
			return []ir.ValueHandle{o.Predicate}
		case ir.SubgroupBroadcast:
			return []ir.ValueHandle{o.Value}
		case ir.SubgroupShuffle:
			return []ir.ValueHandle{o.Value, o.Delta}
		case ir.AlignTo:
			return []ir.ValueHandle{o.Value}
		case ir.AsAligned:
			return []ir.ValueHandle{o.Value}
		case ir.DebugAssert:
			return []ir.ValueHandle{o.Condition}
		case ir.Return:
			if o.Value != nil {
				return []ir.ValueHandle{*o.Value}
			}
		case ir.BranchIf:
			return []ir.ValueHandle{o.Condition}
		case ir.BranchSwitch:
			return []ir.ValueHandle{o.Selector}
		case ir.Call:
			return o.Args
		}
		return nil
	}

	for bi := range mg.m.Blocks {
		b := ir.BlockHandle(bi)
		for _, v := range mg.m.Block(b).Values {
			val := mg.m.Value(v)
			if phi, ok := val.Op.(ir.Phi); ok {
				mg.hoisted[v] = true
				for _, inc := range phi.Incoming {
					_ = inc
				}
				continue
			}
			for _, used := range usesOf(val.Op) {
				if owner, ok := definedIn[used]; ok && owner != b {
					mg.hoisted[used] = true
				}
			}
		}
	}

	if mg.m.Result != ir.TypeVoid {
		mg.returnVar = "_return_val"
	}
}

// hoistDeclarations emits `var` declarations at method-top for every
// hoisted value whose WGSL type is already known (phis and cross-block
// values), plus the hoisted return slot.
func (mg *methodGen) hoistDeclarations() {
	for bi := range mg.m.Blocks {
		b := ir.BlockHandle(bi)
		for _, v := range mg.m.Block(b).Values {
			if !mg.hoisted[v] {
				continue
			}
			val := mg.m.Value(v)
			name := fmt.Sprintf("v_%d", mg.vars.counter)
			variable := vartableAllocateNamed(mg.vars, v, name, mg.typeName(val.Type))
			mg.vars.MarkHoisted(v)
			mg.vars.Declare(mg.out, variable)
		}
	}
	if mg.returnVar != "" {
		mg.out.Linef("var %s : %s;", mg.returnVar, mg.typeName(mg.m.Result))
	}
}

// vartableAllocateNamed binds v to an explicit name instead of the next
// counter value, used when the caller has already reserved a name.
func vartableAllocateNamed(vt *varTable, v ir.ValueHandle, name, wgslType string) variable {
	vv := variable{Name: name, Type: wgslType}
	vt.bound[v] = vv
	vt.counter++
	return vv
}
