// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// unaryBuiltins maps the pass-through transcendental/rounding unary
// kinds directly onto their WGSL built-in function name.
var unaryBuiltins = map[ir.UnaryArithOp]string{
	ir.UnarySin: "sin", ir.UnaryCos: "cos", ir.UnaryTan: "tan",
	ir.UnaryAsin: "asin", ir.UnaryAcos: "acos", ir.UnaryAtan: "atan",
	ir.UnarySinh: "sinh", ir.UnaryCosh: "cosh", ir.UnaryTanh: "tanh",
	ir.UnaryExp: "exp", ir.UnaryExp2: "exp2", ir.UnaryLog: "log", ir.UnaryLog2: "log2",
	ir.UnarySqrt: "sqrt", ir.UnaryFloor: "floor", ir.UnaryCeil: "ceil", ir.UnaryAbs: "abs",
}

var compareSymbols = map[ir.CompareOp]string{
	ir.CmpEq: "==", ir.CmpNe: "!=", ir.CmpLt: "<", ir.CmpLe: "<=", ir.CmpGt: ">", ir.CmpGe: ">=",
}

// emitNonTerminator lowers one non-terminator SSA value to WGSL
// statement(s) appended to mg.out, binding its result in the Variable
// Table.
func (mg *methodGen) emitNonTerminator(v ir.ValueHandle) {
	val := mg.m.Value(v)
	switch op := val.Op.(type) {
	case ir.BinaryArith:
		mg.assign(v, val.Type, mg.binaryArith(op))
	case ir.UnaryArith:
		mg.assign(v, val.Type, mg.unaryArith(op))
	case ir.TernaryArith:
		mg.assign(v, val.Type, mg.ternaryArith(op))
	case ir.Compare:
		mg.assign(v, val.Type, mg.compare(op))
	case ir.Convert:
		mg.assign(v, val.Type, mg.convert(op))
	case ir.Bitcast:
		mg.assign(v, val.Type, fmt.Sprintf("bitcast<%s>(%s)", mg.typeName(op.Target), mg.operand(op.Source)))
	case ir.PointerCast:
		mg.assign(v, val.Type, mg.operand(op.Source))
	case ir.Load:
		mg.assign(v, val.Type, mg.load(v, op))
	case ir.Store:
		mg.store(op)
	case ir.ElementAddress:
		mg.assign(v, val.Type, mg.elementAddress(v, op))
	case ir.FieldAddress:
		mg.assign(v, val.Type, mg.fieldAddress(op))
	case ir.Alloca:
		mg.out.Linef("var %s : %s;", mg.vars.Load(v, mg.typeName(val.Type)).Name, mg.typeName(val.Type))
	case ir.NewView:
		// Realized entirely by the Kernel Emitter's parameter binding;
		// referencing the value itself is a no-op once bound.
	case ir.PrimitiveConstant:
		mg.assign(v, val.Type, mg.primitiveConstant(val.Type, op))
	case ir.NullConstant:
		mg.assign(v, val.Type, fmt.Sprintf("%s()", mg.typeName(val.Type)))
	case ir.StructureCreate:
		mg.assign(v, val.Type, mg.structureCreate(val.Type, op))
	case ir.GetField:
		mg.assign(v, val.Type, mg.getField(op))
	case ir.SetField:
		mg.setField(op)
	case ir.GridIndex:
		mg.assign(v, val.Type, fmt.Sprintf("i32(group_id.%s)", axisLetter(op.Axis)))
	case ir.GroupIndex:
		mg.assign(v, val.Type, fmt.Sprintf("i32(local_id.%s)", axisLetter(op.Axis)))
	case ir.GroupDimension:
		mg.assign(v, val.Type, fmt.Sprintf("i32(workgroup_size.%s)", axisLetter(op.Axis)))
	case ir.GridDimension:
		mg.assign(v, val.Type, fmt.Sprintf("i32(num_workgroups.%s * workgroup_size.%s)", axisLetter(op.Axis), axisLetter(op.Axis)))
	case ir.WarpSize:
		mg.assign(v, val.Type, "32")
	case ir.LaneID:
		mg.assign(v, val.Type, "i32(subgroup_invocation_id)")
	case ir.GenericAtomic:
		mg.assign(v, val.Type, mg.genericAtomic(op))
	case ir.AtomicCompareAndSwap:
		ptr := mg.operand(op.Pointer)
		mg.assign(v, val.Type, fmt.Sprintf("atomicCompareExchangeWeak(%s, %s, %s).old_value", ptr, mg.operand(op.Compare), mg.operand(op.NewValue)))
	case ir.MemoryBarrier:
		mg.out.Linef("workgroupBarrier();")
	case ir.WorkgroupBarrier:
		mg.out.Linef("workgroupBarrier();")
		mg.out.Linef("storageBarrier();")
	case ir.PredicateBarrier:
		mg.out.Linef("workgroupBarrier();")
	case ir.SubgroupBroadcast:
		mg.assign(v, val.Type, fmt.Sprintf("subgroupBroadcastFirst(%s)", mg.operand(op.Value)))
	case ir.SubgroupShuffle:
		mg.assign(v, val.Type, fmt.Sprintf("subgroupShuffle(%s, %s)", mg.operand(op.Value), mg.operand(op.Delta)))
	case ir.Call:
		mg.assign(v, val.Type, mg.routeCall(val.Type, op))
	case ir.RawEmit:
		mg.out.Linef("%s", op.Text)
	case ir.AlignTo:
		mg.assign(v, val.Type, fmt.Sprintf("(((%s) + %du) & ~%du)", mg.operand(op.Value), op.Alignment-1, op.Alignment-1))
	case ir.AsAligned:
		mg.assign(v, val.Type, mg.operand(op.Value))
	case ir.DebugAssert:
		mg.out.Linef("// assert: %s", op.Message)
	case ir.Phi:
		// Hoisted, and assigned by each predecessor's transition
		// (emitPhiAssignments); nothing to emit at the definition site.
	default:
		mg.unhandledOpcode(v, val)
	}
}

func (mg *methodGen) unhandledOpcode(v ir.ValueHandle, val *ir.Value) {
	mg.diagnostic(fmt.Sprintf("unhandled opcode %T in method %q", val.Op, mg.m.Name))
	mg.out.Linef("// Unhandled value: %T", val.Op)
	if val.Type != ir.TypeVoid {
		mg.assign(v, val.Type, fmt.Sprintf("%s()", mg.typeName(val.Type)))
	}
}

// assign emits the declaration or bare re-assignment for v's result,
// depending on whether v was hoisted to a method-top declaration.
func (mg *methodGen) assign(v ir.ValueHandle, t ir.TypeHandle, expr string) {
	wt := mg.typeName(t)
	if mg.vars.IsHoisted(v) {
		vv := mg.vars.Load(v, wt)
		mg.out.Linef("%s = %s;", vv.Name, expr)
		return
	}
	vv := mg.vars.Load(v, wt)
	mg.out.Linef("let %s = %s;", vv.Name, expr)
}

// operand returns the WGSL expression referencing an already-processed
// (or parameter-bound) value. Structured/state-machine lowering always
// visits operands before their uses because the source IR is in SSA
// dominance order, so the fallback path only fires for malformed IR.
func (mg *methodGen) operand(v ir.ValueHandle) string {
	if vv, ok := mg.vars.bound[v]; ok {
		return vv.Name
	}
	if int(v) < len(mg.m.Params) {
		// A parameter referenced before the Kernel/Function Emitter
		// bound it; bind it to its raw parameter name now.
		name := fmt.Sprintf("p_%d", int(v))
		mg.vars.Bind(v, variable{Name: name, Type: mg.typeName(mg.m.Params[v].Type)})
		return name
	}
	mg.emitNonTerminator(v)
	if vv, ok := mg.vars.bound[v]; ok {
		return vv.Name
	}
	return "0"
}

func (mg *methodGen) scalarKind(t ir.TypeHandle) (ir.ScalarKind, bool) {
	node := mg.m.Type(t)
	s, ok := node.Inner.(ir.Scalar)
	return s.Kind, ok
}

func (mg *methodGen) emulationEnabled(kind ir.ScalarKind) bool {
	switch kind {
	case ir.ScalarF64:
		return mg.gen.opts.EnableF64Emulation
	case ir.ScalarI64, ir.ScalarU64:
		return mg.gen.opts.EnableI64Emulation
	default:
		return false
	}
}

func axisLetter(a ir.Axis) string {
	switch a {
	case ir.AxisX:
		return "x"
	case ir.AxisY:
		return "y"
	default:
		return "z"
	}
}

// --- Arithmetic -------------------------------------------------------

func (mg *methodGen) binaryArith(op ir.BinaryArith) string {
	left, right := mg.operand(op.Left), mg.operand(op.Right)
	kind, _ := mg.scalarKind(mg.m.Value(op.Left).Type)

	if kind.Is64Bit() && mg.emulationEnabled(kind) {
		if name, ok := emulationFuncName(kind, op.Op); ok {
			return fmt.Sprintf("%s(%s, %s)", name, left, right)
		}
		mg.fail(ErrEmulationUnsupported, fmt.Sprintf("operator %d has no emulation entry for %v", op.Op, kind), 0, 0)
		return "0"
	}

	switch op.Op {
	case ir.ArithAdd:
		return fmt.Sprintf("(%s + %s)", left, right)
	case ir.ArithSub:
		return fmt.Sprintf("(%s - %s)", left, right)
	case ir.ArithMul:
		return fmt.Sprintf("(%s * %s)", left, right)
	case ir.ArithDiv:
		return fmt.Sprintf("(%s / %s)", left, right)
	case ir.ArithRem:
		if kind.IsFloat() {
			return fmt.Sprintf("(%s - %s * trunc(%s / %s))", left, right, left, right)
		}
		return fmt.Sprintf("(%s %% %s)", left, right)
	case ir.ArithAnd:
		return fmt.Sprintf("(%s & %s)", left, right)
	case ir.ArithOr:
		return fmt.Sprintf("(%s | %s)", left, right)
	case ir.ArithXor:
		return fmt.Sprintf("(%s ^ %s)", left, right)
	case ir.ArithShl:
		return fmt.Sprintf("(%s << u32(%s))", left, right)
	case ir.ArithShr:
		return fmt.Sprintf("(%s >> u32(%s))", left, right)
	case ir.ArithMin:
		return fmt.Sprintf("min(%s, %s)", left, right)
	case ir.ArithMax:
		return fmt.Sprintf("max(%s, %s)", left, right)
	case ir.ArithPow:
		return fmt.Sprintf("pow(%s, %s)", left, right)
	default:
		mg.diagnostic(fmt.Sprintf("unhandled binary op %d in method %q", op.Op, mg.m.Name))
		return left
	}
}

func (mg *methodGen) unaryArith(op ir.UnaryArith) string {
	x := mg.operand(op.Operand)
	kind, _ := mg.scalarKind(mg.m.Value(op.Operand).Type)

	if kind.Is64Bit() && mg.emulationEnabled(kind) {
		switch {
		case op.Op == ir.UnaryNeg && kind == ir.ScalarI64:
			return fmt.Sprintf("i64_neg(%s)", x)
		case op.Op == ir.UnaryNeg && kind == ir.ScalarF64:
			return fmt.Sprintf("f64_neg(%s)", x)
		case op.Op == ir.UnaryAbs && kind == ir.ScalarF64:
			return fmt.Sprintf("f64_abs(%s)", x)
		case op.Op == ir.UnaryNot && kind != ir.ScalarF64:
			return fmt.Sprintf("(~%s)", x)
		}
		mg.fail(ErrEmulationUnsupported, fmt.Sprintf("unary op %d has no emulation entry for %v", op.Op, kind), 0, 0)
		return x
	}

	switch op.Op {
	case ir.UnaryNeg:
		return fmt.Sprintf("(-%s)", x)
	case ir.UnaryNot:
		if kind == ir.ScalarBool {
			return fmt.Sprintf("(!%s)", x)
		}
		return fmt.Sprintf("(~%s)", x)
	case ir.UnaryRsqrt:
		return fmt.Sprintf("(1.0 / sqrt(%s))", x)
	case ir.UnaryRcp:
		return fmt.Sprintf("(1.0 / %s)", x)
	case ir.UnaryIsNaN:
		return fmt.Sprintf("(%s != %s)", x, x)
	case ir.UnaryIsInf:
		return fmt.Sprintf("(%s != 0.0 && %s == %s * 2.0 && %s == %s)", x, x, x, x, x)
	default:
		if name, ok := unaryBuiltins[op.Op]; ok {
			return fmt.Sprintf("%s(%s)", name, x)
		}
		mg.diagnostic(fmt.Sprintf("unhandled unary op %d in method %q", op.Op, mg.m.Name))
		return x
	}
}

func (mg *methodGen) ternaryArith(op ir.TernaryArith) string {
	a, b, c := mg.operand(op.A), mg.operand(op.B), mg.operand(op.C)
	switch op.Op {
	case ir.TernaryMultiplyAdd:
		return fmt.Sprintf("fma(%s, %s, %s)", a, b, c)
	default:
		mg.diagnostic(fmt.Sprintf("unhandled ternary op %d in method %q", op.Op, mg.m.Name))
		return fmt.Sprintf("(%s * %s + %s)", a, b, c)
	}
}

func (mg *methodGen) compare(op ir.Compare) string {
	left, right := mg.operand(op.Left), mg.operand(op.Right)
	kind, _ := mg.scalarKind(mg.m.Value(op.Left).Type)

	if kind.Is64Bit() && mg.emulationEnabled(kind) {
		if name, ok := emulationCompareFuncName(kind, op.Op); ok {
			return fmt.Sprintf("%s(%s, %s)", name, left, right)
		}
		mg.fail(ErrEmulationUnsupported, fmt.Sprintf("compare op %d has no emulation entry for %v", op.Op, kind), 0, 0)
		return "false"
	}

	sym := compareSymbols[op.Op]
	if dims := mg.vecDims(mg.m.Value(op.Left).Type); dims > 0 {
		return fmt.Sprintf("all(%s %s %s)", left, sym, right)
	}
	return fmt.Sprintf("(%s %s %s)", left, sym, right)
}

func (mg *methodGen) vecDims(t ir.TypeHandle) int {
	if it, ok := mg.m.Type(t).Inner.(ir.IndexType); ok {
		switch it.Dim {
		case ir.Index2D:
			return 2
		case ir.Index3D:
			return 3
		}
	}
	return 0
}

func (mg *methodGen) convert(op ir.Convert) string {
	src := mg.operand(op.Source)
	target := mg.typeName(op.Target)
	kind, _ := mg.scalarKind(op.Target)

	if kind == ir.ScalarF64 && mg.gen.opts.EnableF64Emulation {
		return fmt.Sprintf("f64_from_f32(f32(%s))", src)
	}
	if dims := mg.vecDims(mg.m.Value(op.Source).Type); dims > 0 {
		src = src + ".x"
	}
	return fmt.Sprintf("%s(%s)", target, src)
}

// --- Memory -------------------------------------------------------------

func (mg *methodGen) load(v ir.ValueHandle, op ir.Load) string {
	if pb, ref := mg.elemOf[op.Pointer]; ref {
		if pb.param.Atomic {
			return fmt.Sprintf("atomicLoad(%s)", mg.operand(op.Pointer))
		}
		if pb.param.Emulated {
			return mg.loadEmulated64(pb)
		}
	}
	base := mg.operand(op.Pointer)
	return fmt.Sprintf("(*%s)", base)
}

func (mg *methodGen) loadEmulated64(ref elemRef) string {
	lane0 := fmt.Sprintf("%s[(%s) * 2]", ref.param.VarName, ref.indexExpr)
	lane1 := fmt.Sprintf("%s[(%s) * 2 + 1]", ref.param.VarName, ref.indexExpr)
	if ref.param.WGSLType == "f64" {
		return fmt.Sprintf("f64_from_ieee754_bits(%s, %s)", lane0, lane1)
	}
	return fmt.Sprintf("%s(%s, %s)", ref.param.WGSLType, lane0, lane1)
}

func (mg *methodGen) store(op ir.Store) {
	value := mg.operand(op.Value)
	if pb, ref := mg.elemOf[op.Pointer]; ref {
		if pb.param.Atomic {
			mg.out.Linef("atomicStore(%s, %s);", mg.operand(op.Pointer), value)
			return
		}
		if pb.param.Emulated {
			mg.storeEmulated64(pb, value)
			return
		}
	}
	ptr := mg.operand(op.Pointer)
	mg.out.Linef("*%s = %s;", ptr, value)
}

func (mg *methodGen) storeEmulated64(ref elemRef, value string) {
	lane0 := fmt.Sprintf("%s[(%s) * 2]", ref.param.VarName, ref.indexExpr)
	lane1 := fmt.Sprintf("%s[(%s) * 2 + 1]", ref.param.VarName, ref.indexExpr)
	if ref.param.WGSLType == "f64" {
		bits := fmt.Sprintf("_bits_%d", mg.bitsCounter())
		mg.out.Linef("let %s = f64_to_ieee754_bits(%s);", bits, value)
		mg.out.Linef("%s = %s.x;", lane0, bits)
		mg.out.Linef("%s = %s.y;", lane1, bits)
		return
	}
	mg.out.Linef("%s = (%s).x;", lane0, value)
	mg.out.Linef("%s = (%s).y;", lane1, value)
}

func (mg *methodGen) bitsCounter() int {
	mg.bitsSeq++
	return mg.bitsSeq
}

// elemRef records that an ElementAddress result represents an index
// into a 64-bit-emulated or atomic parameter buffer, so Load/Store on
// it route to the emulation pair or atomic* builtins instead of a
// plain dereference.
type elemRef struct {
	param     *paramBinding
	indexExpr string
}

func (mg *methodGen) elementAddress(v ir.ValueHandle, op ir.ElementAddress) string {
	idx := mg.operand(op.Index)
	if pb, ok := mg.paramOf[op.Base]; ok {
		if pb.Emulated || pb.Atomic {
			mg.elemOf[v] = elemRef{param: pb, indexExpr: idx}
		}
		return fmt.Sprintf("&%s[%s]", pb.VarName, idx)
	}
	base := mg.operand(op.Base)
	if mg.isPointerValue(op.Base) {
		return fmt.Sprintf("&(*%s)[%s]", base, idx)
	}
	return fmt.Sprintf("&%s[%s]", base, idx)
}

func (mg *methodGen) isPointerValue(v ir.ValueHandle) bool {
	_, ok := mg.m.Type(mg.m.Value(v).Type).Inner.(ir.Pointer)
	return ok
}

func (mg *methodGen) fieldAddress(op ir.FieldAddress) string {
	if pb, ok := mg.paramOf[op.Base]; ok {
		switch pb.Kind {
		case paramView:
			return mg.viewFieldAccess(pb, op.FieldIndex)
		case paramStruct:
			return fmt.Sprintf("&%s[0].field_%d", pb.VarName, op.FieldIndex)
		}
	}
	base := mg.operand(op.Base)
	return fmt.Sprintf("&%s.field_%d", base, op.FieldIndex)
}

func (mg *methodGen) getField(op ir.GetField) string {
	if dims := mg.vecDims(mg.m.Value(op.Base).Type); dims > 0 {
		letters := []string{"x", "y", "z"}
		if int(op.FieldIndex) < len(letters) {
			return fmt.Sprintf("%s.%s", mg.operand(op.Base), letters[op.FieldIndex])
		}
	}
	if pb, ok := mg.paramOf[op.Base]; ok {
		switch pb.Kind {
		case paramView:
			return mg.viewFieldAccess(pb, op.FieldIndex)
		case paramStruct:
			return fmt.Sprintf("%s[0].field_%d", pb.VarName, op.FieldIndex)
		}
	}
	return fmt.Sprintf("%s.field_%d", mg.operand(op.Base), op.FieldIndex)
}

// viewFieldAccess implements the view-wrapper field contract: field 0
// is the storage pointer, and higher fields are length/stride
// accessors backed by arrayLength or the stride sidecar.
func (mg *methodGen) viewFieldAccess(pb *paramBinding, field uint32) string {
	name := pb.VarName
	if field == 0 {
		return fmt.Sprintf("&%s", name)
	}
	if pb.StrideBindingIndex < 0 {
		return fmt.Sprintf("arrayLength(&%s)", name)
	}
	return fmt.Sprintf("%s_stride[%d]", name, field-1)
}

func (mg *methodGen) setField(op ir.SetField) {
	target := mg.operand(op.Target)
	value := mg.operand(op.Value)
	mg.out.Linef("%s.field_%d = %s;", target, op.FieldIndex, value)
}

func (mg *methodGen) structureCreate(t ir.TypeHandle, op ir.StructureCreate) string {
	args := make([]string, len(op.Fields))
	for i, f := range op.Fields {
		args[i] = mg.operand(f)
	}
	return fmt.Sprintf("%s(%s)", mg.typeName(t), strings.Join(args, ", "))
}

func (mg *methodGen) genericAtomic(op ir.GenericAtomic) string {
	ptr, value := mg.operand(op.Pointer), mg.operand(op.Value)
	switch op.Op {
	case ir.AtomicAdd:
		return fmt.Sprintf("atomicAdd(%s, %s)", ptr, value)
	case ir.AtomicAnd:
		return fmt.Sprintf("atomicAnd(%s, %s)", ptr, value)
	case ir.AtomicOr:
		return fmt.Sprintf("atomicOr(%s, %s)", ptr, value)
	case ir.AtomicXor:
		return fmt.Sprintf("atomicXor(%s, %s)", ptr, value)
	case ir.AtomicMax:
		return fmt.Sprintf("atomicMax(%s, %s)", ptr, value)
	case ir.AtomicMin:
		return fmt.Sprintf("atomicMin(%s, %s)", ptr, value)
	case ir.AtomicExchange:
		return fmt.Sprintf("atomicExchange(%s, %s)", ptr, value)
	default:
		mg.diagnostic(fmt.Sprintf("unhandled atomic op %d in method %q", op.Op, mg.m.Name))
		return "0"
	}
}

// --- Constants ----------------------------------------------------------

func (mg *methodGen) primitiveConstant(t ir.TypeHandle, op ir.PrimitiveConstant) string {
	kind, _ := mg.scalarKind(t)

	if kind.Is64Bit() && mg.emulationEnabled(kind) {
		lo := uint32(op.Bits)
		hi := uint32(op.Bits >> 32)
		if kind == ir.ScalarF64 {
			return fmt.Sprintf("f64_from_ieee754_bits(%du, %du)", lo, hi)
		}
		return fmt.Sprintf("%s(%du, %du)", mg.typeName(t), lo, hi)
	}

	switch {
	case kind == ir.ScalarBool:
		if op.Bits != 0 {
			return "true"
		}
		return "false"
	case kind.IsFloat():
		return formatFloatConstant(op.Bits, kind)
	case kind.IsSigned():
		return fmt.Sprintf("i32(%d)", int64(int32(op.Bits)))
	default:
		return fmt.Sprintf("u32(%du)", uint32(op.Bits))
	}
}

// formatFloatConstant renders a float constant with a G9 round-trip
// format plus a `.0` suffix when integral, mapping NaN to 0.0 and
// infinities to the largest finite f32.
func formatFloatConstant(bits uint64, kind ir.ScalarKind) string {
	var f float64
	if kind == ir.ScalarF64 {
		f = float64frombits(bits)
	} else {
		f = float64(float32frombits(uint32(bits)))
	}
	if f != f {
		return "0.0"
	}
	if f > 3.402823e+38 {
		return "3.402823e+38"
	}
	if f < -3.402823e+38 {
		return "-3.402823e+38"
	}
	s := strconv.FormatFloat(f, 'g', 9, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func float64frombits(b uint64) float64 { return math.Float64frombits(b) }

func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
