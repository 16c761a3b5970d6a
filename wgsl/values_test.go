// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"strings"
	"testing"

	"github.com/gogpu/kernelwgsl/ir"
)

func TestBinaryArith_PlainOperators(t *testing.T) {
	b := ir.NewBuilder("m")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	l := b.InsertValue(f32, ir.PrimitiveConstant{Bits: 0})
	r := b.InsertValue(f32, ir.PrimitiveConstant{Bits: 0})

	mg := newTestMethodGen(t, b.Method())
	got := mg.binaryArith(ir.BinaryArith{Op: ir.ArithAdd, Left: l, Right: r})
	if !strings.Contains(got, "+") {
		t.Fatalf("binaryArith(add) = %q, want an infix +", got)
	}
}

func TestBinaryArith_RoutesThroughEmulationWhenEnabled(t *testing.T) {
	b := ir.NewBuilder("m")
	i64 := b.DeclareType("i64", ir.Scalar{Kind: ir.ScalarI64})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	l := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 1})
	r := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 2})

	g := newGenerator(&Options{EnableI64Emulation: true})
	mg := g.newMethodGen(b.Method(), false)

	got := mg.binaryArith(ir.BinaryArith{Op: ir.ArithAdd, Left: l, Right: r})
	if got != "i64_add(v_0, v_1)" {
		t.Fatalf("emulated add = %q, want a call to i64_add", got)
	}
}

func TestBinaryArith_UnsupportedEmulatedOperatorFails(t *testing.T) {
	b := ir.NewBuilder("m")
	i64 := b.DeclareType("i64", ir.Scalar{Kind: ir.ScalarI64})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	l := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 1})
	r := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 2})

	g := newGenerator(&Options{EnableI64Emulation: true})
	mg := g.newMethodGen(b.Method(), false)

	mg.binaryArith(ir.BinaryArith{Op: ir.ArithDiv, Left: l, Right: r})
	if mg.err == nil {
		t.Fatal("i64 division has no emulation entry and should fail")
	}
	if mg.err.(*Error).Kind != ErrEmulationUnsupported {
		t.Fatalf("error kind = %v, want ErrEmulationUnsupported", mg.err.(*Error).Kind)
	}
}

func TestUnaryArith_Builtins(t *testing.T) {
	b := ir.NewBuilder("m")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	x := b.InsertValue(f32, ir.PrimitiveConstant{Bits: 0})

	mg := newTestMethodGen(t, b.Method())
	if got := mg.unaryArith(ir.UnaryArith{Op: ir.UnarySqrt, Operand: x}); got != "sqrt(v_0)" {
		t.Fatalf("unaryArith(sqrt) = %q, want sqrt(v_0)", got)
	}
	if got := mg.unaryArith(ir.UnaryArith{Op: ir.UnaryRcp, Operand: x}); !strings.Contains(got, "1.0 /") {
		t.Fatalf("unaryArith(rcp) = %q, want a reciprocal expression", got)
	}
}

func TestCompare_ProducesInfixAndAllForVectors(t *testing.T) {
	b := ir.NewBuilder("m")
	i2d := b.DeclareType("index2d", ir.IndexType{Dim: ir.Index2D})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	l := b.InsertValue(i2d, ir.PrimitiveConstant{Bits: 0})
	r := b.InsertValue(i2d, ir.PrimitiveConstant{Bits: 0})

	mg := newTestMethodGen(t, b.Method())
	got := mg.compare(ir.Compare{Op: ir.CmpEq, Left: l, Right: r})
	if !strings.HasPrefix(got, "all(") {
		t.Fatalf("vector compare = %q, want an all(...) wrapper", got)
	}
}

func TestPrimitiveConstant_FloatAndInt(t *testing.T) {
	b := ir.NewBuilder("m")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	i32 := b.DeclareType("i32", ir.Scalar{Kind: ir.ScalarI32})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	b.InsertValue(ir.TypeVoid, ir.Return{})

	mg := newTestMethodGen(t, b.Method())
	neg5 := int32(-5)
	if got := mg.primitiveConstant(i32, ir.PrimitiveConstant{Bits: uint64(uint32(neg5))}); got != "i32(-5)" {
		t.Fatalf("int constant = %q, want i32(-5)", got)
	}
	if got := mg.primitiveConstant(f32, ir.PrimitiveConstant{Bits: 0}); got != "0.0" {
		t.Fatalf("float constant 0 = %q, want 0.0", got)
	}
}

func TestOperand_BindsUnboundParameterLazily(t *testing.T) {
	b := ir.NewBuilder("m")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	b.AddParam("x", f32)
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	b.InsertValue(ir.TypeVoid, ir.Return{})

	mg := newTestMethodGen(t, b.Method())
	got := mg.operand(ir.ValueHandle(0))
	if got != "p_0" {
		t.Fatalf("operand(param 0) = %q, want p_0", got)
	}
	if !mg.vars.IsBound(0) {
		t.Fatal("operand should bind the parameter on first reference")
	}
}

func TestElementAddress_AtomicParamRecordsElemRef(t *testing.T) {
	b := ir.NewBuilder("m")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	view := b.DeclareType("view", ir.View{Elem: f32, Dims: 1})
	b.AddParam("buf", view)
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	idx := b.InsertValue(b.DeclareType("i32", ir.Scalar{Kind: ir.ScalarI32}), ir.PrimitiveConstant{Bits: 0})
	addr := b.InsertValue(f32, ir.ElementAddress{Base: 0, Index: idx})

	mg := newTestMethodGen(t, b.Method())
	mg.params = []paramBinding{{Index: 0, Kind: paramView, Atomic: true, VarName: "param0", WGSLType: "u32"}}
	mg.paramOf[0] = &mg.params[0]

	mg.elementAddress(addr, ir.ElementAddress{Base: 0, Index: idx})
	if _, ok := mg.elemOf[addr]; !ok {
		t.Fatal("expected elementAddress on an atomic parameter to record an elemRef")
	}
}
