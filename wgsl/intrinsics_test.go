// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"testing"

	"github.com/gogpu/kernelwgsl/ir"
)

func TestRouteCall_IntrinsicShortcutsToBuiltin(t *testing.T) {
	helper := &ir.MethodGraph{Name: "sqrtf", External: true}
	sqrtID := ir.IntrinsicSqrt
	helper.Intrinsic = &sqrtID

	b := ir.NewBuilder("caller")
	f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	x := b.InsertValue(f32, ir.PrimitiveConstant{Bits: 0})

	g := newGenerator(DefaultOptions())
	g.prog = &ir.Program{Entry: b.Method(), Helpers: []*ir.MethodGraph{helper}}
	mg := g.newMethodGen(b.Method(), false)

	got := mg.routeCall(f32, ir.Call{Method: 0, Args: []ir.ValueHandle{x}})
	if got != "sqrt(v_0)" {
		t.Fatalf("routeCall(intrinsic sqrt) = %q, want sqrt(v_0)", got)
	}
}

func TestRouteCall_NonIntrinsicFallsBackToFunctionCall(t *testing.T) {
	helper := &ir.MethodGraph{Name: "helper"}

	b := ir.NewBuilder("caller")
	entry := b.AllocateBasicBlock()
	b.SetInsertionBlock(entry)
	b.InsertValue(ir.TypeVoid, ir.Return{})

	g := newGenerator(DefaultOptions())
	g.prog = &ir.Program{Entry: b.Method(), Helpers: []*ir.MethodGraph{helper}}
	mg := g.newMethodGen(b.Method(), false)

	got := mg.routeCall(ir.TypeVoid, ir.Call{Method: 0})
	if got != "fn_0()" {
		t.Fatalf("routeCall(non-intrinsic) = %q, want fn_0()", got)
	}
}

func TestHelperName_StableAcrossCalls(t *testing.T) {
	if helperName(3) != helperName(3) {
		t.Fatal("helperName should be a pure function of the ref")
	}
	if helperName(0) == helperName(1) {
		t.Fatal("distinct refs should produce distinct names")
	}
}
