// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"testing"

	"github.com/gogpu/kernelwgsl/ir"
)

func TestVarTable_AllocateAssignsMonotonicNames(t *testing.T) {
	vt := newVarTable()
	a := vt.Allocate(0, "f32")
	b := vt.Allocate(1, "i32")
	if a.Name == b.Name {
		t.Fatalf("Allocate should never reuse a name: got %q twice", a.Name)
	}
	if a.Type != "f32" || b.Type != "i32" {
		t.Fatalf("unexpected types: %+v, %+v", a, b)
	}
}

func TestVarTable_LoadAllocatesOnFirstUse(t *testing.T) {
	vt := newVarTable()
	if vt.IsBound(5) {
		t.Fatal("value 5 should not be bound yet")
	}
	v1 := vt.Load(5, "u32")
	if !vt.IsBound(5) {
		t.Fatal("Load should bind on first use")
	}
	v2 := vt.Load(5, "u32")
	if v1.Name != v2.Name {
		t.Fatalf("repeated Load should return the same binding: %q vs %q", v1.Name, v2.Name)
	}
}

func TestVarTable_BindOverridesExisting(t *testing.T) {
	vt := newVarTable()
	vt.Allocate(0, "f32")
	vt.Bind(0, variable{Name: "kernel_index", Type: "i32"})
	got := vt.Load(0, "i32")
	if got.Name != "kernel_index" {
		t.Fatalf("Bind should override the existing binding: got %q", got.Name)
	}
}

func TestVarTable_HoistedTracking(t *testing.T) {
	vt := newVarTable()
	if vt.IsHoisted(3) {
		t.Fatal("value 3 should not be hoisted by default")
	}
	vt.MarkHoisted(3)
	if !vt.IsHoisted(3) {
		t.Fatal("MarkHoisted should be observable via IsHoisted")
	}
}

func TestVarTable_DeclareOnlyOnce(t *testing.T) {
	vt := newVarTable()
	out := newLineWriter()
	v := variable{Name: "v_0", Type: "f32"}

	if !vt.Declare(out, v) {
		t.Fatal("first Declare call should emit a line")
	}
	if vt.Declare(out, v) {
		t.Fatal("second Declare call for the same name should be a no-op")
	}
	if got := out.String(); got != "var v_0 : f32;\n" {
		t.Fatalf("declared output = %q", got)
	}
}

func TestVartableAllocateNamed_BindsExplicitName(t *testing.T) {
	vt := newVarTable()
	v := vartableAllocateNamed(vt, ir.ValueHandle(9), "v_9", "bool")
	if v.Name != "v_9" {
		t.Fatalf("Name = %q, want v_9", v.Name)
	}
	if !vt.IsBound(9) {
		t.Fatal("vartableAllocateNamed should bind the handle")
	}
}
