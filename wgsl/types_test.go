// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"strings"
	"testing"

	"github.com/gogpu/kernelwgsl/ir"
)

func TestTypeMapper_ScalarNames(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m, ir.Scalar{Kind: ir.ScalarF32})
	f64 := appendType(m, ir.Scalar{Kind: ir.ScalarF64})
	i64 := appendType(m, ir.Scalar{Kind: ir.ScalarI64})
	u8 := appendType(m, ir.Scalar{Kind: ir.ScalarU8})

	tm := newTypeMapper()

	if got := tm.Name(m, f32, false, false); got != "f32" {
		t.Fatalf("f32 = %q, want f32", got)
	}
	if got := tm.Name(m, u8, false, false); got != "u32" {
		t.Fatalf("u8 = %q, want u32", got)
	}
	if got := tm.Name(m, f64, false, false); got != "f32" {
		t.Fatalf("f64 without emulation = %q, want f32", got)
	}
	if got := tm.Name(m, f64, true, false); got != "f64" {
		t.Fatalf("f64 with emulation = %q, want f64", got)
	}
	if got := tm.Name(m, i64, false, true); got != "i64" {
		t.Fatalf("i64 with emulation = %q, want i64", got)
	}
}

func TestTypeMapper_CachesByMethodAndHandle(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m, ir.Scalar{Kind: ir.ScalarF32})
	tm := newTypeMapper()

	first := tm.Name(m, f32, false, false)
	if _, ok := tm.cache[typeCacheKey{m, f32, false, false}]; !ok {
		t.Fatal("expected resolved type to populate the cache")
	}
	if second := tm.Name(m, f32, false, false); second != first {
		t.Fatalf("cached lookup = %q, want %q", second, first)
	}
}

func TestTypeMapper_StructDeclSharedAcrossMethods(t *testing.T) {
	m1 := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m1, ir.Scalar{Kind: ir.ScalarF32})
	s := ir.Struct{ID: 7, Fields: []ir.StructField{{Name: "x", Type: f32}}}
	structH1 := appendType(m1, s)

	m2 := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32b := appendType(m2, ir.Scalar{Kind: ir.ScalarF32})
	structH2 := appendType(m2, ir.Struct{ID: 7, Fields: []ir.StructField{{Name: "x", Type: f32b}}})

	tm := newTypeMapper()
	name1 := tm.Name(m1, structH1, false, false)
	name2 := tm.Name(m2, structH2, false, false)

	if name1 != name2 {
		t.Fatalf("struct id 7 resolved to different names: %q vs %q", name1, name2)
	}
	if len(tm.StructDecls()) != 1 {
		t.Fatalf("len(StructDecls()) = %d, want 1 (dedup by struct id)", len(tm.StructDecls()))
	}
	if !strings.Contains(tm.StructDecls()[0], "struct_7") {
		t.Fatalf("decl = %q, want struct_7", tm.StructDecls()[0])
	}
}

func TestTypeMapper_UnmappableTypeDiagnostic(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}, {Inner: nil}}}
	tm := newTypeMapper()
	// A Type with a nil Inner (other than the reserved slot 0) falls
	// through to the default branch of resolve.
	got := tm.Name(m, 1, false, false)
	if got != "u32" {
		t.Fatalf("unmappable type = %q, want u32 placeholder", got)
	}
	if len(tm.Diagnostics()) != 1 {
		t.Fatalf("len(Diagnostics()) = %d, want 1", len(tm.Diagnostics()))
	}
}

func TestIsView_DirectViewAndPointer(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m, ir.Scalar{Kind: ir.ScalarF32})
	view := appendType(m, ir.View{Elem: f32, Dims: 2})
	ptr := appendType(m, ir.Pointer{Elem: f32, Space: ir.SpaceGlobal})

	if dims, ok := IsView(m, view); !ok || dims != 2 {
		t.Fatalf("IsView(view) = (%d, %v), want (2, true)", dims, ok)
	}
	if dims, ok := IsView(m, ptr); !ok || dims != 1 {
		t.Fatalf("IsView(pointer) = (%d, %v), want (1, true)", dims, ok)
	}
}

func TestIsView_StructWrappedView(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m, ir.Scalar{Kind: ir.ScalarF32})
	view := appendType(m, ir.View{Elem: f32, Dims: 1})
	wrapper := appendType(m, ir.Struct{
		ID: 1,
		Fields: []ir.StructField{
			{Name: "data", Type: view},
			{Name: "len", Type: f32},
			{Name: "stride", Type: f32},
			{Name: "offset", Type: f32},
		},
	})

	dims, ok := IsView(m, wrapper)
	if !ok {
		t.Fatal("expected struct-wrapped view to be detected")
	}
	if dims != 2 {
		t.Fatalf("dimsFromFieldCount(4) = %d, want 2", dims)
	}
}

func TestIsView_NonView(t *testing.T) {
	m := &ir.MethodGraph{Types: []ir.Type{{}}}
	f32 := appendType(m, ir.Scalar{Kind: ir.ScalarF32})
	if _, ok := IsView(m, f32); ok {
		t.Fatal("scalar should not be classified as a view")
	}
}

// appendType is the test-local equivalent of the fixture loader's
// internType: it appends inner directly without a Builder, since these
// tests exercise the type mapper in isolation from method construction.
func appendType(m *ir.MethodGraph, inner ir.TypeInner) ir.TypeHandle {
	h := ir.TypeHandle(len(m.Types))
	m.Types = append(m.Types, ir.Type{Inner: inner})
	return h
}
