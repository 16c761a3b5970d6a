// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// typeMapper maps IR type nodes to WGSL type spellings.
//
// Lookups are lazily populated and cached. The cache is a plain map
// with no locking; each Compile call builds its own typeMapper. The struct-declaration
// dedup keyed by a stable identity follows the same pattern as naga's
// ir/registry.go TypeRegistry.GetOrCreate, adapted from SPIR-V
// numeric-type deduplication to WGSL struct-name deduplication.
type typeMapper struct {
	// cache maps (method, handle, emulation flags) to an
	// already-resolved WGSL spelling.
	cache map[typeCacheKey]string

	// structNames maps an IR struct's stable ID to the WGSL struct name
	// already chosen for it, so identical struct types referenced from
	// different methods share one declaration.
	structNames map[uint32]string

	// structDecls holds the emitted `struct struct_<id> { ... };`
	// declarations in first-seen order.
	structDecls []string

	// diagnostics records UnmappableType occurrences for Info.
	diagnostics []string
}

type typeCacheKey struct {
	method         *ir.MethodGraph
	handle         ir.TypeHandle
	emuF64, emuI64 bool
}

func newTypeMapper() *typeMapper {
	return &typeMapper{
		cache:       make(map[typeCacheKey]string),
		structNames: make(map[uint32]string),
	}
}

// Name resolves t (relative to m's type arena) to its WGSL spelling,
// enabling f64/i64/u64 emulation aliases when the corresponding flag is
// set. Unknown type nodes map to "u32" as a last-resort placeholder and
// are recorded in diagnostics.
func (tm *typeMapper) Name(m *ir.MethodGraph, t ir.TypeHandle, emuF64, emuI64 bool) string {
	if t == ir.TypeVoid {
		return "void"
	}
	key := typeCacheKey{m, t, emuF64, emuI64}
	if name, ok := tm.cache[key]; ok {
		return name
	}
	name := tm.resolve(m, t, emuF64, emuI64)
	tm.cache[key] = name
	return name
}

func (tm *typeMapper) resolve(m *ir.MethodGraph, t ir.TypeHandle, emuF64, emuI64 bool) string {
	node := m.Type(t)
	switch inner := node.Inner.(type) {
	case ir.Scalar:
		return tm.scalarName(inner.Kind, emuF64, emuI64)
	case ir.IndexType:
		switch inner.Dim {
		case ir.Index1D:
			return "i32"
		case ir.Index2D:
			return "vec2<i32>"
		case ir.Index3D:
			return "vec3<i32>"
		default:
			return "i32"
		}
	case ir.Pointer:
		elem := tm.Name(m, inner.Elem, emuF64, emuI64)
		switch inner.Space {
		case ir.SpaceGlobal:
			return fmt.Sprintf("ptr<storage, %s, read_write>", elem)
		case ir.SpaceShared:
			return fmt.Sprintf("ptr<workgroup, %s>", elem)
		default:
			return fmt.Sprintf("ptr<function, %s>", elem)
		}
	case ir.View:
		// Views are realized as storage-buffer bindings by the Kernel
		// Emitter, not embedded as an ordinary WGSL type; this spelling
		// is only used for diagnostics and nested-field resolution.
		return fmt.Sprintf("array<%s>", tm.Name(m, inner.Elem, emuF64, emuI64))
	case ir.Struct:
		return tm.structName(m, inner, emuF64, emuI64)
	default:
		tm.diagnostics = append(tm.diagnostics, fmt.Sprintf("unmappable type node %T in method %q; using u32 placeholder", node.Inner, m.Name))
		return "u32"
	}
}

func (tm *typeMapper) scalarName(kind ir.ScalarKind, emuF64, emuI64 bool) string {
	switch kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarI8, ir.ScalarI16, ir.ScalarI32:
		return "i32"
	case ir.ScalarU8, ir.ScalarU16, ir.ScalarU32:
		return "u32"
	case ir.ScalarI64:
		if emuI64 {
			return "i64"
		}
		return "i32"
	case ir.ScalarU64:
		if emuI64 {
			return "u64"
		}
		return "u32"
	case ir.ScalarF16, ir.ScalarF32:
		return "f32"
	case ir.ScalarF64:
		if emuF64 {
			return "f64"
		}
		return "f32"
	default:
		tm.diagnostics = append(tm.diagnostics, fmt.Sprintf("unmappable scalar kind %d; using u32 placeholder", kind))
		return "u32"
	}
}

// structName resolves (and, on first sight, emits) a named struct
// declaration for s, returning its WGSL type name.
func (tm *typeMapper) structName(m *ir.MethodGraph, s ir.Struct, emuF64, emuI64 bool) string {
	if name, ok := tm.structNames[s.ID]; ok {
		return name
	}
	name := fmt.Sprintf("struct_%d", s.ID)
	tm.structNames[s.ID] = name

	var b strings.Builder
	fmt.Fprintf(&b, "struct %s {\n", name)
	for i, f := range s.Fields {
		fmt.Fprintf(&b, "    field_%d : %s,\n", i, tm.Name(m, f.Type, emuF64, emuI64))
	}
	b.WriteString("};\n")
	tm.structDecls = append(tm.structDecls, b.String())

	return name
}

// StructDecls returns every struct declaration emitted so far, in
// first-seen order.
func (tm *typeMapper) StructDecls() []string { return tm.structDecls }

// Diagnostics returns every UnmappableType diagnostic recorded so far.
func (tm *typeMapper) Diagnostics() []string { return tm.diagnostics }

// IsView reports whether t (in m's arena) is a view: either a direct
// View/Pointer type, or a structure whose first field is a view/pointer
// or which has a field whose name contains "View".
func IsView(m *ir.MethodGraph, t ir.TypeHandle) (dims uint8, ok bool) {
	node := m.Type(t)
	switch inner := node.Inner.(type) {
	case ir.View:
		return inner.Dims, true
	case ir.Pointer:
		return 1, true
	case ir.Struct:
		if len(inner.Fields) == 0 {
			return 0, false
		}
		first := m.Type(inner.Fields[0].Type)
		switch first.Inner.(type) {
		case ir.View, ir.Pointer:
			return dimsFromFieldCount(len(inner.Fields)), true
		}
		for _, f := range inner.Fields {
			if strings.Contains(f.Name, "View") {
				return dimsFromFieldCount(len(inner.Fields)), true
			}
		}
	}
	return 0, false
}

// dimsFromFieldCount infers view dimensionality from field count:
// 1D has up to 3 fields, 2D has 4, 3D has more.
func dimsFromFieldCount(n int) uint8 {
	switch {
	case n <= 3:
		return 1
	case n == 4:
		return 2
	default:
		return 3
	}
}
