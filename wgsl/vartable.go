// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"

	"github.com/gogpu/kernelwgsl/ir"
)

// variable pairs a WGSL identifier with its WGSL type spelling.
type variable struct {
	Name string
	Type string
}

// varTable is the per-method monotonic name allocator. Every method the
// generator emits gets a fresh table, so numbering restarts at v_0 in
// each method and names are never reused within one method, matching
// naga's per-writer namer (hlsl/namer.go, glsl's
// `namer`) but keyed by SSA value rather than by arbitrary base
// string, since every WGSL identifier this backend introduces names
// exactly one SSA value.
type varTable struct {
	counter int

	bound    map[ir.ValueHandle]variable
	declared map[string]bool
	hoisted  map[ir.ValueHandle]bool
}

func newVarTable() *varTable {
	return &varTable{
		bound:    make(map[ir.ValueHandle]variable),
		declared: make(map[string]bool),
		hoisted:  make(map[ir.ValueHandle]bool),
	}
}

// Allocate produces a fresh v_<n> name for v with the given WGSL type
// and binds it. Calling Allocate for an already-bound value rebinds it
// to a new name; callers normally use Load to avoid this.
func (vt *varTable) Allocate(v ir.ValueHandle, wgslType string) variable {
	name := fmt.Sprintf("v_%d", vt.counter)
	vt.counter++
	variable := variable{Name: name, Type: wgslType}
	vt.bound[v] = variable
	return variable
}

// Load returns the variable bound to v, allocating one (with wgslType)
// on first use.
func (vt *varTable) Load(v ir.ValueHandle, wgslType string) variable {
	if bound, ok := vt.bound[v]; ok {
		return bound
	}
	return vt.Allocate(v, wgslType)
}

// Bind associates a pre-existing variable with v without advancing the
// name counter (used when a value is reached through a fixed name, e.g.
// the kernel index or a helper's p_<n> parameter).
func (vt *varTable) Bind(v ir.ValueHandle, variable variable) {
	vt.bound[v] = variable
}

// IsBound reports whether v already has a variable.
func (vt *varTable) IsBound(v ir.ValueHandle) bool {
	_, ok := vt.bound[v]
	return ok
}

// MarkHoisted records that v's declaration has been lifted to
// method-top; the Value Emitter must then use bare assignment
// (`v = expr;`) instead of `let`/`var` at the definition site.
func (vt *varTable) MarkHoisted(v ir.ValueHandle) { vt.hoisted[v] = true }

// IsHoisted reports whether v's declaration was lifted to method-top.
func (vt *varTable) IsHoisted(v ir.ValueHandle) bool { return vt.hoisted[v] }

// Declare emits `var <name> : <type>;` the first time it is called for
// a given name, and is a no-op on every subsequent call. Returns true
// if this call actually emitted a line.
func (vt *varTable) Declare(out *lineWriter, v variable) bool {
	if vt.declared[v.Name] {
		return false
	}
	vt.declared[v.Name] = true
	out.Linef("var %s : %s;", v.Name, v.Type)
	return true
}

// DeclaredNames returns the set of names already declared.
func (vt *varTable) DeclaredNames() map[string]bool { return vt.declared }
