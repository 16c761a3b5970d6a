// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// workgroupSizes maps a kernel index dimensionality to its
// @workgroup_size annotation.
var workgroupSizes = map[ir.KernelIndexType]string{
	ir.KernelIndex1D: "64",
	ir.KernelIndex2D: "8, 8",
	ir.KernelIndex3D: "4, 4, 4",
}

// emitKernel produces the `@compute` entry point, including the
// binding table and body prologue.
func (g *generator) emitKernel(prog *ir.Program) (string, error) {
	m := prog.Entry
	mg := g.newMethodGen(m, true)

	mg.classifyParams(prog)
	bindings := mg.emitBindingDecls()
	shared := mg.emitSharedDecls(prog)

	mg.out.Indent()
	mg.emitPrologue(prog)
	mg.lowerBody()
	if mg.err != nil {
		return "", mg.err
	}

	wg := workgroupSizes[prog.IndexType]
	if wg == "" {
		wg = "64"
	}

	var b strings.Builder
	b.WriteString(bindings)
	b.WriteString(shared)
	fmt.Fprintf(&b, "@compute @workgroup_size(%s)\n", wg)
	b.WriteString("fn main(\n")
	b.WriteString("    @builtin(global_invocation_id) global_id : vec3<u32>,\n")
	b.WriteString("    @builtin(local_invocation_id) local_id : vec3<u32>,\n")
	b.WriteString("    @builtin(workgroup_id) group_id : vec3<u32>,\n")
	b.WriteString("    @builtin(num_workgroups) num_workgroups : vec3<u32>,\n")
	b.WriteString("    @builtin(local_invocation_index) local_index : u32,\n")
	b.WriteString(") {\n")
	b.WriteString(mg.out.String())
	b.WriteString("}\n")

	g.info.Bindings = append(g.info.Bindings, mg.bindingInfos()...)
	return b.String(), nil
}

// classifyParams builds the Binding Table: the kernel index parameter
// (if any) is skipped, every other parameter is tagged
// Scalar/Struct/View and assigned dense binding indices.
func (mg *methodGen) classifyParams(prog *ir.Program) {
	m := mg.m
	start := 0
	if prog.IndexType != ir.KernelIndexNone && len(m.Params) > 0 {
		start = 1
		mg.vars.Bind(ir.ValueHandle(0), variable{Name: "kernel_index", Type: mg.typeName(m.Params[0].Type)})
	}

	bindingIdx := 0
	mg.params = make([]paramBinding, 0, len(m.Params)-start)
	for i := start; i < len(m.Params); i++ {
		p := m.Params[i]
		dims, isView := IsView(m, p.Type)

		pb := paramBinding{
			Index:              i,
			BindingIndex:       bindingIdx,
			StrideBindingIndex: -1,
			VarName:            fmt.Sprintf("param%d", i),
		}

		switch {
		case isView:
			pb.Kind = paramView
			pb.Dims = dims
			pb.WGSLType = mg.typeName(elementTypeOf(m, p.Type))
		case isStructType(m, p.Type):
			pb.Kind = paramStruct
			pb.WGSLType = mg.typeName(p.Type)
		default:
			pb.Kind = paramScalar
			pb.WGSLType = mg.typeName(p.Type)
		}

		pb.Atomic = paramIsAtomicTarget(m, i)
		if kind, ok := elementScalarKind(m, p.Type); ok {
			pb.Emulated = kind.Is64Bit() && mg.emulationEnabled(kind)
		}

		mg.params = append(mg.params, pb)
		bindingIdx++
		if pb.Kind == paramView && pb.Dims >= 2 {
			mg.params[len(mg.params)-1].StrideBindingIndex = bindingIdx
			bindingIdx++
		}
	}

	for i := range mg.params {
		mg.paramOf[ir.ValueHandle(mg.params[i].Index)] = &mg.params[i]
	}
}

// emitBindingDecls writes the storage-buffer binding block.
func (mg *methodGen) emitBindingDecls() string {
	var b strings.Builder
	for i := range mg.params {
		pb := &mg.params[i]
		elemType := pb.WGSLType
		if pb.Atomic {
			elemType = fmt.Sprintf("atomic<%s>", elemType)
		}
		fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> %s : array<%s>;\n", pb.BindingIndex, pb.VarName, elemType)
		if pb.StrideBindingIndex >= 0 {
			fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read> %s_stride : array<i32>;\n", pb.StrideBindingIndex, pb.VarName)
		}
	}
	return b.String()
}

func (mg *methodGen) bindingInfos() []BindingInfo {
	out := make([]BindingInfo, 0, len(mg.params))
	for _, pb := range mg.params {
		out = append(out, BindingInfo{
			Binding:       pb.BindingIndex,
			WGSLType:      pb.WGSLType,
			HasStride:     pb.StrideBindingIndex >= 0,
			Atomic:        pb.Atomic,
			ParameterName: pb.VarName,
		})
	}
	return out
}

// emitSharedDecls writes `var<workgroup>` declarations for every
// shared/dynamic-shared allocation.
func (mg *methodGen) emitSharedDecls(prog *ir.Program) string {
	var b strings.Builder
	for i, s := range prog.Shared {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("shared_%d", i)
		}
		fmt.Fprintf(&b, "var<workgroup> %s : array<%s, %d>;\n", name, mg.typeName(s.Elem), s.Count)
	}
	for i, s := range prog.DynamicShared {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("dyn_shared_%d", i)
		}
		fmt.Fprintf(&b, "var<workgroup> %s : array<%s>;\n", name, mg.typeName(s.Elem))
	}
	return b.String()
}

// emitPrologue writes the body prologue: the workgroup_size mirror
// constant, the flattened kernel-index expression, and parameter
// bindings.
func (mg *methodGen) emitPrologue(prog *ir.Program) {
	wg := workgroupSizes[prog.IndexType]
	switch prog.IndexType {
	case ir.KernelIndex1D:
		mg.out.Linef("let workgroup_size = vec3<u32>(64u, 1u, 1u);")
	case ir.KernelIndex2D:
		mg.out.Linef("let workgroup_size = vec3<u32>(8u, 8u, 1u);")
	case ir.KernelIndex3D:
		mg.out.Linef("let workgroup_size = vec3<u32>(4u, 4u, 4u);")
	}
	_ = wg

	switch prog.IndexType {
	case ir.KernelIndex1D:
		mg.out.Linef("let kernel_index = i32(local_index + group_id.x * workgroup_size.x);")
	case ir.KernelIndex2D:
		mg.out.Linef("let kernel_index = vec2<i32>(i32(global_id.x), i32(global_id.y));")
	case ir.KernelIndex3D:
		mg.out.Linef("let kernel_index = vec3<i32>(i32(global_id.x), i32(global_id.y), i32(global_id.z));")
	}

	for _, pb := range mg.params {
		switch pb.Kind {
		case paramScalar:
			name := fmt.Sprintf("v_%d", mg.vars.counter)
			vv := vartableAllocateNamed(mg.vars, ir.ValueHandle(pb.Index), name, pb.WGSLType)
			mg.out.Linef("var %s : %s = %s[0];", vv.Name, pb.WGSLType, pb.VarName)
		case paramStruct, paramView:
			// Referenced directly by VarName through the Element/Field
			// Address paths; no local alias needed.
		}
	}
}

// --- Parameter-shape helpers ---------------------------------------------

func elementTypeOf(m *ir.MethodGraph, t ir.TypeHandle) ir.TypeHandle {
	switch inner := m.Type(t).Inner.(type) {
	case ir.View:
		return inner.Elem
	case ir.Pointer:
		return inner.Elem
	case ir.Struct:
		if len(inner.Fields) > 0 {
			switch first := m.Type(inner.Fields[0].Type).Inner.(type) {
			case ir.View:
				return first.Elem
			case ir.Pointer:
				return first.Elem
			}
		}
	}
	return t
}

func elementScalarKind(m *ir.MethodGraph, t ir.TypeHandle) (ir.ScalarKind, bool) {
	s, ok := m.Type(elementTypeOf(m, t)).Inner.(ir.Scalar)
	return s.Kind, ok
}

func isStructType(m *ir.MethodGraph, t ir.TypeHandle) bool {
	_, ok := m.Type(t).Inner.(ir.Struct)
	return ok
}

// paramIndexOf traces v back through address-computation chains to the
// parameter handle it ultimately reads from, or -1 if none.
func paramIndexOf(m *ir.MethodGraph, v ir.ValueHandle, paramCount int) int {
	for {
		if int(v) < paramCount {
			return int(v)
		}
		switch op := m.Value(v).Op.(type) {
		case ir.ElementAddress:
			v = op.Base
		case ir.FieldAddress:
			v = op.Base
		case ir.PointerCast:
			v = op.Source
		default:
			return -1
		}
	}
}

// paramIsAtomicTarget reports whether parameter index i is ever the
// target of a generic atomic or compare-and-swap operation anywhere in
// the method.
func paramIsAtomicTarget(m *ir.MethodGraph, i int) bool {
	for _, val := range m.Values {
		switch op := val.Op.(type) {
		case ir.GenericAtomic:
			if paramIndexOf(m, op.Pointer, len(m.Params)) == i {
				return true
			}
		case ir.AtomicCompareAndSwap:
			if paramIndexOf(m, op.Pointer, len(m.Params)) == i {
				return true
			}
		}
	}
	return false
}
