// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"strings"
	"testing"

	"github.com/gogpu/kernelwgsl/ir"
)

// snapshotCase pairs a program builder with the WGSL fragments its
// compiled output must contain. Unlike a full golden-file comparison,
// this only pins the fragments that matter to each case, so unrelated
// formatting changes elsewhere in the generator don't make every case
// brittle.
type snapshotCase struct {
	name    string
	build   func(t *testing.T) *ir.Program
	opts    func() *Options
	want    []string
	wantNot []string
}

func snapshotCases() []snapshotCase {
	return []snapshotCase{
		{
			name: "1d_view_add",
			build: func(t *testing.T) *ir.Program {
				return &ir.Program{Entry: build1DAddKernel(t), IndexType: ir.KernelIndex1D}
			},
			opts: DefaultOptions,
			want: []string{
				"@compute @workgroup_size(64)",
				"@group(0) @binding(0)",
				"@group(0) @binding(1)",
				"@group(0) @binding(2)",
			},
		},
		{
			name: "2d_view_reserves_stride_binding",
			build: func(t *testing.T) *ir.Program {
				b := ir.NewBuilder("matsum")
				idx := b.DeclareType("index2d", ir.IndexType{Dim: ir.Index2D})
				f32 := b.DeclareType("f32", ir.Scalar{Kind: ir.ScalarF32})
				view2d := b.DeclareType("view_f32_2d", ir.View{Elem: f32, Dims: 2})
				b.AddParam("kernel_index", idx)
				b.AddParam("mat", view2d)
				entry := b.AllocateBasicBlock()
				b.SetInsertionBlock(entry)
				b.InsertValue(ir.TypeVoid, ir.Return{})
				return &ir.Program{Entry: b.Method(), IndexType: ir.KernelIndex2D}
			},
			opts: DefaultOptions,
			want: []string{
				"@compute @workgroup_size(8, 8)",
				"@binding(0) var<storage, read_write> param1",
				"@binding(1) var<storage, read> param1_stride",
			},
		},
		{
			name: "i64_emulation_off_narrows_to_i32",
			build: func(t *testing.T) *ir.Program {
				b := ir.NewBuilder("i64add")
				i64 := b.DeclareType("i64", ir.Scalar{Kind: ir.ScalarI64})
				entry := b.AllocateBasicBlock()
				b.SetInsertionBlock(entry)
				l := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 1})
				r := b.InsertValue(i64, ir.PrimitiveConstant{Bits: 2})
				b.InsertValue(i64, ir.BinaryArith{Op: ir.ArithAdd, Left: l, Right: r})
				b.InsertValue(ir.TypeVoid, ir.Return{})
				return &ir.Program{Entry: b.Method()}
			},
			opts:    DefaultOptions,
			wantNot: []string{"alias i64", "i64_add("},
		},
	}
}

func TestSnapshots(t *testing.T) {
	for _, c := range snapshotCases() {
		t.Run(c.name, func(t *testing.T) {
			prog := c.build(t)
			code, _, err := Compile(prog, c.opts())
			if err != nil {
				t.Fatalf("Compile error: %v", err)
			}
			for _, frag := range c.want {
				if !strings.Contains(code, frag) {
					t.Errorf("expected output to contain %q, got:\n%s", frag, code)
				}
			}
			for _, frag := range c.wantNot {
				if strings.Contains(code, frag) {
					t.Errorf("expected output NOT to contain %q, got:\n%s", frag, code)
				}
			}
		})
	}
}
