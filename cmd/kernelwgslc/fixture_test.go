// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"testing"

	"github.com/gogpu/kernelwgsl/wgsl"
)

const addFixtureJSON = `{
	"index_type": "1d",
	"entry": {
		"name": "add",
		"params": [
			{"name": "kernel_index", "type_ref": 0},
			{"name": "a", "type_ref": 2},
			{"name": "b", "type_ref": 2},
			{"name": "out", "type_ref": 2}
		],
		"types": [
			{"kind": "index", "dim": "1d"},
			{"kind": "scalar", "scalar": "f32"},
			{"kind": "view", "elem": 1, "dims": 1},
			{"kind": "pointer", "elem": 1, "space": "global"},
			{"kind": "scalar", "scalar": "i32"}
		],
		"blocks": [
			[
				{"op": "primitive_constant", "type": 4, "bits": 0},
				{"op": "element_address", "type": 3, "base": 1, "index": 4},
				{"op": "element_address", "type": 3, "base": 2, "index": 4},
				{"op": "element_address", "type": 3, "base": 3, "index": 4},
				{"op": "load", "type": 1, "pointer": 5},
				{"op": "load", "type": 1, "pointer": 6},
				{"op": "binary_arith", "type": 1, "kind": "add", "left": 8, "right": 9},
				{"op": "store", "pointer": 7, "value": 10},
				{"op": "return"}
			]
		]
	}
}`

func TestLoadFixtureAndBuildProgram_AddKernel(t *testing.T) {
	f, err := loadFixture([]byte(addFixtureJSON))
	if err != nil {
		t.Fatalf("loadFixture error: %v", err)
	}
	prog, err := f.buildProgram()
	if err != nil {
		t.Fatalf("buildProgram error: %v", err)
	}

	code, info, err := wgsl.Compile(prog, wgsl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !strings.Contains(code, "@compute @workgroup_size(64)") {
		t.Fatalf("expected a 1D workgroup_size annotation:\n%s", code)
	}
	if len(info.Bindings) != 3 {
		t.Fatalf("len(info.Bindings) = %d, want 3", len(info.Bindings))
	}
	if !strings.Contains(code, "+") {
		t.Fatalf("expected an addition expression in the body:\n%s", code)
	}
}

func TestLoadFixture_InvalidJSONFails(t *testing.T) {
	if _, err := loadFixture([]byte("not json")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestBuildProgram_UnknownScalarFails(t *testing.T) {
	const badJSON = `{
		"entry": {
			"name": "bad",
			"types": [{"kind": "scalar", "scalar": "nonsense"}],
			"blocks": [[{"op": "return"}]]
		}
	}`
	f, err := loadFixture([]byte(badJSON))
	if err != nil {
		t.Fatalf("loadFixture error: %v", err)
	}
	if _, err := f.buildProgram(); err == nil {
		t.Fatal("expected an error for an unknown scalar kind")
	}
}
