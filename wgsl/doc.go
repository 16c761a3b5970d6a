// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wgsl generates WebGPU Shading Language (WGSL) compute-shader
// source text from this module's SSA compute-kernel IR (package ir).
//
// It is the inverse of a WGSL parser: instead of turning WGSL text into
// an IR, it turns an IR method graph into WGSL text suitable for a
// browser-side WebGPU compute pipeline. The hard parts are (a)
// reconstructing structured control flow (if/loop/switch) from a raw
// basic-block graph that has no native goto in the target language, (b)
// emulating 64-bit integers and doubles that WGSL does not support
// natively, and (c) laying out storage-buffer bindings for
// (possibly multi-dimensional) view parameters.
//
// # Basic usage
//
//	code, info, err := wgsl.Compile(program, wgsl.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Control-flow lowering
//
// The Control-Flow Lowerer (cfg.go) prefers structured output (if/else,
// switch) driven by post-dominator analysis, and falls back to a
// `loop { switch(current_block) { ... } }` state machine for cyclic or
// irreducible graphs.
//
// # 64-bit emulation
//
// When enabled via Options, f64 is represented as vec2<f32> (a
// double-float) and i64/u64 as vec2<u32> (a double-word); see
// emulation.go for the full helper catalog.
package wgsl
