// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// Options configures a single Compile invocation.
type Options struct {
	// EnableF64Emulation emits the double-float alias and helper
	// library and routes every f64 operation through it.
	EnableF64Emulation bool

	// EnableI64Emulation emits the double-word alias and helper
	// library and routes every i64/u64 operation through it.
	EnableI64Emulation bool

	// Logger receives diagnostic-level records for recoverable
	// generation conditions (unmappable types, unhandled opcodes,
	// irreducible control flow). Defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// DefaultOptions returns an Options with both emulation features off
// and the default slog logger.
func DefaultOptions() *Options {
	return &Options{Logger: slog.Default()}
}

// BindingInfo describes one resolved storage-buffer binding, reported
// back to the caller so the host runtime can allocate matching buffers
// without re-deriving the parameter shape rules of §4.6.
type BindingInfo struct {
	Binding       int
	WGSLType      string
	HasStride     bool
	Atomic        bool
	ParameterName string
}

// Info carries non-fatal diagnostics and binding metadata produced
// alongside a successful Compile call.
type Info struct {
	Diagnostics []string
	Bindings    []BindingInfo
}

// Compile lowers prog to a complete WGSL module string, following the
// same Compile(module, options) -> (code, info, err) backend shape as
// naga's other backends (cf. hlsl.Compile).
func Compile(prog *ir.Program, opts *Options) (string, *Info, error) {
	if prog == nil || prog.Entry == nil {
		return "", nil, &Error{Kind: ErrInternal, Detail: "program has no entry method"}
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	g := newGenerator(opts)
	g.prog = prog

	helperTexts := make([]string, 0, len(prog.Helpers))
	for i, h := range prog.Helpers {
		text, err := g.emitFunction(ir.MethodRef(i), h)
		if err != nil {
			return "", nil, fmt.Errorf("wgsl: %w", err)
		}
		if text != "" {
			helperTexts = append(helperTexts, text)
		}
	}

	kernelText, err := g.emitKernel(prog)
	if err != nil {
		return "", nil, fmt.Errorf("wgsl: %w", err)
	}

	var b strings.Builder
	b.WriteString(banner)
	for _, decl := range g.types.StructDecls() {
		b.WriteString(decl)
	}
	if opts.EnableF64Emulation {
		b.WriteString(f64Library)
	}
	if opts.EnableI64Emulation {
		b.WriteString(i64Library)
	}
	for _, h := range helperTexts {
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString(kernelText)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range g.types.Diagnostics() {
		logger.Debug("wgsl generation diagnostic", "detail", d)
	}
	g.info.Diagnostics = append(g.info.Diagnostics, g.types.Diagnostics()...)
	return b.String(), &g.info, nil
}

const banner = "// Generated by kernelwgslc. Do not edit by hand.\n"
