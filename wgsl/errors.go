// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import "fmt"

// ErrorKind categorizes generator errors.
type ErrorKind uint8

const (
	// ErrUnmappableType indicates a type node the Type Mapper could not
	// translate. Recoverable: a u32 placeholder is emitted instead, so
	// this kind only ever appears in Info.Diagnostics, never as a
	// returned error.
	ErrUnmappableType ErrorKind = iota

	// ErrUnhandledOpcode indicates an opcode the Value Emitter has no
	// case for. Recoverable, diagnostic-only (see ErrUnmappableType).
	ErrUnhandledOpcode

	// ErrUnhandledArithmeticKind indicates an arithmetic sub-kind with
	// no lowering rule. Recoverable, diagnostic-only.
	ErrUnhandledArithmeticKind

	// ErrIrreducibleControlFlow indicates a cyclic, non-natural-loop
	// control-flow graph. Recoverable: the state-machine lowering path
	// handles it silently; this kind exists for diagnostics/logging
	// only.
	ErrIrreducibleControlFlow

	// ErrEmulationUnsupported indicates a 64-bit emulated operation with
	// no entry in the emulation library (e.g. a 64-bit transcendental
	// function). Non-recoverable: aborts the current method.
	ErrEmulationUnsupported

	// ErrInternal indicates a malformed IR invariant violation (e.g. a
	// block with no terminator) that the generator cannot proceed past.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnmappableType:
		return "UnmappableType"
	case ErrUnhandledOpcode:
		return "UnhandledOpcode"
	case ErrUnhandledArithmeticKind:
		return "UnhandledArithmeticKind"
	case ErrIrreducibleControlFlow:
		return "IrreducibleControlFlow"
	case ErrEmulationUnsupported:
		return "EmulationUnsupported"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error carries enough context for a caller to report a non-recoverable
// generation failure back to the user.
type Error struct {
	Kind ErrorKind

	// Method is the name of the method being generated when the error
	// occurred.
	Method string

	// Detail names the specific opcode/kind/operator that failed.
	Detail string

	// Block and Value pinpoint the IR location, when known.
	Block int
	Value int
}

func (e *Error) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("wgsl: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("wgsl: %s: method %q (block %d, value %d): %s", e.Kind, e.Method, e.Block, e.Value, e.Detail)
}
