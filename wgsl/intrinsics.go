// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// helperName is the stable WGSL function name for a helper method,
// shared between the Function Emitter (which defines it) and the
// Intrinsic Router's generic fall-through (which calls it).
func helperName(ref ir.MethodRef) string {
	return fmt.Sprintf("fn_%d", int(ref))
}

// routeCall is the Intrinsic Router: a Call whose target method
// carries an IntrinsicID is shortcut to a direct WGSL built-in;
// everything else falls through to a regular function call against
// the Function Emitter's output.
func (mg *methodGen) routeCall(resultType ir.TypeHandle, op ir.Call) string {
	args := make([]string, len(op.Args))
	for i, a := range op.Args {
		args[i] = mg.operand(a)
	}

	if mg.gen.prog == nil || int(op.Method) >= len(mg.gen.prog.Helpers) {
		mg.fail(ErrInternal, fmt.Sprintf("call to unresolvable method ref %d", op.Method), 0, 0)
		return fmt.Sprintf("%s(%s)", helperName(op.Method), strings.Join(args, ", "))
	}

	callee := mg.gen.prog.Method(op.Method)
	if callee.Intrinsic != nil {
		if expr, ok := mg.intrinsicCall(*callee.Intrinsic, resultType, args); ok {
			return expr
		}
	}

	return fmt.Sprintf("%s(%s)", helperName(op.Method), strings.Join(args, ", "))
}

// intrinsicCall emits the direct built-in form for a registered
// intrinsic. A false ok means "no direct form"; the caller falls back
// to the generic call path.
func (mg *methodGen) intrinsicCall(id ir.IntrinsicID, resultType ir.TypeHandle, args []string) (string, bool) {
	switch id {
	case ir.IntrinsicAbs:
		return fmt.Sprintf("abs(%s)", arg(args, 0)), true
	case ir.IntrinsicSign:
		kind, _ := mg.scalarKind(resultType)
		if kind.IsInteger() {
			return fmt.Sprintf("i32(sign(%s))", arg(args, 0)), true
		}
		return fmt.Sprintf("sign(%s)", arg(args, 0)), true
	case ir.IntrinsicMin:
		return fmt.Sprintf("min(%s, %s)", arg(args, 0), arg(args, 1)), true
	case ir.IntrinsicMax:
		return fmt.Sprintf("max(%s, %s)", arg(args, 0), arg(args, 1)), true
	case ir.IntrinsicClamp:
		return fmt.Sprintf("clamp(%s, %s, %s)", arg(args, 0), arg(args, 1), arg(args, 2)), true
	case ir.IntrinsicPow:
		return fmt.Sprintf("pow(%s, %s)", arg(args, 0), arg(args, 1)), true
	case ir.IntrinsicFma:
		return fmt.Sprintf("fma(%s, %s, %s)", arg(args, 0), arg(args, 1), arg(args, 2)), true
	case ir.IntrinsicAtan2:
		return fmt.Sprintf("atan2(%s, %s)", arg(args, 0), arg(args, 1)), true
	case ir.IntrinsicRcp:
		return fmt.Sprintf("(1.0 / %s)", arg(args, 0)), true
	case ir.IntrinsicRsqrt:
		return fmt.Sprintf("(1.0 / sqrt(%s))", arg(args, 0)), true
	case ir.IntrinsicSqrt:
		return fmt.Sprintf("sqrt(%s)", arg(args, 0)), true
	case ir.IntrinsicFloor:
		return fmt.Sprintf("floor(%s)", arg(args, 0)), true
	case ir.IntrinsicCeil:
		return fmt.Sprintf("ceil(%s)", arg(args, 0)), true
	case ir.IntrinsicRound:
		return fmt.Sprintf("round(%s)", arg(args, 0)), true
	default:
		return "", false
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return "0"
}
