// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/kernelwgsl/ir"
)

// emitFunction lowers one non-entry helper method to a WGSL function
// definition. External and intrinsic-flagged methods have no body and
// are skipped, returning "".
func (g *generator) emitFunction(ref ir.MethodRef, m *ir.MethodGraph) (string, error) {
	if m.External || m.Intrinsic != nil {
		return "", nil
	}

	mg := g.newMethodGen(m, false)
	mg.out.Indent() // everything emitted lands inside the function body braces

	paramDecls := make([]string, len(m.Params))
	for i, p := range m.Params {
		wt := mg.typeName(p.Type)
		paramDecls[i] = fmt.Sprintf("p_%d : %s", i, wt)

		local := fmt.Sprintf("loc_%d", i)
		mg.out.Linef("var %s : %s = p_%d;", local, wt, i)
		mg.vars.Bind(ir.ValueHandle(i), variable{Name: local, Type: wt})
	}

	mg.lowerBody()
	if mg.err != nil {
		return "", mg.err
	}

	resultSuffix := ""
	if m.Result != ir.TypeVoid {
		resultSuffix = " -> " + mg.typeName(m.Result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(%s)%s {\n", helperName(ref), strings.Join(paramDecls, ", "), resultSuffix)
	b.WriteString(mg.out.String())
	b.WriteString("}\n")
	return b.String(), nil
}
