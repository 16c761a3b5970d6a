// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import "github.com/gogpu/kernelwgsl/ir"

// lowerBody emits a method's full body to mg.out, selecting a strategy:
// single-block fast path, post-dominator-driven structured recursion
// for acyclic reducible graphs, or the loop/switch state-machine
// fallback otherwise.
func (mg *methodGen) lowerBody() {
	mg.prescanHoists()
	mg.hoistDeclarations()

	switch {
	case len(mg.m.Blocks) == 1:
		mg.emitBlockLinear(mg.m.Entry)
	case !mg.an.HasLoops() && mg.an.AllReachable():
		mg.lowerStructured(mg.m.Entry, nil)
	default:
		if mg.an.Irreducible() {
			mg.diagnostic("irreducible control flow in method " + mg.m.Name + "; using state-machine lowering")
		}
		mg.lowerStateMachine()
	}
}

func (mg *methodGen) emitBlockLinear(b ir.BlockHandle) {
	blk := mg.m.Block(b)
	mg.emitValuesExceptTerminator(blk)
	ret, ok := mg.m.Value(blk.Terminator()).Op.(ir.Return)
	if !ok {
		mg.fail(ErrInternal, "single-block method must terminate in return", int(b), 0)
		return
	}
	mg.emitReturn(ret)
}

func (mg *methodGen) emitValuesExceptTerminator(blk *ir.BasicBlock) {
	if len(blk.Values) == 0 {
		return
	}
	for _, v := range blk.Values[:len(blk.Values)-1] {
		mg.emitNonTerminator(v)
	}
}

// lowerStructured is the recursive descent over the block graph: stop
// marks the enclosing subgraph's merge point (nil for "no bound", i.e.
// the method's natural end).
func (mg *methodGen) lowerStructured(b ir.BlockHandle, stop *ir.BlockHandle) {
	if stop != nil && b == *stop {
		return
	}
	if mg.visited[b] {
		return
	}
	mg.visited[b] = true

	blk := mg.m.Block(b)
	mg.emitValuesExceptTerminator(blk)

	switch op := mg.m.Value(blk.Terminator()).Op.(type) {
	case ir.Return:
		mg.emitReturn(op)

	case ir.BranchUnconditional:
		mg.emitPhiAssignments(b, op.Target)
		mg.lowerStructured(op.Target, stop)

	case ir.BranchIf:
		mg.lowerBranchIf(b, op, stop)

	case ir.BranchSwitch:
		mg.lowerBranchSwitch(b, op, stop)

	default:
		mg.fail(ErrInternal, "block has no recognized terminator", int(b), 0)
	}
}

func (mg *methodGen) lowerBranchIf(b ir.BlockHandle, op ir.BranchIf, stop *ir.BlockHandle) {
	merge, hasMerge := mg.an.PostDominatorImmediate(b)
	var mergeStop *ir.BlockHandle
	if hasMerge {
		mergeStop = &merge
	}
	cond := mg.operand(op.Condition)

	trueIsMerge := hasMerge && op.True == merge
	falseIsMerge := hasMerge && op.False == merge

	switch {
	case falseIsMerge && !trueIsMerge:
		mg.out.Linef("if (%s) {", cond)
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.True)
		mg.lowerStructured(op.True, mergeStop)
		mg.out.Dedent()
		mg.out.Linef("}")
	case trueIsMerge && !falseIsMerge:
		mg.out.Linef("if (!(%s)) {", cond)
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.False)
		mg.lowerStructured(op.False, mergeStop)
		mg.out.Dedent()
		mg.out.Linef("}")
	default:
		mg.out.Linef("if (%s) {", cond)
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.True)
		mg.lowerStructured(op.True, mergeStop)
		mg.out.Dedent()
		mg.out.Linef("} else {")
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.False)
		mg.lowerStructured(op.False, mergeStop)
		mg.out.Dedent()
		mg.out.Linef("}")
	}

	if hasMerge && (stop == nil || merge != *stop) {
		mg.lowerStructured(merge, stop)
	}
}

func (mg *methodGen) lowerBranchSwitch(b ir.BlockHandle, op ir.BranchSwitch, stop *ir.BlockHandle) {
	merge, hasMerge := mg.an.PostDominatorImmediate(b)
	var mergeStop *ir.BlockHandle
	if hasMerge {
		mergeStop = &merge
	}

	sel := mg.operand(op.Selector)
	mg.out.Linef("switch (%s) {", sel)
	mg.out.Indent()
	for _, c := range op.Cases {
		mg.out.Linef("case %d: {", c.Value)
		mg.out.Indent()
		mg.emitPhiAssignments(b, c.Target)
		mg.lowerStructured(c.Target, mergeStop)
		mg.out.Linef("break;")
		mg.out.Dedent()
		mg.out.Linef("}")
	}
	mg.out.Linef("default: {")
	mg.out.Indent()
	mg.emitPhiAssignments(b, op.Default)
	mg.lowerStructured(op.Default, mergeStop)
	mg.out.Linef("break;")
	mg.out.Dedent()
	mg.out.Linef("}")
	mg.out.Dedent()
	mg.out.Linef("}")

	if hasMerge && (stop == nil || merge != *stop) {
		mg.lowerStructured(merge, stop)
	}
}

// emitReturn is shared by structured and linear lowering: it emits
// `return;` directly, or assigns to a hoisted `_return_val` first.
func (mg *methodGen) emitReturn(op ir.Return) {
	if op.Value == nil {
		mg.out.Linef("return;")
		return
	}
	expr := mg.operand(*op.Value)
	mg.out.Linef("%s = %s;", mg.returnVar, expr)
	mg.out.Linef("return %s;", mg.returnVar)
}

// emitPhiAssignments writes the from-block-specific incoming value of
// every phi in `to` to its hoisted variable, before a transition out of
// `from`.
func (mg *methodGen) emitPhiAssignments(from, to ir.BlockHandle) {
	for _, v := range mg.m.Block(to).Values {
		val := mg.m.Value(v)
		phi, ok := val.Op.(ir.Phi)
		if !ok {
			continue
		}
		for _, inc := range phi.Incoming {
			if inc.Block != from {
				continue
			}
			expr := mg.operand(inc.Value)
			vv := mg.vars.Load(v, mg.typeName(val.Type))
			mg.out.Linef("%s = %s;", vv.Name, expr)
		}
	}
}

// lowerStateMachine is the cyclic/irreducible fallback: a
// `loop { switch(current_block) {...} }` over block ordinals, with
// every transition writing the next ordinal (or -1 for return) before
// `continue`/`break`.
func (mg *methodGen) lowerStateMachine() {
	mg.out.Linef("var current_block : i32 = 0;")
	mg.out.Linef("loop {")
	mg.out.Indent()
	mg.out.Linef("switch (current_block) {")
	mg.out.Indent()

	for bi := range mg.m.Blocks {
		b := ir.BlockHandle(bi)
		mg.out.Linef("case %d: {", bi)
		mg.out.Indent()
		mg.emitStateMachineBlock(b)
		mg.out.Dedent()
		mg.out.Linef("}")
	}

	mg.out.Linef("default: { break; }")
	mg.out.Dedent()
	mg.out.Linef("}")
	mg.out.Linef("if (current_block == -1) { break; }")
	mg.out.Dedent()
	mg.out.Linef("}")
}

func (mg *methodGen) emitStateMachineBlock(b ir.BlockHandle) {
	blk := mg.m.Block(b)
	mg.emitValuesExceptTerminator(blk)

	switch op := mg.m.Value(blk.Terminator()).Op.(type) {
	case ir.Return:
		if op.Value != nil {
			expr := mg.operand(*op.Value)
			mg.out.Linef("%s = %s;", mg.returnVar, expr)
		}
		mg.out.Linef("current_block = -1;")
		mg.out.Linef("break;")

	case ir.BranchUnconditional:
		mg.emitPhiAssignments(b, op.Target)
		mg.out.Linef("current_block = %d;", int(op.Target))
		mg.out.Linef("continue;")

	case ir.BranchIf:
		cond := mg.operand(op.Condition)
		mg.out.Linef("if (%s) {", cond)
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.True)
		mg.out.Linef("current_block = %d;", int(op.True))
		mg.out.Dedent()
		mg.out.Linef("} else {")
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.False)
		mg.out.Linef("current_block = %d;", int(op.False))
		mg.out.Dedent()
		mg.out.Linef("}")
		mg.out.Linef("continue;")

	case ir.BranchSwitch:
		sel := mg.operand(op.Selector)
		mg.out.Linef("switch (%s) {", sel)
		mg.out.Indent()
		for _, c := range op.Cases {
			mg.out.Linef("case %d: {", c.Value)
			mg.out.Indent()
			mg.emitPhiAssignments(b, c.Target)
			mg.out.Linef("current_block = %d;", int(c.Target))
			mg.out.Dedent()
			mg.out.Linef("}")
		}
		mg.out.Linef("default: {")
		mg.out.Indent()
		mg.emitPhiAssignments(b, op.Default)
		mg.out.Linef("current_block = %d;", int(op.Default))
		mg.out.Dedent()
		mg.out.Linef("}")
		mg.out.Dedent()
		mg.out.Linef("}")
		mg.out.Linef("continue;")

	default:
		mg.fail(ErrInternal, "block has no recognized terminator", int(b), 0)
	}
}
