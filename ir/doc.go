// Package ir defines the intermediate representation consumed by this
// module's WGSL code generator.
//
// The IR is a source-language-agnostic description of a GPU compute
// kernel in Single Static Assignment (SSA) form: a Method is a set of
// BasicBlocks, each holding a sequence of Values terminated by exactly
// one control-flow terminator, plus derived analyses (post-dominator
// tree, loop forest) computed on demand from the block graph.
//
// # Structure
//
//   - MethodGraph: one compiled function — parameters, basic blocks, an
//     entry block.
//   - BasicBlock: an ordered list of Values ending in a terminator.
//   - Value: an immutable SSA node with a closed-sum-type Op payload
//     (arithmetic, memory, control flow, atomics, ...).
//   - Type: a closed sum of primitive/pointer/view/struct type nodes.
//
// This IR intentionally differs in shape from a structured
// statement-tree IR (if/loop/switch nesting): it is a raw control-flow
// graph, because the WGSL generator's hardest job is reconstructing
// structured control flow (or falling back to a state machine) from
// exactly this shape. See the wgsl package's Control-Flow Lowerer.
package ir
