package ir

// Analysis holds the derived control-flow analyses the Control-Flow
// Lowerer needs: predecessors, the forward dominator tree (for loop
// detection), the post-dominator tree (for if/else merge-point
// detection), and the loop forest.
//
// No example in this module's retrieval pack implements dominator-tree
// or natural-loop computation; this is the standard "A Simple, Fast
// Dominance Algorithm" (Cooper, Harvey, Kennedy) run once forward and
// once over the reversed graph with a synthetic unified exit, built
// entirely on the standard library (slices/maps bookkeeping) because no
// ecosystem graph-analysis library in the pack does this either.
type Analysis struct {
	graph *MethodGraph

	order []BlockHandle          // reverse postorder from entry
	index map[BlockHandle]int    // block -> position in order
	preds map[BlockHandle][]BlockHandle
	succs map[BlockHandle][]BlockHandle

	idom     map[BlockHandle]BlockHandle // forward immediate dominator
	postIdom map[BlockHandle]BlockHandle // immediate post-dominator

	// exitVirtual is a sentinel handle (beyond len(Blocks)) representing
	// the unified exit node used for post-dominance; it has no entry in
	// graph.Blocks and must never be dereferenced via Block().
	exitVirtual BlockHandle

	loopHeaders map[BlockHandle]bool
	irreducible bool
}

const noBlock = BlockHandle(^uint32(0))

// Analyze computes the derived analyses for m. The method graph is not
// mutated.
func Analyze(m *MethodGraph) *Analysis {
	a := &Analysis{
		graph:       m,
		index:       make(map[BlockHandle]int, len(m.Blocks)),
		preds:       make(map[BlockHandle][]BlockHandle, len(m.Blocks)),
		succs:       make(map[BlockHandle][]BlockHandle, len(m.Blocks)),
		idom:        make(map[BlockHandle]BlockHandle, len(m.Blocks)),
		postIdom:    make(map[BlockHandle]BlockHandle, len(m.Blocks)),
		loopHeaders: make(map[BlockHandle]bool),
		exitVirtual: BlockHandle(len(m.Blocks)),
	}

	for i := range m.Blocks {
		b := BlockHandle(i)
		a.succs[b] = m.Successors(b)
	}
	for b, ss := range a.succs {
		for _, s := range ss {
			a.preds[s] = append(a.preds[s], b)
		}
	}

	a.order = reversePostorder(m.Entry, a.succs, len(m.Blocks))
	for i, b := range a.order {
		a.index[b] = i
	}

	a.idom = computeDominators(m.Entry, a.order, a.index, a.preds)
	a.computePostDominators()
	a.detectLoops()

	return a
}

// reversePostorder does a DFS from entry over succ and returns blocks in
// reverse postorder; unreachable blocks are omitted.
func reversePostorder(entry BlockHandle, succ map[BlockHandle][]BlockHandle, n int) []BlockHandle {
	visited := make([]bool, n)
	post := make([]BlockHandle, 0, n)

	var stack []struct {
		b   BlockHandle
		idx int
	}
	visited[entry] = true
	stack = append(stack, struct {
		b   BlockHandle
		idx int
	}{entry, 0})

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.idx < len(succ[top.b]) {
			next := succ[top.b][top.idx]
			top.idx++
			if !visited[next] {
				visited[next] = true
				stack = append(stack, struct {
					b   BlockHandle
					idx int
				}{next, 0})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}

	// post is postorder; reverse it.
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// computeDominators implements Cooper/Harvey/Kennedy's iterative
// dominator algorithm over `order` (must be reverse postorder from the
// graph's single source, using preds as the predecessor function).
func computeDominators(entry BlockHandle, order []BlockHandle, index map[BlockHandle]int, preds map[BlockHandle][]BlockHandle) map[BlockHandle]BlockHandle {
	idom := make(map[BlockHandle]BlockHandle, len(order))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom BlockHandle
			haveFirst := false
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !haveFirst {
					newIdom = p
					haveFirst = true
					continue
				}
				newIdom = intersect(newIdom, p, idom, index)
			}
			if !haveFirst {
				continue
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(a, b BlockHandle, idom map[BlockHandle]BlockHandle, index map[BlockHandle]int) BlockHandle {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

// computePostDominators runs the same algorithm over the reversed graph,
// connecting every block with no successors (Return terminators) to a
// synthetic exit node.
func (a *Analysis) computePostDominators() {
	m := a.graph
	n := len(m.Blocks)

	rpreds := make(map[BlockHandle][]BlockHandle, n+1) // reversed-graph "preds" = forward succs
	rsuccs := make(map[BlockHandle][]BlockHandle, n+1) // reversed-graph "succs" = forward preds

	for i := 0; i < n; i++ {
		b := BlockHandle(i)
		rpreds[b] = a.succs[b]
		if len(a.succs[b]) == 0 {
			rpreds[b] = append(rpreds[b], a.exitVirtual)
		}
	}
	for b, ss := range rpreds {
		for _, s := range ss {
			rsuccs[s] = append(rsuccs[s], b)
		}
	}

	order := reversePostorder(a.exitVirtual, rsuccs, n+1)
	index := make(map[BlockHandle]int, len(order))
	for i, b := range order {
		index[b] = i
	}

	a.postIdom = computeDominators(a.exitVirtual, order, index, rpreds)
}

// PostDominatorImmediate returns the merge node of b's control-flow
// arms: the closest block that every path from b eventually reaches.
// ok is false if b post-dominates the whole method (no merge exists,
// i.e. its immediate post-dominator is the synthetic exit).
func (a *Analysis) PostDominatorImmediate(b BlockHandle) (merge BlockHandle, ok bool) {
	pd, found := a.postIdom[b]
	if !found || pd == a.exitVirtual {
		return 0, false
	}
	return pd, true
}

// Dominates reports whether a dominates b in the forward dominator tree.
func (an *Analysis) Dominates(a, b BlockHandle) bool {
	for {
		if a == b {
			return true
		}
		parent, ok := an.idom[b]
		if !ok || parent == b {
			return a == b
		}
		b = parent
	}
}

// detectLoops finds back edges (u -> v where v dominates u in the
// forward dominator tree) and records their targets as loop headers. An
// edge that closes a cycle but whose target does NOT forward-dominate
// the source is irreducible control flow: the generator must fall back
// to state-machine lowering rather than reject it.
func (a *Analysis) detectLoops() {
	for _, b := range a.order {
		for _, s := range a.succs[b] {
			if _, reachable := a.index[s]; !reachable {
				continue
			}
			if a.index[s] <= a.index[b] {
				// Candidate back edge (target appears at or before
				// source in reverse postorder).
				if a.Dominates(s, b) {
					a.loopHeaders[s] = true
				} else {
					a.irreducible = true
				}
			}
		}
	}
}

// HasLoops reports whether the method contains any cycle (natural loop
// or irreducible).
func (a *Analysis) HasLoops() bool {
	return len(a.loopHeaders) > 0 || a.irreducible
}

// Irreducible reports whether the method's control-flow graph has a
// cycle that is not a natural (single-entry) loop.
func (a *Analysis) Irreducible() bool {
	return a.irreducible
}

// Reachable reports the number of reachable blocks from entry.
func (a *Analysis) Reachable() int { return len(a.order) }

// AllReachable reports whether every block in the method is reachable
// from the entry block.
func (a *Analysis) AllReachable() bool { return len(a.order) == len(a.graph.Blocks) }

// ReversePostorder returns the blocks reachable from entry in reverse
// postorder, suitable for driving structured-lowering recursion order.
func (a *Analysis) ReversePostorder() []BlockHandle { return a.order }
