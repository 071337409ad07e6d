// Package parser scores head attachments with biaffine attention and decodes
// them into non-projective dependency trees.
package parser

// Decoder extracts the maximum-weight spanning arborescence rooted at node 0
// from an arbitrary real-valued score matrix (Chu–Liu/Edmonds). Cycle
// contraction uses an explicit stack of contracted-graph states instead of
// recursion, so long sentences cannot blow the call stack.
type Decoder struct{}

// edge is a (dependent, head) pair in the node ids of one contraction level.
type edge struct{ dep, head int }

// level is one contracted-graph state. prov[d][h] records which edge of the
// previous level an edge of this level stands for.
type level struct {
	scores [][]float64
	prov   [][]edge

	// Set on every level that was produced by contracting a cycle in its
	// parent level (parent node ids).
	cycle     []int
	cycleHead []int // head within the cycle for each entry of cycle
}

// Decode returns the head assignment maximizing the total edge score.
// scores[d][h] is the score of h being the head of d; index 0 is the
// artificial root. Row 0 is ignored. The result has len(scores) entries with
// result[0] == 0, exactly one token attached to the root, and always forms a
// legal tree no matter how degenerate the input scores are.
func (dec Decoder) Decode(scores [][]float64) []int {
	n := len(scores) - 1
	if n <= 1 {
		return dec.decode(scores)
	}

	heads := dec.decode(scores)
	if countRootChildren(heads) == 1 {
		return heads
	}

	// More than one node attached itself to the root: re-solve once per
	// candidate root child with every other root edge masked out, keeping
	// the highest-scoring single-rooted tree.
	mask := maskValue(scores)
	best, bestScore := []int(nil), 0.0
	for r := 1; r <= n; r++ {
		masked := make([][]float64, n+1)
		for d := 0; d <= n; d++ {
			masked[d] = append([]float64(nil), scores[d][:n+1]...)
			if d != r && d != 0 {
				masked[d][0] = mask
			}
		}
		h := dec.decode(masked)
		s := treeScore(scores, h)
		if best == nil || s > bestScore {
			best, bestScore = h, s
		}
	}
	return best
}

// maskValue returns a finite score low enough that no optimal tree can use a
// masked edge, while keeping the contraction arithmetic away from overflow.
func maskValue(scores [][]float64) float64 {
	maxAbs := 1.0
	for _, row := range scores {
		for _, v := range row {
			if a := abs(v); a > maxAbs {
				maxAbs = a
			}
		}
	}
	return -2 * float64(len(scores)+1) * maxAbs
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func countRootChildren(heads []int) int {
	n := 0
	for d := 1; d < len(heads); d++ {
		if heads[d] == 0 {
			n++
		}
	}
	return n
}

func treeScore(scores [][]float64, heads []int) float64 {
	s := 0.0
	for d := 1; d < len(heads); d++ {
		s += scores[d][heads[d]]
	}
	return s
}

func (Decoder) decode(scores [][]float64) []int {
	n := len(scores) - 1
	heads := make([]int, n+1)
	if n <= 0 {
		return heads
	}
	if n == 1 {
		heads[1] = 0
		return heads
	}

	base := level{scores: scores, prov: identityProv(n + 1)}
	stack := []level{base}

	// Contraction phase: greedily pick heads, contract one cycle at a time.
	var best []int
	for {
		cur := &stack[len(stack)-1]
		best = greedyHeads(cur.scores)
		cycle := findCycle(best)
		if cycle == nil {
			break
		}
		stack = append(stack, contract(cur, best, cycle))
	}

	// Expansion phase: unwind contractions, resolving each supernode.
	for len(stack) > 1 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := &stack[len(stack)-1]

		m := len(parent.scores)
		resolved := make([]int, m)
		for i := range resolved {
			resolved[i] = -1
		}
		for d := 1; d < len(best); d++ {
			e := top.prov[d][best[d]]
			resolved[e.dep] = e.head
		}
		// Cycle nodes whose incoming edge was not replaced keep their
		// in-cycle head.
		for i, c := range top.cycle {
			if resolved[c] == -1 {
				resolved[c] = top.cycleHead[i]
			}
		}
		best = resolved
	}

	copy(heads, best)
	heads[0] = 0
	return heads
}

func identityProv(m int) [][]edge {
	prov := make([][]edge, m)
	for d := range prov {
		prov[d] = make([]edge, m)
		for h := range prov[d] {
			prov[d][h] = edge{dep: d, head: h}
		}
	}
	return prov
}

// greedyHeads picks each non-root node's highest-scoring candidate head.
func greedyHeads(s [][]float64) []int {
	m := len(s)
	heads := make([]int, m)
	heads[0] = -1
	for d := 1; d < m; d++ {
		best := -1
		for h := 0; h < m; h++ {
			if h == d {
				continue
			}
			if best == -1 || s[d][h] > s[d][best] {
				best = h
			}
		}
		heads[d] = best
	}
	return heads
}

// findCycle returns the nodes of one cycle in the head assignment, or nil.
func findCycle(heads []int) []int {
	const (
		unseen = 0
		active = 1
		done   = 2
	)
	state := make([]int, len(heads))
	state[0] = done
	for start := 1; start < len(heads); start++ {
		if state[start] != unseen {
			continue
		}
		v := start
		for state[v] == unseen {
			state[v] = active
			v = heads[v]
		}
		if state[v] == active {
			// Walk the cycle once to collect it.
			cycle := []int{v}
			for u := heads[v]; u != v; u = heads[u] {
				cycle = append(cycle, u)
			}
			return cycle
		}
		v = start
		for state[v] == active {
			state[v] = done
			v = heads[v]
		}
	}
	return nil
}

// contract folds the cycle into a single supernode, adjusting the weight of
// every edge entering the cycle by the weight of the in-cycle edge it would
// replace, and keeping the best representative for edges leaving the cycle.
func contract(cur *level, heads []int, cycle []int) level {
	m := len(cur.scores)
	inCycle := make([]bool, m)
	for _, c := range cycle {
		inCycle[c] = true
	}
	cycleScore := 0.0
	for _, c := range cycle {
		cycleScore += cur.scores[c][heads[c]]
	}

	// New node ids: 0 stays root, outside nodes keep their relative order,
	// the supernode goes last.
	newID := make([]int, m)
	var outside []int
	next := 0
	for v := 0; v < m; v++ {
		if inCycle[v] {
			newID[v] = -1
			continue
		}
		newID[v] = next
		outside = append(outside, v)
		next++
	}
	super := next
	mm := next + 1

	s := make([][]float64, mm)
	prov := make([][]edge, mm)
	for i := range s {
		s[i] = make([]float64, mm)
		prov[i] = make([]edge, mm)
	}

	negInf := func() float64 { return -1e308 }

	for _, d := range outside {
		nd := newID[d]
		for _, h := range outside {
			s[nd][newID[h]] = cur.scores[d][h]
			prov[nd][newID[h]] = edge{dep: d, head: h}
		}
		// Edge from the supernode: best cycle member as head.
		bestC, bestScore := -1, negInf()
		for _, c := range cycle {
			if cur.scores[d][c] > bestScore {
				bestScore = cur.scores[d][c]
				bestC = c
			}
		}
		s[nd][super] = bestScore
		prov[nd][super] = edge{dep: d, head: bestC}
	}

	// Edges into the supernode: replacing the in-cycle edge of one member.
	for _, h := range outside {
		bestC, bestScore := -1, negInf()
		for _, c := range cycle {
			w := cur.scores[c][h] - cur.scores[c][heads[c]]
			if w > bestScore {
				bestScore = w
				bestC = c
			}
		}
		s[super][newID[h]] = bestScore + cycleScore
		prov[super][newID[h]] = edge{dep: bestC, head: h}
	}

	lv := level{scores: s, prov: prov, cycle: cycle}
	lv.cycleHead = make([]int, len(cycle))
	for i, c := range cycle {
		lv.cycleHead[i] = heads[c]
	}
	return lv
}

// DecodeBatch runs Decode per sentence over a padded batch of score
// matrices. lens holds the true token count of each sentence; the returned
// head arrays have lens[i]+1 entries including the root.
func (d Decoder) DecodeBatch(scores [][][]float64, lens []int) [][]int {
	out := make([][]int, len(scores))
	for i, s := range scores {
		n := lens[i]
		sub := make([][]float64, n+1)
		for r := 0; r <= n; r++ {
			sub[r] = s[r][:n+1]
		}
		out[i] = d.Decode(sub)
	}
	return out
}
