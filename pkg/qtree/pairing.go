package qtree

// InducedPairing returns the one pairing the tree topology implies for the
// quartet: the split under which removing the middle edge of the quartet's
// induced subtree separates the two pairs.
//
// With unit edge lengths the induced pairing is the strict minimizer of
// the three path-length sums (four-point condition). The minimum is always
// unique in a binary tree: a tie would require the four induced paths to
// meet in a single node, which is impossible when internal degree is 3.
func (t *Tree) InducedPairing(q Quartet) Pairing {
	da := t.distancesFrom(t.posOf[q[0]])
	db := t.distancesFrom(t.posOf[q[1]])

	pb, pc, pd := t.posOf[q[1]], t.posOf[q[2]], t.posOf[q[3]]
	return PairingFromSums(
		da[pb]+t.pathLen(pc, pd),
		da[pc]+db[pd],
		da[pd]+db[pc],
	)
}

// PairingFromSums picks the pairing with the strictly smallest of the
// three path-length sums. Exposed for scorers that keep their own
// leaf-distance tables instead of walking the tree per quartet.
func PairingFromSums(sumABCD, sumACBD, sumADBC int) Pairing {
	switch {
	case sumABCD < sumACBD && sumABCD < sumADBC:
		return PairingABCD
	case sumACBD < sumADBC:
		return PairingACBD
	default:
		return PairingADBC
	}
}

// pathLen returns the topological distance between two nodes.
func (t *Tree) pathLen(u, v int) int {
	return t.distancesFrom(u)[v]
}

// distancesFrom computes topological distances from start to every node by
// breadth-first search. O(n) per call; the scorer caches leaf-to-leaf rows
// instead of calling this per quartet.
func (t *Tree) distancesFrom(start int) []int {
	dist := make([]int, len(t.adj))
	for i := range dist {
		dist[i] = -1
	}
	dist[start] = 0
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range t.adj[u] {
			if dist[v] < 0 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// LeafDistRow returns the topological distances from the leaf position pos
// to every leaf position, indexed by position. The scorer uses these rows
// to keep an incrementally updated leaf-to-leaf distance table.
func (t *Tree) LeafDistRow(pos int) []int {
	dist := t.distancesFrom(pos)
	n := len(t.labels)
	row := make([]int, n)
	copy(row, dist[:n])
	return row
}
