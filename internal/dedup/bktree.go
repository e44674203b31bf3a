package dedup

// BKTree indexes fingerprints in Hamming space for radius-bounded
// neighbor lookup. It supports O(log n) average-case search for
// well-distributed keys; the tree is never rebalanced or deleted from.
//
// Each tree slot holds the disjoint-set node that was representative
// when the key was inserted; the reference can go stale as unions
// happen, so callers must re-resolve values via Find before use.
type BKTree struct {
	root     *bkNode
	distance func(a, b uint64) int
}

type bkNode struct {
	key      uint64
	value    *Node
	children map[int]*bkNode // distance -> child node
}

// NewBKTree creates a new BK-tree with the given distance function.
func NewBKTree(distanceFn func(a, b uint64) int) *BKTree {
	return &BKTree{distance: distanceFn}
}

// Insert adds a key with its associated node to the tree. Inserting a
// key that is already present is a no-op and returns false: the first
// insertion keeps the tree slot, and the caller unions against the
// existing value instead.
func (t *BKTree) Insert(key uint64, value *Node) bool {
	node := &bkNode{
		key:      key,
		value:    value,
		children: make(map[int]*bkNode),
	}

	if t.root == nil {
		t.root = node
		return true
	}

	current := t.root
	for {
		dist := t.distance(key, current.key)
		if dist == 0 {
			return false
		}
		if child, exists := current.children[dist]; exists {
			current = child
		} else {
			current.children[dist] = node
			return true
		}
	}
}

// FindWithinDistance returns the associated nodes of every indexed key
// within threshold (inclusive) of the query key.
func (t *BKTree) FindWithinDistance(key uint64, threshold int) []*Node {
	if t.root == nil {
		return nil
	}

	var results []*Node
	t.searchNode(t.root, key, threshold, &results)
	return results
}

func (t *BKTree) searchNode(node *bkNode, key uint64, threshold int, results *[]*Node) {
	dist := t.distance(key, node.key)

	if dist <= threshold {
		*results = append(*results, node.value)
	}

	// Triangle inequality: only children in [dist - threshold,
	// dist + threshold] can hold a match. The bound must be exact, not
	// approximate: widening wastes traversal, narrowing drops matches.
	minDist := dist - threshold
	if minDist < 0 {
		minDist = 0
	}
	maxDist := dist + threshold
	if maxDist > 64 {
		maxDist = 64
	}

	for childDist, child := range node.children {
		if childDist >= minDist && childDist <= maxDist {
			t.searchNode(child, key, threshold, results)
		}
	}
}

// Size returns the number of distinct keys in the tree.
func (t *BKTree) Size() int {
	if t.root == nil {
		return 0
	}
	return t.countNodes(t.root)
}

func (t *BKTree) countNodes(node *bkNode) int {
	count := 1
	for _, child := range node.children {
		count += t.countNodes(child)
	}
	return count
}
