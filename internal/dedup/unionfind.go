package dedup

import "linkdedup/internal/models"

// Node is one element of the disjoint-set forest. A nil parent marks
// the representative of its equivalence class; only a current
// representative carries a group record, which the engine transfers on
// union. Nodes are never deleted within a session.
type Node struct {
	parent *Node
	rank   int
	item   *models.Item
	group  *models.DuplicateGroup
}

// NewNode creates a singleton node for an item.
func NewNode(item *models.Item) *Node {
	return &Node{item: item}
}

// Item returns the item this node was created for.
func (n *Node) Item() *models.Item {
	return n.item
}

// Group returns the group record attached to this node, non-nil only on
// a current representative.
func (n *Node) Group() *models.DuplicateGroup {
	return n.group
}

// Find returns the representative of n's class, compressing the path by
// pointing each visited node at its grandparent.
func (n *Node) Find() *Node {
	cur := n
	for cur.parent != nil {
		if cur.parent.parent != nil {
			cur.parent = cur.parent.parent
		}
		cur = cur.parent
	}
	return cur
}

// Union merges the classes of a and b by rank and returns the new
// representative. If they are already in the same class this is a no-op.
// The forest carries no item-level semantics: callers are responsible
// for moving any group record onto the returned representative.
func Union(a, b *Node) *Node {
	ra, rb := a.Find(), b.Find()
	if ra == rb {
		return ra
	}
	if ra.rank < rb.rank {
		ra, rb = rb, ra
	}
	rb.parent = ra
	if ra.rank == rb.rank {
		ra.rank++
	}
	return ra
}
