package dedup

import (
	"math/rand"
	"testing"
)

func TestUnionFind_Singleton(t *testing.T) {
	n := testNode(0)
	if n.Find() != n {
		t.Error("singleton should be its own representative")
	}
}

func TestUnionFind_Idempotent(t *testing.T) {
	a, b := testNode(0), testNode(1)
	Union(a, b)
	if a.Find() != a.Find().Find() {
		t.Error("find(find(x)) != find(x)")
	}

	r1 := Union(a, b)
	r2 := Union(a, b)
	if r1 != r2 {
		t.Error("repeated union changed the representative")
	}
}

func TestUnionFind_Transitivity(t *testing.T) {
	nodes := make([]*Node, 6)
	for i := range nodes {
		nodes[i] = testNode(i)
	}

	Union(nodes[0], nodes[1])
	Union(nodes[2], nodes[3])
	Union(nodes[1], nodes[2]) // {0,1,2,3}
	Union(nodes[4], nodes[5]) // {4,5}

	for _, pair := range [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 3}, {4, 5}} {
		if nodes[pair[0]].Find() != nodes[pair[1]].Find() {
			t.Errorf("%d and %d should share a representative", pair[0], pair[1])
		}
	}
	if nodes[0].Find() == nodes[4].Find() {
		t.Error("separate classes share a representative")
	}
}

// After any random sequence of unions, two nodes share a representative
// exactly when they were transitively unioned.
func TestUnionFind_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 100

	nodes := make([]*Node, n)
	ref := make([]int, n) // naive labeling
	for i := range nodes {
		nodes[i] = testNode(i)
		ref[i] = i
	}

	for step := 0; step < 200; step++ {
		a, b := rng.Intn(n), rng.Intn(n)
		Union(nodes[a], nodes[b])

		la, lb := ref[a], ref[b]
		if la != lb {
			for i := range ref {
				if ref[i] == lb {
					ref[i] = la
				}
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			same := nodes[i].Find() == nodes[j].Find()
			if same != (ref[i] == ref[j]) {
				t.Fatalf("nodes %d,%d: forest says %v, reference says %v", i, j, same, ref[i] == ref[j])
			}
		}
	}
}
