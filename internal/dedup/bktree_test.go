package dedup

import (
	"math/rand"
	"testing"

	"linkdedup/internal/hash"
	"linkdedup/internal/models"
)

func testNode(index int) *Node {
	return NewNode(&models.Item{Index: index})
}

func indexSet(nodes []*Node) map[int]bool {
	set := make(map[int]bool)
	for _, n := range nodes {
		set[n.Item().Index] = true
	}
	return set
}

func TestBKTree_Empty(t *testing.T) {
	tree := NewBKTree(hash.Distance)

	results := tree.FindWithinDistance(0, 10)
	if len(results) != 0 {
		t.Errorf("expected empty results for empty tree, got %d", len(results))
	}

	if tree.Size() != 0 {
		t.Errorf("expected size 0, got %d", tree.Size())
	}
}

func TestBKTree_SingleElement(t *testing.T) {
	tree := NewBKTree(hash.Distance)
	tree.Insert(0b1111, testNode(0))

	// Exact match
	results := tree.FindWithinDistance(0b1111, 0)
	if len(results) != 1 || results[0].Item().Index != 0 {
		t.Errorf("expected [0], got %v", indexSet(results))
	}

	// Within threshold
	results = tree.FindWithinDistance(0b1110, 1) // distance 1
	if len(results) != 1 || results[0].Item().Index != 0 {
		t.Errorf("expected [0], got %v", indexSet(results))
	}

	// Outside threshold
	results = tree.FindWithinDistance(0b0000, 3) // distance 4
	if len(results) != 0 {
		t.Errorf("expected [], got %v", indexSet(results))
	}
}

func TestBKTree_MultipleElements(t *testing.T) {
	tree := NewBKTree(hash.Distance)

	hashes := []uint64{
		0b0000, // index 0
		0b0001, // index 1, distance 1 from 0
		0b0011, // index 2, distance 2 from 0, distance 1 from 1
		0b1111, // index 3, distance 4 from 0
	}
	for i, h := range hashes {
		if !tree.Insert(h, testNode(i)) {
			t.Fatalf("insert %d rejected", i)
		}
	}

	if tree.Size() != 4 {
		t.Errorf("expected size 4, got %d", tree.Size())
	}

	tests := []struct {
		query     uint64
		threshold int
		want      []int
	}{
		{0b0000, 0, []int{0}},
		{0b0000, 1, []int{0, 1}},
		{0b0000, 2, []int{0, 1, 2}},
		{0b0000, 4, []int{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		got := indexSet(tree.FindWithinDistance(tt.query, tt.threshold))
		if len(got) != len(tt.want) {
			t.Errorf("query %b r=%d: got %v, want %v", tt.query, tt.threshold, got, tt.want)
			continue
		}
		for _, w := range tt.want {
			if !got[w] {
				t.Errorf("query %b r=%d: missing %d", tt.query, tt.threshold, w)
			}
		}
	}
}

// Inserting a key that already exists must not create a second tree
// slot; the caller is told to union against the existing value instead.
func TestBKTree_DuplicateKey(t *testing.T) {
	tree := NewBKTree(hash.Distance)

	if !tree.Insert(0xABCD, testNode(0)) {
		t.Fatal("first insert rejected")
	}
	if tree.Insert(0xABCD, testNode(1)) {
		t.Error("duplicate insert accepted")
	}
	// Also when the collision is deeper than the root.
	tree.Insert(0xABCF, testNode(2))
	if tree.Insert(0xABCF, testNode(3)) {
		t.Error("duplicate insert of non-root key accepted")
	}

	if tree.Size() != 2 {
		t.Errorf("expected size 2, got %d", tree.Size())
	}

	results := tree.FindWithinDistance(0xABCD, 0)
	if len(results) != 1 || results[0].Item().Index != 0 {
		t.Errorf("first insertion should own the slot, got %v", indexSet(results))
	}
}

// Every key within the radius must be found and nothing else: the
// triangle-inequality pruning bound has to be exact in both directions.
func TestBKTree_Completeness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		tree := NewBKTree(hash.Distance)
		keys := make(map[uint64]int)
		for i := 0; i < 200; i++ {
			// Cluster keys so small radii still produce matches.
			k := rng.Uint64() & 0xFFFF
			if _, dup := keys[k]; dup {
				continue
			}
			keys[k] = len(keys)
			tree.Insert(k, testNode(keys[k]))
		}

		query := rng.Uint64() & 0xFFFF
		radius := rng.Intn(65)

		want := make(map[int]bool)
		for k, idx := range keys {
			if hash.Distance(k, query) <= radius {
				want[idx] = true
			}
		}

		got := indexSet(tree.FindWithinDistance(query, radius))
		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d results, want %d (radius %d)", trial, len(got), len(want), radius)
		}
		for idx := range want {
			if !got[idx] {
				t.Fatalf("trial %d: missing index %d", trial, idx)
			}
		}
	}
}

func TestBKTree_LargeThreshold(t *testing.T) {
	tree := NewBKTree(hash.Distance)

	for i := 0; i < 10; i++ {
		tree.Insert(uint64(i), testNode(i))
	}

	results := tree.FindWithinDistance(0, 64)
	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
}

func BenchmarkBKTree_Insert(b *testing.B) {
	tree := NewBKTree(hash.Distance)
	node := testNode(0)
	for i := 0; i < b.N; i++ {
		tree.Insert(uint64(i)*0x9E3779B97F4A7C15, node)
	}
}

func BenchmarkBKTree_Find(b *testing.B) {
	tree := NewBKTree(hash.Distance)
	node := testNode(0)
	for i := 0; i < 10000; i++ {
		tree.Insert(uint64(i)*0x9E3779B97F4A7C15, node)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.FindWithinDistance(uint64(i)*0x6C62272E07BB0142, 10)
	}
}
