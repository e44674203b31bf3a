package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdedup/internal/models"
)

func itemAt(index int) *models.Item {
	return &models.Item{Handle: "item", Index: index}
}

func TestMergeGroups_SmallerPrimaryWins(t *testing.T) {
	a := NewGroup(itemAt(5))
	b := NewGroup(itemAt(2))

	survivor, absorbed := MergeGroups(a, b)
	require.Same(t, b, survivor)
	require.Same(t, a, absorbed)
	assert.Equal(t, 2, survivor.Primary.Index)
	require.Len(t, survivor.Duplicates, 1)
	assert.Equal(t, 5, survivor.Duplicates[0].Index)
	assert.Empty(t, absorbed.Duplicates)
}

func TestMergeGroups_OrderPreservingMerge(t *testing.T) {
	a := NewGroup(itemAt(0))
	a.Duplicates = []*models.Item{itemAt(4), itemAt(9)}
	b := NewGroup(itemAt(2))
	b.Duplicates = []*models.Item{itemAt(3), itemAt(7)}

	survivor, _ := MergeGroups(a, b)
	require.Equal(t, 0, survivor.Primary.Index)
	var got []int
	for _, d := range survivor.Duplicates {
		got = append(got, d.Index)
	}
	assert.Equal(t, []int{2, 3, 4, 7, 9}, got)
	assert.NoError(t, checkGroup(survivor))
}

func TestMergeGroups_ShowDuplicatesPreserved(t *testing.T) {
	a := NewGroup(itemAt(0))
	b := NewGroup(itemAt(1))
	b.ShowDuplicates = true

	survivor, _ := MergeGroups(a, b)
	assert.True(t, survivor.ShowDuplicates, "flag from the absorbed group must survive")
}

func TestMergeGroups_InvalidArgumentsPanic(t *testing.T) {
	g := NewGroup(itemAt(0))
	assert.Panics(t, func() { MergeGroups(g, g) })
	assert.Panics(t, func() { MergeGroups(g, nil) })

	shared := itemAt(3)
	assert.Panics(t, func() { MergeGroups(NewGroup(shared), NewGroup(shared)) })
}

// The ordering invariant must hold after any sequence of merges.
func TestMergeGroups_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 50; trial++ {
		var groups []*models.DuplicateGroup
		for i := 0; i < 20; i++ {
			groups = append(groups, NewGroup(itemAt(i)))
		}

		for len(groups) > 1 {
			i := rng.Intn(len(groups))
			j := rng.Intn(len(groups))
			if i == j {
				continue
			}
			survivor, _ := MergeGroups(groups[i], groups[j])

			// Drop the absorbed record, keep the survivor.
			if i > j {
				i, j = j, i
			}
			groups[i] = survivor
			groups = append(groups[:j], groups[j+1:]...)

			for _, g := range groups {
				require.NoError(t, checkGroup(g))
			}
		}

		require.Equal(t, 0, groups[0].Primary.Index)
		require.Len(t, groups[0].Duplicates, 19)
	}
}

func TestMergeSorted(t *testing.T) {
	tests := []struct {
		name string
		a    []int
		b    []int
		want []int
	}{
		{"both empty", nil, nil, nil},
		{"left empty", nil, []int{1, 2}, []int{1, 2}},
		{"right empty", []int{1, 2}, nil, []int{1, 2}},
		{"interleaved", []int{1, 4, 6}, []int{2, 3, 5}, []int{1, 2, 3, 4, 5, 6}},
		{"disjoint ranges", []int{7, 8}, []int{1, 2}, []int{1, 2, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toItems := func(indices []int) []*models.Item {
				var items []*models.Item
				for _, i := range indices {
					items = append(items, itemAt(i))
				}
				return items
			}
			merged := mergeSorted(toItems(tt.a), toItems(tt.b))
			var got []int
			for _, it := range merged {
				got = append(got, it.Index)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
