package dedup

import (
	"fmt"

	"linkdedup/internal/models"
)

// NewGroup creates a singleton group record for an item.
func NewGroup(item *models.Item) *models.DuplicateGroup {
	return &models.DuplicateGroup{Primary: item}
}

// MergeGroups combines two group records into one. The group whose
// primary has the smaller original index survives; the other's primary
// is demoted to a duplicate and its duplicate list folded in with an
// order-preserving merge of the two already-sorted sequences. Returns
// the survivor and the now-dead absorbed record.
//
// Calling this with the same record twice, or with records sharing a
// primary, is a caller sequencing bug and panics: continuing would
// corrupt every later merge in the batch.
func MergeGroups(a, b *models.DuplicateGroup) (survivor, absorbed *models.DuplicateGroup) {
	if a == nil || b == nil || a == b || a.Primary == b.Primary {
		panic(fmt.Sprintf("dedup: invalid group merge: %v, %v", a, b))
	}

	survivor, absorbed = a, b
	if absorbed.Primary.Index < survivor.Primary.Index {
		survivor, absorbed = absorbed, survivor
	}

	// The absorbed primary precedes all of the absorbed duplicates, so
	// prepending it keeps that side sorted.
	incoming := append([]*models.Item{absorbed.Primary}, absorbed.Duplicates...)
	survivor.Duplicates = mergeSorted(survivor.Duplicates, incoming)
	survivor.ShowDuplicates = survivor.ShowDuplicates || absorbed.ShowDuplicates

	absorbed.Duplicates = nil
	return survivor, absorbed
}

// mergeSorted merges two item lists already sorted ascending by index.
// Group sizes can grow large across cascading merges; a linear merge
// avoids re-sorting on every event.
func mergeSorted(a, b []*models.Item) []*models.Item {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]*models.Item, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Index < b[j].Index {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// checkGroup asserts the ordering invariant: the primary's index is
// smaller than every duplicate's, and duplicates are strictly
// increasing by index.
func checkGroup(g *models.DuplicateGroup) error {
	prev := g.Primary.Index
	for _, d := range g.Duplicates {
		if d.Index <= prev {
			return fmt.Errorf("group order violated: index %d after %d (primary %d)",
				d.Index, prev, g.Primary.Index)
		}
		prev = d.Index
	}
	return nil
}
