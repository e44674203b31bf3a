package dedup

import (
	"fmt"
	"sort"

	"linkdedup/internal/hash"
	"linkdedup/internal/models"
)

// Config controls how the engine matches items.
type Config struct {
	// MaxHammingDistance is the BK-tree query radius. 0 disables the
	// tree entirely: only bit-identical fingerprints match, trading
	// recall for precision and speed.
	MaxHammingDistance int
	// PartitionByDomain gives each domain an independent exact-match
	// table and BK-tree; an empty domain is its own partition.
	PartitionByDomain bool
	// DeduplicateThumbs enables fingerprint matching at all. When
	// false, only URL matching runs.
	DeduplicateThumbs bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithReleased sets a callback invoked with each group record that dies
// in a merge, so a presentation layer can release whatever it attached.
func WithReleased(fn func(*models.DuplicateGroup)) Option {
	return func(e *Engine) {
		e.released = fn
	}
}

// partition is one thumbnail-matching domain: an exact fingerprint
// table backed by a BK-tree for near matches.
type partition struct {
	exact map[uint64]*Node
	tree  *BKTree
}

// Engine clusters items into duplicate groups incrementally. Matching
// state persists across batches, so later batches merge into existing
// groups; all methods are single-threaded by design, since primary
// selection and the stats bookkeeping depend on a fixed processing
// order.
type Engine struct {
	cfg        Config
	urls       map[string]*Node
	partitions map[string]*partition
	nodes      []*Node
	stats      models.Stats
	nextIndex  int
	released   func(*models.DuplicateGroup)
}

// New creates an engine with empty matching state.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		urls:       make(map[string]*Node),
		partitions: make(map[string]*partition),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process ingests one item: it becomes a singleton group, then merges
// with any exact URL match and any exact or near fingerprint match. A
// nil item (skipped upstream) creates nothing.
func (e *Engine) Process(item *models.Item) {
	if item == nil {
		return
	}
	item.Index = e.nextIndex
	e.nextIndex++

	node := NewNode(item)
	node.group = NewGroup(item)
	e.nodes = append(e.nodes, node)

	if item.URL != "" {
		if other, ok := e.urls[item.URL]; ok {
			e.merge(node, other)
		} else {
			e.urls[item.URL] = node
		}
	}

	if item.HasHash && e.cfg.DeduplicateThumbs {
		p := e.partition(item.Domain)
		if other, ok := p.exact[item.Hash]; ok {
			// The first insertion of this exact value already ran any
			// radius search; repeating it here would be redundant.
			e.merge(node, other)
		} else {
			p.exact[item.Hash] = node
			if e.cfg.MaxHammingDistance > 0 {
				for _, neighbor := range p.tree.FindWithinDistance(item.Hash, e.cfg.MaxHammingDistance) {
					e.merge(node, neighbor)
				}
			}
			p.tree.Insert(item.Hash, node.Find())
		}
	}
}

// ProcessBatch ingests items strictly in order and returns the
// surviving groups and running stats. Order matters: processing out of
// order can change which item becomes primary.
func (e *Engine) ProcessBatch(items []*models.Item) ([]*models.DuplicateGroup, models.Stats) {
	for _, item := range items {
		e.Process(item)
	}
	return e.Groups(), e.stats
}

// Groups returns all surviving group records, ordered by primary index.
func (e *Engine) Groups() []*models.DuplicateGroup {
	var groups []*models.DuplicateGroup
	for _, n := range e.nodes {
		if n.parent == nil && n.group != nil {
			groups = append(groups, n.group)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Primary.Index < groups[j].Primary.Index
	})
	return groups
}

// Stats returns the running aggregate.
func (e *Engine) Stats() models.Stats {
	return e.stats
}

// VerifyStats recomputes the aggregate from the surviving groups and
// compares it with the incrementally maintained one.
func (e *Engine) VerifyStats() error {
	var want models.Stats
	for _, g := range e.Groups() {
		if err := checkGroup(g); err != nil {
			return err
		}
		if g.DupCount() > 0 {
			want.NumWithDups++
			want.TotalDups += g.DupCount()
		}
	}
	if want != e.stats {
		return fmt.Errorf("stats drift: have %+v, recomputed %+v", e.stats, want)
	}
	return nil
}

func (e *Engine) partition(domain string) *partition {
	key := ""
	if e.cfg.PartitionByDomain {
		key = domain
	}
	p, ok := e.partitions[key]
	if !ok {
		p = &partition{
			exact: make(map[uint64]*Node),
			tree:  NewBKTree(hash.Distance),
		}
		e.partitions[key] = p
	}
	return p
}

// merge unions two nodes' classes and combines their group records,
// leaving the merged record attached only to the new representative.
// The record transfer happens in the same step as the union, so there
// is no window where both nodes claim a record.
func (e *Engine) merge(a, b *Node) {
	ra, rb := a.Find(), b.Find()
	if ra == rb {
		return
	}
	ga, gb := ra.group, rb.group
	if ga == nil || gb == nil {
		panic("dedup: representative has no group record")
	}

	hadA := ga.DupCount() > 0
	hadB := gb.DupCount() > 0

	survivor, absorbed := MergeGroups(ga, gb)
	root := Union(ra, rb)
	ra.group, rb.group = nil, nil
	root.group = survivor

	// One item was demoted to a duplicate. If the absorbed side already
	// counted as a group with duplicates, its members are now folded
	// into the survivor and the double count must be corrected.
	e.stats.TotalDups++
	delta := 1
	if hadA {
		delta--
	}
	if hadB {
		delta--
	}
	e.stats.NumWithDups += delta

	if e.released != nil {
		e.released(absorbed)
	}
}
