package models

// Image holds raw decoded pixel data for a thumbnail: width x height
// pixels, 4 channel bytes (RGBA) per pixel.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// Record is one raw input row before fingerprinting. At most one of
// Image, ThumbPath or Hash is normally set; all three may be absent for
// URL-only records.
type Record struct {
	Handle    string `json:"id"`
	URL       string `json:"url,omitempty"`
	Domain    string `json:"domain,omitempty"`
	ThumbPath string `json:"thumb,omitempty"`
	Hash      string `json:"hash,omitempty"` // precomputed fingerprint, 16 hex chars
	Image     *Image `json:"-"`
}

// Item is one deduplication candidate. Index is assigned by the engine
// at ingestion time and is the stable tie-break for primary selection;
// everything else is immutable after creation.
type Item struct {
	Handle  string `json:"handle"`
	Index   int    `json:"index"`
	URL     string `json:"url,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Hash    uint64 `json:"hash,omitempty"`
	HasHash bool   `json:"has_hash"`
}

// DuplicateGroup is a primary item plus its duplicates in discovery
// order. Invariant: Primary.Index < Duplicates[0].Index < ... at all
// times; the dedup package maintains this across merges.
type DuplicateGroup struct {
	Primary        *Item   `json:"primary"`
	Duplicates     []*Item `json:"duplicates"`
	ShowDuplicates bool    `json:"show_duplicates"`
}

// DupCount returns the number of duplicates in the group.
func (g *DuplicateGroup) DupCount() int {
	return len(g.Duplicates)
}

// Stats aggregates duplicate counts across a batch.
type Stats struct {
	NumWithDups int `json:"num_with_dups"` // surviving groups with >= 1 duplicate
	TotalDups   int `json:"total_dups"`    // sum of duplicate counts across groups
}

// BatchResult holds the outcome of clustering one batch.
type BatchResult struct {
	BatchID    string            `json:"batch_id,omitempty"`
	Source     string            `json:"source,omitempty"`
	TotalItems int               `json:"total_items"`
	Groups     []*DuplicateGroup `json:"groups"`
	Stats      Stats             `json:"stats"`
}
