package scan

import (
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/projectdiscovery/gologger"

	"linkdedup/internal/hash"
	"linkdedup/internal/models"
)

// Pipeline turns raw records into items ready for clustering. Hashing
// is a pure function of one record's pixels, so it fans out over a
// bounded worker pool; results are collected at their original
// positions so the clustering pass that follows sees a fixed,
// deterministic order.
type Pipeline struct {
	kind       hash.Kind
	workers    int
	progressFn func(done, total int, current string)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of parallel hashing workers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn func(done, total int, current string)) Option {
	return func(p *Pipeline) {
		p.progressFn = fn
	}
}

// NewPipeline creates a pipeline computing fingerprints with the given
// algorithm.
func NewPipeline(kind hash.Kind, opts ...Option) *Pipeline {
	p := &Pipeline{
		kind:    kind,
		workers: 8,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run converts records to items in input order. A record whose
// thumbnail cannot be decoded or hashed degrades to URL-only matching;
// no per-record failure aborts the batch.
func (p *Pipeline) Run(records []*models.Record) []*models.Item {
	items := make([]*models.Item, len(records))
	if len(records) == 0 {
		return items
	}

	work := make(chan int, len(records))
	for i := range records {
		work <- i
	}
	close(work)

	var (
		wg   sync.WaitGroup
		done int64
	)
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				items[i] = p.buildItem(records[i])
				n := atomic.AddInt64(&done, 1)
				if p.progressFn != nil {
					p.progressFn(int(n), len(records), records[i].Handle)
				}
			}
		}()
	}
	wg.Wait()

	return items
}

func (p *Pipeline) buildItem(rec *models.Record) *models.Item {
	item := &models.Item{
		Handle: rec.Handle,
		URL:    rec.URL,
		Domain: rec.Domain,
	}
	if item.Domain == "" && item.URL != "" {
		item.Domain = domainOf(item.URL)
	}

	switch {
	case rec.Hash != "":
		h, err := strconv.ParseUint(rec.Hash, 16, 64)
		if err != nil {
			gologger.Warning().Msgf("record %s: bad precomputed fingerprint %q: %s",
				rec.Handle, rec.Hash, err)
			return item
		}
		item.Hash, item.HasHash = h, true
	case rec.Image != nil:
		p.fingerprint(item, rec.Image)
	case rec.ThumbPath != "":
		img, err := DecodeImage(rec.ThumbPath)
		if err != nil {
			gologger.Warning().Msgf("record %s: decode %s: %s", rec.Handle, rec.ThumbPath, err)
			return item
		}
		p.fingerprint(item, img)
	}
	return item
}

func (p *Pipeline) fingerprint(item *models.Item, img *models.Image) {
	h, err := hash.Compute(img, p.kind)
	if err != nil {
		gologger.Warning().Msgf("record %s: hash thumbnail: %s", item.Handle, err)
		return
	}
	item.Hash, item.HasHash = h, true
}

// domainOf extracts the host for domain partitioning; a URL that does
// not parse lands in the empty partition.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
