package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"libfaq/crawler/internal/client"
	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Crawler turns menu entries into detail records. It walks the tab links it
// finds breadth first, one navigation level at a time.
type Crawler struct {
	fetcher           client.Fetcher
	baseURL           *url.URL
	detail            config.DetailConfig
	workers           int
	maxDepth          int
	maxDrilldownDepth int
}

// Result is the outcome of one crawl. Records keep the order a sequential
// first-in-first-out crawl would produce.
type Result struct {
	Records          []domain.DetailRecord
	Visited          int
	Failed           int
	SkippedOffDomain int
	Truncated        int
	Interrupted      bool
}

type workItem struct {
	entry domain.MenuEntry
	depth int
}

// run holds the counters of one Run call; pages of a level update them
// concurrently.
type run struct {
	*Crawler
	failed    atomic.Int64
	offDomain atomic.Int64
	truncated atomic.Int64
}

func NewCrawler(site config.SiteConfig, crawl config.CrawlConfig, fetcher client.Fetcher) (*Crawler, error) {
	baseURL, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	workers := crawl.Workers
	if workers < 1 {
		workers = 1
	}

	return &Crawler{
		fetcher:           fetcher,
		baseURL:           baseURL,
		detail:            site.Detail,
		workers:           workers,
		maxDepth:          crawl.MaxDepth,
		maxDrilldownDepth: crawl.MaxDrilldownDepth,
	}, nil
}

// Run crawls every seed and the tab pages reachable from it. Per-page
// failures are logged and counted; Run itself only stops early when ctx is
// done, in which case the records gathered so far are returned.
func (c *Crawler) Run(ctx context.Context, seeds []domain.MenuEntry) *Result {
	r := &run{Crawler: c}
	result := &Result{Records: []domain.DetailRecord{}}
	visited := make(map[domain.VisitKey]struct{})

	level := make([]workItem, 0, len(seeds))
	for _, seed := range seeds {
		level = append(level, workItem{entry: seed})
	}

	for depth := 0; len(level) > 0; depth++ {
		if ctx.Err() != nil {
			log.Warnf("⏱️ Crawl stopped before depth %d: %v", depth, ctx.Err())
			result.Interrupted = true
			break
		}

		batch := r.admit(level, visited)
		log.Infof("🔄 Depth %d: %d pages queued, %d to crawl", depth, len(level), len(batch))

		pages := make([]pageResult, len(batch))
		g := new(errgroup.Group)
		g.SetLimit(c.workers)
		for i, item := range batch {
			g.Go(func() error {
				pages[i] = r.crawlPage(ctx, item.entry, item.depth)
				return nil
			})
		}
		_ = g.Wait()

		var next []workItem
		for i, page := range pages {
			if page.record == nil {
				continue
			}
			result.Records = append(result.Records, *page.record)
			for _, child := range page.children {
				next = append(next, workItem{entry: child, depth: batch[i].depth + 1})
			}
		}
		level = next
	}

	if ctx.Err() != nil {
		result.Interrupted = true
	}
	result.Visited = len(visited)
	result.Failed = int(r.failed.Load())
	result.SkippedOffDomain = int(r.offDomain.Load())
	result.Truncated = int(r.truncated.Load())

	log.Infof("✅ Crawl finished: %d records, %d visited, %d failed, %d off-domain, %d truncated",
		len(result.Records), result.Visited, result.Failed, result.SkippedOffDomain, result.Truncated)
	return result
}

// admit filters a level in queue order: duplicates by composite key, pages
// outside the base host and pages beyond the depth limit are dropped.
// Every admitted or fenced key is marked visited.
func (r *run) admit(level []workItem, visited map[domain.VisitKey]struct{}) []workItem {
	batch := make([]workItem, 0, len(level))
	for _, item := range level {
		key := item.entry.Key()
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		if !client.SameHost(r.baseURL, item.entry.URL) {
			log.Warnf("⚠️ Skipping off-domain page: %s", item.entry.URL)
			r.offDomain.Add(1)
			continue
		}

		if item.depth > r.maxDepth {
			log.Warnf("⚠️ Depth limit %d reached, not crawling %s (%s)", r.maxDepth, item.entry.Title, item.entry.URL)
			r.truncated.Add(1)
			continue
		}

		batch = append(batch, item)
	}
	return batch
}
