package crawl

import (
	"context"
	"slices"

	"libfaq/crawler/internal/client"
	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"
	"libfaq/crawler/internal/extract"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

type pageResult struct {
	record   *domain.DetailRecord // nil when the page could not be fetched
	children []domain.MenuEntry
}

// crawlPage fetches one entry, extracts its record and the tab links leading
// one navigation level deeper. Content and links come from the same parse.
func (r *run) crawlPage(ctx context.Context, entry domain.MenuEntry, depth int) pageResult {
	logger := log.WithFields(log.Fields{
		"category":    entry.Category,
		"subcategory": entry.Subcategory,
		"title":       entry.Title,
		"depth":       depth,
	})
	logger.Infof("▶ Crawling %s", entry.URL)

	doc, err := r.fetchDocument(ctx, entry.URL)
	if err != nil {
		logger.Errorf("❌ Failed to crawl %s: %v", entry.URL, err)
		r.failed.Add(1)
		return pageResult{}
	}

	record := domain.NewDetailRecord(entry)
	record.Tab = r.currentTab(doc.Selection)

	container := r.findContainer(doc.Selection)
	if container == nil {
		logger.Warnf("⚠️ No content container on %s", entry.URL)
		return pageResult{record: &record}
	}

	desc := r.content(ctx, container, entry.Title, []string{entry.URL}, 0)
	r.secondaryTabs(container).Each(func(key string, v domain.Value) {
		desc.Merge(key, v)
	})
	record.Description = desc.Flatten()
	record.Contact = extract.Contact(container, r.detail.Contact)

	return pageResult{
		record:   &record,
		children: r.tabLinks(doc.Selection, entry),
	}
}

func (r *run) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return client.ParseDocument(html)
}

func (r *run) currentTab(page *goquery.Selection) string {
	if r.detail.CurrentTabSelector == "" {
		return ""
	}
	return extract.Text(page.Find(r.detail.CurrentTabSelector).First())
}

// findContainer returns the first match of the configured container
// selectors, tried in order.
func (r *run) findContainer(page *goquery.Selection) *goquery.Selection {
	for _, selector := range r.detail.ContainerSelectors {
		if found := page.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// content applies the intro rules and the list sections to container.
// path holds the URLs of the pages on the current drill-down chain.
func (r *run) content(ctx context.Context, container *goquery.Selection, title string, path []string, drilldownDepth int) *domain.Map {
	desc := domain.NewMap()

	if intro := r.detail.Intro; len(intro.Rules) > 0 {
		key := intro.Key
		if key == "" {
			key = title
		}
		setSection(desc, key, extract.Apply(container, intro.Rules))
	}

	for _, section := range r.detail.Sections {
		container.Find(section.Header).Each(func(_ int, header *goquery.Selection) {
			key := extract.Text(header)
			if key == "" || key == r.detail.ContactLabel {
				return
			}

			block := sectionBlock(header, section.Block, section.Header)
			if block.Length() == 0 {
				return
			}

			if section.Drilldown {
				setSection(desc, key, r.drilldown(ctx, block, path, drilldownDepth))
				return
			}
			setSection(desc, key, extract.Apply(block, section.Rules))
		})
	}

	return desc
}

// sectionBlock finds the content block that belongs to header. The search
// stops at the next header, so a header without content gets no block.
func sectionBlock(header *goquery.Selection, selector, headerSelector string) *goquery.Selection {
	if selector == "" {
		next := header.Next()
		if next.Is(headerSelector) {
			return next.Slice(0, 0)
		}
		return next
	}
	return header.NextUntil(headerSelector).Filter(selector).First()
}

// drilldown fetches every link in block right away and returns their content
// keyed by link text. Secondary tabs of a linked page are stored next to it
// as "<link text> / <tab title>".
func (r *run) drilldown(ctx context.Context, block *goquery.Selection, path []string, depth int) *domain.Map {
	nested := domain.NewMap()
	if depth >= r.maxDrilldownDepth {
		log.Warnf("⚠️ Drill-down limit %d reached under %s", r.maxDrilldownDepth, path[len(path)-1])
		r.truncated.Add(1)
		return nested
	}

	block.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, ok := client.ResolveURL(r.baseURL, href)
		if !ok {
			return
		}
		if !client.SameHost(r.baseURL, link) {
			log.Warnf("⚠️ Skipping off-domain drill-down link: %s", link)
			r.offDomain.Add(1)
			return
		}
		if slices.Contains(path, link) {
			log.Debugf("Drill-down cycle at %s", link)
			return
		}

		name := extract.Text(a)
		if name == "" {
			name = link
		}

		doc, err := r.fetchDocument(ctx, link)
		if err != nil {
			log.Errorf("❌ Failed to drill down into %s: %v", link, err)
			return
		}
		container := r.findContainer(doc.Selection)
		if container == nil {
			return
		}

		childPath := append(slices.Clone(path), link)
		setSection(nested, name, r.content(ctx, container, name, childPath, depth+1).Flatten())
		r.secondaryTabs(container).Each(func(tab string, v domain.Value) {
			setSection(nested, name+" / "+tab, v)
		})
	})

	return nested
}

// secondaryTabs zips the tab titles of container with their content blocks.
func (r *run) secondaryTabs(container *goquery.Selection) *domain.Map {
	tabs := domain.NewMap()
	cfg := r.detail.SecondaryTabs
	if cfg.Titles == "" || cfg.Contents == "" {
		return tabs
	}

	titles := container.Find(cfg.Titles)
	contents := container.Find(cfg.Contents)
	n := min(titles.Length(), contents.Length())
	for i := 0; i < n; i++ {
		title := extract.Text(titles.Eq(i))
		if title == "" {
			continue
		}
		setSection(tabs, title, extract.Apply(contents.Eq(i), cfg.Rules))
	}
	return tabs
}

// tabLinks collects same-host links inside the tab and inner-tab containers
// as entries one navigation level below entry.
func (r *run) tabLinks(page *goquery.Selection, entry domain.MenuEntry) []domain.MenuEntry {
	var children []domain.MenuEntry
	for _, scope := range []config.LinkScopeConfig{r.detail.Tabs, r.detail.InnerTabs} {
		if scope.Container == "" {
			continue
		}
		page.Find(scope.Container).Find(scope.Link).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			link, ok := client.ResolveURL(r.baseURL, href)
			if !ok {
				return
			}
			if !client.SameHost(r.baseURL, link) {
				log.Warnf("⚠️ Skipping external link: %s", link)
				r.offDomain.Add(1)
				return
			}
			children = append(children, domain.MenuEntry{
				Category:    entry.Category,
				Subcategory: entry.Title,
				Title:       extract.Text(a),
				URL:         link,
			})
		})
	}
	return children
}

// setSection stores a non-empty value, concatenating lists that share a key.
func setSection(m *domain.Map, key string, v domain.Value) {
	if domain.IsEmpty(v) {
		return
	}
	m.Merge(key, v)
}
