package menu

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"libfaq/crawler/internal/client"
	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"
	"libfaq/crawler/internal/extract"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Discoverer walks the site's navigation once and produces a flat list of
// menu entries.
type Discoverer struct {
	fetcher      client.Fetcher
	baseURL      *url.URL
	rootSelector string
}

func NewDiscoverer(cfg config.SiteConfig, fetcher client.Fetcher) (*Discoverer, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	return &Discoverer{
		fetcher:      fetcher,
		baseURL:      baseURL,
		rootSelector: cfg.Menus.RootSelector,
	}, nil
}

// Discover fetches the landing page and returns the filtered menu entries.
// A landing page fetch failure is returned as is.
func (d *Discoverer) Discover(ctx context.Context) ([]domain.MenuEntry, error) {
	html, err := d.fetcher.Fetch(ctx, d.baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch landing page: %w", err)
	}

	doc, err := client.ParseDocument(html)
	if err != nil {
		return nil, err
	}

	items := Entries(doc.Selection, d.baseURL, d.rootSelector)
	log.Debugf("Collected %d menu entries before filtering", len(items))

	filtered := PreferSpecific(items)
	log.Infof("🧭 Discovered %d menu entries (%d before filtering)", len(filtered), len(items))

	return filtered, nil
}

// Entries collects the menu tree under every root matching rootSelector.
func Entries(page *goquery.Selection, baseURL *url.URL, rootSelector string) []domain.MenuEntry {
	var items []domain.MenuEntry
	page.Find(rootSelector).Each(func(_ int, root *goquery.Selection) {
		items = append(items, sectionEntries(root, baseURL)...)
	})
	return items
}

func sectionEntries(root *goquery.Selection, baseURL *url.URL) []domain.MenuEntry {
	categoryLink := root.ChildrenFiltered("a").First()
	if categoryLink.Length() == 0 {
		return nil
	}
	category := anchorTitle(categoryLink)

	var items []domain.MenuEntry
	var walk func(list *goquery.Selection, parent string)
	walk = func(list *goquery.Selection, parent string) {
		list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			a := li.ChildrenFiltered("a").First()
			href, ok := a.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			link, ok := client.ResolveURL(baseURL, href)
			if !ok {
				return
			}

			title := anchorTitle(a)
			items = append(items, domain.MenuEntry{
				Category:    category,
				Subcategory: parent,
				Title:       title,
				URL:         link,
			})

			if child := li.ChildrenFiltered("ul").First(); child.Length() > 0 {
				walk(child, title)
			}
		})
	}

	if top := root.ChildrenFiltered("ul").First(); top.Length() > 0 {
		walk(top, "")
	}
	return items
}

// anchorTitle prefers the title attribute over the link text.
func anchorTitle(a *goquery.Selection) string {
	if title, ok := a.Attr("title"); ok {
		if title = extract.Normalize(title); title != "" {
			return title
		}
	}
	return extract.Text(a)
}

// PreferSpecific groups entries by URL in first-seen order. When a URL
// appears both with and without a subcategory, only the entries with a
// subcategory are kept.
func PreferSpecific(items []domain.MenuEntry) []domain.MenuEntry {
	order := make([]string, 0, len(items))
	groups := make(map[string][]domain.MenuEntry)
	for _, item := range items {
		if _, seen := groups[item.URL]; !seen {
			order = append(order, item.URL)
		}
		groups[item.URL] = append(groups[item.URL], item)
	}

	filtered := make([]domain.MenuEntry, 0, len(items))
	for _, u := range order {
		entries := groups[u]
		specific := make([]domain.MenuEntry, 0, len(entries))
		for _, e := range entries {
			if e.Subcategory != "" {
				specific = append(specific, e)
			}
		}
		if len(specific) > 0 {
			filtered = append(filtered, specific...)
		} else {
			filtered = append(filtered, entries...)
		}
	}
	return filtered
}
