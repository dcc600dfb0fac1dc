package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 8

// ProxySupplier hands out proxies round-robin. Get returns "" when the pool
// is empty, which means a direct connection.
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier keeps the proxies that can reach siteURL, in their
// configured order.
func NewProxySupplier(ctx context.Context, proxies []string, siteURL string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	log.Infof("🔄 Checking %d proxies against %s...", len(proxies), siteURL)

	working := make([]bool, len(proxies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			working[i] = reachable(ctx, proxyURL, siteURL)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ Proxy pool ready with %d of %d proxies", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}
}

func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func reachable(ctx context.Context, proxyURL, siteURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)

	resp, err := client.R().
		SetContext(ctx).
		Get(siteURL)
	if err != nil {
		log.Infof("❌ Proxy %s unusable: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Infof("❌ Proxy %s unusable: %s", proxyURL, resp.Status())
		return false
	}
	return true
}
