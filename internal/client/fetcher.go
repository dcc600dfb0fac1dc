package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/net/html/charset"
	"resty.dev/v3"
)

// Fetcher returns the markup of a page as UTF-8.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError is returned for non-2xx responses, timeouts and connection failures.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type httpFetcher struct {
	rl            ratelimit.Limiter
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	timeout       time.Duration
}

func NewFetcher(cfg config.FetcherConfig, proxySupplier proxy.ProxySupplier) Fetcher {
	timeout := time.Duration(cfg.Timeout) * time.Second

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.RequestsPerSecond)
	}

	return &httpFetcher{
		rl:            rl,
		httpClient:    client,
		proxySupplier: proxySupplier,
		timeout:       timeout,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.rl.Take()

	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.httpClient.R().
		SetContext(reqCtx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return "", &FetchError{URL: url, Err: fmt.Errorf("request cancelled: %w", ctx.Err())}
		}
		f.rotateProxy()
		return "", &FetchError{URL: url, Err: err}
	}

	log.Debugf("GET %s → %d", url, resp.StatusCode())

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode(), Err: errors.New(resp.Status())}
	}

	html, err := decodeBody(resp.String(), resp.Header().Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	return html, nil
}

func (f *httpFetcher) rotateProxy() {
	if f.proxySupplier == nil {
		return
	}
	if newProxy := f.proxySupplier.Get(); newProxy != "" {
		log.Infof("🔄 Switching to proxy: %s", newProxy)
		f.httpClient.SetProxy(newProxy)
	}
}

// decodeBody converts the raw response to UTF-8 using the Content-Type
// header and the document's own meta declaration.
func decodeBody(body, contentType string) (string, error) {
	r, err := charset.NewReader(strings.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
