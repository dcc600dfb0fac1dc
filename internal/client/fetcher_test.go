package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"libfaq/crawler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

func newTestFetcher() Fetcher {
	return NewFetcher(config.FetcherConfig{
		Timeout:    5,
		MaxRetries: 0,
		UserAgent:  "LibraryFAQBot-test",
	}, nil)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	eucKR, err := korean.EUCKR.NewEncoder().String("<html><body><p>개관시간 안내</p></body></html>")
	require.NoError(t, err)
	eucKRMeta, err := korean.EUCKR.NewEncoder().String(`<html><head><meta charset="euc-kr"></head><body><p>휴관일</p></body></html>`)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/utf8", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LibraryFAQBot-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>도서관 이용</p></body></html>"))
	})
	mux.HandleFunc("/euckr", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		_, _ = w.Write([]byte(eucKR))
	})
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(eucKRMeta))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	fetcher := newTestFetcher()
	ctx := context.Background()

	t.Run("utf-8 page", func(t *testing.T) {
		html, err := fetcher.Fetch(ctx, server.URL+"/utf8")
		require.NoError(t, err)
		assert.Contains(t, html, "도서관 이용")
	})

	t.Run("euc-kr from content type", func(t *testing.T) {
		html, err := fetcher.Fetch(ctx, server.URL+"/euckr")
		require.NoError(t, err)
		assert.Contains(t, html, "개관시간 안내")
	})

	t.Run("euc-kr from meta tag", func(t *testing.T) {
		html, err := fetcher.Fetch(ctx, server.URL+"/meta")
		require.NoError(t, err)
		assert.Contains(t, html, "휴관일")
	})

	t.Run("non-2xx status", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, server.URL+"/missing")
		require.Error(t, err)

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
		assert.Equal(t, server.URL+"/missing", fetchErr.URL)
	})
}

func TestFetchCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>never read</p>"))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Fetch(ctx, server.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.ErrorIs(t, err, context.Canceled)
}
