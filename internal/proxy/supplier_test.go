package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyPool(t *testing.T) {
	t.Parallel()

	supplier := NewProxySupplier(context.Background(), nil, "http://library.test/")
	assert.Equal(t, "", supplier.Get())
	assert.Equal(t, "", supplier.Get())
}

func TestRoundRobin(t *testing.T) {
	t.Parallel()

	newProxy := func() string {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)
		return server.URL
	}
	first, second := newProxy(), newProxy()
	dead := "http://127.0.0.1:1"

	supplier := NewProxySupplier(context.Background(), []string{first, dead, second}, "http://library.test/")

	assert.Equal(t, first, supplier.Get())
	assert.Equal(t, second, supplier.Get())
	assert.Equal(t, first, supplier.Get())
}
