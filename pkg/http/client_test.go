package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string, retries int) *Client {
	return NewClient(
		WithSource("test"),
		WithBaseURL(url),
		WithTimeout(2*time.Second),
		WithRetry(retries, time.Millisecond, 5*time.Millisecond),
		WithHeader("x-api-key", "secret"),
	)
}

func TestGetJSONRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(nethttp.StatusTooManyRequests)
		case 2:
			w.WriteHeader(nethttp.StatusBadGateway)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient(srv.URL, 3).GetJSON(context.Background(), &RequestOptions{
		Path:        "/items",
		QueryParams: map[string][]string{"page": {"2"}},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONSurfacesTypedErrorAfterExhaustion(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer srv.Close()

	err := testClient(srv.URL, 2).GetJSON(context.Background(), &RequestOptions{Path: "/items"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))

	var ue *UpstreamFetchError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, nethttp.StatusServiceUnavailable, ue.Status)
	assert.Equal(t, "test", ue.Source)
	assert.Equal(t, "/items", ue.Endpoint)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(srv.URL, 3).GetJSON(context.Background(), &RequestOptions{Path: "/items"}, nil)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient(srv.URL, 0).GetJSON(context.Background(), &RequestOptions{Path: "/"}, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUpstream))
}
