package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "Certus/pkg/http"
)

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		if r.URL.Query().Get("symbol") == "LIMIT" {
			_, _ = w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
			return
		}
		_, _ = w.Write([]byte(`{"Global Quote":{"01. symbol":"IBM","02. open":"180.00","03. high":"182.50",
			"04. low":"179.10","05. price":"181.25","06. volume":"100","07. latest trading day":"2024-03-01",
			"08. previous close":"179.90","09. change":"1.35"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", pkghttp.WithRetry(0, 0, 0))
	q, err := c.FetchQuote(context.Background(), "ibm")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Symbol)
	assert.Equal(t, 181.25, q.Price)
	assert.Equal(t, 179.90, q.PrevClose)
	assert.Equal(t, "2024-03-01", q.TS.Format("2006-01-02"))

	_, err = c.FetchQuote(context.Background(), "LIMIT")
	assert.True(t, errors.Is(err, pkghttp.ErrUpstream))
}
