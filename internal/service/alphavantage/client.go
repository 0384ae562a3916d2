package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name           = "alphavantage"
	DefaultBaseURL = "https://www.alphavantage.co"
)

// Client reads GLOBAL_QUOTE from AlphaVantage.
type Client struct {
	http   *pkghttp.Client
	apiKey string
}

func New(baseURL, apiKey string, opts ...pkghttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]pkghttp.ClientOption{pkghttp.WithSource(Name), pkghttp.WithBaseURL(baseURL)}, opts...)
	return &Client{http: pkghttp.NewClient(all...), apiKey: apiKey}
}

func (c *Client) Name() string { return Name }

type globalQuoteResponse struct {
	Quote       map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

// FetchQuote returns the latest daily quote. The timestamp is the latest
// trading day at 00:00 UTC.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = util.NormalizeSymbol(symbol)
	var resp globalQuoteResponse
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path:        "/query",
		QueryParams: url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}, "apikey": {c.apiKey}},
	}, &resp)
	if err != nil {
		return models.Quote{}, err
	}
	// throttled responses come back as 200 with a note instead of data
	if msg := strings.TrimSpace(resp.Note + resp.Information); msg != "" && len(resp.Quote) == 0 {
		return models.Quote{}, &pkghttp.UpstreamFetchError{Source: Name, Endpoint: "/query", Status: 429, Attempts: 1, Body: msg}
	}
	if len(resp.Quote) == 0 {
		return models.Quote{}, fmt.Errorf("alphavantage: no quote for %s", symbol)
	}

	field := func(suffix string) float64 {
		for k, v := range resp.Quote {
			if strings.HasSuffix(k, suffix) {
				f, _ := strconv.ParseFloat(v, 64)
				return f
			}
		}
		return 0
	}
	var ts time.Time
	for k, v := range resp.Quote {
		if strings.HasSuffix(k, "latest trading day") {
			ts, _ = time.Parse("2006-01-02", v)
		}
	}
	if ts.IsZero() {
		ts = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return models.Quote{
		Symbol:    symbol,
		TS:        ts.UTC(),
		Price:     field("price"),
		Open:      field("open"),
		High:      field("high"),
		Low:       field("low"),
		PrevClose: field("previous close"),
		Provider:  Name,
	}, nil
}
