package coinmarketcap

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name           = "coinmarketcap"
	DefaultBaseURL = "https://pro-api.coinmarketcap.com"
)

// Client reads /v1/cryptocurrency/listings/latest as an alternative market source.
type Client struct {
	http *pkghttp.Client
}

func New(baseURL, apiKey string, opts ...pkghttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]pkghttp.ClientOption{
		pkghttp.WithSource(Name),
		pkghttp.WithBaseURL(baseURL),
		pkghttp.WithHeader("X-CMC_PRO_API_KEY", apiKey),
	}, opts...)
	return &Client{http: pkghttp.NewClient(all...)}
}

func (c *Client) Name() string { return Name }

type usdQuote struct {
	Price     *float64 `json:"price"`
	Volume24h *float64 `json:"volume_24h"`
	MarketCap *float64 `json:"market_cap"`
	Change1h  *float64 `json:"percent_change_1h"`
	Change24h *float64 `json:"percent_change_24h"`
	Change7d  *float64 `json:"percent_change_7d"`
}

type listing struct {
	Slug        string `json:"slug"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	LastUpdated string `json:"last_updated"`
	Quote       struct {
		USD usdQuote `json:"USD"`
	} `json:"quote"`
}

type listingsResponse struct {
	Data []listing `json:"data"`
}

// FetchMarkets maps page/perPage onto CMC's 1-based start/limit. The slug is
// used as asset id.
func (c *Client) FetchMarkets(ctx context.Context, page, perPage int) ([]models.MarketSnapshot, error) {
	if page < 1 {
		page = 1
	}
	var resp listingsResponse
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path: "/v1/cryptocurrency/listings/latest",
		QueryParams: url.Values{
			"start":   {strconv.Itoa((page-1)*perPage + 1)},
			"limit":   {strconv.Itoa(perPage)},
			"convert": {"USD"},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.MarketSnapshot, 0, len(resp.Data))
	for _, l := range resp.Data {
		q := l.Quote.USD
		if l.Slug == "" || q.Price == nil {
			continue
		}
		out = append(out, models.MarketSnapshot{
			ID:           l.Slug,
			Symbol:       util.NormalizeSymbol(l.Symbol),
			Name:         l.Name,
			CurrentPrice: *q.Price,
			MarketCap:    q.MarketCap,
			TotalVolume:  q.Volume24h,
			Change1h:     q.Change1h,
			Change24h:    q.Change24h,
			Change7d:     q.Change7d,
			LastUpdated:  util.ParseTimeDefault(l.LastUpdated, time.Time{}),
		})
	}
	return out, nil
}
