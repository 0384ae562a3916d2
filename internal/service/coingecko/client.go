package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name = "coingecko"

	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultProBaseURL = "https://pro-api.coingecko.com/api/v3"
	proKeyHeader      = "x-cg-pro-api-key"
)

// Config selects the public or pro API. The pro base URL and key header are
// used whenever APIKey is set.
type Config struct {
	BaseURL    string
	ProBaseURL string
	APIKey     string
	VsCurrency string
}

// Client reads CoinGecko market listings and chart ranges.
type Client struct {
	http *pkghttp.Client
	vs   string
}

func New(cfg Config, opts ...pkghttp.ClientOption) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	all := []pkghttp.ClientOption{pkghttp.WithSource(Name)}
	if cfg.APIKey != "" {
		base = cfg.ProBaseURL
		if base == "" {
			base = DefaultProBaseURL
		}
		all = append(all, pkghttp.WithHeader(proKeyHeader, cfg.APIKey))
	}
	all = append(all, pkghttp.WithBaseURL(base))
	all = append(all, opts...)

	vs := cfg.VsCurrency
	if vs == "" {
		vs = "usd"
	}
	return &Client{http: pkghttp.NewClient(all...), vs: vs}
}

func (c *Client) Name() string { return Name }

type marketRow struct {
	ID              string   `json:"id"`
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	CurrentPrice    *float64 `json:"current_price"`
	MarketCap       *float64 `json:"market_cap"`
	TotalVolume     *float64 `json:"total_volume"`
	Change1h        *float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h       *float64 `json:"price_change_percentage_24h_in_currency"`
	Change24hLegacy *float64 `json:"price_change_percentage_24h"`
	Change7d        *float64 `json:"price_change_percentage_7d_in_currency"`
	LastUpdated     string   `json:"last_updated"`
}

// FetchMarkets returns one page of /coins/markets ordered by market cap.
// Rows without a price are dropped.
func (c *Client) FetchMarkets(ctx context.Context, page, perPage int) ([]models.MarketSnapshot, error) {
	var rows []marketRow
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path: "/coins/markets",
		QueryParams: url.Values{
			"vs_currency":             {c.vs},
			"order":                   {"market_cap_desc"},
			"per_page":                {strconv.Itoa(perPage)},
			"page":                    {strconv.Itoa(page)},
			"sparkline":               {"false"},
			"price_change_percentage": {"1h,24h,7d"},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]models.MarketSnapshot, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" || r.CurrentPrice == nil {
			continue
		}
		s := models.MarketSnapshot{
			ID:           r.ID,
			Symbol:       util.NormalizeSymbol(r.Symbol),
			Name:         r.Name,
			CurrentPrice: *r.CurrentPrice,
			MarketCap:    r.MarketCap,
			TotalVolume:  r.TotalVolume,
			Change1h:     r.Change1h,
			Change24h:    r.Change24h,
			Change7d:     r.Change7d,
		}
		if s.Change24h == nil {
			s.Change24h = r.Change24hLegacy
		}
		if t, ok := util.ParseTime(r.LastUpdated); ok {
			s.LastUpdated = t
		}
		out = append(out, s)
	}
	return out, nil
}

type chartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// FetchChartRange returns /coins/{id}/market_chart/range between from and to.
func (c *Client) FetchChartRange(ctx context.Context, assetID string, from, to time.Time) (models.ChartSeries, error) {
	if assetID == "" {
		return models.ChartSeries{}, fmt.Errorf("coingecko: asset id is required")
	}
	var resp chartResponse
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path: "/coins/" + url.PathEscape(assetID) + "/market_chart/range",
		QueryParams: url.Values{
			"vs_currency": {c.vs},
			"from":        {strconv.FormatInt(from.Unix(), 10)},
			"to":          {strconv.FormatInt(to.Unix(), 10)},
		},
	}, &resp)
	if err != nil {
		return models.ChartSeries{}, err
	}
	return models.ChartSeries{
		AssetID:    assetID,
		Prices:     points(resp.Prices),
		MarketCaps: points(resp.MarketCaps),
		Volumes:    points(resp.TotalVolumes),
	}, nil
}

func points(raw [][2]float64) []models.ChartPoint {
	out := make([]models.ChartPoint, 0, len(raw))
	for _, p := range raw {
		out = append(out, models.ChartPoint{TS: util.FromUnixMillis(int64(p[0])), Value: p[1]})
	}
	return out
}
