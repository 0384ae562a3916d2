package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name           = "finnhub"
	DefaultBaseURL = "https://finnhub.io/api/v1"
)

// Client implements a QuoteSource backed by the Finnhub REST quote endpoint.
type Client struct {
	http   *pkghttp.Client
	apiKey string
}

// New creates a new Finnhub quote client.
func New(baseURL, apiKey string, opts ...pkghttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]pkghttp.ClientOption{pkghttp.WithSource(Name), pkghttp.WithBaseURL(baseURL)}, opts...)
	return &Client{http: pkghttp.NewClient(all...), apiKey: apiKey}
}

func (c *Client) Name() string { return Name }

type fhQuote struct {
	C  float64 `json:"c"`  // current
	H  float64 `json:"h"`  // high
	L  float64 `json:"l"`  // low
	O  float64 `json:"o"`  // open
	PC float64 `json:"pc"` // previous close
	T  int64   `json:"t"`  // unix seconds
}

// FetchQuote returns the current quote of symbol. Finnhub answers unknown
// symbols with an all-zero body, reported as an error.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = util.NormalizeSymbol(symbol)
	var q fhQuote
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path:        "/quote",
		QueryParams: url.Values{"symbol": {symbol}, "token": {c.apiKey}},
	}, &q)
	if err != nil {
		return models.Quote{}, err
	}
	if q.C == 0 && q.T == 0 {
		return models.Quote{}, fmt.Errorf("finnhub: no quote for %s", symbol)
	}
	return models.Quote{
		Symbol:    symbol,
		TS:        time.Unix(q.T, 0).UTC(),
		Price:     q.C,
		Open:      q.O,
		High:      q.H,
		Low:       q.L,
		PrevClose: q.PC,
		Provider:  Name,
	}, nil
}
