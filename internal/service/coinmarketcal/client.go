package coinmarketcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name           = "coinmarketcal"
	DefaultBaseURL = "https://developers.coinmarketcal.com/v1"
	maxPerPage     = 50
)

// Client reads upcoming events from CoinMarketCal.
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
		pkghttp.WithHeader("x-api-key", apiKey),
	}, opts...)
	return &Client{http: pkghttp.NewClient(all...)}
}

// text accepts either a plain string or a {"en": "..."} translation map.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*t = text(m["en"])
	return nil
}

type event struct {
	ID         json.Number `json:"id"`
	Title      text        `json:"title"`
	DateEvent  string      `json:"date_event"`
	Source     string      `json:"source"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Coins []struct {
		Symbol string `json:"symbol"`
	} `json:"coins"`
}

// body is either a list of events or {"events": [...]}.
type body []event

func (b *body) UnmarshalJSON(raw []byte) error {
	var list []event
	if err := json.Unmarshal(raw, &list); err == nil {
		*b = list
		return nil
	}
	var wrapped struct {
		Events []event `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return err
	}
	*b = wrapped.Events
	return nil
}

type eventsResponse struct {
	Body body `json:"body"`
}

// FetchEvents returns up to limit events (capped at 50 by the API).
func (c *Client) FetchEvents(ctx context.Context, limit int) ([]models.EventItem, error) {
	limit = util.ClampInt(limit, 1, maxPerPage)
	var resp eventsResponse
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path:        "/events",
		QueryParams: url.Values{"max": {strconv.Itoa(limit)}, "page": {"1"}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.EventItem, 0, len(resp.Body))
	for _, e := range resp.Body {
		if e.ID == "" {
			continue
		}
		it := models.EventItem{
			ID:     fmt.Sprintf("%s:%s", Name, e.ID),
			Title:  string(e.Title),
			Source: Name,
		}
		if t, ok := util.ParseTime(e.DateEvent); ok {
			it.Date = t.UTC()
		}
		if len(e.Categories) > 0 {
			it.Category = e.Categories[0].Name
		}
		for _, coin := range e.Coins {
			if s := util.NormalizeSymbol(coin.Symbol); s != "" {
				it.Symbols = append(it.Symbols, s)
			}
		}
		out = append(out, it)
	}
	return out, nil
}
