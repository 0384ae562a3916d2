package cryptopanic

import (
	"context"
	"encoding/json"
	"net/url"

	"Certus/internal/domain/models"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/util"
)

const (
	Name           = "cryptopanic"
	DefaultBaseURL = "https://cryptopanic.com/api/developer/v2"
)

// Client reads the public CryptoPanic post feed.
type Client struct {
	http  *pkghttp.Client
	token string
}

func New(baseURL, authToken string, opts ...pkghttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := append([]pkghttp.ClientOption{pkghttp.WithSource(Name), pkghttp.WithBaseURL(baseURL)}, opts...)
	return &Client{http: pkghttp.NewClient(all...), token: authToken}
}

type code struct {
	Code string `json:"code"`
}

type post struct {
	ID          json.Number `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	PublishedAt string      `json:"published_at"`
	Source      struct {
		Title  string `json:"title"`
		Domain string `json:"domain"`
	} `json:"source"`
	Currencies  []code `json:"currencies"`
	Instruments []code `json:"instruments"`
}

type postsResponse struct {
	Results []post `json:"results"`
}

// FetchNews returns the first page of public posts, truncated to limit.
func (c *Client) FetchNews(ctx context.Context, limit int) ([]models.NewsItem, error) {
	var resp postsResponse
	err := c.http.GetJSON(ctx, &pkghttp.RequestOptions{
		Path:        "/posts/",
		QueryParams: url.Values{"auth_token": {c.token}, "public": {"true"}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]models.NewsItem, 0, len(resp.Results))
	for _, p := range resp.Results {
		if limit > 0 && len(out) >= limit {
			break
		}
		id := p.ID.String()
		if id == "" {
			id = p.Slug
		}
		if id == "" {
			continue
		}
		it := models.NewsItem{
			ID:     Name + ":" + id,
			Title:  p.Title,
			URL:    p.URL,
			Source: p.Source.Title,
		}
		if it.Source == "" {
			it.Source = Name
		}
		if t, ok := util.ParseTime(p.PublishedAt); ok {
			it.PublishedAt = t.UTC()
		}
		for _, cs := range [][]code{p.Currencies, p.Instruments} {
			for _, cc := range cs {
				if s := util.NormalizeSymbol(cc.Code); s != "" {
					it.Symbols = append(it.Symbols, s)
				}
			}
		}
		out = append(out, it)
	}
	return out, nil
}
