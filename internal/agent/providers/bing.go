package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ivy-assistant/server/internal/agent/fetch"
	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
)

// Article is one news search hit.
type Article struct {
	Name         string
	Description  string
	URL          string
	ImageURL     string
	Provider     string
	ProviderIcon string
}

type thumbnail struct {
	Thumbnail struct {
		ContentURL string `json:"contentUrl"`
	} `json:"thumbnail"`
}

type bingArticle struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	AmpURL      string     `json:"ampUrl"`
	Image       *thumbnail `json:"image"`
	Provider    []struct {
		Name  string     `json:"name"`
		Image *thumbnail `json:"image"`
	} `json:"provider"`
}

// BingNews implements NewsProvider over the news search endpoint.
type BingNews struct {
	fetcher  fetch.Fetcher
	endpoint string
	key      string
	language string
	maxItems int
}

func NewBingNews(fetcher fetch.Fetcher, cfg model.NewsConfig) *BingNews {
	return &BingNews{
		fetcher:  fetcher,
		endpoint: cfg.Endpoint,
		key:      cfg.SubscriptionKey,
		language: cfg.Language,
		maxItems: cfg.MaxItems,
	}
}

// Search queries news for query (empty for headlines) in market, a country code.
func (b *BingNews) Search(ctx context.Context, query, market string) ([]Article, error) {
	if b.key == "" {
		return nil, errx.Missing("news subscription key")
	}

	q := url.Values{"q": {query}}
	if market != "" {
		q.Set("cc", market)
	}
	if b.maxItems > 0 {
		q.Set("count", strconv.Itoa(b.maxItems))
	}
	headers := map[string]string{"Ocp-Apim-Subscription-Key": b.key}
	if b.language != "" {
		headers["Accept-Language"] = b.language
	}

	res := b.fetcher.Fetch(ctx, fetch.Request{BaseURL: b.endpoint, Query: q, Headers: headers, Empty: fetch.ItemsEmpty("value")})
	if err := outcome(res, "news search", errx.Unavailable); err != nil {
		return nil, err
	}

	var body struct {
		Value []bingArticle `json:"value"`
	}
	if err := res.Decode(&body); err != nil {
		return nil, errx.Unavailable(fmt.Errorf("decode news: %w", err))
	}

	out := make([]Article, 0, len(body.Value))
	for _, v := range body.Value {
		a := Article{Name: v.Name, Description: v.Description, URL: v.URL}
		if v.AmpURL != "" {
			a.URL = v.AmpURL
		}
		if v.Image != nil {
			a.ImageURL = v.Image.Thumbnail.ContentURL
		}
		if len(v.Provider) > 0 {
			a.Provider = v.Provider[0].Name
			if v.Provider[0].Image != nil {
				a.ProviderIcon = v.Provider[0].Image.Thumbnail.ContentURL
			}
		}
		out = append(out, a)
		if b.maxItems > 0 && len(out) == b.maxItems {
			break
		}
	}
	return out, nil
}
