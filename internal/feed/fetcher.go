package feed

import (
	"context"
	"fmt"

	"github.com/unclebandit/groundzero-backend/internal/httpclient"
	"github.com/unclebandit/groundzero-backend/internal/model"
)

// PostFetcher produces the current list of posts from upstream.
type PostFetcher interface {
	Fetch(ctx context.Context) ([]model.Post, error)
}

// Fetcher downloads and parses an RSS feed over HTTP.
type Fetcher struct {
	client *httpclient.Client
	url    string
}

func NewFetcher(client *httpclient.Client, url string) *Fetcher {
	return &Fetcher{client: client, url: url}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]model.Post, error) {
	body, err := f.client.Get(ctx, f.url, map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return Parse(string(body)), nil
}
