// Package youtube reads a playlist through the YouTube Data API v3 and
// flattens it into model.Video values.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/unclebandit/groundzero-backend/internal/httpclient"
	"github.com/unclebandit/groundzero-backend/internal/model"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = "50"
	watchURL       = "https://www.youtube.com/watch?v="
)

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("YouTube API key not configured")

// PlaylistLister is what the HTTP layer depends on.
type PlaylistLister interface {
	PlaylistVideos(ctx context.Context, playlistID string) ([]model.Video, error)
}

type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
}

var _ PlaylistLister = (*Client)(nil)

func NewClient(http *httpclient.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Thumbnails  map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// PlaylistVideos returns up to 50 videos of the playlist with their
// duration and view counts, in the order the videos endpoint returns them.
func (c *Client) PlaylistVideos(ctx context.Context, playlistID string) ([]model.Video, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var items playlistItemsResponse
	err := c.get(ctx, "playlistItems", url.Values{
		"part":       {"snippet,contentDetails"},
		"maxResults": {maxResults},
		"playlistId": {playlistID},
	}, &items)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}

	ids := make([]string, 0, len(items.Items))
	for _, it := range items.Items {
		if it.ContentDetails.VideoID != "" {
			ids = append(ids, it.ContentDetails.VideoID)
		}
	}
	if len(ids) == 0 {
		return []model.Video{}, nil
	}

	var details videosResponse
	err = c.get(ctx, "videos", url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {strings.Join(ids, ",")},
	}, &details)
	if err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	videos := make([]model.Video, 0, len(details.Items))
	for _, v := range details.Items {
		videos = append(videos, model.Video{
			ID:          v.ID,
			Title:       v.Snippet.Title,
			Description: v.Snippet.Description,
			Thumbnail:   v.Snippet.Thumbnails["high"].URL,
			Duration:    v.ContentDetails.Duration,
			Views:       v.Statistics.ViewCount,
			UploadTime:  v.Snippet.PublishedAt,
			Link:        watchURL + v.ID,
		})
	}
	return videos, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	q.Set("key", c.apiKey)
	body, err := c.http.Get(ctx, c.baseURL+"/"+endpoint+"?"+q.Encode(), map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
