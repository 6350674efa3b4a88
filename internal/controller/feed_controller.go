package controller

import (
	"context"
	"net/http"

	"github.com/unclebandit/groundzero-backend/internal/feed"
	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// LatestPosts is implemented by feed.Cache.
type LatestPosts interface {
	Latest(ctx context.Context) (feed.Snapshot, error)
}

type FeedController struct {
	Feed LatestPosts
	Log  logger.Logger
}

// Posts handles GET /api/posts.
func (c *FeedController) Posts(w http.ResponseWriter, r *http.Request) {
	snap, err := c.Feed.Latest(r.Context())
	if err != nil {
		c.Log.Error("failed to load posts", map[string]interface{}{"error": err})
		writeError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
