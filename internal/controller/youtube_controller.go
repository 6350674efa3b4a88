package controller

import (
	"errors"
	"net/http"

	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/youtube"
)

type YouTubeController struct {
	Videos youtube.PlaylistLister
	Log    logger.Logger
}

// Playlist handles GET /api/youtube?playlistId=.
func (c *YouTubeController) Playlist(w http.ResponseWriter, r *http.Request) {
	playlistID := r.URL.Query().Get("playlistId")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "Playlist ID is required")
		return
	}

	videos, err := c.Videos.PlaylistVideos(r.Context(), playlistID)
	if errors.Is(err, youtube.ErrNoAPIKey) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		c.Log.Error("YouTube API error", map[string]interface{}{"playlist_id": playlistID, "error": err})
		writeError(w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": videos})
}
