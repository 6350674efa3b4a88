// internal/model/post.go
package model

// Post is one entry of the blog feed as shown on the site.
type Post struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PublishedAt string `json:"pubDate"`
	Summary     string `json:"description"`
}

// Video is a playlist entry reshaped from the YouTube Data API.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	Views       string `json:"views"`
	UploadTime  string `json:"uploadTime"`
	Link        string `json:"link"`
}
