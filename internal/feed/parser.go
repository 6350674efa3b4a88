// Package feed fetches the blog's RSS feed and keeps the latest posts in a
// time-boxed in-memory cache.
package feed

import (
	"regexp"
	"strings"

	"github.com/unclebandit/groundzero-backend/internal/model"
)

const (
	MaxPosts         = 10
	MaxSummaryLength = 150
)

var (
	itemRe   = regexp.MustCompile(`(?is)<item\b[^>]*>(.*?)</item>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spacesRe = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)

	fieldRes = map[string][2]*regexp.Regexp{}
)

func init() {
	for _, name := range []string{"title", "link", "pubDate", "description"} {
		fieldRes[name] = [2]*regexp.Regexp{
			regexp.MustCompile(`(?s)<` + name + `\b[^>]*>\s*<!\[CDATA\[(.*?)\]\]>\s*</` + name + `>`),
			regexp.MustCompile(`(?s)<` + name + `\b[^>]*>(.*?)</` + name + `>`),
		}
	}
}

// Parse extracts up to MaxPosts posts from an RSS document, in document
// order. Items without a title or link are skipped. Parse never fails;
// anything it cannot recognise is ignored.
func Parse(doc string) []model.Post {
	posts := []model.Post{}
	for _, m := range itemRe.FindAllStringSubmatch(doc, -1) {
		item := m[1]

		title := field(item, "title")
		link := field(item, "link")
		if title == "" || link == "" {
			continue
		}

		posts = append(posts, model.Post{
			Title:       title,
			Link:        link,
			PublishedAt: field(item, "pubDate"),
			Summary:     Summarize(field(item, "description")),
		})
		if len(posts) == MaxPosts {
			break
		}
	}
	return posts
}

// field returns the trimmed text of the first <name> element, preferring a
// CDATA-wrapped value.
func field(item, name string) string {
	res := fieldRes[name]
	if m := res[0].FindStringSubmatch(item); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := res[1].FindStringSubmatch(item); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// Summarize turns an HTML description into plain text of at most
// MaxSummaryLength characters plus an ellipsis.
func Summarize(description string) string {
	text := tagRe.ReplaceAllString(description, "")
	text = entities.Replace(text)
	// Markup that was entity-escaped in the feed only shows up after decoding.
	text = tagRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > MaxSummaryLength {
		return string(runes[:MaxSummaryLength]) + "..."
	}
	return text
}
