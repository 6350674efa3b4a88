// internal/service/template_service.go
package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var newsletterTemplate = template.Must(template.New("newsletter").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { margin: 0; padding: 0; background-color: #f5f5f5; }
    a { color: #bf635c; text-decoration: underline; }
    h1, h2, h3 { color: #1a1a1a; font-weight: 600; }
    p { margin: 0 0 16px 0; }
    blockquote { border-left: 3px solid #bf635c; padding-left: 16px; margin: 16px 0; color: #666; font-style: italic; }
    img { max-width: 100%; height: auto; border-radius: 8px; margin: 16px 0; }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: 0 auto; font-family: Georgia, 'Times New Roman', serif;">
    <div style="padding: 40px 24px; background: #faf9f7;">
      <h1 style="color: #1a1a1a; font-size: 28px; margin: 0 0 8px 0; font-weight: 500; line-height: 1.3;">{{.Title}}</h1>
      {{if .Subtitle}}<p style="color: #666; font-size: 16px; margin: 0 0 28px 0; font-style: italic;">{{.Subtitle}}</p>{{else}}<div style="margin-bottom: 28px;"></div>{{end}}
      <div style="color: #333; font-size: 17px; line-height: 1.75;">{{.Body}}</div>
      <hr style="border: none; border-top: 1px solid #ddd; margin: 40px 0 24px 0;" />
      <div style="text-align: center;">
        <p style="color: #888; font-size: 13px; font-family: 'Courier New', monospace; margin: 0 0 8px 0;">Ground Zero - Shaping the Frontier</p>
        <p style="color: #888; font-size: 12px; font-family: 'Courier New', monospace; margin: 0;">
          <a href="https://x.com/groundzero_twt" style="color: #bf635c; text-decoration: underline;">Follow us on X/Twitter</a>
        </p>
      </div>
    </div>
  </div>
</body>
</html>
`))

// RenderNewsletter builds the e-mail HTML. The body comes from the admin
// editor and is inserted unescaped; title and subtitle are escaped.
func RenderNewsletter(title, subtitle, body, format string) (string, error) {
	bodyHTML, err := BodyToHTML(body, format)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = newsletterTemplate.Execute(&buf, struct {
		Title    string
		Subtitle string
		Body     template.HTML
	}{
		Title:    title,
		Subtitle: subtitle,
		Body:     template.HTML(bodyHTML),
	})
	if err != nil {
		return "", fmt.Errorf("render newsletter: %w", err)
	}
	return buf.String(), nil
}

// BodyToHTML converts a markdown body to HTML; HTML bodies pass through.
func BodyToHTML(body, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatHTML:
		return body, nil
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(body), &buf); err != nil {
			return "", fmt.Errorf("convert markdown: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported content format %q", format)
	}
}
