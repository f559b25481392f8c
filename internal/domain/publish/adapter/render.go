package adapter

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

// RenderHTML converts the markdown body to HTML and embeds media references
func RenderHTML(payload entity.ContentPayload) (string, error) {
	var buf bytes.Buffer

	if payload.Media.ImageURL != "" {
		fmt.Fprintf(&buf, "<img src=\"%s\" alt=\"\" style=\"max-width:100%%\"/>\n", html.EscapeString(payload.Media.ImageURL))
	}

	if err := goldmark.Convert([]byte(payload.Body), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	if payload.Media.VideoURL != "" {
		fmt.Fprintf(&buf, "<p><a href=\"%s\">Watch the video</a></p>\n", html.EscapeString(payload.Media.VideoURL))
	}
	if payload.Media.AudioURL != "" {
		fmt.Fprintf(&buf, "<p><a href=\"%s\">Listen</a></p>\n", html.EscapeString(payload.Media.AudioURL))
	}

	return buf.String(), nil
}
