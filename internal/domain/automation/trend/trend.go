package trend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vadim/automarketer/internal/httpx/upstream/newsapi"
)

// DefaultTopics are used when no news source is configured or reachable
var DefaultTopics = []string{
	"Customer success stories",
	"Behind the scenes",
	"Seasonal offers",
	"Industry tips",
	"Product highlights",
}

// HeadlineSearcher searches recent news articles
type HeadlineSearcher interface {
	Everything(ctx context.Context, query string) ([]newsapi.Article, error)
}

// News turns recent headlines about the query into topics
type News struct {
	client HeadlineSearcher
}

// NewNews creates a news-backed trend source
func NewNews(client HeadlineSearcher) *News {
	return &News{client: client}
}

// Trending implements the trending-topics collaborator
func (n *News) Trending(ctx context.Context, query string) ([]string, error) {
	articles, err := n.client.Everything(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(articles))
	topics := make([]string, 0, len(articles))
	for _, a := range articles {
		title := cleanTitle(a.Title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		topics = append(topics, title)
	}

	return topics, nil
}

// cleanTitle drops the " - Publisher" suffix NewsAPI appends
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "[Removed]" {
		return ""
	}
	if i := strings.LastIndex(title, " - "); i > 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// Static always returns the same topics
type Static []string

// Trending implements the trending-topics collaborator
func (s Static) Trending(context.Context, string) ([]string, error) {
	return append([]string(nil), s...), nil
}

// Source is anything that lists trending topics
type Source interface {
	Trending(ctx context.Context, query string) ([]string, error)
}

// Fallback uses Secondary when Primary fails or has nothing
type Fallback struct {
	Primary   Source
	Secondary Source
	Logger    *slog.Logger
}

// Trending implements the trending-topics collaborator
func (f Fallback) Trending(ctx context.Context, query string) ([]string, error) {
	topics, err := f.Primary.Trending(ctx, query)
	if err == nil && len(topics) > 0 {
		return topics, nil
	}
	if err != nil {
		f.Logger.Warn("trend source failed, using fallback", "query", query, "error", err)
	}
	return f.Secondary.Trending(ctx, query)
}
