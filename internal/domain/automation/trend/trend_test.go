package trend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/automarketer/internal/httpx/upstream/newsapi"
)

type fakeSearcher struct {
	articles []newsapi.Article
	err      error
	query    string
}

func (f *fakeSearcher) Everything(_ context.Context, query string) ([]newsapi.Article, error) {
	f.query = query
	return f.articles, f.err
}

func TestNews_Trending(t *testing.T) {
	src := &fakeSearcher{articles: []newsapi.Article{
		{Title: "Oat milk prices fall - Reuters"},
		{Title: "oat milk prices fall - Bloomberg"},
		{Title: "[Removed]"},
		{Title: "Third-wave coffee goes mainstream"},
	}}

	topics, err := NewNews(src).Trending(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, "coffee", src.query)
	assert.Equal(t, []string{"Oat milk prices fall", "Third-wave coffee goes mainstream"}, topics)
}

func TestFallback(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := Fallback{Primary: NewNews(&fakeSearcher{err: errors.New("rate limited")}), Secondary: Static{"Seasonal offers"}, Logger: logger}
	topics, err := f.Trending(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, []string{"Seasonal offers"}, topics)

	f = Fallback{Primary: NewNews(&fakeSearcher{}), Secondary: Static(DefaultTopics), Logger: logger}
	topics, err = f.Trending(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopics, topics)
}
