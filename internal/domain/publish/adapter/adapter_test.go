package adapter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

type fakePoster struct {
	mu    sync.Mutex
	posts []SocialPost
	url   string
	err   error
}

func (f *fakePoster) Post(_ context.Context, post SocialPost) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post)
	return f.url, f.err
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

type staticRecipients []string

func (s staticRecipients) Recipients(context.Context) ([]string, error) {
	return s, nil
}

type tempErr struct{ temporary bool }

func (e tempErr) Error() string   { return "upstream said no" }
func (e tempErr) Temporary() bool { return e.temporary }

func payload(body string) entity.ContentPayload {
	return entity.ContentPayload{ID: "c1", Body: body}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(
		NewSocial(entity.ChannelTwitter, &fakePoster{}),
		NewSocial(entity.ChannelLinkedIn, &fakePoster{}),
	)

	_, ok := reg.Lookup(entity.ChannelTwitter)
	assert.True(t, ok)
	_, ok = reg.Lookup("myspace")
	assert.False(t, ok)
	assert.Equal(t, []entity.Channel{entity.ChannelTwitter, entity.ChannelLinkedIn}, reg.Channels())

	assert.Panics(t, func() {
		NewRegistry(NewSocial(entity.ChannelTwitter, &fakePoster{}), NewSocial(entity.ChannelTwitter, &fakePoster{}))
	})
}

func TestSocial_TwitterTruncatesAndPrefersVideo(t *testing.T) {
	poster := &fakePoster{url: "https://x.com/p/1"}
	a := NewSocial(entity.ChannelTwitter, poster)

	p := payload(strings.Repeat("é", 300))
	p.Media = entity.MediaRefs{ImageURL: "https://cdn/img.png", VideoURL: "https://cdn/v.mp4"}

	out := a.Publish(context.Background(), p, entity.Target{Channel: entity.ChannelTwitter})
	require.True(t, out.Success, out.Detail)
	assert.Equal(t, "posted to twitter: https://x.com/p/1", out.Detail)

	require.Len(t, poster.posts, 1)
	got := poster.posts[0]
	assert.Equal(t, 280, len([]rune(got.Text)))
	assert.True(t, strings.HasSuffix(got.Text, "..."))
	assert.Equal(t, []string{"twitter"}, got.Platforms)
	assert.Equal(t, []string{"https://cdn/v.mp4"}, got.MediaURLs)
	assert.True(t, got.IsVideo)
}

func TestSocial_LinkedInKeepsFullText(t *testing.T) {
	poster := &fakePoster{}
	a := NewSocial(entity.ChannelLinkedIn, poster)

	body := strings.Repeat("a", 500)
	out := a.Publish(context.Background(), payload(body), entity.Target{Channel: entity.ChannelLinkedIn})
	require.True(t, out.Success)
	assert.Equal(t, "posted to linkedin", out.Detail)
	assert.Equal(t, body, poster.posts[0].Text)
}

func TestSocial_InstagramNeedsVisual(t *testing.T) {
	poster := &fakePoster{}
	a := NewSocial(entity.ChannelInstagram, poster)

	out := a.Publish(context.Background(), payload("hello"), entity.Target{Channel: entity.ChannelInstagram})
	assert.False(t, out.Success)
	assert.Equal(t, entity.FailureValidation, out.Failure)
	assert.Empty(t, poster.posts)
}

func TestSocial_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   entity.FailureKind
		prefix string
	}{
		{"transient", tempErr{temporary: true}, entity.FailureTransient, "transient: "},
		{"rejected", tempErr{temporary: false}, entity.FailureRejected, "rejected: "},
		{"deadline", context.DeadlineExceeded, entity.FailureTransient, "transient: "},
		{"plain", errors.New("boom"), entity.FailureRejected, "rejected: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewSocial(entity.ChannelTwitter, &fakePoster{err: tt.err})
			out := a.Publish(context.Background(), payload("hi"), entity.Target{Channel: entity.ChannelTwitter})
			assert.False(t, out.Success)
			assert.Equal(t, tt.kind, out.Failure)
			assert.True(t, strings.HasPrefix(out.Detail, tt.prefix), out.Detail)
		})
	}
}

func TestSocial_EmptyBody(t *testing.T) {
	poster := &fakePoster{}
	out := NewSocial(entity.ChannelTwitter, poster).Publish(context.Background(), payload("  "), entity.Target{})
	assert.False(t, out.Success)
	assert.Equal(t, entity.FailureValidation, out.Failure)
	assert.Empty(t, poster.posts)
}

func TestEmail_NoRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	a := NewEmail(mailer, staticRecipients(nil), "")

	out := a.Publish(context.Background(), payload("news"), entity.Target{Channel: entity.ChannelEmail})
	assert.False(t, out.Success)
	assert.Equal(t, "no recipients configured", out.Detail)
	assert.Equal(t, entity.FailureValidation, out.Failure)
	assert.Empty(t, mailer.sent)
}

func TestEmail_TargetRecipientsOverrideSource(t *testing.T) {
	mailer := &fakeMailer{}
	a := NewEmail(mailer, staticRecipients{"list@example.com"}, "")

	out := a.Publish(context.Background(), payload("news"), entity.Target{
		Channel:    entity.ChannelEmail,
		Recipients: []string{"A@example.com", "a@example.com ", "b@example.com"},
	})
	require.True(t, out.Success, out.Detail)
	assert.Equal(t, "sent to 2 of 2 recipients", out.Detail)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mailer.sent)
}

func TestEmail_PartialDeliveryFails(t *testing.T) {
	mailer := &fakeMailer{fail: map[string]error{"b@example.com": tempErr{temporary: true}}}
	a := NewEmail(mailer, staticRecipients{"a@example.com", "b@example.com", "c@example.com"}, "")

	out := a.Publish(context.Background(), payload("news"), entity.Target{Channel: entity.ChannelEmail})
	assert.False(t, out.Success)
	assert.Equal(t, entity.FailureTransient, out.Failure)
	assert.True(t, strings.HasPrefix(out.Detail, "transient: sent to 2 of 3 recipients"), out.Detail)
	assert.Len(t, mailer.sent, 2)
}

type fakeBlog struct {
	title, html string
	err         error
}

func (f *fakeBlog) InsertPost(_ context.Context, title, html string) (string, error) {
	f.title, f.html = title, html
	if f.err != nil {
		return "", f.err
	}
	return "https://blog.example.com/p/1", nil
}

func TestBlog_DefaultsTitleAndRendersMarkdown(t *testing.T) {
	poster := &fakeBlog{}
	a := NewBlog(poster)

	p := payload("# Hello\n\nSome **bold** text")
	p.Media.ImageURL = "https://cdn/img.png"

	out := a.Publish(context.Background(), p, entity.Target{Channel: entity.ChannelBlog})
	require.True(t, out.Success, out.Detail)
	assert.Equal(t, "New Blog Post", poster.title)
	assert.True(t, strings.HasPrefix(poster.html, `<img src="https://cdn/img.png"`))
	assert.Contains(t, poster.html, "<h1>Hello</h1>")
	assert.Contains(t, poster.html, "<strong>bold</strong>")
}

func TestBlog_UsesTargetTitle(t *testing.T) {
	poster := &fakeBlog{err: tempErr{temporary: false}}
	out := NewBlog(poster).Publish(context.Background(), payload("x"), entity.Target{Channel: entity.ChannelBlog, Title: "Launch"})
	assert.Equal(t, "Launch", poster.title)
	assert.False(t, out.Success)
	assert.Equal(t, entity.FailureRejected, out.Failure)
}

type fakeInstagram struct {
	got InstagramPost
}

func (f *fakeInstagram) Publish(_ context.Context, post InstagramPost) (string, error) {
	f.got = post
	return "https://instagram.com/p/abc", nil
}

func TestInstagramGraph(t *testing.T) {
	pub := &fakeInstagram{}
	a := NewInstagramGraph(pub)

	out := a.Publish(context.Background(), payload("caption"), entity.Target{})
	assert.Equal(t, entity.FailureValidation, out.Failure)

	p := payload("caption")
	p.Media.ImageURL = "https://cdn/img.png"
	out = a.Publish(context.Background(), p, entity.Target{})
	require.True(t, out.Success)
	assert.Equal(t, "posted to instagram: https://instagram.com/p/abc", out.Detail)
	assert.Equal(t, InstagramPost{Caption: "caption", ImageURL: "https://cdn/img.png"}, pub.got)
}
