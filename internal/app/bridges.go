package app

import (
	"context"
	"time"

	automation "github.com/vadim/automarketer/internal/domain/automation/service"
	contentsvc "github.com/vadim/automarketer/internal/domain/content/service"
	"github.com/vadim/automarketer/internal/domain/publish/adapter"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	schedulesvc "github.com/vadim/automarketer/internal/domain/schedule/service"
	"github.com/vadim/automarketer/internal/httpx/upstream/ayrshare"
	"github.com/vadim/automarketer/internal/httpx/upstream/blogger"
	"github.com/vadim/automarketer/internal/httpx/upstream/instagram"
)

// socialPosterAdapter adapts the Ayrshare client to adapter.SocialPoster
type socialPosterAdapter struct {
	client *ayrshare.Client
}

func (a *socialPosterAdapter) Post(ctx context.Context, post adapter.SocialPost) (string, error) {
	out, err := a.client.Post(ctx, ayrshare.PostInput{
		Post:      post.Text,
		Platforms: post.Platforms,
		MediaURLs: post.MediaURLs,
		IsVideo:   post.IsVideo,
	})
	if err != nil {
		return "", err
	}
	for _, p := range out.PostIDs {
		if p.PostURL != "" {
			return p.PostURL, nil
		}
	}
	return out.ID, nil
}

// instagramPublisherAdapter adapts instagram.Publisher to adapter.InstagramPublisher
// for the single configured business account
type instagramPublisherAdapter struct {
	publisher   *instagram.Publisher
	userID      string
	accessToken string
}

func (a *instagramPublisherAdapter) Publish(ctx context.Context, post adapter.InstagramPost) (string, error) {
	out, err := a.publisher.Publish(ctx, instagram.PublishInput{
		UserID:      a.userID,
		AccessToken: a.accessToken,
		Caption:     post.Caption,
		ImageURL:    post.ImageURL,
		VideoURL:    post.VideoURL,
	})
	if err != nil {
		return "", err
	}
	if out.Permalink != "" {
		return out.Permalink, nil
	}
	return out.InstagramMediaID, nil
}

// blogPosterAdapter adapts the Blogger client to adapter.BlogPoster
type blogPosterAdapter struct {
	client *blogger.Client
}

func (a *blogPosterAdapter) InsertPost(ctx context.Context, title, html string) (string, error) {
	post, err := a.client.InsertPost(ctx, title, html)
	if err != nil {
		return "", err
	}
	return post.URL, nil
}

// businessReaderAdapter exposes stored business profiles to the automation loop
type businessReaderAdapter struct {
	content *contentsvc.Service
}

func (a *businessReaderAdapter) Business(ctx context.Context, id string) (*automation.Business, error) {
	b, err := a.content.Business(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	return &automation.Business{Name: b.Name, Industry: b.Industry}, nil
}

// Industry feeds the trends endpoint; unknown businesses have none
func (a *businessReaderAdapter) Industry(ctx context.Context, id string) (string, error) {
	b, err := a.content.Business(ctx, id)
	if err != nil || b == nil {
		return "", err
	}
	return b.Industry, nil
}

// enqueuerAdapter schedules automation output at the next peak hour
type enqueuerAdapter struct {
	queue *schedulesvc.Queue
}

func (a *enqueuerAdapter) Enqueue(ctx context.Context, businessID string, payload publish.ContentPayload, targets []publish.Target) (time.Time, error) {
	post, err := a.queue.Schedule(ctx, schedulesvc.ScheduleInput{
		BusinessID: businessID,
		Content:    payload,
		Targets:    targets,
	})
	if err != nil {
		return time.Time{}, err
	}
	return post.ScheduledAt, nil
}
