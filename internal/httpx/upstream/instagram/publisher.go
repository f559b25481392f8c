package instagram

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrContainerNotReady is returned when a container does not finish processing in time
var ErrContainerNotReady = errors.New("media container is not ready for publishing")

// Publisher handles the complete publishing workflow for Instagram content
type Publisher struct {
	client       *Client
	maxAttempts  int
	pollInterval time.Duration
}

// PublisherOption configures the Publisher
type PublisherOption func(*Publisher)

// WithPolling sets how often and how many times container status is checked
func WithPolling(maxAttempts int, interval time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.maxAttempts = maxAttempts
		p.pollInterval = interval
	}
}

// NewPublisher creates a new Instagram publisher
func NewPublisher(client *Client, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:       client,
		maxAttempts:  30,
		pollInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishInput represents input for publishing content
type PublishInput struct {
	UserID      string
	AccessToken string
	Caption     string
	ImageURL    string
	VideoURL    string // takes priority over ImageURL, published as a reel
}

// PublishOutput represents output from publishing content
type PublishOutput struct {
	InstagramMediaID string
	Permalink        string
}

// Publish runs the 3-step workflow: create container -> wait for processing -> publish
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	containerIn := CreateMediaContainerInput{
		UserID:      in.UserID,
		AccessToken: in.AccessToken,
		Caption:     in.Caption,
	}
	if in.VideoURL != "" {
		containerIn.VideoURL = in.VideoURL
		containerIn.MediaType = MediaTypeReels
	} else {
		containerIn.ImageURL = in.ImageURL
		containerIn.MediaType = MediaTypeImage
	}

	container, err := p.client.CreateMediaContainer(ctx, containerIn)
	if err != nil {
		return nil, fmt.Errorf("creating media container: %w", err)
	}

	if err := p.waitForContainer(ctx, container.ID, in.AccessToken); err != nil {
		return nil, fmt.Errorf("waiting for container: %w", err)
	}

	return p.publishContainer(ctx, in.UserID, in.AccessToken, container.ID)
}

// waitForContainer waits for a media container to be ready for publishing
func (p *Publisher) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	for i := 0; i < p.maxAttempts; i++ {
		status, err := p.client.GetContainerStatus(ctx, containerID, accessToken)
		if err != nil {
			return fmt.Errorf("checking container status: %w", err)
		}

		switch status.Status {
		case ContainerStatusFinished, ContainerStatusPublished:
			return nil
		case ContainerStatusError:
			return fmt.Errorf("container error: %s", status.ErrorMessage)
		case ContainerStatusExpired:
			return fmt.Errorf("container expired")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}

	return ErrContainerNotReady
}

// publishContainer publishes a container and returns the Instagram media ID
func (p *Publisher) publishContainer(ctx context.Context, userID, accessToken, containerID string) (*PublishOutput, error) {
	published, err := p.client.PublishMedia(ctx, userID, accessToken, containerID)
	if err != nil {
		return nil, fmt.Errorf("publishing media: %w", err)
	}

	media, err := p.client.GetMedia(ctx, published.ID, accessToken)
	if err != nil {
		// Non-fatal, the media is already live
		return &PublishOutput{InstagramMediaID: published.ID}, nil
	}

	return &PublishOutput{
		InstagramMediaID: published.ID,
		Permalink:        media.Permalink,
	}, nil
}
