package app

import (
	"log/slog"
	"strings"

	"github.com/vadim/automarketer/internal/config"
	"github.com/vadim/automarketer/internal/domain/publish/adapter"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/httpx/upstream/ayrshare"
	"github.com/vadim/automarketer/internal/httpx/upstream/blogger"
	"github.com/vadim/automarketer/internal/httpx/upstream/brevo"
	"github.com/vadim/automarketer/internal/httpx/upstream/instagram"
	"github.com/vadim/automarketer/internal/mailer"
)

// newAdapterRegistry registers one adapter per channel whose backend is
// configured. Channels left out are rejected as invalid targets.
func newAdapterRegistry(cfg config.Config, recipients adapter.RecipientSource, logger *slog.Logger) *adapter.Registry {
	var adapters []adapter.Adapter

	var social adapter.SocialPoster
	if cfg.Ayrshare.APIKey != "" {
		social = &socialPosterAdapter{
			client: ayrshare.New(cfg.Ayrshare.APIKey, ayrshare.WithBaseURL(cfg.Ayrshare.BaseURL)),
		}
		adapters = append(adapters,
			adapter.NewSocial(publish.ChannelTwitter, social),
			adapter.NewSocial(publish.ChannelLinkedIn, social),
		)
	}

	switch {
	case cfg.Instagram.GraphEnabled():
		client := instagram.New(
			instagram.WithBaseURL(cfg.Instagram.BaseURL),
			instagram.WithAPIVersion(cfg.Instagram.APIVersion),
		)
		adapters = append(adapters, adapter.NewInstagramGraph(&instagramPublisherAdapter{
			publisher:   instagram.NewPublisher(client, instagram.WithPolling(cfg.Instagram.PollAttempts, cfg.Instagram.PollInterval)),
			userID:      cfg.Instagram.UserID,
			accessToken: cfg.Instagram.AccessToken,
		}))
	case social != nil:
		adapters = append(adapters, adapter.NewSocial(publish.ChannelInstagram, social))
	}

	if m := newMailer(cfg); m != nil {
		adapters = append(adapters, adapter.NewEmail(m, recipients, cfg.Email.DefaultSubject))
	}

	if cfg.Blogger.BlogID != "" && cfg.Blogger.APIKey != "" {
		client := blogger.New(cfg.Blogger.BlogID, cfg.Blogger.APIKey, blogger.WithBaseURL(cfg.Blogger.BaseURL))
		adapters = append(adapters, adapter.NewBlog(&blogPosterAdapter{client: client}))
	}

	if len(adapters) == 0 {
		logger.Warn("no publishing channel is configured")
	}

	return adapter.NewRegistry(adapters...)
}

// newMailer picks the email transport. It returns nil when the provider
// lacks credentials or no sender address is set.
func newMailer(cfg config.Config) adapter.Mailer {
	if cfg.Email.SenderEmail == "" {
		return nil
	}

	switch strings.ToLower(cfg.Email.Provider) {
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil
		}
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			FromName:    cfg.Email.SenderName,
			FromEmail:   cfg.Email.SenderEmail,
			InsecureTLS: cfg.SMTP.InsecureTLS,
		})
	default:
		if cfg.Brevo.APIKey == "" {
			return nil
		}
		client := brevo.New(cfg.Brevo.APIKey, cfg.Email.SenderName, cfg.Email.SenderEmail, brevo.WithBaseURL(cfg.Brevo.BaseURL))
		return mailer.NewBrevo(client)
	}
}
