package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

// NoRecipientsDetail is the outcome detail when the email target has nobody to send to
const NoRecipientsDetail = "no recipients configured"

// DefaultEmailSubject is used when neither the target nor the config sets one
const DefaultEmailSubject = "Marketing Update"

// Mailer delivers one HTML email to one address
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// RecipientSource provides the managed recipient list
type RecipientSource interface {
	Recipients(ctx context.Context) ([]string, error)
}

// Email sends the payload to every recipient and reports one aggregated outcome
type Email struct {
	mailer         Mailer
	recipients     RecipientSource
	defaultSubject string
}

// NewEmail creates the email adapter. recipients may be nil.
func NewEmail(mailer Mailer, recipients RecipientSource, defaultSubject string) *Email {
	if defaultSubject == "" {
		defaultSubject = DefaultEmailSubject
	}
	return &Email{
		mailer:         mailer,
		recipients:     recipients,
		defaultSubject: defaultSubject,
	}
}

// Channel implements Adapter
func (e *Email) Channel() entity.Channel {
	return entity.ChannelEmail
}

// Publish implements Adapter
func (e *Email) Publish(ctx context.Context, payload entity.ContentPayload, target entity.Target) entity.Outcome {
	if err := payload.Validate(); err != nil {
		return entity.Invalid(entity.ChannelEmail, err.Error())
	}

	to := cleanRecipients(target.Recipients)
	if len(to) == 0 && e.recipients != nil {
		loaded, err := e.recipients.Recipients(ctx)
		if err != nil {
			return entity.Failed(entity.ChannelEmail, fmt.Errorf("loading recipients: %w", err))
		}
		to = cleanRecipients(loaded)
	}
	if len(to) == 0 {
		return entity.Invalid(entity.ChannelEmail, NoRecipientsDetail)
	}

	subject := target.Subject
	if subject == "" {
		subject = e.defaultSubject
	}

	body, err := RenderHTML(payload)
	if err != nil {
		return entity.Invalid(entity.ChannelEmail, err.Error())
	}

	sent := 0
	var firstErr error
	for _, addr := range to {
		if ctx.Err() != nil {
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break
		}
		if err := e.mailer.Send(ctx, addr, subject, body); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", addr, err)
			}
			continue
		}
		sent++
	}

	summary := fmt.Sprintf("sent to %d of %d recipients", sent, len(to))
	if firstErr == nil {
		return entity.Succeeded(entity.ChannelEmail, summary)
	}

	kind := entity.Classify(firstErr)
	return entity.Outcome{
		Target:  entity.ChannelEmail,
		Detail:  fmt.Sprintf("%s: %s: %v", kind, summary, firstErr),
		Failure: kind,
	}
}

// cleanRecipients trims, lowercases and de-duplicates addresses
func cleanRecipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
