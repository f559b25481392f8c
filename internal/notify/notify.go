package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// slackTimeout bounds one Slack post
const slackTimeout = 5 * time.Second

// Event is something an operator should know about
type Event struct {
	BusinessID string
	Source     string // automation, dispatcher
	Message    string
	Err        error
}

func (e Event) String() string {
	s := fmt.Sprintf("[%s] business %s: %s", e.Source, e.BusinessID, e.Message)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Sink receives events. Implementations must not block for long.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// LogSink writes events to a structured logger
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over logger
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements Sink
func (s *LogSink) Notify(ctx context.Context, e Event) {
	attrs := []any{"source", e.Source, "business_id", e.BusinessID}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
		s.logger.ErrorContext(ctx, e.Message, attrs...)
		return
	}
	s.logger.WarnContext(ctx, e.Message, attrs...)
}

// SlackPoster is the part of the Slack API the sink uses
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSink posts events to a Slack channel
type SlackSink struct {
	api     SlackPoster
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSlackSink creates a sink posting to channel with the given bot token
func NewSlackSink(token, channel string, logger *slog.Logger) *SlackSink {
	api := slack.New(token, slack.OptionHTTPClient(&http.Client{Timeout: slackTimeout}))
	return NewSlackSinkWithAPI(api, channel, logger)
}

// NewSlackSinkWithAPI creates a sink over an existing Slack client
func NewSlackSinkWithAPI(api SlackPoster, channel string, logger *slog.Logger) *SlackSink {
	return &SlackSink{api: api, channel: channel, timeout: slackTimeout, logger: logger}
}

// Notify implements Sink. Delivery errors are logged and dropped.
// The post outlives caller cancellation but not the caller's deadline
// and never takes longer than the sink timeout.
func (s *SlackSink) Notify(ctx context.Context, e Event) {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		s.logger.Warn("slack notification skipped, deadline exceeded", "channel", s.channel)
		return
	}

	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	_, _, err := s.api.PostMessageContext(postCtx, s.channel, slack.MsgOptionText(e.String(), false))
	if err != nil {
		s.logger.Warn("failed to post slack notification", "channel", s.channel, "error", err)
	}
}

// Multi fans an event out to several sinks
type Multi []Sink

// Notify implements Sink
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, s := range m {
		s.Notify(ctx, e)
	}
}
