package service

import (
	"context"
	"fmt"

	"github.com/vadim/automarketer/internal/domain/automation/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/notify"
)

const defaultTrendQuery = "marketing"

// tick derives a topic, generates content per platform and publishes or enqueues it.
// Errors are reported to the sink and never end the session.
func (s *session) tick(ctx context.Context) entity.TickResult {
	var res entity.TickResult

	biz := s.business(ctx)

	topic, err := s.topic(ctx, biz)
	if err != nil {
		s.fail(ctx, &res, "topic selection failed", err)
		return res
	}
	res.Topic = topic

	now := s.deps.Now()
	for _, target := range s.cfg.Targets {
		// Calls already issued finish, nothing new starts after stop
		if s.isStopped() {
			break
		}

		if s.cfg.Mode == entity.ModePostNow && s.cfg.PeakOnly && s.deps.Peaks != nil {
			peak, err := s.deps.Peaks.IsPeak(ctx, string(target.Channel), now)
			if err != nil {
				s.fail(ctx, &res, "peak hour lookup failed", fmt.Errorf("%s: %w", target.Channel, err))
				continue
			}
			if !peak {
				res.Skipped++
				continue
			}
		}

		req := GenerateRequest{
			BusinessID: s.cfg.BusinessID,
			Platform:   target.Channel,
			Topic:      topic,
		}
		if biz != nil {
			req.BusinessName = biz.Name
			req.Industry = biz.Industry
		}

		payload, err := s.deps.Generator.Generate(ctx, req)
		if err != nil {
			s.fail(ctx, &res, "content generation failed", fmt.Errorf("%s: %w", target.Channel, err))
			continue
		}

		if s.deps.Content != nil {
			saved, err := s.deps.Content.Save(ctx, s.cfg.BusinessID, payload)
			if err != nil {
				s.deps.Logger.Warn("failed to store generated content", "business_id", s.cfg.BusinessID, "error", err)
			} else {
				payload = saved
			}
		}

		t := target
		if t.Channel == publish.ChannelBlog && t.Title == "" {
			t.Title = topic
		}

		switch s.cfg.Mode {
		case entity.ModePostNow:
			s.publishNow(ctx, &res, payload, t)
		case entity.ModeSchedulePeak:
			s.enqueue(ctx, &res, payload, t)
		}
	}

	s.deps.Logger.Info("automation tick finished",
		"business_id", s.cfg.BusinessID,
		"topic", res.Topic,
		"published", res.Published,
		"scheduled", res.Scheduled,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)

	return res
}

func (s *session) publishNow(ctx context.Context, res *entity.TickResult, payload publish.ContentPayload, t publish.Target) {
	report, err := s.deps.Publisher.Publish(ctx, payload, []publish.Target{t})
	if err != nil {
		s.fail(ctx, res, "publish rejected", fmt.Errorf("%s: %w", t.Channel, err))
		return
	}
	if report.AllFailed() {
		detail := ""
		if len(report.Outcomes) > 0 {
			detail = report.Outcomes[0].Detail
		}
		s.fail(ctx, res, "publish failed", fmt.Errorf("%s: %w: %s", t.Channel, entity.ErrAllTargetsFail, detail))
		return
	}
	res.Published++
}

func (s *session) enqueue(ctx context.Context, res *entity.TickResult, payload publish.ContentPayload, t publish.Target) {
	at, err := s.deps.Enqueuer.Enqueue(ctx, s.cfg.BusinessID, payload, []publish.Target{t})
	if err != nil {
		s.fail(ctx, res, "scheduling failed", fmt.Errorf("%s: %w", t.Channel, err))
		return
	}
	res.Scheduled++
	s.deps.Logger.Debug("automation content scheduled", "business_id", s.cfg.BusinessID, "channel", t.Channel, "at", at)
}

// business loads the profile; a lookup failure only degrades prompts
func (s *session) business(ctx context.Context) *Business {
	if s.deps.Business == nil {
		return nil
	}
	biz, err := s.deps.Business.Business(ctx, s.cfg.BusinessID)
	if err != nil {
		s.deps.Logger.Warn("failed to load business profile", "business_id", s.cfg.BusinessID, "error", err)
		return nil
	}
	return biz
}

// topic returns the configured topic or rotates through trending ones
func (s *session) topic(ctx context.Context, biz *Business) (string, error) {
	if s.cfg.Topic != "" {
		return s.cfg.Topic, nil
	}

	query := defaultTrendQuery
	if biz != nil && biz.Industry != "" {
		query = biz.Industry
	}

	topics, err := s.deps.Trends.Trending(ctx, query)
	if err != nil {
		return "", fmt.Errorf("fetching trending topics: %w", err)
	}
	if len(topics) == 0 {
		return "", entity.ErrNoTopics
	}

	// ticks is only written by this goroutine
	return topics[(s.ticks-1)%len(topics)], nil
}

func (s *session) fail(ctx context.Context, res *entity.TickResult, msg string, err error) {
	res.Errors = append(res.Errors, err)
	s.deps.Sink.Notify(ctx, notify.Event{
		BusinessID: s.cfg.BusinessID,
		Source:     "automation",
		Message:    msg,
		Err:        err,
	})
}
