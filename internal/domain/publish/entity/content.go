package entity

import "strings"

// MediaRefs holds optional media attached to a payload
type MediaRefs struct {
	ImageURL string `json:"image_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// HasVisual reports whether an image or a video is attached
func (m MediaRefs) HasVisual() bool {
	return m.ImageURL != "" || m.VideoURL != ""
}

// ContentPayload is the unit being distributed.
// Adapters receive it by value and must not retain or modify it.
type ContentPayload struct {
	ID           string    `json:"id,omitempty"`
	Body         string    `json:"body"`
	Media        MediaRefs `json:"media"`
	PlatformHint string    `json:"platform_hint,omitempty"` // Informational only
}

// Validate checks the payload can be published
func (c ContentPayload) Validate() error {
	if strings.TrimSpace(c.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}
