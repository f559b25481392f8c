package entity

import "strings"

// Channel identifies one publishing destination
type Channel string

const (
	ChannelTwitter   Channel = "twitter"
	ChannelLinkedIn  Channel = "linkedin"
	ChannelInstagram Channel = "instagram"
	ChannelEmail     Channel = "email"
	ChannelBlog      Channel = "blog"
)

// ParseChannel normalizes a channel identifier. It does not check registration.
func ParseChannel(s string) Channel {
	return Channel(strings.ToLower(strings.TrimSpace(s)))
}

// Target is a channel plus the channel-specific fields it needs
type Target struct {
	Channel    Channel  `json:"channel"`
	Recipients []string `json:"recipients,omitempty"` // email
	Subject    string   `json:"subject,omitempty"`    // email
	Title      string   `json:"title,omitempty"`      // blog
}

// Targets builds plain targets for the given channels
func Targets(channels ...Channel) []Target {
	out := make([]Target, len(channels))
	for i, ch := range channels {
		out[i] = Target{Channel: ch}
	}
	return out
}
