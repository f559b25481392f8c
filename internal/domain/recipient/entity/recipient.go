package entity

import (
	"errors"
	"strings"
	"time"
)

// Domain errors for the managed recipient list
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrRecipientNotFound = errors.New("recipient not found")
)

// Recipient is one address on the managed email list
type Recipient struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
