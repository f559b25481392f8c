package entity

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Domain errors for peak hours
var (
	ErrHourOutOfRange = errors.New("hour must be between 0 and 23")
	ErrEmptyPlatform  = errors.New("platform is required")
)

// Set is an ordered set of distinct hours of the day
type Set []int

// DefaultSet is used for platforms nobody configured
var DefaultSet = Set{9, 12, 15, 18, 20}

// SeedDefaults are the initial hours of the built-in social platforms
var SeedDefaults = map[string]Set{
	"twitter":   {9, 10, 11, 17, 18, 21},
	"linkedin":  {7, 8, 12, 17, 18},
	"instagram": {11, 12, 13, 19, 20, 21},
}

// ValidateHour checks hour is in [0,23]
func ValidateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return ErrHourOutOfRange
	}
	return nil
}

// NewSet builds a sorted, de-duplicated set and rejects out-of-range hours
func NewSet(hours ...int) (Set, error) {
	out := make(Set, 0, len(hours))
	for _, h := range hours {
		if err := ValidateHour(h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Contains reports whether hour is in the set
func (s Set) Contains(hour int) bool {
	_, found := slices.BinarySearch(s, hour)
	return found
}

// Toggle returns a new set with hour removed if present, inserted otherwise
func (s Set) Toggle(hour int) (Set, error) {
	if err := ValidateHour(hour); err != nil {
		return nil, err
	}
	i, found := slices.BinarySearch(s, hour)
	out := slices.Clone(s)
	if found {
		return slices.Delete(out, i, i+1), nil
	}
	return slices.Insert(out, i, hour), nil
}

// Clone returns an independent copy
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	return slices.Clone(s)
}

// PeakHours is the stored hour set of one platform
type PeakHours struct {
	Platform  string    `json:"platform"`
	Hours     Set       `json:"hours"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizePlatform lowercases and trims a platform name
func NormalizePlatform(platform string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" {
		return "", ErrEmptyPlatform
	}
	return p, nil
}
