// Package validation checks form input before it is sent to the API.
//
// Every failure wraps [shared.ErrInvalidInput] so callers can tell a rejected form from a failed request.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// YouTubeURLPattern matches youtube.com and youtu.be links with or without a scheme.
var YouTubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

// TimestampPattern matches MM:SS and HH:MM:SS timestamps such as 1:30, 01:30 and 1:30:45.
var TimestampPattern = regexp.MustCompile(`^(\d+:)?([0-5]?\d):([0-5]\d)$`)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MinPasswordLen    = 6

	// MaxTimestampHours bounds the hours part of a timestamp.
	MaxTimestampHours = 99999

	// DefaultStartTime is sent when a clip has no explicit start.
	DefaultStartTime = "0:00"
)

// ValidateYouTubeURL checks that raw looks like a YouTube video link.
func ValidateYouTubeURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: YouTube URL is required", shared.ErrInvalidInput)
	}
	if !YouTubeURLPattern.MatchString(raw) {
		return fmt.Errorf("%w: please enter a valid YouTube URL", shared.ErrInvalidInput)
	}
	return nil
}

// ValidateTimestamp checks the MM:SS or HH:MM:SS format.
func ValidateTimestamp(ts string) error {
	if !TimestampPattern.MatchString(ts) {
		return fmt.Errorf("%w: time %q should be in format MM:SS or HH:MM:SS", shared.ErrInvalidInput, ts)
	}
	return nil
}

// ParseTimestamp converts a validated timestamp into seconds.
func ParseTimestamp(ts string) (int, error) {
	if err := ValidateTimestamp(ts); err != nil {
		return 0, err
	}

	parts := strings.Split(ts, ":")
	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("%w: time %q is out of range", shared.ErrInvalidInput, ts)
		}
		if len(parts) == 3 && i == 0 && n > MaxTimestampHours {
			return 0, fmt.Errorf("%w: time %q exceeds %d hours", shared.ErrInvalidInput, ts, MaxTimestampHours)
		}
		total = total*60 + n
	}
	return total, nil
}

// ValidateClip checks an upload form and returns the request body to send.
//
// Surrounding whitespace is trimmed from every field and an empty start time becomes [DefaultStartTime].
func ValidateClip(c models.NewClip) (models.NewClip, error) {
	c.YouTubeURL = strings.TrimSpace(c.YouTubeURL)
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.StartTime = strings.TrimSpace(c.StartTime)
	c.EndTime = strings.TrimSpace(c.EndTime)

	if err := ValidateYouTubeURL(c.YouTubeURL); err != nil {
		return c, err
	}

	if c.Title == "" {
		return c, fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if utf8.RuneCountInString(c.Title) > MaxTitleLen {
		return c, fmt.Errorf("%w: title must not exceed %d characters", shared.ErrInvalidInput, MaxTitleLen)
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLen {
		return c, fmt.Errorf("%w: description must not exceed %d characters", shared.ErrInvalidInput, MaxDescriptionLen)
	}

	var start, end int
	var err error
	if c.StartTime != "" {
		if start, err = ParseTimestamp(c.StartTime); err != nil {
			return c, fmt.Errorf("start time: %w", err)
		}
	}
	if c.EndTime != "" {
		if end, err = ParseTimestamp(c.EndTime); err != nil {
			return c, fmt.Errorf("end time: %w", err)
		}
		if end <= start {
			return c, fmt.Errorf("%w: end time must be after start time", shared.ErrInvalidInput)
		}
	}

	if c.StartTime == "" {
		c.StartTime = DefaultStartTime
	}
	return c, nil
}

// ValidateRegistration checks the sign-up form, including the password confirmation.
func ValidateRegistration(username, email, password, confirm string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username cannot be empty", shared.ErrInvalidInput)
	}
	if err := ValidateLogin(email, password); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", shared.ErrInvalidInput, MinPasswordLen)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", shared.ErrInvalidInput)
	}
	return nil
}

// ValidateLogin checks that both credentials were supplied.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email cannot be empty", shared.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", shared.ErrInvalidInput)
	}
	return nil
}

// ValidateComment rejects blank comments.
func ValidateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment cannot be empty", shared.ErrInvalidInput)
	}
	return content, nil
}
