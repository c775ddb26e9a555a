package middleware

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
)

// Input validation and sanitization utilities

const (
	// MaxImageBytes caps a decoded photo.
	MaxImageBytes = 8 << 20
	// MaxTextLength caps descriptions, hints, questions and question context.
	MaxTextLength = 2000
)

var clientIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateClientID validates client ID format
func ValidateClientID(client string) error {
	if client == "" {
		return fmt.Errorf("client ID cannot be empty")
	}
	if !clientIDPattern.MatchString(client) {
		return fmt.Errorf("invalid client ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateRecordID checks that id is a UUID
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid record ID format")
	}
	return nil
}

// ValidateImage checks that image is base64 (optionally a data URL) within MaxImageBytes.
// An empty image is valid; missing input is reported in the analysis result instead.
func ValidateImage(image string) error {
	raw := therapy.StripDataURL(image)
	if raw == "" {
		return nil
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxImageBytes+3 {
		return fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	if _, err := base64.StdEncoding.DecodeString(raw); err != nil {
		return fmt.Errorf("image is not valid base64: %w", err)
	}
	return nil
}

// ValidateText checks a free-text field length
func ValidateText(field, s string) error {
	if n := len([]rune(s)); n > MaxTextLength {
		return fmt.Errorf("%s is too long (%d > %d characters)", field, n, MaxTextLength)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps page to at least 1
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
