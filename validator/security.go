package validator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTokenSegments is returned when a token is not made of exactly three
	// dot-separated segments.
	ErrTokenSegments = errors.New("token must have exactly three segments")

	// ErrTokenEncoding is returned when a segment is empty or holds anything
	// but unpadded base64url characters, as JSON-serialized tokens do.
	ErrTokenEncoding = errors.New("token segments must be non-empty base64url")

	// ErrTokenTooLarge is returned for tokens above maxTokenSize.
	ErrTokenTooLarge = fmt.Errorf("token exceeds maximum size (%d bytes)", maxTokenSize)
)

// ID tokens are around 1KB; custom claims can push them to a few KB.
const maxTokenSize = 16 << 10

// validateTokenFormat accepts only the compact header.payload.signature form.
// The JWS parser would also take the JSON serializations, so anything else is
// turned away here.
func validateTokenFormat(tokenString string) error {
	if tokenString == "" {
		return errors.New("token is empty")
	}
	if len(tokenString) > maxTokenSize {
		return ErrTokenTooLarge
	}

	segments := strings.Split(tokenString, ".")
	if len(segments) != 3 {
		return ErrTokenSegments
	}
	for _, segment := range segments {
		if segment == "" || strings.IndexFunc(segment, isNotBase64URL) >= 0 {
			return ErrTokenEncoding
		}
	}
	return nil
}

func isNotBase64URL(r rune) bool {
	switch {
	case 'A' <= r && r <= 'Z', 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '-', r == '_':
		return false
	}
	return true
}
