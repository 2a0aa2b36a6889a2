package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds a chat message, in bytes.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer cleans user messages before they reach the prompt builder.
//
// Oversized and non-UTF-8 messages are rejected, never truncated. Control
// characters other than newline, tab and carriage return are dropped, and so
// are invisible format characters (bidi overrides, zero-width spaces) that
// would end up verbatim in the model prompt. The zero-width joiner is kept
// because emoji sequences depend on it.
type Sanitizer struct {
	maxSize int
}

// NewSanitizer returns a sanitizer accepting messages up to maxSize bytes.
// A non-positive maxSize selects DefaultMaxInputSize.
func NewSanitizer(maxSize int) *Sanitizer {
	if maxSize <= 0 {
		maxSize = DefaultMaxInputSize
	}
	return &Sanitizer{maxSize: maxSize}
}

var defaultSanitizer = NewSanitizer(0)

// MaxSize is the largest accepted message, in bytes.
func (s *Sanitizer) MaxSize() int {
	if s == nil {
		return DefaultMaxInputSize
	}
	return s.maxSize
}

// Clean validates input and strips unwanted runes.
func (s *Sanitizer) Clean(input string) (string, error) {
	if s == nil {
		s = defaultSanitizer
	}
	if len(input) > s.maxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), s.maxSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, dropped) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if dropped(r) {
			return -1
		}
		return r
	}, input), nil
}

// SanitizeInput cleans input with the default limit.
func SanitizeInput(input string) (string, error) {
	return defaultSanitizer.Clean(input)
}

func dropped(r rune) bool {
	switch r {
	case '\n', '\t', '\r', '\u200d':
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}
