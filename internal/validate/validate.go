// Package validate holds the pure input checks applied before any store write.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
)

const (
	MaxListNameLength   = 100
	MaxItemNameLength   = 200
	MaxFriendNameLength = 50
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the tagged outcome of a check. Value holds the normalised input
// when Valid.
type Result struct {
	Valid   bool
	Value   string
	Code    string
	Message string
}

// Err converts a failed Result into a validation error; nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return apperr.Validation(r.Code, r.Message)
}

func ok(v string) Result { return Result{Valid: true, Value: v} }

func fail(code, msg string) Result { return Result{Code: code, Message: msg} }

func Email(s string) Result {
	if s == "" {
		return fail(apperr.CodeInvalidFormat, "Email is required")
	}
	if !emailRe.MatchString(s) {
		return fail(apperr.CodeInvalidFormat, "Invalid email format")
	}
	return ok(s)
}

func ListName(s string) Result { return name(s, "List name", MaxListNameLength) }

func ItemName(s string) Result { return name(s, "Item name", MaxItemNameLength) }

func FriendName(s string) Result { return name(s, "Friend name", MaxFriendNameLength) }

func name(s, label string, max int) Result {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fail(apperr.CodeEmpty, label+" cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > max {
		return fail(apperr.CodeTooLong, fmt.Sprintf("%s too long (max %d characters)", label, max))
	}
	return ok(trimmed)
}

// Line is one non-blank line of bulk text. No is its 1-based position in the
// original text, blank lines included.
type Line struct {
	No   int
	Text string
}

// Lines splits bulk text on line breaks, trims each line and drops blanks.
func Lines(text string) []Line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]Line, 0, len(raw))
	for i, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, Line{No: i + 1, Text: l})
		}
	}
	return out
}
