package textfilter

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// MaxNicknameLength is the longest nickname accepted, in runes.
const MaxNicknameLength = 24

var (
	ErrEmptyNickname   = errors.New("nickname is empty")
	ErrNicknameTooLong = errors.New("nickname is too long")
)

// NormalizeAnswer prepares a puzzle answer for comparison: surrounding
// whitespace is dropped and full-width characters (as typed by CJK input
// methods) become their narrow forms, so "１３５" matches "135".
func NormalizeAnswer(answer string) string {
	return width.Narrow.String(strings.TrimSpace(answer))
}

// EqualFold reports whether two answers match after normalisation and
// Unicode case folding.
func EqualFold(answer, expected string) bool {
	fold := cases.Fold()
	return fold.String(NormalizeAnswer(answer)) == fold.String(NormalizeAnswer(expected))
}

// Equal reports whether two answers match after normalisation. Case matters.
func Equal(answer, expected string) bool {
	return NormalizeAnswer(answer) == NormalizeAnswer(expected)
}

// CleanNickname trims a nickname, folds full-width Latin letters and digits,
// and drops control characters.
func CleanNickname(nickname string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, NormalizeAnswer(nickname))
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ErrEmptyNickname
	}
	if utf8.RuneCountInString(cleaned) > MaxNicknameLength {
		return "", ErrNicknameTooLong
	}
	return cleaned, nil
}
