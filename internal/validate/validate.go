// Package validate checks and normalises customer input collected by forms.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nameRe       = regexp.MustCompile(`^[а-яёА-ЯЁa-zA-Z\s\-]+$`)
	phoneStripRe = regexp.MustCompile(`[^\d+]`)
	phoneRes     = []*regexp.Regexp{
		regexp.MustCompile(`^\+7\d{10}$`),
		regexp.MustCompile(`^7\d{10}$`),
		regexp.MustCompile(`^8\d{10}$`),
		regexp.MustCompile(`^\d{10}$`),
	}
)

// Name accepts at least two letters (Cyrillic or Latin), spaces and hyphens.
func Name(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	return nameRe.MatchString(text)
}

func cleanPhone(text string) string {
	return phoneStripRe.ReplaceAllString(text, "")
}

// Phone accepts Russian numbers written as +7XXXXXXXXXX, 7XXXXXXXXXX,
// 8XXXXXXXXXX or XXXXXXXXXX, ignoring spaces, dashes and brackets.
func Phone(text string) bool {
	cleaned := cleanPhone(text)
	for _, re := range phoneRes {
		if re.MatchString(cleaned) {
			return true
		}
	}
	return false
}

// FormatPhone rewrites a valid number as +7XXXXXXXXXX. Anything else is
// returned with formatting characters removed.
func FormatPhone(text string) string {
	cleaned := cleanPhone(text)
	switch {
	case phoneRes[0].MatchString(cleaned):
		return cleaned
	case phoneRes[1].MatchString(cleaned):
		return "+" + cleaned
	case phoneRes[2].MatchString(cleaned):
		return "+7" + cleaned[1:]
	case phoneRes[3].MatchString(cleaned):
		return "+7" + cleaned
	}
	return cleaned
}

// Text reports whether the trimmed text has between min and max runes inclusive.
func Text(text string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return n >= min && n <= max
}

// Clean trims text and drops control characters other than newlines and tabs.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
