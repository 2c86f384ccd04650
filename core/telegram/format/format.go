// Package format renders user-supplied values safely for the configured parse mode.
package format

import (
	"html"
	"strings"
)

// Styler escapes and emphasises text for one Telegram parse mode.
type Styler interface {
	Escape(s string) string
	Bold(s string) string
	Italic(s string) string
}

// For returns the styler matching a Bot API parse mode name. Unknown modes get HTML.
func For(mode string) Styler {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "markdown":
		return Markdown{}
	case "markdownv2":
		return MarkdownV2{}
	default:
		return HTML{}
	}
}

type HTML struct{}

func (HTML) Escape(s string) string { return html.EscapeString(s) }
func (HTML) Bold(s string) string   { return "<b>" + html.EscapeString(s) + "</b>" }
func (HTML) Italic(s string) string { return "<i>" + html.EscapeString(s) + "</i>" }

var mdV1 = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

type Markdown struct{}

func (Markdown) Escape(s string) string { return mdV1.Replace(s) }
func (Markdown) Bold(s string) string   { return "*" + mdV1.Replace(s) + "*" }
func (Markdown) Italic(s string) string { return "_" + mdV1.Replace(s) + "_" }

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

type MarkdownV2 struct{}

func (MarkdownV2) Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(mdV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (m MarkdownV2) Bold(s string) string   { return "*" + m.Escape(s) + "*" }
func (m MarkdownV2) Italic(s string) string { return "_" + m.Escape(s) + "_" }

// Truncate cuts s to max runes and appends suffix when something was removed.
func Truncate(s string, max int, suffix string) string {
	r := []rune(s)
	if max < 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + suffix
}
