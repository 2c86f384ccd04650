package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command describes a slash command registered with the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage documents arguments, e.g. "<id> <status>".
	Usage     string
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Help renders "/name usage - description" for help listings.
func (c Command) Help(name string) string {
	var b strings.Builder
	b.WriteString(name)
	if c.Usage != "" {
		b.WriteString(" ")
		b.WriteString(c.Usage)
	}
	if c.Description != "" {
		b.WriteString(" - ")
		b.WriteString(c.Description)
	}
	return b.String()
}
