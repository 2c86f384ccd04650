// Package callbacks encodes and decodes inline button payloads of the form
// action[:arg[:arg...]].
package callbacks

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

const sep = ":"

// MaxDataLen is the Bot API limit for callback_data in bytes.
const MaxDataLen = 64

// Action is a parsed callback payload.
type Action struct {
	Name string
	Args []string
}

// Parse splits raw callback data. Telebot's "\f<unique>|<data>" framing is
// unwrapped so buttons built either way resolve to the same action.
func Parse(data string) Action {
	data = strings.TrimSpace(data)
	data = strings.TrimPrefix(data, "\f")
	if unique, payload, ok := strings.Cut(data, "|"); ok {
		data = unique
		if payload != "" {
			data += sep + payload
		}
	}
	if data == "" {
		return Action{}
	}
	parts := strings.Split(data, sep)
	return Action{Name: parts[0], Args: parts[1:]}
}

// FromContext parses the callback carried by c, if any.
func FromContext(c tele.Context) Action {
	cb := c.Callback()
	if cb == nil {
		return Action{}
	}
	if cb.Unique != "" {
		return Parse(cb.Unique + "|" + cb.Data)
	}
	return Parse(cb.Data)
}

// Build joins name and args into callback data.
func Build(name string, args ...any) string {
	var b strings.Builder
	b.WriteString(name)
	for _, a := range args {
		b.WriteString(sep)
		fmt.Fprint(&b, a)
	}
	return b.String()
}

// Fits reports whether data is within the Bot API size limit.
func Fits(data string) bool {
	return len(data) <= MaxDataLen
}

// Arg returns the i-th argument or an empty string.
func (a Action) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// Int64 parses the i-th argument.
func (a Action) Int64(i int) (int64, error) {
	raw := a.Arg(i)
	if raw == "" {
		return 0, fmt.Errorf("callback %s: missing argument %d", a.Name, i)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("callback %s: argument %d: %w", a.Name, i, err)
	}
	return v, nil
}

// IntOr parses the i-th argument, returning def when it is absent or malformed.
func (a Action) IntOr(i, def int) int {
	v, err := strconv.Atoi(a.Arg(i))
	if err != nil {
		return def
	}
	return v
}

// String renders the action back into callback data.
func (a Action) String() string {
	return strings.Join(append([]string{a.Name}, a.Args...), sep)
}
