package catalog

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// MaxSlugLen keeps "subcategory:<slug>" and "products:<slug>:<page>" within
// Telegram's 64 byte callback data limit.
const MaxSlugLen = 40

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// MakeSlug transliterates name into a URL-safe slug of at most MaxSlugLen bytes.
func MakeSlug(name string) string {
	s := slug.Make(name)
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-")
	}
	return s
}

// ValidSlug reports whether s can be used as a category slug.
func ValidSlug(s string) bool {
	return len(s) <= MaxSlugLen && slugRe.MatchString(s)
}
