package buildinfo

import "strings"

// Set at link time, for example:
//
//	go build -ldflags "-X github.com/m3rciful/furnibot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/furnibot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/furnibot/core/buildinfo.Date=$(date -u +%FT%TZ)"
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// Summary renders the build identity as "version (commit, date)" with empty parts omitted.
func Summary() string {
	var extra []string
	if c := strings.TrimSpace(Commit); c != "" {
		extra = append(extra, c)
	}
	if d := strings.TrimSpace(Date); d != "" {
		extra = append(extra, d)
	}
	if len(extra) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(extra, ", ") + ")"
}
