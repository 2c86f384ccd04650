package logger

import "strings"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Status values used across handler and service logs.
const (
	StatusOK          = "ok"
	StatusFail        = "fail"
	StatusSkip        = "skip"
	StatusRetry       = "retry"
	StatusRateLimited = "rate_limited"
	StatusDenied      = "denied"
	StatusInvalid     = "invalid"
)

var knownStatus = map[string]struct{}{
	StatusOK: {}, StatusFail: {}, StatusSkip: {}, StatusRetry: {},
	StatusRateLimited: {}, StatusDenied: {}, StatusInvalid: {},
}

var knownOutcome = map[string]struct{}{
	"ok": {}, "fail": {}, "cancelled": {}, "rate_limited": {}, "denied": {}, "not_found": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeStatus lowercases known statuses and leaves unknown ones as written.
func normalizeStatus(status string) string {
	lower := strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownStatus[lower]; ok {
		return lower
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcome[outcome]
	return outcome, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"form",
	"state",
	"next_state",
	"product_id",
	"category",
	"lead_id",
	"lead_status",
	"interest_type",
	"count",
	"page",
	"pages",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
	"backoff_ms",
}
