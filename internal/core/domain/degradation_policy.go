package domain

import "strings"

// TokenTouchMode governs how the authorization gate handles a failure to
// persist an API token's last_used_at bookkeeping update (§4.4 step 5,
// "best-effort; may be coalesced"). This never affects whether the
// request itself is authorized — only whether a touch failure is
// swallowed or surfaced in logs as elevated severity.
type TokenTouchMode string

const (
	// TokenTouchLenient swallows touch failures at info level; the
	// default, since last_used_at is observability, not authorization.
	TokenTouchLenient TokenTouchMode = "lenient"
	// TokenTouchStrict logs touch failures at warning level so an
	// operator notices a coalescing queue has backed up.
	TokenTouchStrict TokenTouchMode = "strict"
)

// ParseTokenTouchMode normalises textual config input, defaulting to lenient.
func ParseTokenTouchMode(value string) TokenTouchMode {
	if strings.EqualFold(strings.TrimSpace(value), string(TokenTouchStrict)) {
		return TokenTouchStrict
	}
	return TokenTouchLenient
}
