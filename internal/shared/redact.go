package shared

import (
	"net/url"
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// secretPatterns matches common secret-bearing patterns in log/error strings.
var secretPatterns = []*regexp.Regexp{
	// Credentials embedded in connection URLs (redis://user:pass@, postgres://user:pass@).
	regexp.MustCompile(`(?i)((?:redis|rediss|postgres|postgresql)://[^:/@\s]*):([^@\s]+)@`),
	// key=value style secrets (password=..., sslpassword=...).
	regexp.MustCompile(`(?i)(password|passwd|secret|token)\s*[:=]\s*"?([^"\s&]+)"?`),
	// Bearer tokens.
	regexp.MustCompile(`(?i)(Bearer\s+)([A-Za-z0-9_\-./+=]{16,})`),
}

// Redact replaces secret-bearing patterns in the input string with [REDACTED].
// Applied to every string attribute that passes through the logger.
func Redact(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllStringFunc(result, func(match string) string {
			submatch := pat.FindStringSubmatch(match)
			if len(submatch) >= 3 {
				// Keep the prefix group, redact the value. URL patterns also
				// keep the trailing @ so the host stays readable.
				if strings.HasSuffix(match, "@") {
					return submatch[1] + ":" + redactedPlaceholder + "@"
				}
				return submatch[1] + "=" + redactedPlaceholder
			}
			return redactedPlaceholder
		})
	}
	return result
}

// RedactURL returns a connection URL safe for display: the password component,
// if any, is replaced. Unparseable input falls back to pattern redaction.
func RedactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return Redact(raw)
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
		return strings.Replace(u.String(), "xxxxx", redactedPlaceholder, 1)
	}
	return u.String()
}

// SensitiveKey reports whether an attribute key names a secret.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if lower == "" {
		return false
	}
	sensitiveTokens := []string{"token", "secret", "password", "authorization", "api_key", "apikey", "bearer"}
	for _, token := range sensitiveTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
