package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const redacted = "[REDACTED]"

// MaxMessageRunes bounds server-supplied text shown to the user.
const MaxMessageRunes = 300

// strict removes every tag; bluemonday policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// secretPatterns are stripped from anything echoed back from the service.
var secretPatterns = []*regexp.Regexp{
	// JWT tokens (three base64url segments)
	regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`),
	// Bearer tokens; minimum 20 chars avoids false positives
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`),
	regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`),
}

var whitespace = regexp.MustCompile(`\s+`)

// Message turns untrusted server text (which may be an HTML error page) into a
// single plain-text line fit for a notification.
func Message(s string) string {
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, redacted)
	}
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	return Truncate(s, MaxMessageRunes)
}

// Truncate limits s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
