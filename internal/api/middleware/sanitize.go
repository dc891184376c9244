package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// Logged request fields arrive straight off the network: paths, header
// values, client address strings. Strip control characters and bound
// lengths so a crafted request cannot split or forge log lines.

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

const maxLoggedLen = 200

func sanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = controlChars.ReplaceAllString(s, " ")
	if len(s) > maxLoggedLen {
		s = s[:maxLoggedLen]
	}
	return s
}

// sanitizePath drops the query string before sanitizing; query values can
// carry credentials and are never logged.
func sanitizePath(p string) string {
	if i := strings.Index(p, "?"); i != -1 {
		p = p[:i]
	}
	return sanitizeForLog(p)
}

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"cookie":              {},
	"set-cookie":          {},
	"proxy-authorization": {},
	"key":                 {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
}

// sanitizeHeaders redacts credential-bearing headers and sanitizes the rest
// for logging.
func sanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for key, vals := range h {
		if _, ok := sensitiveHeaders[strings.ToLower(key)]; ok {
			out[key] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, sanitizeForLog(v))
		}
		out[key] = clean
	}
	return out
}
