package logging

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var debugEnabled atomic.Bool

// EnableDebug turns on verbose debug logging for the application lifecycle.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// LogHTTPRequest emits the method, target, headers and payload of an outbound
// request when debugging is enabled. OAuth codes, client secrets and bearer
// tokens are masked in the URL, the headers and form-encoded payloads.
func LogHTTPRequest(req *http.Request, body []byte) {
	if !DebugEnabled() || req == nil {
		return
	}

	target := sanitizeURL(req.URL)
	if target == "" {
		target = "<unknown>"
	}

	log.Printf("[DEBUG] HTTP request %s %s", req.Method, target)

	if len(req.Header) > 0 {
		log.Printf("[DEBUG] --> request headers: %s", formatHeaders(req.Header))
	}

	if len(body) > 0 {
		log.Printf("[DEBUG] --> request payload %s", describePayload(sanitizeForm(req.Header.Get("Content-Type"), body)))
	}
}

// LogHTTPResponse emits the status, headers and payload of an inbound
// response when debugging is enabled. Token fields inside JSON bodies are
// masked before logging.
func LogHTTPResponse(resp *http.Response, body []byte) {
	if !DebugEnabled() || resp == nil {
		return
	}

	target := "<unknown>"
	if resp.Request != nil {
		target = sanitizeURL(resp.Request.URL)
	}

	log.Printf("[DEBUG] HTTP response %s for %s", resp.Status, target)

	if len(resp.Header) > 0 {
		log.Printf("[DEBUG] <-- response headers: %s", formatHeaders(resp.Header))
	}

	if len(body) > 0 {
		log.Printf("[DEBUG] <-- response payload %s", describePayload(sanitizeJSON(body)))
	}
}

// SanitizeURL renders u with sensitive query parameters masked. Callback
// URLs carrying authorization codes must go through it before logging.
func SanitizeURL(u *url.URL) string {
	return sanitizeURL(u)
}

func formatHeaders(headers http.Header) string {
	type headerEntry struct {
		name   string
		values []string
	}

	entries := make([]headerEntry, 0, len(headers))
	for name, values := range headers {
		sanitized := make([]string, len(values))
		for idx, value := range values {
			sanitized[idx] = sanitizeSensitiveValue(name, value)
		}
		entries = append(entries, headerEntry{name: name, values: sanitized})
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].name) < strings.ToLower(entries[j].name)
	})

	var b strings.Builder
	for idx, entry := range entries {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(entry.name)
		b.WriteString(": [")
		b.WriteString(strings.Join(entry.values, ", "))
		b.WriteString("]")
	}

	return b.String()
}

func describePayload(body []byte) string {
	if utf8.Valid(body) {
		return fmt.Sprintf("(utf-8, %d bytes): %s", len(body), string(body))
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	return fmt.Sprintf("(base64, %d bytes): %s", len(body), encoded)
}

func sanitizeForm(contentType string, body []byte) []byte {
	if !strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		return body
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return body
	}
	if !maskValues(values) {
		return body
	}
	return []byte(values.Encode())
}

func sanitizeJSON(body []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}

	masked := false
	for key, raw := range fields {
		if !isSensitiveKey(key) {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		encoded, err := json.Marshal(MaskIdentifier(value))
		if err != nil {
			continue
		}
		fields[key] = encoded
		masked = true
	}
	if !masked {
		return body
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}

func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u

	if clone.RawQuery != "" {
		query := clone.Query()
		if maskValues(query) {
			clone.RawQuery = query.Encode()
		}
	}

	if clone.User != nil {
		username := clone.User.Username()
		password, hasPassword := clone.User.Password()
		if hasPassword {
			clone.User = url.UserPassword(username, MaskIdentifier(password))
		}
	}

	return clone.String()
}

func maskValues(values url.Values) bool {
	sanitized := false
	for key, entries := range values {
		if !isSensitiveKey(key) {
			continue
		}
		sanitized = true
		for idx, value := range entries {
			values[key][idx] = sanitizeSensitiveValue(key, value)
		}
	}
	return sanitized
}

func isSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case lower == "code", lower == "state":
		return true
	case strings.Contains(lower, "authorization"),
		strings.Contains(lower, "secret"),
		strings.Contains(lower, "token"):
		return true
	default:
		return false
	}
}

func sanitizeSensitiveValue(name, value string) string {
	if value == "" {
		return value
	}
	if isSensitiveKey(name) {
		return MaskIdentifier(value)
	}
	return value
}

// MaskIdentifier obscures sensitive identifiers leaving only the last four characters visible.
func MaskIdentifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(trimmed)-4) + trimmed[len(trimmed)-4:]
}
