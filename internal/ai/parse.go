package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencedBlock matches a markdown code fence anywhere in a reply. The closing
// fence is optional so a truncated reply still yields its body.
var fencedBlock = regexp.MustCompile("(?is)```(?:json)?(.*?)(?:```|$)")

// cleanJSONBlock returns the body of the first code fence in text, or text
// itself when there is none, trimmed of whitespace and stray backticks.
// Models often wrap JSON in ```json ... ``` even when told not to.
func cleanJSONBlock(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	return strings.Trim(text, " \t\r\n`")
}

// parseJobs decodes a model reply into job records.
// An array is returned as-is, any other JSON value becomes a one-element slice.
// The reply is tried as plain JSON first and then as the body of a code fence.
func parseJobs(raw string) ([]any, error) {
	v, err := decodeLenient(raw)
	if err != nil {
		var fenceErr error
		if v, fenceErr = decodeLenient(cleanJSONBlock(raw)); fenceErr != nil {
			return nil, fmt.Errorf("unmarshal jobs JSON: %w", fenceErr)
		}
	}

	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

// decodeLenient unmarshals s after escaping raw control characters inside
// string literals, which models emit for multi-line descriptions.
func decodeLenient(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(escapeControlChars(strings.TrimSpace(s))), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// escapeControlChars rewrites bytes below 0x20 that appear inside JSON
// strings as escape sequences. Everything outside strings is left alone.
func escapeControlChars(s string) string {
	var (
		b        strings.Builder
		inString bool
		escaped  bool
	)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case !inString:
			if c == '"' {
				inString = true
			}
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = false
		case c < 0x20:
			switch c {
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				fmt.Fprintf(&b, `\u%04x`, c)
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
