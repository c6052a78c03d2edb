package plan

import "strings"

// extractFirstJSONObject locates the first "{" in s and returns the
// substring through its matching "}", tracking string context (quotes
// and backslash escapes) so braces inside string values don't throw off
// the depth count. Returns ok=false if no balanced object is found,
// which the caller must treat as a parse failure rather than a panic.
func extractFirstJSONObject(s string) (object string, ok bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
