package perplexity

import (
	"regexp"
	"strings"
)

// Model output is "JSON plus noise": markdown code fences, inline citation
// markers, prose before or after the object. SanitizeJSON reduces it to the
// bare JSON object, or "" when none is present.

var citationMarker = regexp.MustCompile(`\[\d+\]`)

func SanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripCodeFences(s)
	s = citationMarker.ReplaceAllString(s, "")
	s = extractObject(s)
	return strings.TrimSpace(s)
}

func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// extractObject trims to the outermost {...} span so stray prose around the
// object does not break decoding. Brace counting ignores braces inside
// string literals.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	// unbalanced object; let the JSON decoder report it
	return s[start:]
}
