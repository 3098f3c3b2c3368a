package utils

import "strings"

// ExtractJSONObject returns the first balanced JSON object found anywhere in
// raw model output. LLM responses routinely wrap JSON in prose or code
// fences, so callers scan instead of unmarshalling the whole body.
func ExtractJSONObject(s string) (string, bool) {
	return extractBalanced(s, '{', '}')
}

// ExtractJSONArray returns the first balanced JSON array found in s.
func ExtractJSONArray(s string) (string, bool) {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, end byte) (string, bool) {
	start := strings.IndexByte(s, open)
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
		case open:
			depth++
		case end:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// StripFences removes a surrounding markdown code fence from model output.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
