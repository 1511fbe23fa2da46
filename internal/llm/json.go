package llm

import "strings"

// CleanJSONBlock returns the JSON object inside a model response. Markdown code fences
// are removed, and prose before or after the object is dropped. Content with no object
// is returned trimmed so that validation reports the real problem.
func CleanJSONBlock(text string) string {
	text = stripFence(strings.TrimSpace(text))
	if obj := firstJSONObject(text); obj != "" {
		return obj
	}
	return text
}

// stripFence removes a surrounding ``` or ```lang fence.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		if lang := text[:nl]; !strings.ContainsAny(lang, " {") {
			text = text[nl+1:]
		}
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// firstJSONObject returns the first balanced {...} in text, ignoring braces inside
// JSON strings, or "" when there is none.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
