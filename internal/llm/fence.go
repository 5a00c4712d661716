package llm

import (
	"regexp"
	"strings"
)

var reFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)\\n?\\s*```")

// StripFences returns the JSON object carried by a model answer: the body of
// the first fenced code block when there is one, otherwise the span from the
// first '{' to the last '}'. Text without braces is returned trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if m := reFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
