package ai

import "strings"

// ExtractJSON strips a markdown code fence from model output if present and
// trims surrounding whitespace. Models in json_object mode usually return
// bare JSON, but fenced replies still show up occasionally.
func ExtractJSON(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}
