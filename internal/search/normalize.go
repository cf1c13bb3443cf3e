package search

import "strings"

// Normalize turns free text into a prefix query string: hyphens become
// spaces, blank tokens are dropped and every token gets a trailing '*'.
//
//	Normalize("  fire-mask  bowl ") == "fire* mask* bowl*"
func Normalize(raw string) string {
	tokens := strings.Fields(strings.ReplaceAll(strings.TrimSpace(raw), "-", " "))
	for i, tok := range tokens {
		tokens[i] = tok + "*"
	}
	return strings.Join(tokens, " ")
}

// IsDegenerate reports whether q holds nothing but wildcards and whitespace.
// Such a query would match every term, so it is never executed.
func IsDegenerate(q string) bool {
	stripped := strings.NewReplacer("*", "", "?", "").Replace(q)
	return strings.TrimSpace(stripped) == ""
}
