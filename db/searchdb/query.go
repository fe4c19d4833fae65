package searchdb

import (
	"regexp"
	"strings"
)

var quotedPhraseRegex = regexp.MustCompile(`"([^"]*)"`)

// parseQuotedQuery splits a query into its quoted phrases and the remaining terms.
// Empty phrases are dropped and whitespace is collapsed.
func parseQuotedQuery(queryString string) ([]string, string) {
	var quoted []string
	for _, match := range quotedPhraseRegex.FindAllStringSubmatch(queryString, -1) {
		phrase := strings.Join(strings.Fields(match[1]), " ")
		if phrase != "" {
			quoted = append(quoted, phrase)
		}
	}

	remaining := quotedPhraseRegex.ReplaceAllString(queryString, " ")
	remaining = strings.Join(strings.Fields(remaining), " ")

	return quoted, remaining
}

// IsEmptyQuery reports whether queryString has neither a quoted phrase nor a term,
// as for "" or a quoted run of spaces.
func IsEmptyQuery(queryString string) bool {
	phrases, remaining := parseQuotedQuery(queryString)
	return len(phrases) == 0 && remaining == ""
}
