package searchdb

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/search"
)

const maxSuggestionDistance = 2

var spellingFields = []string{indexFieldTitle, indexFieldContent}

type spellingCandidate struct {
	term     string
	distance int
	count    uint64
}

func (c spellingCandidate) betterThan(other spellingCandidate) bool {
	if c.distance != other.distance {
		return c.distance < other.distance
	}
	if c.count != other.count {
		return c.count > other.count
	}
	return c.term < other.term
}

// Suggest runs queryString through the analyzer used for title and content, and
// replaces every term missing from their dictionaries with the closest indexed term.
// Terms without a close enough replacement are kept as they are.
func (b *BleveDB) Suggest(ctx context.Context, queryString string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(queryString))
	if lowered == "" {
		return "", nil
	}

	analyzer := b.index.Mapping().AnalyzerNamed(standard.Name)
	if analyzer == nil {
		return "", fmt.Errorf("analyzer %s is not registered", standard.Name)
	}

	suggestion := lowered
	tokens := analyzer.Analyze([]byte(lowered))
	// Replace from the end so earlier byte offsets stay valid
	for i := len(tokens) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		token := tokens[i]
		term := string(token.Term)

		replacement, err := b.suggestTerm(term)
		if err != nil {
			b.logger.Error("could not suggest spelling", "term", term, "err", err.Error())
			return "", err
		}
		if replacement != term {
			suggestion = suggestion[:token.Start] + replacement + suggestion[token.End:]
		}
	}

	return suggestion, nil
}

// suggestTerm looks for term in the spelling fields' dictionaries. Only terms sharing
// the first letter are considered as replacements.
func (b *BleveDB) suggestTerm(term string) (string, error) {
	firstRune, size := utf8.DecodeRuneInString(term)
	if firstRune == utf8.RuneError || size == 0 {
		return term, nil
	}
	prefix := []byte(term[:size])

	best := spellingCandidate{term: term, distance: maxSuggestionDistance + 1}
	for _, field := range spellingFields {
		dict, err := b.index.FieldDictPrefix(field, prefix)
		if err != nil {
			return "", fmt.Errorf("could not read dictionary of field %s: %w", field, err)
		}

		entry, err := dict.Next()
		for err == nil && entry != nil {
			if entry.Term == term {
				dict.Close()
				return term, nil
			}

			candidate := spellingCandidate{
				term:     entry.Term,
				distance: search.LevenshteinDistance(term, entry.Term),
				count:    entry.Count,
			}
			if candidate.distance <= maxSuggestionDistance && candidate.betterThan(best) {
				best = candidate
			}
			entry, err = dict.Next()
		}
		dict.Close()
		if err != nil {
			return "", fmt.Errorf("could not iterate dictionary of field %s: %w", field, err)
		}
	}

	return best.term, nil
}
