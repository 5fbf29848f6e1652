package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinTokenLen is the shortest token kept, in runes.
const DefaultMinTokenLen = 2

// Tokenizer handles text tokenization and normalization
type Tokenizer struct {
	stopwords map[string]struct{}
	synonyms  map[string]string
	minLen    int
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, minLen: DefaultMinTokenLen}
}

// SetMinLen sets the minimum token length in runes. Values below 1 are
// treated as 1.
func (t *Tokenizer) SetMinLen(n int) {
	if n < 1 {
		n = 1
	}
	t.minLen = n
}

// SetSynonyms assigns a variant → canonical map. Tokens are rewritten to
// their canonical form before the stopword check.
// Example: "coffees" → "coffee"
func (t *Tokenizer) SetSynonyms(m map[string]string) {
	t.synonyms = make(map[string]string, len(m))
	for k, v := range m {
		t.synonyms[strings.ToLower(k)] = strings.ToLower(v)
	}
}

// Tokenize splits text into normalized tokens, removing stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// processToken applies cleaning, synonym normalization, and stopword filtering.
func (t *Tokenizer) processToken(token string) string {
	word := cleanToken(token)
	if word == "" || utf8.RuneCountInString(word) < t.minLen {
		return ""
	}

	// Mixed tokens like "gpt-4" or "utf-8" are kept.
	if isNumericOnly(word) {
		return ""
	}

	if canon, ok := t.synonyms[word]; ok {
		word = canon
	}

	if t.isStopword(word) {
		return ""
	}
	return word
}

// cleanToken strips leading/trailing hyphens and collapses hyphen runs.
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
