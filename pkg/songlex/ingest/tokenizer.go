package ingest

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenSplitPattern separates tokens on anything that is not a letter,
// digit, apostrophe or hyphen.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}'-]+`)

// Tokenizer splits normalized text into tokens and removes stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
	keep      map[string]struct{} // never filtered, e.g. span placeholders
}

// NewTokenizer creates a new tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{
		stopwords: stops,
		keep: map[string]struct{}{
			PlaceholderOnomatopoeia: {},
			PlaceholderMarker:       {},
		},
	}
}

// Tokenize splits text on the punctuation pattern and drops stopwords.
// Input is expected to be lowercased already.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, raw := range tokenSplitPattern.Split(text, -1) {
		if word := t.processToken(raw); word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// processToken applies cleaning and stopword filtering.
func (t *Tokenizer) processToken(token string) string {
	word := cleanToken(strings.ToLower(token))
	if _, ok := t.keep[word]; ok {
		return word
	}
	if len([]rune(word)) <= 1 {
		return ""
	}

	// "3-4", "1990": counts and dates say nothing about the sound
	if isNumericOnly(word) {
		return ""
	}

	if t.isStopword(word) {
		return ""
	}
	return word
}

// cleanToken strips edge hyphens/apostrophes, possessive 's, and collapses
// repeated hyphens.
func cleanToken(token string) string {
	token = strings.TrimSuffix(token, "'s")
	token = strings.Trim(token, "-'")

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

// Stopwords returns the number of stopwords in use.
func (t *Tokenizer) Stopwords() int {
	return len(t.stopwords)
}
