package utils

import (
	"regexp"
	"strings"
)

var (
	tokenPattern = regexp.MustCompile(`[a-z0-9]+`)
	stopwords    = map[string]struct{}{
		"a": {}, "about": {}, "all": {}, "also": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {},
		"as": {}, "at": {}, "be": {}, "been": {}, "best": {}, "but": {}, "by": {}, "can": {}, "do": {},
		"dear": {}, "for": {}, "from": {}, "has": {}, "have": {}, "hello": {}, "hey": {}, "hi": {},
		"how": {}, "i": {}, "if": {}, "im": {}, "in": {}, "is": {}, "it": {}, "its": {}, "just": {},
		"me": {}, "more": {}, "my": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "our": {},
		"please": {}, "regards": {}, "so": {}, "thank": {}, "thanks": {}, "that": {}, "the": {},
		"their": {}, "them": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {},
		"to": {}, "up": {}, "us": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
		"where": {}, "which": {}, "who": {}, "will": {}, "with": {}, "would": {}, "you": {}, "your": {},
	}
)

// ExtractMeaningfulTokens tokenizes text, removes stopwords, and deduplicates tokens while preserving order.
func ExtractMeaningfulTokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	rawTokens := tokenize(text)
	filtered := filterTokens(rawTokens)
	return dedupeTokens(filtered)
}

// ExtractKeywords returns up to limit meaningful tokens, skipping pure numbers
// (amounts, dates and invoice numbers carry no keyword signal on their own).
// A limit <= 0 returns every keyword.
func ExtractKeywords(text string, limit int) []string {
	var keywords []string
	for _, token := range ExtractMeaningfulTokens(text) {
		if isNumeric(token) {
			continue
		}
		keywords = append(keywords, token)
		if limit > 0 && len(keywords) == limit {
			break
		}
	}
	return keywords
}

func isNumeric(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return token != ""
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return tokenPattern.FindAllString(lower, -1)
}

func filterTokens(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) == 0 {
			continue
		}
		if len(token) == 1 && (token[0] < '0' || token[0] > '9') {
			continue
		}
		if _, isStopword := stopwords[token]; isStopword {
			continue
		}
		result = append(result, token)
	}
	return result
}

func dedupeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}

	seen := make(map[string]struct{}, len(tokens))
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}
	return result
}
