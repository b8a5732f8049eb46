// Package classify turns free-text model output into a confidence score or a
// yes/no invoice decision.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// decimalToken matches a whole token that is a plain decimal number.
// Dates, versions, percentages and signed values never match.
var decimalToken = regexp.MustCompile(`^(?:\d+(?:\.\d+)?|\.\d+)$`)

// foldCase builds a fresh Caser per call; a Caser is stateful.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// ParseConfidence extracts a confidence score in [0,1] from model output.
// A number right after the word "confidence" is authoritative; otherwise the
// first standalone decimal token within range is used. It returns nil when no
// acceptable value is present.
func ParseConfidence(text string) *float64 {
	tokens := tokenize(text)

	for i, token := range tokens {
		if !strings.HasPrefix(foldCase(token), "confidence") {
			continue
		}
		for _, next := range tokens[i+1:] {
			if value, ok := parseDecimal(next); ok {
				if inRange(value) {
					return &value
				}
				// a labelled value out of range is a bad score, not a missing label
				return nil
			}
			if isWord(next) {
				break
			}
		}
	}

	for _, token := range tokens {
		if value, ok := parseDecimal(token); ok && inRange(value) {
			return &value
		}
	}

	return nil
}

// ParseYesNo reports whether the answer contains "yes", ignoring case
func ParseYesNo(text string) bool {
	return strings.Contains(foldCase(text), "yes")
}

// tokenize splits on whitespace and the punctuation models put around numbers
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case ',', ';', ':', '(', ')', '[', ']', '{', '}', '"', '\'', '`', '*', '=', '!', '?':
			return true
		}
		return false
	})

	tokens := fields[:0]
	for _, f := range fields {
		// sentence-ending period: "0.9."
		f = strings.TrimSuffix(f, ".")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func parseDecimal(token string) (float64, bool) {
	if !decimalToken.MatchString(token) {
		return 0, false
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func inRange(v float64) bool {
	return v >= 0 && v <= 1
}

// isWord reports whether a token is made of letters, which ends the search
// for a labelled value ("confidence score is 0.8" keeps going, "level high" stops).
func isWord(token string) bool {
	switch foldCase(token) {
	case "score", "is", "level", "of", "about", "approximately", "around", "value":
		return false
	}
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
