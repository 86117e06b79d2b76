// Package normalize turns raw extracted text into typed job-posting fields.
// Every function is pure and has a defined fallback value.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var spaceRe = regexp.MustCompile(`\s+`)

// CleanText decodes entities, drops zero-width runes and collapses whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\u2028', '\u2029':
			return ' '
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ContainsTerm reports whether term occurs in text as a whole word or phrase,
// ignoring case. "male only" does not match inside "female only".
func ContainsTerm(text, term string) bool {
	return CountTerm(strings.ToLower(text), strings.ToLower(term)) > 0
}

// CountTerm counts whole-word occurrences of term in text. Both arguments
// must already be lower-cased.
func CountTerm(text, term string) int {
	if term == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], term)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			n++
		}
		i = start + 1
	}
	return n
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// ContainsAny reports whether any of the terms occurs in text.
func ContainsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if CountTerm(lower, strings.ToLower(t)) > 0 {
			return true
		}
	}
	return false
}
