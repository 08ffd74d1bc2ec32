// Package extract pulls 6-digit verification codes out of email text.
//
// Bare 6-digit runs are common false positives (hex colors with the
// '#' stripped, postal codes, amounts), so extraction runs two tiers
// in strict priority order and prefers reporting nothing over
// guessing: an anchored keyword pattern match wins immediately, and
// the fallback scan only accepts a candidate whose surrounding text
// carries at least two distinct verification keywords.
package extract

import (
	"regexp"
	"strings"
)

// Result is the outcome of a single extraction pass. Code, when set,
// is exactly six ASCII digits.
type Result struct {
	Found          bool
	Code           string
	MatchedPattern string
	KeywordHits    int
}

// Anchored patterns, evaluated in order; the first match anywhere in
// the text wins. Transactional emails almost always phrase the code
// next to one of these keywords.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:your\s+)?(?:verification\s+)?code[:\s]+([0-9]{6})`),
	regexp.MustCompile(`(?i)verification[:\s]+([0-9]{6})`),
	regexp.MustCompile(`(?i)verify(?:ing)?\s+code[:\s]+([0-9]{6})`),
	regexp.MustCompile(`(?i)code\s+(?:is|:)\s+([0-9]{6})`),
	regexp.MustCompile(`(?i)6[:\s\-]*digit[:\s\-]+code[:\s]+([0-9]{6})`),
	regexp.MustCompile(`(?i)enter[:\s]+([0-9]{6})`),
}

// Keywords counted in the context window around a bare candidate.
// Matched as lower-cased substrings, not word-anchored.
var contextKeywords = []string{
	"code",
	"verification",
	"verify",
	"confirm",
	"authenticate",
	"enter",
	"use",
	"6-digit",
	"six digit",
	"6 digit",
}

const (
	contextWindow    = 150
	keywordThreshold = 2
)

// Extract returns the verification code found in text, if any. It is
// pure and deterministic: no I/O, identical input gives identical
// output.
func Extract(text string) Result {
	if text == "" {
		return Result{}
	}

	for _, pattern := range keywordPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return Result{
				Found:          true,
				Code:           m[1],
				MatchedPattern: pattern.String(),
			}
		}
	}

	for _, code := range digitCandidates(text) {
		hits := keywordHits(text, code)
		if hits >= keywordThreshold {
			return Result{Found: true, Code: code, KeywordHits: hits}
		}
	}

	return Result{}
}

// digitCandidates returns every distinct maximal run of exactly six
// digits, in order of first appearance. Runs immediately preceded by
// '#' are skipped to avoid hex color codes.
func digitCandidates(text string) []string {
	var candidates []string
	seen := make(map[string]struct{})

	for i, n := 0, len(text); i < n; {
		if !isDigit(text[i]) {
			i++
			continue
		}
		j := i
		for j < n && isDigit(text[j]) {
			j++
		}
		if j-i == 6 && (i == 0 || text[i-1] != '#') {
			run := text[i:j]
			if _, dup := seen[run]; !dup {
				seen[run] = struct{}{}
				candidates = append(candidates, run)
			}
		}
		i = j
	}
	return candidates
}

// keywordHits counts distinct context keywords appearing within the
// 150-character window around the first occurrence of code.
func keywordHits(text, code string) int {
	idx := strings.Index(text, code)
	if idx < 0 {
		return 0
	}

	start := idx - contextWindow
	if start < 0 {
		start = 0
	}
	end := idx + contextWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	hits := 0
	for _, kw := range contextKeywords {
		if strings.Contains(window, kw) {
			hits++
		}
	}
	return hits
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
