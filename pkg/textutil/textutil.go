// Package textutil holds the text cleaning helpers shared by the media
// extractors and the knowledge-base ingester.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Cleaning regexes compiled once at package init.
var (
	reControl    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Clean applies NFKC normalization, strips control characters and collapses
// runs of whitespace into single spaces.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = reControl.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Chunk splits s into windows of at most size runes where consecutive windows
// share overlap runes. Returns nil for empty input.
func Chunk(s string, size, overlap int) []string {
	if s == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(s)
	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// DedupeFold removes case-insensitive duplicates, keeping the first
// occurrence and the original order.
func DedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Truncate truncates s to maxBytes without splitting UTF-8 runes.
func Truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
