// Package report turns free-form model output into a validated compliance Report.
//
// Model backends give no format guarantee, so Normalize walks a ladder of
// increasingly lenient parses and falls back to a safe verdict when every
// stage fails. Normalize never returns an error.
package report

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/brandguard/pkg/models"
	"github.com/kiranshivaraju/brandguard/pkg/textutil"
)

const (
	// FallbackPrefix starts the explanation of a report synthesized from unparseable output.
	FallbackPrefix = "Model output could not be parsed: "
	// DefaultExplanation replaces a missing or blank explanation.
	DefaultExplanation = "No explanation provided."

	excerptBytes  = 500
	fence         = "```"
	maxCandidates = 16
)

// Normalize converts raw model text into a Report. Only objects that pass
// the verdict input schema are accepted from any ladder stage.
func Normalize(raw string) models.Report {
	obj, stage := parse(raw)
	if obj == nil {
		slog.Warn("model output unparseable, using fallback report", "raw_bytes", len(raw))
		return Fallback(raw)
	}
	slog.Debug("model output parsed", "stage", stage)
	return fromObject(obj)
}

// Fallback builds the safe verdict used when model output cannot be parsed.
func Fallback(raw string) models.Report {
	return models.Report{
		Violation:       false,
		ViolatedRules:   []string{},
		FailureReasons:  []string{},
		Recommendations: []string{},
		Explanation:     FallbackPrefix + textutil.Truncate(strings.TrimSpace(raw), excerptBytes),
		Severity:        models.SeverityNone,
		Confidence:      0,
	}
}

// parse runs the ladder and returns the decoded verdict with the name of the
// stage that produced it, or nil when every stage failed. The span and repair
// stages try each '{' in turn, so an unrelated object in leading commentary
// does not hide the verdict after it.
func parse(raw string) (map[string]any, string) {
	text := stripFence(raw)

	if obj, ok := verdictObject(text); ok {
		return obj, "direct"
	}
	starts := objectStarts(text)
	for _, i := range starts {
		if span, ok := firstObjectSpan(text[i:]); ok {
			if obj, ok := verdictObject(span); ok {
				return obj, "span"
			}
		}
	}
	for _, i := range starts {
		if repaired, ok := repairTruncated(text[i:]); ok {
			if obj, ok := verdictObject(repaired); ok {
				return obj, "repair"
			}
		}
	}
	return nil, "fallback"
}

// objectStarts returns the offsets of the first maxCandidates '{' bytes in s.
func objectStarts(s string) []int {
	var out []int
	for i := 0; i < len(s) && len(out) < maxCandidates; i++ {
		if s[i] == '{' {
			out = append(out, i)
		}
	}
	return out
}

// verdictObject decodes s and keeps it only when it looks like a verdict.
func verdictObject(s string) (map[string]any, bool) {
	obj, ok := decodeObject(s)
	if !ok {
		return nil, false
	}
	if err := checkVerdict(obj); err != nil {
		slog.Debug("decoded object is not a verdict", "error", err)
		return nil, false
	}
	return obj, true
}

// stripFence returns the body of the first fenced block in s, dropping an
// optional language tag after the opening marker. Text without a complete
// fence is returned trimmed but otherwise untouched.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	open := strings.Index(s, fence)
	if open < 0 {
		return s
	}
	body := s[open+len(fence):]
	end := strings.Index(body, fence)
	if end < 0 {
		return s
	}
	body = body[:end]

	// A language hint is a single word glued to the opening marker.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{[\" ") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}

// decodeObject parses s as exactly one JSON object.
func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// firstObjectSpan returns the first balanced {...} span of s. Braces inside
// string literals do not count.
func firstObjectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// repairTruncated takes everything from the first '{' and closes whatever a
// token limit cut off: an open string, a dangling comma, then every unmatched
// '{' or '[' in reverse order.
func repairTruncated(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	frag := s[start:]

	var closers []byte
	inString, escaped := false, false
	for i := 0; i < len(frag); i++ {
		c := frag[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			closers = append(closers, '}')
		case '[':
			closers = append(closers, ']')
		case '}', ']':
			if len(closers) > 0 {
				closers = closers[:len(closers)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(frag)
	if inString {
		if escaped {
			trimmed := strings.TrimSuffix(b.String(), `\`)
			b.Reset()
			b.WriteString(trimmed)
		}
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n,")
	for i := len(closers) - 1; i >= 0; i-- {
		out += string(closers[i])
	}
	return out, true
}
