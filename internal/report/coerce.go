package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Field aliases: models answer in snake_case when following the prompt and in
// camelCase when echoing the API shape.
var (
	keyViolation       = []string{"violation"}
	keyViolatedRules   = []string{"violatedRules", "violated_rules"}
	keyFailureReasons  = []string{"failureReasons", "failure_reasons"}
	keyRecommendations = []string{"recommendations"}
	keyExplanation     = []string{"explanation"}
	keySeverity        = []string{"severity"}
	keyConfidence      = []string{"confidence"}
)

// fromObject applies schema normalization to a decoded object: defaults for
// missing fields, list coercion, confidence clamping and the
// violation/severity consistency rules.
func fromObject(obj map[string]any) models.Report {
	r := models.Report{
		Violation:       toBool(lookup(obj, keyViolation)),
		ViolatedRules:   toStringList(lookup(obj, keyViolatedRules)),
		FailureReasons:  toStringList(lookup(obj, keyFailureReasons)),
		Recommendations: toStringList(lookup(obj, keyRecommendations)),
		Explanation:     toExplanation(lookup(obj, keyExplanation)),
		Severity:        toSeverity(lookup(obj, keySeverity)),
		Confidence:      toConfidence(lookup(obj, keyConfidence)),
	}

	if !r.Violation {
		r.Severity = models.SeverityNone
		r.ViolatedRules = []string{}
	} else if r.Severity == models.SeverityNone || !r.Severity.Valid() {
		r.Severity = models.SeverityLow
	}
	return r
}

func lookup(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// toStringList wraps a single non-empty string into a one-element list and
// turns every other non-list value into an empty list. Blank items are dropped.
func toStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case float64, bool, json.Number:
				out = append(out, fmt.Sprint(it))
			}
		}
	}
	return out
}

func toExplanation(v any) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return DefaultExplanation
}

func toSeverity(v any) models.Severity {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	sev := models.Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return ""
	}
	return sev
}

// toConfidence accepts numbers and numeric strings; anything else is 0.
// The result is clamped to [0, 1].
func toConfidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		f, _ = t.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil {
			f = parsed
		}
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
