package report

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// verdictInputSchema decides whether a decoded object is a verdict at all.
// Field types stay loose because fromObject coerces them, but the object must
// carry at least one report key under either casing.
const verdictInputSchema = `{
  "type": "object",
  "properties": {
    "violation": {"type": ["boolean", "string", "number", "null"]},
    "severity": {"type": ["string", "null"]}
  },
  "anyOf": [
    {"required": ["violation"]},
    {"required": ["violatedRules"]},
    {"required": ["violated_rules"]},
    {"required": ["failureReasons"]},
    {"required": ["failure_reasons"]},
    {"required": ["recommendations"]},
    {"required": ["explanation"]},
    {"required": ["severity"]},
    {"required": ["confidence"]}
  ]
}`

var verdictSchema = jsonschema.MustCompileString("verdict-input.json", verdictInputSchema)

// checkVerdict validates obj against the verdict input schema.
func checkVerdict(obj map[string]any) error {
	return verdictSchema.Validate(obj)
}
