// Package prompt builds the instructions and evidence sent to every model backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// System instructs the model to act as an impartial compliance auditor and
// answer with a single JSON object.
const System = `You are a fair and objective Brand Compliance Auditor.

You will be provided with:
1. TRANSCRIPT: spoken words extracted from a video advertisement.
2. ON-SCREEN TEXT: text detected via OCR from the video frames.
3. REGULATORY RULES: potentially relevant policy excerpts retrieved from official guidelines.

GUIDELINES FOR YOUR ANALYSIS:
- The regulatory rules are REFERENCE only. They may or may not apply to this specific video.
- Do NOT assume the video is violating any rule. Many advertisements are perfectly compliant.
- Only flag a violation if the video content CLEARLY AND SPECIFICALLY contradicts a rule.
- Vague or generic matches are NOT violations. A violation must be concrete and evidence-based.
- If the rules provided do not closely relate to the video content, no violation exists for those rules.

YOUR TASK:
- Compare the video content against the regulatory rules.
- Decide whether the video is COMPLIANT or NON-COMPLIANT.
- Assign a severity (low / medium / high) ONLY if there is a real violation.
- Give a confidence score between 0.0 and 1.0 for your overall assessment.

IF VIOLATIONS ARE FOUND:
- failure_reasons: specific reasons WHY each violation occurred, quoting the transcript or on-screen text.
- recommendations: actionable advice on HOW TO FIX each issue.

RESPOND WITH VALID JSON ONLY. No markdown, no commentary, no code fences.
Use exactly this schema:

{
    "violation": true or false,
    "violated_rules": ["rule 1 description", "rule 2 description"],
    "failure_reasons": ["specific reason why rule 1 was violated"],
    "recommendations": ["how to fix issue 1"],
    "explanation": "Concise summary of findings",
    "severity": "low" or "medium" or "high" or "none",
    "confidence": 0.0 to 1.0
}

If no violations are found, set "violation" to false, the three lists to [], and "severity" to "none".`

const (
	noOnScreenText = "(none detected)"
	noRules        = "(No closely matching regulatory rules were found for this video content.)"
)

// User renders the evidence block for one audit.
func User(req models.JudgeRequest) string {
	var b strings.Builder

	b.WriteString("=== TRANSCRIPT ===\n")
	b.WriteString(req.Transcript)

	b.WriteString("\n\n=== ON-SCREEN TEXT (OCR) ===\n")
	if len(req.OnScreenText) == 0 {
		b.WriteString(noOnScreenText)
	} else {
		for i, line := range req.OnScreenText {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("• " + line)
		}
	}

	b.WriteString("\n\n=== REGULATORY RULES (reference only, may or may not apply) ===\n")
	if len(req.Rules) == 0 {
		b.WriteString(noRules)
	} else {
		for i, rule := range req.Rules {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "--- Rule Chunk %d ---\n%s", i+1, rule)
		}
	}

	b.WriteString("\n\nBased on the above, determine whether this video advertisement is COMPLIANT or NON-COMPLIANT.\n")
	b.WriteString("Only flag violations that are clearly and specifically supported by the evidence.\n")
	b.WriteString("Return your verdict as JSON.")
	return b.String()
}
