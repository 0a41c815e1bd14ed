package answer

import (
	"fmt"
	"strings"
)

const validationPrompt = `Please validate the following banking response to ensure it ONLY uses information from the provided context.

Response to validate: %s

Source context: %s

CRITICAL VALIDATION RULES:
1. Check if the response ONLY uses information that appears in the source context
2. Identify any information that seems to come from external knowledge or general banking standards
3. Verify that all specific numbers, rates, and terms mentioned are in the source context
4. Check if the response properly cites sources when providing information

Please provide validation in the following format:
- Uses Only Provided Context: (yes/no)
- External Knowledge Detected: (yes/no - list any external information found)
- Accuracy: (high/medium/low)
- Source Attribution: (proper/improper/missing)
- Issues: (list any issues found)
- Recommendations: (suggestions for improvement)`

// ValidationReport is the advisory cross-check of an answer against its
// context. It never blocks delivery; callers surface it as-is.
type ValidationReport struct {
	Grounded bool     `json:"grounded"`
	Issues   []string `json:"issues,omitempty"`
	Raw      string   `json:"raw"`
}

// parseValidation extracts the structured fields from the model's
// free-form validation text. The parse is deliberately forgiving:
// anything it cannot read stays available in Raw.
func parseValidation(raw string) *ValidationReport {
	report := &ValidationReport{Raw: raw}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "uses only provided context:"):
			report.Grounded = strings.Contains(lower, "yes")
		case strings.HasPrefix(lower, "external knowledge detected:"):
			rest := strings.TrimSpace(line[len("external knowledge detected:"):])
			if strings.HasPrefix(strings.ToLower(rest), "yes") {
				report.Issues = append(report.Issues, "external knowledge detected: "+rest)
			}
		case strings.HasPrefix(lower, "issues:"):
			rest := strings.TrimSpace(line[len("issues:"):])
			if rest != "" && !strings.EqualFold(rest, "none") {
				report.Issues = append(report.Issues, rest)
			}
		}
	}
	return report
}

func buildValidationPrompt(answer, context string) string {
	return fmt.Sprintf(validationPrompt, answer, context)
}
