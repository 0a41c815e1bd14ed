package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidationGrounded(t *testing.T) {
	raw := `- Uses Only Provided Context: yes
- External Knowledge Detected: no
- Accuracy: high
- Source Attribution: proper
- Issues: none
- Recommendations: none`

	report := parseValidation(raw)
	assert.True(t, report.Grounded)
	assert.Empty(t, report.Issues)
	assert.Equal(t, raw, report.Raw)
}

func TestParseValidationUngrounded(t *testing.T) {
	raw := `- Uses Only Provided Context: no
- External Knowledge Detected: yes - cites an industry-average APR not present in context
- Accuracy: low
- Issues: the 7.2% figure does not appear in any document`

	report := parseValidation(raw)
	assert.False(t, report.Grounded)
	require.Len(t, report.Issues, 2)
	assert.Contains(t, report.Issues[0], "industry-average APR")
	assert.Contains(t, report.Issues[1], "7.2% figure")
}

func TestParseValidationToleratesFreeForm(t *testing.T) {
	// Models do not always follow the bullet format.
	report := parseValidation("The response looks fine to me.")
	assert.False(t, report.Grounded)
	assert.Empty(t, report.Issues)
	assert.Equal(t, "The response looks fine to me.", report.Raw)
}

func TestBuildValidationPrompt(t *testing.T) {
	prompt := buildValidationPrompt("The fee is $25.", "DOCUMENT 1: fees.txt\nWire fee is $25.")
	assert.Contains(t, prompt, "Response to validate: The fee is $25.")
	assert.Contains(t, prompt, "Source context: DOCUMENT 1: fees.txt")
	assert.Contains(t, prompt, "Uses Only Provided Context")
}
