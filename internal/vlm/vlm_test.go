package vlm

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	var result IntentResult
	err := extractJSON(`{"intent": "appointment", "confidence": 0.9}`, &result)
	require.NoError(t, err)
	assert.Equal(t, "appointment", result.Intent)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestExtractJSONWrappedInProse(t *testing.T) {
	response := "Sure! Here is the classification:\n```json\n" +
		`{"intent": "emergency", "confidence": 0.95, "priority": "emergency"}` +
		"\n```\nLet me know if you need anything else."

	var result IntentResult
	err := extractJSON(response, &result)
	require.NoError(t, err)
	assert.Equal(t, "emergency", result.Intent)
	assert.Equal(t, "emergency", result.Priority)
}

func TestExtractJSONNoObject(t *testing.T) {
	var result IntentResult
	err := extractJSON("I could not classify that message.", &result)
	assert.Error(t, err)
}

func TestExtractJSONNestedObject(t *testing.T) {
	response := `{"patient_name": "Ravi", "medicines": [{"name": "Paracetamol", "dosage": "500mg", "quantity": "10"}]}`

	var data PrescriptionData
	err := extractJSON(response, &data)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", data.PatientName)
	require.Len(t, data.Medicines, 1)
	assert.Equal(t, "Paracetamol", data.Medicines[0].Name)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long ", truncate("long string", 5))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// Devanagari codepoints are three bytes each; a byte slice at 4 would
	// split the second character.
	got := truncate("मुझे बुखार है", 4)
	assert.Equal(t, "मुझे", got)
	assert.True(t, utf8.ValidString(got))

	// Limit above the rune count returns the string unchanged.
	assert.Equal(t, "बुखार", truncate("बुखार", 10))
}
