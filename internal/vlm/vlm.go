// Package vlm talks to the local model-serving endpoint (Ollama) through its
// OpenAI-compatible API. All prompts request strict JSON; responses are parsed
// defensively and fall back to conservative defaults when the model rambles.
package vlm

import (
	"context"
	"encoding/json"
	"strings"
)

// IntentResult is the classification output for a chat message.
type IntentResult struct {
	Intent              string  `json:"intent"`
	Confidence          float64 `json:"confidence"`
	SuggestedDepartment string  `json:"suggested_department"`
	Priority            string  `json:"priority"`
	SymptomsSummary     string  `json:"symptoms_summary"`
}

// SymptomAnalysis is the department suggestion for a set of symptoms.
type SymptomAnalysis struct {
	SuggestedDepartment string   `json:"suggested_department"`
	Priority            string   `json:"priority"`
	SymptomsSummary     string   `json:"symptoms_summary"`
	Recommendations     []string `json:"recommendations"`
	Confidence          float64  `json:"confidence"`
}

// PrescriptionMedicine is one medicine line extracted from a prescription image.
type PrescriptionMedicine struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity string `json:"quantity"`
}

// PrescriptionData is the OCR output for a prescription image.
type PrescriptionData struct {
	PatientName string                 `json:"patient_name"`
	DoctorName  string                 `json:"doctor_name"`
	RegNumber   string                 `json:"reg_number"`
	Date        string                 `json:"date"`
	Medicines   []PrescriptionMedicine `json:"medicines"`
}

// HistoryEntry is a prior chat turn included in the reply prompt.
type HistoryEntry struct {
	Role    string
	Content string
}

// Status reports reachability of the model server.
type Status struct {
	Online          bool     `json:"online"`
	ModelsAvailable []string `json:"modelsAvailable"`
	PrimaryReady    bool     `json:"primaryReady"`
	VisionReady     bool     `json:"visionReady"`
}

// Service is the model-facing surface used by the agents. Implemented by
// Client; tests provide stubs.
type Service interface {
	ClassifyIntent(ctx context.Context, message, imagePath string) *IntentResult
	AnalyzeSymptoms(ctx context.Context, symptoms, imagePath string, age int, gender string) *SymptomAnalysis
	GenerateReply(ctx context.Context, userMessage, contextText string, history []HistoryEntry) string
	ExtractPrescription(ctx context.Context, imagePath string) (*PrescriptionData, error)
	CheckStatus(ctx context.Context) *Status
}

// extractJSON pulls the first top-level JSON object out of a model response
// and unmarshals it into v. Models often wrap JSON in prose or code fences.
func extractJSON(response string, v interface{}) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return json.Unmarshal([]byte(response), v)
	}
	return json.Unmarshal([]byte(response[start:end+1]), v)
}
