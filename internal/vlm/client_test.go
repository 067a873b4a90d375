package vlm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melco-care-server/internal/config"
)

// fakeModelServer imitates the OpenAI-compatible surface Ollama exposes.
// content is returned for every chat completion; a nil content means the
// server answers 500.
func fakeModelServer(t *testing.T, content *string, models []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if content == nil {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": *content,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]interface{}, 0, len(models))
		for _, id := range models {
			data = append(data, map[string]interface{}{"id": id, "object": "model"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": data})
	})

	return httptest.NewServer(mux)
}

func testConfig(baseURL string) config.OllamaConfig {
	return config.OllamaConfig{
		BaseURL:       baseURL,
		PrimaryModel:  "qwen3:4b",
		VisionModel:   "qwen3:4b",
		FallbackModel: "gemma3:4b",
		Temperature:   0.1,
		MaxTokens:     256,
	}
}

func TestClassifyIntentParsesModelJSON(t *testing.T) {
	content := `{"intent": "symptom_check", "confidence": 0.88, "suggested_department": "Dermatology", "priority": "low", "symptoms_summary": "itchy rash on arm"}`
	server := fakeModelServer(t, &content, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	result := client.ClassifyIntent(context.Background(), "mujhe khujli ho rahi hai", "")

	require.NotNil(t, result)
	assert.Equal(t, "symptom_check", result.Intent)
	assert.Equal(t, "Dermatology", result.SuggestedDepartment)
	assert.Equal(t, 0.88, result.Confidence)
}

func TestClassifyIntentFallsBackWhenServerDown(t *testing.T) {
	server := fakeModelServer(t, nil, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	result := client.ClassifyIntent(context.Background(), "hello there", "")

	require.NotNil(t, result)
	assert.Equal(t, "general", result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, "medium", result.Priority)
}

func TestClassifyIntentFallsBackOnGarbageResponse(t *testing.T) {
	content := "I am not in the mood to emit JSON today."
	server := fakeModelServer(t, &content, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	result := client.ClassifyIntent(context.Background(), "book appointment", "")

	require.NotNil(t, result)
	assert.Equal(t, "general", result.Intent)
}

func TestAnalyzeSymptomsFallbackDefaults(t *testing.T) {
	server := fakeModelServer(t, nil, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	analysis := client.AnalyzeSymptoms(context.Background(), "mild fever since yesterday", "", 30, "male")

	require.NotNil(t, analysis)
	assert.Equal(t, "General Medicine", analysis.SuggestedDepartment)
	assert.Equal(t, "medium", analysis.Priority)
	assert.Equal(t, 0.3, analysis.Confidence)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestGenerateReplyUsesModelOutput(t *testing.T) {
	content := "Namaste! I can help you book an appointment."
	server := fakeModelServer(t, &content, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	reply := client.GenerateReply(context.Background(), "hi", "", nil)

	assert.Equal(t, content, reply)
}

func TestGenerateReplyFallbackWhenUnreachable(t *testing.T) {
	server := fakeModelServer(t, nil, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	reply := client.GenerateReply(context.Background(), "hi", "", []HistoryEntry{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi, how can I help?"},
	})

	assert.Equal(t, fallbackReply, reply)
}

func TestExtractPrescription(t *testing.T) {
	content := `{"patient_name": "Anita", "doctor_name": "Dr. Rao", "reg_number": "TS-12345", "date": "15/08/2026", "medicines": [{"name": "Azithromycin", "dosage": "250mg", "quantity": "6"}]}`
	server := fakeModelServer(t, &content, nil)
	defer server.Close()

	// Prescription extraction needs a readable image on disk.
	imagePath := writeTempImage(t)

	client := NewClient(testConfig(server.URL), nil)
	data, err := client.ExtractPrescription(context.Background(), imagePath)

	require.NoError(t, err)
	assert.Equal(t, "TS-12345", data.RegNumber)
	require.Len(t, data.Medicines, 1)
	assert.Equal(t, "Azithromycin", data.Medicines[0].Name)
}

func TestCheckStatus(t *testing.T) {
	server := fakeModelServer(t, nil, []string{"qwen3:4b", "llama3:8b"})
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	status := client.CheckStatus(context.Background())

	require.NotNil(t, status)
	assert.True(t, status.Online)
	assert.True(t, status.PrimaryReady)
	assert.Contains(t, status.ModelsAvailable, "llama3:8b")
}

func TestCheckStatusOffline(t *testing.T) {
	server := fakeModelServer(t, nil, nil)
	server.Close() // unreachable on purpose

	client := NewClient(testConfig(server.URL), nil)
	status := client.CheckStatus(context.Background())

	require.NotNil(t, status)
	assert.False(t, status.Online)
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := fmt.Sprintf("%s/rx.jpg", t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0o644))
	return path
}
