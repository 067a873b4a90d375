package vlm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"melco-care-server/internal/config"
)

const classifySystemPrompt = `You are MELCO-Care, an AI assistant for Indian healthcare.
Your job is to classify user intent from their message.

Possible intents:
1. "appointment" - User wants to book/schedule an appointment
2. "emergency" - User describes a medical emergency
3. "symptom_check" - User is describing symptoms for advice
4. "hospital_info" - User wants hospital/doctor information
5. "general" - General query or greeting

Respond ONLY with valid JSON in this exact format:
{
    "intent": "<one of the intents above>",
    "confidence": <0.0 to 1.0>,
    "suggested_department": "<department name or null>",
    "priority": "<low/medium/high/emergency>",
    "symptoms_summary": "<brief summary of symptoms if any>"
}`

const analyzeSystemPrompt = `You are MELCO-Care, a medical AI assistant for Indian healthcare.
Analyze the patient's symptoms and suggest the most appropriate medical department.

Available departments:
- General Medicine
- Pediatrics (for children)
- Dermatology (skin issues)
- Gynecology (women's health)
- Orthopedics (bones, joints)
- ENT (ear, nose, throat)
- Ophthalmology (eyes)
- Psychiatry (mental health)
- Cardiology (heart)
- Pulmonology (lungs)
- Dental (teeth, gums)
- Emergency (life-threatening)
- Neurology (brain, nerves)

Respond ONLY with valid JSON:
{
    "suggested_department": "<department name>",
    "priority": "<low/medium/high/emergency>",
    "symptoms_summary": "<professional summary of symptoms>",
    "recommendations": ["<list of immediate care tips>"],
    "confidence": <0.0 to 1.0>
}`

const replySystemPrompt = `You are MELCO-Care, a friendly and helpful AI healthcare assistant for Indian hospitals.
You help patients:
1. Book appointments with appropriate doctors
2. Provide information about hospitals and departments
3. Offer basic health guidance (while advising professional consultation)

Be warm, empathetic, and speak naturally. Support both English and Hinglish.
Keep responses concise but helpful. Always recommend seeing a doctor for medical concerns.`

const ocrPrompt = `Extract the following from this prescription image:
1. Patient Name
2. Doctor Name (look for "Dr." prefix)
3. Medical Registration Number (format like TS-12345 or similar)
4. Date of prescription
5. List of medicines with dosage and quantity

Respond ONLY with valid JSON in this exact format:
{
    "patient_name": "extracted name or null",
    "doctor_name": "extracted name or null",
    "reg_number": "extracted registration number or null",
    "date": "extracted date or null",
    "medicines": [
        {"name": "medicine name", "dosage": "dosage", "quantity": "quantity"}
    ]
}

If a field is unclear or missing, set it to null.
For medicines, extract all that you can identify.`

// fallbackReply is returned when the model cannot be reached at all.
const fallbackReply = "I apologize, I'm having trouble processing your request. Please try again or visit the hospital directly for assistance."

// Client implements Service against Ollama's OpenAI-compatible endpoint.
type Client struct {
	api    *openai.Client
	cfg    config.OllamaConfig
	logger *slog.Logger
}

// NewClient builds a Client from the Ollama config. Ollama ignores the API
// key but the SDK requires one.
func NewClient(cfg config.OllamaConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	api := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/v1"),
		option.WithAPIKey("ollama"),
	)
	return &Client{api: &api, cfg: cfg, logger: logger.With("component", "vlm")}
}

// complete runs one chat completion, retrying once on the fallback model.
func (c *Client) complete(ctx context.Context, model, systemPrompt, prompt, imagePath string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}

	if imagePath != "" {
		dataURL, err := encodeImage(imagePath)
		if err != nil {
			c.logger.Warn("image encode failed, sending text only", "error", err)
			messages = append(messages, openai.UserMessage(prompt))
		} else {
			messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}))
		}
	} else {
		messages = append(messages, openai.UserMessage(prompt))
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(c.cfg.Temperature),
		MaxCompletionTokens: openai.Int(c.cfg.MaxTokens),
	}

	start := time.Now()
	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("model call failed", "model", model, "duration", time.Since(start), "error", err)
		if model != c.cfg.FallbackModel {
			c.logger.Info("retrying with fallback model", "model", c.cfg.FallbackModel)
			return c.complete(ctx, c.cfg.FallbackModel, systemPrompt, prompt, imagePath)
		}
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	c.logger.Debug("model call completed", "model", model, "duration", time.Since(start))
	return completion.Choices[0].Message.Content, nil
}

// ClassifyIntent classifies a chat message into one of the five intent labels.
// Transport or parse failures yield the conservative "general" default rather
// than an error; the orchestrator must always be able to route.
func (c *Client) ClassifyIntent(ctx context.Context, message, imagePath string) *IntentResult {
	prompt := "User message: " + message
	model := c.cfg.PrimaryModel
	if imagePath != "" {
		prompt += "\n[User has also attached a medical image for analysis]"
		model = c.cfg.VisionModel
	}

	fallback := &IntentResult{
		Intent:          "general",
		Confidence:      0.5,
		Priority:        "medium",
		SymptomsSummary: truncate(message, 100),
	}

	response, err := c.complete(ctx, model, classifySystemPrompt, prompt, imagePath)
	if err != nil {
		return fallback
	}

	var result IntentResult
	if err := extractJSON(response, &result); err != nil {
		c.logger.Warn("intent response was not valid JSON", "error", err)
		return fallback
	}
	return &result
}

// AnalyzeSymptoms asks the model for a department suggestion.
func (c *Client) AnalyzeSymptoms(ctx context.Context, symptoms, imagePath string, age int, gender string) *SymptomAnalysis {
	prompt := "Patient symptoms: " + symptoms
	if age > 0 {
		prompt += fmt.Sprintf("\nPatient age: %d years", age)
	}
	if gender != "" {
		prompt += "\nPatient gender: " + gender
	}
	model := c.cfg.PrimaryModel
	if imagePath != "" {
		prompt += "\n[Medical image attached for analysis]"
		model = c.cfg.VisionModel
	}

	fallback := &SymptomAnalysis{
		SuggestedDepartment: "General Medicine",
		Priority:            "medium",
		SymptomsSummary:     truncate(symptoms, 200),
		Recommendations:     []string{"Please visit a doctor for proper diagnosis"},
		Confidence:          0.3,
	}

	response, err := c.complete(ctx, model, analyzeSystemPrompt, prompt, imagePath)
	if err != nil {
		return fallback
	}

	var result SymptomAnalysis
	if err := extractJSON(response, &result); err != nil {
		c.logger.Warn("symptom analysis was not valid JSON", "error", err)
		return fallback
	}
	return &result
}

// GenerateReply produces the conversational answer shown to the patient.
func (c *Client) GenerateReply(ctx context.Context, userMessage, contextText string, history []HistoryEntry) string {
	var b strings.Builder

	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		start := 0
		if len(history) > 5 {
			start = len(history) - 5
		}
		for _, entry := range history[start:] {
			role := "MELCO-Care"
			if entry.Role == "user" {
				role = "Patient"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, entry.Content)
		}
		b.WriteString("\n")
	}

	if contextText != "" {
		fmt.Fprintf(&b, "Available information:\n%s\n\n", contextText)
	}

	fmt.Fprintf(&b, "Patient: %s\nMELCO-Care:", userMessage)

	response, err := c.complete(ctx, c.cfg.PrimaryModel, replySystemPrompt, b.String(), "")
	if err != nil || strings.TrimSpace(response) == "" {
		return fallbackReply
	}
	return response
}

// ExtractPrescription runs OCR over a prescription image.
func (c *Client) ExtractPrescription(ctx context.Context, imagePath string) (*PrescriptionData, error) {
	response, err := c.complete(ctx, c.cfg.VisionModel, "", ocrPrompt, imagePath)
	if err != nil {
		return nil, err
	}

	var data PrescriptionData
	if err := extractJSON(response, &data); err != nil {
		return nil, fmt.Errorf("prescription OCR returned invalid JSON: %w", err)
	}
	return &data, nil
}

// CheckStatus lists the models served by the endpoint.
func (c *Client) CheckStatus(ctx context.Context) *Status {
	page, err := c.api.Models.List(ctx)
	if err != nil {
		c.logger.Warn("model server unreachable", "error", err)
		return &Status{Online: false}
	}

	status := &Status{Online: true}
	for _, m := range page.Data {
		status.ModelsAvailable = append(status.ModelsAvailable, m.ID)
		if strings.Contains(m.ID, c.cfg.PrimaryModel) || m.ID == c.cfg.PrimaryModel {
			status.PrimaryReady = true
		}
		if strings.Contains(m.ID, c.cfg.VisionModel) || m.ID == c.cfg.VisionModel {
			status.VisionReady = true
		}
	}
	return status
}

// encodeImage reads an image file and returns it as a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mime = "image/png"
	case ".webp":
		mime = "image/webp"
	case ".gif":
		mime = "image/gif"
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// truncate shortens s to at most max characters. Counting runes keeps
// Devanagari and other multi-byte text from being cut mid-character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
