package agents

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"melco-care-server/internal/cache"
	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

// Intent is one of the five fixed routing labels.
type Intent string

const (
	IntentAppointment  Intent = "appointment"
	IntentEmergency    Intent = "emergency"
	IntentSymptomCheck Intent = "symptom_check"
	IntentHospitalInfo Intent = "hospital_info"
	IntentGeneral      Intent = "general"
)

// ParseIntent maps a model-returned label onto a known intent. Anything
// outside the five labels falls back to general.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentAppointment, IntentEmergency, IntentSymptomCheck, IntentHospitalInfo, IntentGeneral:
		return Intent(s)
	default:
		return IntentGeneral
	}
}

// EmergencyAlert is the routed result for emergency intents.
type EmergencyAlert struct {
	Message          string              `json:"message"`
	EmergencyContact string              `json:"emergencyContact"`
	NearestHospitals []EmergencyHospital `json:"nearestHospitals"`
	Recommendations  []string            `json:"recommendations"`
}

// EmergencyHospital points the patient at a hospital with an emergency
// department.
type EmergencyHospital struct {
	Hospital string `json:"hospital"`
	Locality string `json:"locality"`
}

// Action is the structured outcome of routing a message; exactly one of the
// payload fields is set, matching Type.
type Action struct {
	Type         string          `json:"action"`
	Suggestion   *Suggestion     `json:"suggestion,omitempty"`
	Emergency    *EmergencyAlert `json:"emergency,omitempty"`
	HospitalInfo *HospitalInfo   `json:"hospitalInfo,omitempty"`
}

const (
	ActionAppointmentSuggestion = "appointment_suggestion"
	ActionEmergencyAlert        = "emergency_alert"
	ActionHospitalInfo          = "hospital_info"
	ActionGeneralQuery          = "general_query"
)

// Result is the full orchestrator output for one chat turn.
type Result struct {
	Success             bool    `json:"success"`
	Response            string  `json:"response"`
	Intent              Intent  `json:"intent,omitempty"`
	SuggestedDepartment string  `json:"suggestedDepartment,omitempty"`
	Priority            string  `json:"priority,omitempty"`
	Action              *Action `json:"actionTaken,omitempty"`
}

// Orchestrator classifies user intent, routes to the matching sub-flow,
// and generates the final conversational response.
type Orchestrator struct {
	DB           *gorm.DB
	VLM          vlm.Service
	RAG          *ContextBuilder
	Appointments *AppointmentAgent
	DefaultCity  string
	logger       *slog.Logger
}

// NewOrchestrator wires the orchestrator and its sub-agents.
func NewOrchestrator(db *gorm.DB, svc vlm.Service, c *cache.Cache, defaultCity string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	rag := NewContextBuilder(db, c)
	return &Orchestrator{
		DB:           db,
		VLM:          svc,
		RAG:          rag,
		Appointments: NewAppointmentAgent(db, svc, rag),
		DefaultCity:  defaultCity,
		logger:       logger.With("component", "orchestrator"),
	}
}

// ProcessRequest is the main entry point for one chat turn.
func (o *Orchestrator) ProcessRequest(ctx context.Context, userID, message, imagePath string, history []vlm.HistoryEntry) (*Result, error) {
	var user models.User
	if err := o.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &Result{
				Success:  false,
				Response: "User not found. Please register first.",
			}, nil
		}
		return nil, err
	}

	classification := o.VLM.ClassifyIntent(ctx, message, imagePath)
	intent := ParseIntent(classification.Intent)
	o.logger.Info("intent classified", "intent", intent, "confidence", classification.Confidence)

	action, err := o.route(ctx, intent, &user, message, imagePath)
	if err != nil {
		return nil, err
	}

	response := o.VLM.GenerateReply(ctx, message, formatActionContext(action), history)

	return &Result{
		Success:             true,
		Response:            response,
		Intent:              intent,
		SuggestedDepartment: classification.SuggestedDepartment,
		Priority:            classification.Priority,
		Action:              action,
	}, nil
}

// route dispatches the intent to its sub-flow.
func (o *Orchestrator) route(ctx context.Context, intent Intent, user *models.User, message, imagePath string) (*Action, error) {
	switch intent {
	case IntentAppointment, IntentSymptomCheck:
		suggestion, err := o.Appointments.AnalyzeAndSuggest(ctx, user, message, imagePath)
		if err != nil {
			return nil, err
		}
		return &Action{Type: ActionAppointmentSuggestion, Suggestion: suggestion}, nil

	case IntentEmergency:
		alert, err := o.buildEmergencyAlert(user)
		if err != nil {
			return nil, err
		}
		return &Action{Type: ActionEmergencyAlert, Emergency: alert}, nil

	case IntentHospitalInfo:
		city := user.City
		if city == "" {
			city = o.DefaultCity
		}
		info, err := o.RAG.HospitalInfoContext(ctx, city)
		if err != nil {
			return nil, err
		}
		return &Action{Type: ActionHospitalInfo, HospitalInfo: info}, nil

	default:
		return &Action{Type: ActionGeneralQuery}, nil
	}
}

// buildEmergencyAlert collects the nearest emergency departments for the
// user's city.
func (o *Orchestrator) buildEmergencyAlert(user *models.User) (*EmergencyAlert, error) {
	city := user.City
	if city == "" {
		city = o.DefaultCity
	}

	options, err := o.RAG.AvailableDoctors(city, models.DeptEmergency)
	if err != nil {
		return nil, err
	}

	alert := &EmergencyAlert{
		Message:          "EMERGENCY: Please proceed to the nearest hospital immediately!",
		EmergencyContact: "108 (Ambulance)",
		Recommendations: []string{
			"Call 108 for ambulance if needed",
			"Go to the nearest Emergency department",
			"Do not delay seeking medical attention",
		},
	}

	seen := map[string]bool{}
	for _, opt := range options {
		if seen[opt.HospitalName] {
			continue
		}
		seen[opt.HospitalName] = true
		alert.NearestHospitals = append(alert.NearestHospitals, EmergencyHospital{
			Hospital: opt.HospitalName,
			Locality: opt.HospitalLocality,
		})
		if len(alert.NearestHospitals) >= 3 {
			break
		}
	}
	return alert, nil
}

// formatActionContext renders the action result as prompt context for the
// reply generation call.
func formatActionContext(action *Action) string {
	if action == nil {
		return ""
	}

	switch action.Type {
	case ActionAppointmentSuggestion:
		s := action.Suggestion
		return FormatDoctorOptions(s.SuggestedDepartment, string(s.Priority), s.DoctorOptions)
	case ActionEmergencyAlert:
		return action.Emergency.Message
	case ActionHospitalInfo:
		return FormatHospitalInfo(action.HospitalInfo)
	default:
		return ""
	}
}
