package agents

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

// Suggestion is the outcome of symptom analysis: a department plus bookable
// doctors sorted by shortest wait.
type Suggestion struct {
	SuggestedDepartment models.DepartmentType `json:"suggestedDepartment"`
	SymptomsSummary     string                `json:"symptomsSummary"`
	Priority            models.Priority       `json:"priority"`
	Recommendations     []string              `json:"recommendations,omitempty"`
	DoctorOptions       []DoctorOption        `json:"doctorOptions"`
	TotalDoctorsFound   int                   `json:"totalDoctorsFound"`
}

// BookingResult reports a confirmed appointment back to the caller.
type BookingResult struct {
	AppointmentID string    `json:"appointmentId"`
	TokenNumber   int       `json:"tokenNumber"`
	DoctorName    string    `json:"doctorName"`
	ScheduledAt   time.Time `json:"scheduledAt"`
	Message       string    `json:"message"`
}

// AppointmentAgent handles the appointment booking workflow.
type AppointmentAgent struct {
	DB  *gorm.DB
	VLM vlm.Service
	RAG *ContextBuilder
}

// NewAppointmentAgent creates an AppointmentAgent.
func NewAppointmentAgent(db *gorm.DB, svc vlm.Service, rag *ContextBuilder) *AppointmentAgent {
	return &AppointmentAgent{DB: db, VLM: svc, RAG: rag}
}

// AnalyzeAndSuggest runs symptom analysis for a patient and collects doctor
// options in their city. When the suggested department has no available
// doctors it falls back to General Medicine.
func (a *AppointmentAgent) AnalyzeAndSuggest(ctx context.Context, user *models.User, symptoms, imagePath string) (*Suggestion, error) {
	analysis := a.VLM.AnalyzeSymptoms(ctx, symptoms, imagePath, user.Age, string(user.Gender))

	dept := models.ParseDepartmentType(analysis.SuggestedDepartment)
	if analysis.SuggestedDepartment == "" {
		// Model gave nothing; try the keyword map before defaulting.
		dept, _ = InferDepartment(symptoms)
	}

	options, err := a.RAG.AvailableDoctors(user.City, dept)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 && dept != models.DeptGeneralMedicine {
		dept = models.DeptGeneralMedicine
		options, err = a.RAG.AvailableDoctors(user.City, dept)
		if err != nil {
			return nil, err
		}
	}

	total := len(options)
	if len(options) > 5 {
		options = options[:5]
	}

	return &Suggestion{
		SuggestedDepartment: dept,
		SymptomsSummary:     analysis.SymptomsSummary,
		Priority:            models.ParsePriority(analysis.Priority),
		Recommendations:     analysis.Recommendations,
		DoctorOptions:       options,
		TotalDoctorsFound:   total,
	}, nil
}

// Book creates an appointment and bumps the doctor's queue in one
// transaction. The token number is the patient's position in the queue.
func (a *AppointmentAgent) Book(patientID, doctorID, symptomsRaw, symptomsSummary string, priority models.Priority, imagePath string) (*BookingResult, error) {
	var result BookingResult

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var doctor models.Doctor
		if err := tx.Preload("User").First(&doctor, "id = ?", doctorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("doctor not found")
			}
			return fmt.Errorf("failed to load doctor: %w", err)
		}

		tokenNumber := doctor.QueueLength + 1
		appointment := models.Appointment{
			PatientID:       patientID,
			DoctorID:        doctorID,
			SymptomsRaw:     symptomsRaw,
			SymptomsSummary: symptomsSummary,
			Priority:        priority,
			Status:          models.StatusScheduled,
			ScheduledAt:     time.Now(),
			TokenNumber:     tokenNumber,
			ImagePath:       imagePath,
		}
		if err := tx.Create(&appointment).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if err := tx.Model(&doctor).Update("queue_length", gorm.Expr("queue_length + 1")).Error; err != nil {
			return fmt.Errorf("failed to update doctor queue: %w", err)
		}

		result = BookingResult{
			AppointmentID: appointment.ID,
			TokenNumber:   tokenNumber,
			DoctorName:    doctor.User.Name,
			ScheduledAt:   appointment.ScheduledAt,
			Message:       fmt.Sprintf("Appointment booked successfully! Your token number is %d.", tokenNumber),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListForPatient returns a patient's appointments, newest first.
func (a *AppointmentAgent) ListForPatient(patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := a.DB.Where("patient_id = ?", patientID).
		Order("scheduled_at desc").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	return appointments, nil
}

// CloseAppointment moves an appointment into a terminal status and releases
// the doctor's queue slot.
func (a *AppointmentAgent) CloseAppointment(appointmentID string, status models.AppointmentStatus) error {
	if status != models.StatusCompleted && status != models.StatusCancelled && status != models.StatusNoShow {
		return fmt.Errorf("status %q is not terminal", status)
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var appointment models.Appointment
		if err := tx.First(&appointment, "id = ?", appointmentID).Error; err != nil {
			return err
		}
		if appointment.Status != models.StatusScheduled && appointment.Status != models.StatusInProgress {
			return fmt.Errorf("appointment is not active")
		}

		if err := tx.Model(&appointment).Update("status", status).Error; err != nil {
			return err
		}

		return tx.Model(&models.Doctor{}).
			Where("id = ? AND queue_length > 0", appointment.DoctorID).
			Update("queue_length", gorm.Expr("queue_length - 1")).Error
	})
}
