package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// Priority represents triage priority assigned during intake
type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

// ParsePriority maps a free-form priority string onto a known level,
// defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Appointment represents a booked consultation
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;index" json:"patientId"`
	DoctorID        string            `gorm:"size:36;index" json:"doctorId"`
	SymptomsRaw     string            `gorm:"size:1000" json:"symptomsRaw,omitempty"`
	SymptomsSummary string            `gorm:"size:500" json:"symptomsSummary,omitempty"`
	Priority        Priority          `gorm:"size:20;default:'medium'" json:"priority"`
	Status          AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	ScheduledAt     time.Time         `json:"scheduledAt"`
	TokenNumber     int               `json:"tokenNumber"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	ImagePath       string            `gorm:"size:300" json:"imagePath,omitempty"`

	// Relations
	Patient User   `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}
