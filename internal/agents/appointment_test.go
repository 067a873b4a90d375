package agents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

func TestBookPersistsAppointmentAndBumpsQueue(t *testing.T) {
	db := testDB(t)
	city := "TestCity-" + uuid.New().String()[:8]
	patient := seedPatient(t, db, city)
	doctor := seedDoctor(t, db, city, "General Medicine")

	agent := NewAppointmentAgent(db, &stubVLM{}, NewContextBuilder(db, nil))

	result, err := agent.Book(patient.ID, doctor.ID, "fever and cough", "fever, 2 days", models.PriorityMedium, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TokenNumber)
	assert.Contains(t, result.Message, "token number is 1")

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", result.AppointmentID).Error)
	assert.Equal(t, patient.ID, stored.PatientID)
	assert.Equal(t, doctor.ID, stored.DoctorID)
	assert.Equal(t, models.StatusScheduled, stored.Status)
	assert.Equal(t, models.PriorityMedium, stored.Priority)

	var updated models.Doctor
	require.NoError(t, db.First(&updated, "id = ?", doctor.ID).Error)
	assert.Equal(t, 1, updated.QueueLength)
}

func TestBookAssignsSequentialTokens(t *testing.T) {
	db := testDB(t)
	city := "TestCity-" + uuid.New().String()[:8]
	first := seedPatient(t, db, city)
	second := seedPatient(t, db, city)
	doctor := seedDoctor(t, db, city, "ENT")

	agent := NewAppointmentAgent(db, &stubVLM{}, NewContextBuilder(db, nil))

	r1, err := agent.Book(first.ID, doctor.ID, "ear pain", "ear pain", models.PriorityLow, "")
	require.NoError(t, err)
	r2, err := agent.Book(second.ID, doctor.ID, "sore throat", "sore throat", models.PriorityLow, "")
	require.NoError(t, err)

	assert.Equal(t, 1, r1.TokenNumber)
	assert.Equal(t, 2, r2.TokenNumber)
}

func TestBookUnknownDoctor(t *testing.T) {
	db := testDB(t)
	patient := seedPatient(t, db, "Hyderabad")

	agent := NewAppointmentAgent(db, &stubVLM{}, NewContextBuilder(db, nil))

	_, err := agent.Book(patient.ID, uuid.New().String(), "fever", "fever", models.PriorityMedium, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doctor not found")
}

func TestCloseAppointmentReleasesQueueSlot(t *testing.T) {
	db := testDB(t)
	city := "TestCity-" + uuid.New().String()[:8]
	patient := seedPatient(t, db, city)
	doctor := seedDoctor(t, db, city, "Cardiology")

	agent := NewAppointmentAgent(db, &stubVLM{}, NewContextBuilder(db, nil))

	booked, err := agent.Book(patient.ID, doctor.ID, "chest pain", "chest pain", models.PriorityHigh, "")
	require.NoError(t, err)

	require.NoError(t, agent.CloseAppointment(booked.AppointmentID, models.StatusCompleted))

	var appointment models.Appointment
	require.NoError(t, db.First(&appointment, "id = ?", booked.AppointmentID).Error)
	assert.Equal(t, models.StatusCompleted, appointment.Status)

	var updated models.Doctor
	require.NoError(t, db.First(&updated, "id = ?", doctor.ID).Error)
	assert.Equal(t, 0, updated.QueueLength)

	// Closing twice must fail: the appointment is no longer active.
	assert.Error(t, agent.CloseAppointment(booked.AppointmentID, models.StatusCompleted))
}

func TestCloseAppointmentRejectsNonTerminalStatus(t *testing.T) {
	agent := NewAppointmentAgent(nil, &stubVLM{}, nil)
	err := agent.CloseAppointment(uuid.New().String(), models.StatusInProgress)
	require.Error(t, err)
}

func TestAnalyzeAndSuggestFallsBackToGeneralMedicine(t *testing.T) {
	db := testDB(t)
	city := "TestCity-" + uuid.New().String()[:8]
	patient := seedPatient(t, db, city)
	seedDoctor(t, db, city, "General Medicine")
	// No neurologist anywhere in this city.

	svc := &stubVLM{
		analysis: &vlm.SymptomAnalysis{SuggestedDepartment: "Neurology", Priority: "medium"},
	}
	agent := NewAppointmentAgent(db, svc, NewContextBuilder(db, nil))

	suggestion, err := agent.AnalyzeAndSuggest(context.Background(), patient, "frequent headaches", "")
	require.NoError(t, err)

	assert.Equal(t, models.DeptGeneralMedicine, suggestion.SuggestedDepartment)
	assert.NotEmpty(t, suggestion.DoctorOptions)
}

func TestListForPatientNewestFirst(t *testing.T) {
	db := testDB(t)
	city := "TestCity-" + uuid.New().String()[:8]
	patient := seedPatient(t, db, city)
	doctor := seedDoctor(t, db, city, "General Medicine")

	agent := NewAppointmentAgent(db, &stubVLM{}, NewContextBuilder(db, nil))

	_, err := agent.Book(patient.ID, doctor.ID, "fever", "fever", models.PriorityLow, "")
	require.NoError(t, err)
	_, err = agent.Book(patient.ID, doctor.ID, "fever again", "fever again", models.PriorityLow, "")
	require.NoError(t, err)

	appointments, err := agent.ListForPatient(patient.ID)
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.False(t, appointments[0].ScheduledAt.Before(appointments[1].ScheduledAt))
}
