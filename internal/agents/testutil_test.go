package agents

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"melco-care-server/internal/models"
	"melco-care-server/internal/vlm"
)

// testDB opens the test database or skips. Integration tests share one
// schema, so rows are created with unique identifiers.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := models.InitDB(models.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	return db
}

// stubVLM is a canned Service implementation for tests that must not reach
// a model server.
type stubVLM struct {
	intent   *vlm.IntentResult
	analysis *vlm.SymptomAnalysis
	reply    string
}

func (s *stubVLM) ClassifyIntent(ctx context.Context, message, imagePath string) *vlm.IntentResult {
	if s.intent != nil {
		return s.intent
	}
	return &vlm.IntentResult{Intent: "general", Confidence: 0.5, Priority: "medium"}
}

func (s *stubVLM) AnalyzeSymptoms(ctx context.Context, symptoms, imagePath string, age int, gender string) *vlm.SymptomAnalysis {
	if s.analysis != nil {
		return s.analysis
	}
	return &vlm.SymptomAnalysis{SuggestedDepartment: "General Medicine", Priority: "medium"}
}

func (s *stubVLM) GenerateReply(ctx context.Context, userMessage, contextText string, history []vlm.HistoryEntry) string {
	if s.reply != "" {
		return s.reply
	}
	return "stub reply"
}

func (s *stubVLM) ExtractPrescription(ctx context.Context, imagePath string) (*vlm.PrescriptionData, error) {
	return &vlm.PrescriptionData{}, nil
}

func (s *stubVLM) CheckStatus(ctx context.Context) *vlm.Status {
	return &vlm.Status{Online: true}
}

// seedPatient inserts a patient in the given city.
func seedPatient(t *testing.T, db *gorm.DB, city string) *models.User {
	t.Helper()
	user := &models.User{
		Email:  fmt.Sprintf("patient-%s@test.com", uuid.New().String()[:8]),
		Name:   "Test Patient",
		Role:   models.RolePatient,
		City:   city,
		Age:    30,
		Gender: models.GenderFemale,
	}
	require.NoError(t, user.SetPassword("testpass123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedDoctor inserts a hospital, department, doctor user, and doctor profile
// in one go and returns the doctor.
func seedDoctor(t *testing.T, db *gorm.DB, city string, dept models.DepartmentType) *models.Doctor {
	t.Helper()

	hospital := &models.Hospital{
		Name:         "Test Hospital " + uuid.New().String()[:8],
		City:         city,
		Locality:     "Testpet",
		TotalBeds:    50,
		IsGovernment: true,
	}
	require.NoError(t, db.Create(hospital).Error)

	department := &models.Department{
		HospitalID: hospital.ID,
		Name:       dept,
		IsActive:   true,
	}
	require.NoError(t, db.Create(department).Error)

	user := &models.User{
		Email:  fmt.Sprintf("doctor-%s@test.com", uuid.New().String()[:8]),
		Name:   "Dr. Test",
		Role:   models.RoleDoctor,
		City:   city,
		Age:    45,
		Gender: models.GenderMale,
	}
	require.NoError(t, user.SetPassword("testpass123"))
	require.NoError(t, db.Create(user).Error)

	doctor := &models.Doctor{
		UserID:              user.ID,
		DepartmentID:        department.ID,
		Specialization:      string(dept),
		Status:              models.DoctorAvailable,
		AvgConsultationMins: 15,
	}
	require.NoError(t, db.Create(doctor).Error)
	return doctor
}
