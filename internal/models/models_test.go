package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepartmentType(t *testing.T) {
	assert.Equal(t, DeptCardiology, ParseDepartmentType("Cardiology"))
	assert.Equal(t, DeptENT, ParseDepartmentType("ENT"))

	// Anything the model makes up collapses to General Medicine.
	assert.Equal(t, DeptGeneralMedicine, ParseDepartmentType("Wizardry"))
	assert.Equal(t, DeptGeneralMedicine, ParseDepartmentType(""))
	assert.Equal(t, DeptGeneralMedicine, ParseDepartmentType("cardiology"))
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityEmergency, ParsePriority("emergency"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityMedium, ParsePriority("urgent-ish"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}

func TestUserPasswordHashing(t *testing.T) {
	user := &User{}
	require.NoError(t, user.SetPassword("correct horse battery staple"))

	assert.NotEqual(t, "correct horse battery staple", user.Password)
	assert.True(t, user.CheckPassword("correct horse battery staple"))
	assert.False(t, user.CheckPassword("wrong password"))
}

func TestUserSanitizeDropsPassword(t *testing.T) {
	user := &User{
		Email:    "a@b.com",
		Password: "hashed-secret",
		Name:     "Asha",
		Role:     RolePatient,
		City:     "Hyderabad",
		Age:      28,
		Gender:   GenderFemale,
	}
	user.ID = "some-id"

	sanitized := user.Sanitize()
	assert.Equal(t, "some-id", sanitized.ID)
	assert.Equal(t, "Asha", sanitized.Name)
	assert.Equal(t, RolePatient, sanitized.Role)
}

func TestHospitalAvailableBeds(t *testing.T) {
	h := &Hospital{TotalBeds: 100, OccupiedBeds: 37}
	assert.Equal(t, 63, h.AvailableBeds())
}

func TestDoctorEstimatedWait(t *testing.T) {
	d := &Doctor{QueueLength: 4, AvgConsultationMins: 15}
	assert.Equal(t, 60, d.EstimatedWaitMins())

	idle := &Doctor{QueueLength: 0, AvgConsultationMins: 15}
	assert.Equal(t, 0, idle.EstimatedWaitMins())
}
