package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"melco-care-server/internal/models"
)

func testContext(t *testing.T, userID string, role models.Role) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("GET", "/", nil)
	if userID != "" {
		c.Set("userID", userID)
		c.Set("userRole", role)
	}
	return c, recorder
}

func TestAuthorizedForUserPatientOwnData(t *testing.T) {
	h := &ChatHandler{}
	c, _ := testContext(t, "patient-1", models.RolePatient)

	assert.True(t, h.authorizedForUser(c, "patient-1"))
}

func TestAuthorizedForUserPatientOtherData(t *testing.T) {
	h := &ChatHandler{}
	c, recorder := testContext(t, "patient-1", models.RolePatient)

	assert.False(t, h.authorizedForUser(c, "patient-2"))
	assert.Equal(t, 403, recorder.Code)
}

func TestAuthorizedForUserDoctorActsForPatient(t *testing.T) {
	h := &ChatHandler{}
	c, _ := testContext(t, "doctor-1", models.RoleDoctor)

	assert.True(t, h.authorizedForUser(c, "patient-2"))
}

func TestAuthorizedForUserUnauthenticated(t *testing.T) {
	h := &ChatHandler{}
	c, recorder := testContext(t, "", "")

	assert.False(t, h.authorizedForUser(c, "patient-1"))
	assert.Equal(t, 401, recorder.Code)
}
