package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"melco-care-server/internal/agents"
	"melco-care-server/internal/middleware"
	"melco-care-server/internal/models"
	"melco-care-server/internal/utils"
)

// AppointmentHandler handles the appointment lifecycle after booking:
// lookups, status transitions, and the doctor's queue view.
type AppointmentHandler struct {
	DB    *gorm.DB
	Agent *agents.AppointmentAgent
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, agent *agents.AppointmentAgent) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Agent: agent}
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient, the involved doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := h.DB.Preload("Patient").Preload("Doctor.User").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	isPatientInvolved := userID == appointment.PatientID
	isDoctorInvolved := userID == appointment.Doctor.UserID

	if userRole != models.RoleAdmin && !isPatientInvolved && !isDoctorInvolved {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for updating an
// appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=scheduled in_progress completed cancelled no_show"`
	Notes  string                   `json:"notes"`
}

// UpdateAppointmentStatus handles updating the status of an appointment.
// Doctors and admins drive the consultation flow; patients may only cancel.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid appointment ID format")
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.Preload("Doctor").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	canUpdate := false
	if userRole == models.RoleAdmin {
		canUpdate = true
	} else if userRole == models.RoleDoctor && userID == appointment.Doctor.UserID {
		canUpdate = true
	} else if userRole == models.RolePatient && userID == appointment.PatientID {
		// Patients can only cancel, and only while the appointment is
		// still scheduled.
		if req.Status == models.StatusCancelled && appointment.Status == models.StatusScheduled {
			canUpdate = true
		} else if req.Status != models.StatusCancelled {
			utils.Forbidden(c, "Patients can only cancel appointments.")
			return
		}
	}

	if !canUpdate {
		utils.Forbidden(c, "You are not authorized to update this appointment's status or perform this status transition.")
		return
	}

	// Terminal states release the doctor's queue slot.
	if req.Status == models.StatusCompleted || req.Status == models.StatusCancelled || req.Status == models.StatusNoShow {
		if err := h.Agent.CloseAppointment(appointmentID, req.Status); err != nil {
			utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
			return
		}
	} else {
		if err := h.DB.Model(&appointment).Update("status", req.Status).Error; err != nil {
			utils.InternalServerError(c, "Failed to update appointment status: "+err.Error())
			return
		}
	}

	if req.Notes != "" {
		if err := h.DB.Model(&appointment).Update("notes", req.Notes).Error; err != nil {
			utils.InternalServerError(c, "Failed to update appointment notes: "+err.Error())
			return
		}
	}

	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	utils.Success(c, "Appointment status updated successfully", appointment)
}

// GetDoctorQueue returns the active queue for the authenticated doctor,
// token order first.
func (h *AppointmentHandler) GetDoctorQueue(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var doctor models.Doctor
	if err := h.DB.Where("user_id = ?", userID).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "No doctor profile found for this user")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var queue []models.Appointment
	err := h.DB.Preload("Patient").
		Where("doctor_id = ? AND status IN ?", doctor.ID, []models.AppointmentStatus{models.StatusScheduled, models.StatusInProgress}).
		Order("token_number asc").
		Find(&queue).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch queue: "+err.Error())
		return
	}

	utils.Success(c, "Queue fetched successfully", queue)
}
