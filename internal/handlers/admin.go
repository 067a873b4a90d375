package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"melco-care-server/internal/agents"
	"melco-care-server/internal/models"
	"melco-care-server/internal/utils"
	"melco-care-server/internal/vlm"
)

// AdminHandler handles administrative requests: hospital capacity, doctor
// queues, user listings, and system status.
type AdminHandler struct {
	DB  *gorm.DB
	VLM vlm.Service
	RAG *agents.ContextBuilder
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, svc vlm.Service, rag *agents.ContextBuilder) *AdminHandler {
	return &AdminHandler{DB: db, VLM: svc, RAG: rag}
}

// GetHospitals lists hospitals, optionally filtered by city.
func (h *AdminHandler) GetHospitals(c *gin.Context) {
	query := h.DB.Preload("Departments")
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var hospitals []models.Hospital
	if err := query.Find(&hospitals).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch hospitals: "+err.Error())
		return
	}

	utils.Success(c, "Hospitals fetched successfully", hospitals)
}

// GetHospitalByID fetches a single hospital with its departments.
func (h *AdminHandler) GetHospitalByID(c *gin.Context) {
	hospitalID := c.Param("id")
	if _, err := uuid.Parse(hospitalID); err != nil {
		utils.BadRequest(c, "Invalid hospital ID format")
		return
	}

	var hospital models.Hospital
	if err := h.DB.Preload("Departments").First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Hospital fetched successfully", hospital)
}

// UpdateBedsRequest represents the request body for a bed-count update.
type UpdateBedsRequest struct {
	OccupiedBeds *int `json:"occupiedBeds" binding:"required"`
}

// UpdateHospitalBeds updates a hospital's occupied bed count.
func (h *AdminHandler) UpdateHospitalBeds(c *gin.Context) {
	hospitalID := c.Param("id")
	if _, err := uuid.Parse(hospitalID); err != nil {
		utils.BadRequest(c, "Invalid hospital ID format")
		return
	}

	var req UpdateBedsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	occupied := *req.OccupiedBeds
	if occupied < 0 || occupied > hospital.TotalBeds {
		utils.BadRequest(c, "occupiedBeds must be between 0 and the hospital's total beds")
		return
	}

	hospital.OccupiedBeds = occupied
	if err := h.DB.Save(&hospital).Error; err != nil {
		utils.InternalServerError(c, "Failed to update bed count: "+err.Error())
		return
	}

	// Cached hospital info for this city is now stale.
	h.RAG.InvalidateHospitalInfo(c.Request.Context(), hospital.City)

	utils.Success(c, "Bed count updated successfully", hospital)
}

// GetDepartments lists departments for a hospital.
func (h *AdminHandler) GetDepartments(c *gin.Context) {
	hospitalID := c.Param("id")
	if _, err := uuid.Parse(hospitalID); err != nil {
		utils.BadRequest(c, "Invalid hospital ID format")
		return
	}

	var departments []models.Department
	if err := h.DB.Where("hospital_id = ?", hospitalID).Find(&departments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch departments: "+err.Error())
		return
	}

	utils.Success(c, "Departments fetched successfully", departments)
}

// GetDoctors lists doctor profiles, optionally filtered by department.
func (h *AdminHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Preload("User").Preload("Department")
	if departmentID := c.Query("departmentId"); departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// UpdateDoctorStatusRequest represents the request body for a doctor status
// change.
type UpdateDoctorStatusRequest struct {
	Status models.DoctorStatus `json:"status" binding:"required,oneof=available on_break off_duty in_consultation"`
}

// UpdateDoctorStatus updates a doctor's duty status.
func (h *AdminHandler) UpdateDoctorStatus(c *gin.Context) {
	doctorID := c.Param("id")
	if _, err := uuid.Parse(doctorID); err != nil {
		utils.BadRequest(c, "Invalid doctor ID format")
		return
	}

	var req UpdateDoctorStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := h.DB.Model(&models.Doctor{}).Where("id = ?", doctorID).Update("status", req.Status)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to update doctor status: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Doctor not found")
		return
	}

	utils.Success(c, "Doctor status updated successfully", gin.H{"doctorId": doctorID, "status": req.Status})
}

// GetUsers lists users, optionally filtered by role.
func (h *AdminHandler) GetUsers(c *gin.Context) {
	query := h.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(users))
	for i := range users {
		sanitized = append(sanitized, users[i].Sanitize())
	}

	utils.Success(c, "Users fetched successfully", sanitized)
}

// GetAppointments lists all appointments, optionally filtered by status.
func (h *AdminHandler) GetAppointments(c *gin.Context) {
	query := h.DB.Preload("Patient").Preload("Doctor.User").Order("scheduled_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// SystemStatus reports model availability plus row counts for the main
// entities.
func (h *AdminHandler) SystemStatus(c *gin.Context) {
	status := h.VLM.CheckStatus(c.Request.Context())

	counts := gin.H{}
	for name, model := range map[string]interface{}{
		"users":        &models.User{},
		"hospitals":    &models.Hospital{},
		"doctors":      &models.Doctor{},
		"appointments": &models.Appointment{},
		"chatSessions": &models.ChatSession{},
	} {
		var count int64
		if err := h.DB.Model(model).Count(&count).Error; err != nil {
			utils.InternalServerError(c, "Failed to count "+name+": "+err.Error())
			return
		}
		counts[name] = count
	}

	utils.Success(c, "System status fetched successfully", gin.H{
		"model":  status,
		"counts": counts,
	})
}
