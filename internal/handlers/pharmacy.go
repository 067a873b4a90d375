package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"melco-care-server/internal/agents"
	"melco-care-server/internal/config"
	"melco-care-server/internal/middleware"
	"melco-care-server/internal/models"
	"melco-care-server/internal/utils"
)

// PharmacyHandler handles pharmacy discovery and prescription validation.
type PharmacyHandler struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Agent *agents.PharmacyAgent
}

// NewPharmacyHandler creates a new PharmacyHandler.
func NewPharmacyHandler(db *gorm.DB, cfg *config.Config, agent *agents.PharmacyAgent) *PharmacyHandler {
	return &PharmacyHandler{DB: db, Cfg: cfg, Agent: agent}
}

// GetPharmacies lists active pharmacies, optionally filtered by city.
func (h *PharmacyHandler) GetPharmacies(c *gin.Context) {
	query := h.DB.Where("is_active = ?", true)
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var pharmacies []models.Pharmacy
	if err := query.Find(&pharmacies).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch pharmacies: "+err.Error())
		return
	}

	utils.Success(c, "Pharmacies fetched successfully", pharmacies)
}

// GetInventory lists the inventory of one pharmacy.
func (h *PharmacyHandler) GetInventory(c *gin.Context) {
	pharmacyID := c.Param("id")
	if _, err := uuid.Parse(pharmacyID); err != nil {
		utils.BadRequest(c, "Invalid pharmacy ID format")
		return
	}

	var pharmacy models.Pharmacy
	if err := h.DB.First(&pharmacy, "id = ?", pharmacyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Pharmacy not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var items []models.InventoryItem
	if err := h.DB.Where("pharmacy_id = ?", pharmacyID).Order("medicine_name asc").Find(&items).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch inventory: "+err.Error())
		return
	}

	utils.Success(c, "Inventory fetched successfully", items)
}

// SearchMedicinesRequest represents the request body for a medicine search.
type SearchMedicinesRequest struct {
	Medicines     []string `json:"medicines" binding:"required,min=1,dive,required"`
	City          string   `json:"city"`
	Latitude      float64  `json:"latitude" binding:"required"`
	Longitude     float64  `json:"longitude" binding:"required"`
	MaxDistanceKm float64  `json:"maxDistanceKm"`
}

// SearchMedicines finds nearby pharmacies stocking the requested medicines.
func (h *PharmacyHandler) SearchMedicines(c *gin.Context) {
	var req SearchMedicinesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	city := req.City
	if city == "" {
		city = h.Cfg.DefaultCity
	}
	maxDistance := req.MaxDistanceKm
	if maxDistance <= 0 {
		maxDistance = 10.0
	}

	result, err := h.Agent.SearchMedicines(req.Medicines, req.Latitude, req.Longitude, maxDistance, city)
	if err != nil {
		utils.InternalServerError(c, "Failed to search medicines: "+err.Error())
		return
	}

	utils.Success(c, "Medicine search completed", result)
}

// ValidatePrescription accepts a prescription image, extracts its contents,
// and verifies the prescribing doctor and date.
func (h *PharmacyHandler) ValidatePrescription(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	file, err := c.FormFile("prescription")
	if err != nil {
		utils.BadRequest(c, "Prescription image is required: "+err.Error())
		return
	}

	imagePath, ok := saveUpload(c, h.Cfg.UploadDir, file)
	if !ok {
		return
	}

	result, err := h.Agent.ValidatePrescription(c.Request.Context(), imagePath, userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to validate prescription: "+err.Error())
		return
	}
	if !result.Valid {
		utils.BadRequest(c, result.Error)
		return
	}

	utils.Success(c, "Prescription validated", result)
}

// RecommendationsRequest represents the request body for pharmacy
// recommendations.
type RecommendationsRequest struct {
	Medicines []string `json:"medicines" binding:"required,min=1,dive,required"`
	City      string   `json:"city"`
	Latitude  float64  `json:"latitude" binding:"required"`
	Longitude float64  `json:"longitude" binding:"required"`
}

// Recommendations returns a human-readable pharmacy recommendation text for
// the requested medicines.
func (h *PharmacyHandler) Recommendations(c *gin.Context) {
	var req RecommendationsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	city := req.City
	if city == "" {
		city = h.Cfg.DefaultCity
	}

	text, err := h.Agent.Recommendations(req.Medicines, city, req.Latitude, req.Longitude)
	if err != nil {
		utils.InternalServerError(c, "Failed to build recommendations: "+err.Error())
		return
	}

	utils.Success(c, "Recommendations generated", gin.H{"recommendations": text})
}
