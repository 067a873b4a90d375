package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"melco-care-server/internal/agents"
	"melco-care-server/internal/config"
	"melco-care-server/internal/middleware"
	"melco-care-server/internal/models"
	"melco-care-server/internal/utils"
	"melco-care-server/internal/vlm"
)

// ChatHandler handles chat and appointment booking requests.
type ChatHandler struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Orchestrator *agents.Orchestrator
	Appointments *agents.AppointmentAgent
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(db *gorm.DB, cfg *config.Config, orchestrator *agents.Orchestrator) *ChatHandler {
	return &ChatHandler{
		DB:           db,
		Cfg:          cfg,
		Orchestrator: orchestrator,
		Appointments: orchestrator.Appointments,
	}
}

// ChatRequest represents the request body for a chat turn.
type ChatRequest struct {
	UserID  string `json:"userId" binding:"required,uuid"`
	Message string `json:"message" binding:"required"`
}

// Chat handles one text-only chat turn.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if !h.authorizedForUser(c, req.UserID) {
		return
	}

	h.processChatTurn(c, req.UserID, req.Message, "")
}

// ChatWithImage handles a chat turn carrying an image (multipart form).
func (h *ChatHandler) ChatWithImage(c *gin.Context) {
	userID := c.PostForm("userId")
	message := c.PostForm("message")
	if userID == "" || message == "" {
		utils.BadRequest(c, "userId and message form fields are required")
		return
	}

	if !h.authorizedForUser(c, userID) {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.BadRequest(c, "Image file is required: "+err.Error())
		return
	}

	imagePath, ok := saveUpload(c, h.Cfg.UploadDir, file)
	if !ok {
		return
	}

	h.processChatTurn(c, userID, message, imagePath)
}

// processChatTurn runs the orchestrator and persists both sides of the
// exchange in the user's active session.
func (h *ChatHandler) processChatTurn(c *gin.Context, userID, message, imagePath string) {
	session, err := models.GetOrCreateChatSession(h.DB, userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to load chat session: "+err.Error())
		return
	}

	recent, err := models.RecentChatMessages(h.DB, session.ID, 5)
	if err != nil {
		utils.InternalServerError(c, "Failed to load chat history: "+err.Error())
		return
	}
	history := make([]vlm.HistoryEntry, 0, len(recent))
	for _, m := range recent {
		history = append(history, vlm.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}

	result, err := h.Orchestrator.ProcessRequest(c.Request.Context(), userID, message, imagePath, history)
	if err != nil {
		utils.InternalServerError(c, "Failed to process message: "+err.Error())
		return
	}
	if !result.Success {
		utils.NotFound(c, result.Response)
		return
	}

	if _, err := models.AppendChatMessage(h.DB, session.ID, models.ChatRoleUser, message, imagePath); err != nil {
		utils.InternalServerError(c, "Failed to store message: "+err.Error())
		return
	}
	if _, err := models.AppendChatMessage(h.DB, session.ID, models.ChatRoleAssistant, result.Response, ""); err != nil {
		utils.InternalServerError(c, "Failed to store response: "+err.Error())
		return
	}

	utils.Success(c, "Message processed", result)
}

// ChatHistory returns the most recent messages of a user's active session in
// chronological order.
func (h *ChatHandler) ChatHistory(c *gin.Context) {
	userID := c.Param("userId")
	if _, err := uuid.Parse(userID); err != nil {
		utils.BadRequest(c, "Invalid user ID format")
		return
	}

	if !h.authorizedForUser(c, userID) {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			utils.BadRequest(c, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	var session models.ChatSession
	err := h.DB.Where("user_id = ? AND is_active = ?", userID, true).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		utils.Success(c, "Chat history fetched successfully", []models.ChatMessage{})
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	messages, err := models.RecentChatMessages(h.DB, session.ID, limit)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch chat history: "+err.Error())
		return
	}

	utils.Success(c, "Chat history fetched successfully", messages)
}

// BookAppointmentRequest represents the request body for booking.
type BookAppointmentRequest struct {
	UserID          string `json:"userId" binding:"required,uuid"`
	DoctorID        string `json:"doctorId" binding:"required,uuid"`
	Symptoms        string `json:"symptoms" binding:"required"`
	SymptomsSummary string `json:"symptomsSummary"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low medium high emergency"`
	ImagePath       string `json:"imagePath"`
}

// BookAppointment confirms a booking against one of the suggested doctors.
func (h *ChatHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if !h.authorizedForUser(c, req.UserID) {
		return
	}

	var patient models.User
	if err := h.DB.First(&patient, "id = ?", req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found. Please register first.")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	summary := req.SymptomsSummary
	if summary == "" {
		summary = req.Symptoms
	}

	result, err := h.Appointments.Book(req.UserID, req.DoctorID, req.Symptoms, summary, models.ParsePriority(req.Priority), req.ImagePath)
	if err != nil {
		if strings.Contains(err.Error(), "doctor not found") {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Failed to book appointment: "+err.Error())
		}
		return
	}

	// Record the confirmation in the chat session so the conversation
	// reflects the booking. The booking already committed, so a failed
	// write here is logged rather than surfaced.
	if session, err := models.GetOrCreateChatSession(h.DB, req.UserID); err != nil {
		log.Printf("booking %s: could not load chat session: %v", result.AppointmentID, err)
	} else if _, err := models.AppendChatMessage(h.DB, session.ID, models.ChatRoleAssistant, result.Message, ""); err != nil {
		log.Printf("booking %s: could not store confirmation message: %v", result.AppointmentID, err)
	}

	utils.Created(c, "Appointment booked successfully", result)
}

// GetAppointments returns a user's appointments, newest first.
func (h *ChatHandler) GetAppointments(c *gin.Context) {
	userID := c.Param("userId")
	if _, err := uuid.Parse(userID); err != nil {
		utils.BadRequest(c, "Invalid user ID format")
		return
	}

	if !h.authorizedForUser(c, userID) {
		return
	}

	appointments, err := h.Appointments.ListForPatient(userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// authorizedForUser enforces that patients act only on their own data.
// Doctors and admins may act on behalf of any user.
func (h *ChatHandler) authorizedForUser(c *gin.Context, userID string) bool {
	requesterID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return false
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == models.RolePatient && requesterID != userID {
		utils.Forbidden(c, "Patients can only access their own data.")
		return false
	}
	return true
}

// saveUpload stores an uploaded image under the upload directory with a
// random name, returning the stored path.
func saveUpload(c *gin.Context, uploadDir string, file *multipart.FileHeader) (string, bool) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		utils.BadRequest(c, "Unsupported image type: "+ext)
		return "", false
	}

	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	dst := filepath.Join(uploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		utils.InternalServerError(c, "Failed to save uploaded file: "+err.Error())
		return "", false
	}
	return dst, true
}
