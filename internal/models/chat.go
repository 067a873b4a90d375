package models

import (
	"gorm.io/gorm"
)

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatSession groups the messages of one conversation. A user has at most one
// active session at a time.
type ChatSession struct {
	BaseModel
	UserID   string `gorm:"size:36;index" json:"userId"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	// Relations
	User     User          `gorm:"foreignKey:UserID" json:"-"`
	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`
}

// ChatMessage is a single exchange within a session
type ChatMessage struct {
	BaseModel
	SessionID string   `gorm:"size:36;index" json:"sessionId"`
	Role      ChatRole `gorm:"size:20" json:"role"`
	Content   string   `gorm:"type:text" json:"content"`
	ImagePath string   `gorm:"size:300" json:"imagePath,omitempty"`

	// Relations
	Session ChatSession `gorm:"foreignKey:SessionID" json:"-"`
}

// GetOrCreateChatSession returns the user's active session, creating one when
// none exists.
func GetOrCreateChatSession(db *gorm.DB, userID string) (*ChatSession, error) {
	var session ChatSession
	err := db.Where("user_id = ? AND is_active = ?", userID, true).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	session = ChatSession{UserID: userID, IsActive: true}
	if err := db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendChatMessage stores a message in a session.
func AppendChatMessage(db *gorm.DB, sessionID string, role ChatRole, content, imagePath string) (*ChatMessage, error) {
	message := ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		ImagePath: imagePath,
	}
	if err := db.Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// RecentChatMessages returns the last limit messages of a session in
// chronological (insertion) order.
func RecentChatMessages(db *gorm.DB, sessionID string, limit int) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := db.Where("session_id = ?", sessionID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
