package models

import (
	"time"
)

// RefreshToken is a server-side record of an issued refresh token. Tokens
// are rotated on use: the old row is revoked when a new pair is issued.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
