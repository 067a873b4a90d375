package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Gender enum
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents a user in the system (patients, doctors, admins)
type User struct {
	BaseModel
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Name     string `gorm:"size:100;not null" json:"name"`
	Role     Role   `gorm:"size:20;index;default:'patient'" json:"role"`
	Phone    string `gorm:"size:15" json:"phone,omitempty"`
	City     string `gorm:"size:50;index" json:"city"`
	Locality string `gorm:"size:100" json:"locality,omitempty"`
	Age      int    `json:"age"`
	Gender   Gender `gorm:"size:10" json:"gender"`

	// Relations (not always preloaded)
	RefreshTokens       []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	DoctorProfile       *Doctor        `gorm:"foreignKey:UserID" json:"-"`
	PatientAppointments []Appointment  `gorm:"foreignKey:PatientID" json:"-"`
	ChatSessions        []ChatSession  `gorm:"foreignKey:UserID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city"`
	Locality string `json:"locality,omitempty"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Phone:    u.Phone,
		City:     u.City,
		Locality: u.Locality,
		Age:      u.Age,
		Gender:   u.Gender,
	}
}
