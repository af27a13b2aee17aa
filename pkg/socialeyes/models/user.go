package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemRole represents a user's system-wide role
type SystemRole string

const (
	SystemRoleAdmin SystemRole = "admin"
	SystemRoleUser  SystemRole = "user"
)

// User represents a registered account
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	FirstName    string         `gorm:"not null" json:"firstName"`
	LastName     string         `gorm:"not null" json:"lastName"`
	PasswordHash string         `gorm:"not null" json:"-"`
	SystemRole   SystemRole     `gorm:"type:varchar(20);default:'user'" json:"systemRole"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
	Attendances []Attendance `gorm:"foreignKey:UserID" json:"-"`
	APIKeys     []APIKey     `gorm:"foreignKey:UserID" json:"-"`
}
