package models

import "time"

// APIKey grants programmatic access on behalf of a user
type APIKey struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"-"`
	UserID      uint       `gorm:"not null;index" json:"userId"`
	KeyHash     string     `gorm:"uniqueIndex;not null" json:"-"`
	KeyPrefix   string     `gorm:"not null" json:"keyPrefix"` // First few chars for identification
	Description string     `json:"description"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
