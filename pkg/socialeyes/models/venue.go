package models

import "time"

// Venue is a physical location owned by a group
type Venue struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	GroupID   uint      `gorm:"not null;index" json:"groupId"`
	Address   string    `gorm:"not null" json:"address"`
	City      string    `gorm:"not null" json:"city"`
	State     string    `gorm:"not null" json:"state"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
}
