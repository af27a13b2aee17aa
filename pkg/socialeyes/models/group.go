package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupType describes where a group meets
type GroupType string

const (
	GroupTypeInPerson GroupType = "In person"
	GroupTypeOnline   GroupType = "Online"
)

// Group is owned by its organizer and hosts events at its venues.
// Private groups still list their events; privacy only hides membership details in the client.
type Group struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizerID uint           `gorm:"not null;index" json:"organizerId"`
	Name        string         `gorm:"not null" json:"name"`
	About       string         `json:"about"`
	Type        GroupType      `gorm:"type:varchar(20);not null" json:"type"`
	Private     bool           `gorm:"default:false" json:"private"`
	City        string         `json:"city"`
	State       string         `json:"state"`

	// Relationships
	Organizer   User         `gorm:"foreignKey:OrganizerID" json:"-"`
	Memberships []Membership `gorm:"foreignKey:GroupID" json:"-"`
	Venues      []Venue      `gorm:"foreignKey:GroupID" json:"-"`
	Events      []Event      `gorm:"foreignKey:GroupID" json:"-"`
	GroupImages []GroupImage `gorm:"foreignKey:GroupID" json:"-"`
}

// GroupImage is an image attached to a group
type GroupImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	GroupID   uint      `gorm:"not null;index" json:"groupId"`
	URL       string    `gorm:"not null" json:"url"`
	Preview   bool      `gorm:"default:false" json:"preview"`
}
