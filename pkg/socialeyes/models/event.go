package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType describes how an event is held
type EventType string

const (
	EventTypeInPerson EventType = "In person"
	EventTypeOnline   EventType = "Online"
)

// Event belongs to exactly one group and optionally one of that group's venues
type Event struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	GroupID     uint           `gorm:"not null;index" json:"groupId"`
	VenueID     *uint          `gorm:"index" json:"venueId"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Type        EventType      `gorm:"type:varchar(20);not null" json:"type"`
	Capacity    int            `json:"capacity"`
	Price       float64        `json:"price"`
	StartDate   time.Time      `gorm:"not null;index" json:"startDate"`
	EndDate     time.Time      `gorm:"not null" json:"endDate"`

	// Relationships
	Group       Group        `gorm:"foreignKey:GroupID" json:"-"`
	Venue       *Venue       `gorm:"foreignKey:VenueID" json:"-"`
	Attendances []Attendance `gorm:"foreignKey:EventID" json:"-"`
	EventImages []EventImage `gorm:"foreignKey:EventID" json:"-"`
}

// EventImage is an image attached to an event
type EventImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	EventID   uint      `gorm:"not null;index" json:"eventId"`
	URL       string    `gorm:"not null" json:"url"`
	Preview   bool      `gorm:"default:false" json:"preview"`
}
