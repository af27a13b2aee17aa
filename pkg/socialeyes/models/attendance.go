package models

import "time"

// AttendanceStatus is the state of a user's attendance at an event
type AttendanceStatus string

const (
	AttendanceStatusPending   AttendanceStatus = "pending"
	AttendanceStatusWaitlist  AttendanceStatus = "waitlist"
	AttendanceStatusAttending AttendanceStatus = "attending"
)

// Valid reports whether s is one of the persisted attendance states
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPending, AttendanceStatusWaitlist, AttendanceStatusAttending:
		return true
	}
	return false
}

// Attendance relates a user to an event. The unique index on (event_id, user_id)
// is what serializes concurrent requests to attend; rows are hard deleted on removal.
type Attendance struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
	EventID   uint             `gorm:"not null;uniqueIndex:idx_attendance_event_user" json:"eventId"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_attendance_event_user;index" json:"userId"`
	Status    AttendanceStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Event Event `gorm:"foreignKey:EventID" json:"-"`
}
