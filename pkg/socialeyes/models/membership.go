package models

import "time"

// MembershipStatus is a user's standing within a group
type MembershipStatus string

const (
	MembershipStatusCoHost  MembershipStatus = "co-host"
	MembershipStatusMember  MembershipStatus = "member"
	MembershipStatusPending MembershipStatus = "pending"
)

// Membership relates a user to a group. At most one row exists per (group, user),
// so rows are hard deleted to let a user request membership again later.
type Membership struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
	GroupID   uint             `gorm:"not null;uniqueIndex:idx_membership_group_user" json:"groupId"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_membership_group_user;index" json:"userId"`
	Status    MembershipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}
