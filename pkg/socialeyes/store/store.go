// Package store loads the rows the policy package decides on.
//
// Lookups of the subject of a request (event, group, venue, user) turn a
// missing row into the matching policy NotFound rejection. Lookups of
// optional relations (membership, attendance) return nil when absent.
package store

import (
	"errors"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"gorm.io/gorm"
)

func first(db *gorm.DB, dest interface{}, notFound string, conds ...interface{}) error {
	err := db.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.NotFound(notFound)
	}
	return err
}

// Event loads an event by id
func Event(db *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	if err := first(db, &event, policy.MsgEventNotFound, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventWithGroup loads an event together with the group that owns it
func EventWithGroup(db *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	if err := first(db.Preload("Group"), &event, policy.MsgEventNotFound, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Group loads a group by id
func Group(db *gorm.DB, id uint) (*models.Group, error) {
	var group models.Group
	if err := first(db, &group, policy.MsgGroupNotFound, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Venue loads a venue by id
func Venue(db *gorm.DB, id uint) (*models.Venue, error) {
	var venue models.Venue
	if err := first(db, &venue, policy.MsgVenueNotFound, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// User loads a user by id
func User(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := first(db, &user, policy.MsgUserNotFound, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// Membership returns userID's membership row in groupID, or nil
func Membership(db *gorm.DB, groupID, userID uint) (*models.Membership, error) {
	if userID == 0 {
		return nil, nil
	}
	var m models.Membership
	err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Attendance returns userID's attendance row for eventID, or nil
func Attendance(db *gorm.DB, eventID, userID uint) (*models.Attendance, error) {
	if userID == 0 {
		return nil, nil
	}
	var a models.Attendance
	err := db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Role resolves userID's role in group, loading the membership row it needs
func Role(db *gorm.DB, group models.Group, userID uint) (policy.Role, *models.Membership, error) {
	m, err := Membership(db, group.ID, userID)
	if err != nil {
		return policy.RoleNonMember, nil, err
	}
	return policy.ResolveRole(userID, group, m), m, nil
}
