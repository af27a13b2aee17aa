// Package policy decides who may see and change events and attendance.
//
// Every function here is pure: callers load the group, membership and
// attendance rows they need and persist whatever state a decision returns.
// Rejections are returned as *Error values whose Kind maps onto an HTTP status.
package policy

import "github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"

// Role is a requester's standing with respect to one group
type Role int

const (
	RoleNonMember Role = iota
	RoleMember
	RoleCoHost
	RoleOrganizer
)

func (r Role) String() string {
	switch r {
	case RoleOrganizer:
		return "organizer"
	case RoleCoHost:
		return "co-host"
	case RoleMember:
		return "member"
	}
	return "non-member"
}

// IsStaff reports whether the role manages the group's events
func (r Role) IsStaff() bool {
	return r == RoleOrganizer || r == RoleCoHost
}

// ResolveRole returns the requester's role in group. membership is the
// requester's row for the group, or nil. Organizer wins over any membership
// row; a pending membership confers no role.
func ResolveRole(requesterID uint, group models.Group, membership *models.Membership) Role {
	if requesterID != 0 && requesterID == group.OrganizerID {
		return RoleOrganizer
	}
	if membership == nil || membership.UserID != requesterID || membership.GroupID != group.ID {
		return RoleNonMember
	}
	switch membership.Status {
	case models.MembershipStatusCoHost:
		return RoleCoHost
	case models.MembershipStatusMember:
		return RoleMember
	}
	return RoleNonMember
}

// Attendee is one row of an event's attendee listing
type Attendee struct {
	UserID    uint
	FirstName string
	LastName  string
	Status    models.AttendanceStatus
}

// VisibleAttendees filters an attendee listing for a viewer. Staff see every
// attendee; everyone else sees only attendees whose request has been accepted.
func VisibleAttendees(viewer Role, attendees []Attendee) []Attendee {
	visible := make([]Attendee, 0, len(attendees))
	for _, a := range attendees {
		if viewer.IsStaff() || a.Status != models.AttendanceStatusPending {
			visible = append(visible, a)
		}
	}
	return visible
}

// AuthorizeEventChange decides whether the requester may edit or delete an
// event of group. Only the organizer or a co-host may.
func AuthorizeEventChange(requesterID uint, group models.Group, membership *models.Membership) error {
	if ResolveRole(requesterID, group, membership).IsStaff() {
		return nil
	}
	return Forbidden()
}

// AuthorizeImageUpload decides whether the requester may add an image to an
// event of group. Staff may, and so may an accepted attendee. A membership or
// attendance row that does not meet the bar is rejected rather than ignored.
func AuthorizeImageUpload(requesterID uint, group models.Group, membership *models.Membership, attendance *models.Attendance) error {
	if ResolveRole(requesterID, group, membership).IsStaff() {
		return nil
	}
	if attendance != nil && attendance.UserID == requesterID && attendance.Status == models.AttendanceStatusAttending {
		return nil
	}
	return Forbidden()
}

// RequestAttendance decides whether a user may ask to attend an event and
// returns the status the new attendance row must be created with.
// existing is the user's current attendance row for the event, if any, and
// membership is the user's row for the event's group, if any.
func RequestAttendance(membership *models.Membership, existing *models.Attendance) (models.AttendanceStatus, error) {
	if existing != nil {
		return "", DuplicateAttendance(existing.Status)
	}
	if membership == nil {
		return "", Forbidden()
	}
	return models.AttendanceStatusPending, nil
}

// DuplicateAttendance is the rejection for a second request to attend.
// The message depends on where the existing request stands.
func DuplicateAttendance(current models.AttendanceStatus) *Error {
	switch current {
	case models.AttendanceStatusPending:
		return BadRequest(MsgAttendanceRequested)
	case models.AttendanceStatusAttending:
		return BadRequest(MsgAlreadyAttending)
	}
	return BadRequest(MsgAlreadyInAttendance)
}

// ChangeAttendanceStatus decides whether a requester with role may move an
// existing attendance to target. pending is an entry-only state and is
// rejected before anything else is considered.
func ChangeAttendanceStatus(role Role, target models.AttendanceStatus) error {
	if target == models.AttendanceStatusPending {
		return FieldError("status", MsgPendingAttendanceTarget)
	}
	if !role.IsStaff() {
		return Forbidden()
	}
	if !target.Valid() {
		return FieldError("status", "Status must be one of attending or waitlist")
	}
	return nil
}

// AuthorizeAttendanceRemoval decides whether the requester may delete
// targetUserID's attendance at an event of group. Only the organizer and the
// attendee themself may; co-hosts may not.
func AuthorizeAttendanceRemoval(requesterID uint, group models.Group, targetUserID uint) error {
	if requesterID != 0 && requesterID == group.OrganizerID {
		return nil
	}
	if requesterID != 0 && requesterID == targetUserID {
		return nil
	}
	return Forbidden()
}
