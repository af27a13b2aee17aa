package policy

import "github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"

// VisibleMembers filters a group's member listing the same way attendee
// listings are filtered: pending requests are only shown to staff.
func VisibleMembers(viewer Role, memberships []models.Membership) []models.Membership {
	visible := make([]models.Membership, 0, len(memberships))
	for _, m := range memberships {
		if viewer.IsStaff() || m.Status != models.MembershipStatusPending {
			visible = append(visible, m)
		}
	}
	return visible
}

// RequestMembership decides whether a user may ask to join a group and
// returns the status the new membership row must be created with.
func RequestMembership(existing *models.Membership) (models.MembershipStatus, error) {
	if existing != nil {
		return "", DuplicateMembership(existing.Status)
	}
	return models.MembershipStatusPending, nil
}

// DuplicateMembership is the rejection for a second request to join
func DuplicateMembership(current models.MembershipStatus) *Error {
	if current == models.MembershipStatusPending {
		return BadRequest(MsgMembershipRequested)
	}
	return BadRequest(MsgAlreadyMember)
}

// ChangeMembershipStatus decides whether a requester with role may move a
// membership to target. Co-hosts may approve members; only the organizer
// may grant co-host.
func ChangeMembershipStatus(role Role, target models.MembershipStatus) error {
	switch target {
	case models.MembershipStatusPending:
		return FieldError("status", MsgPendingMembershipTarget)
	case models.MembershipStatusMember:
		if !role.IsStaff() {
			return Forbidden()
		}
	case models.MembershipStatusCoHost:
		if role != RoleOrganizer {
			return Forbidden()
		}
	default:
		return FieldError("status", "Status must be one of member or co-host")
	}
	return nil
}

// AuthorizeMembershipRemoval decides whether the requester may delete
// targetUserID's membership in group: the organizer or the member themself.
func AuthorizeMembershipRemoval(requesterID uint, group models.Group, targetUserID uint) error {
	return AuthorizeAttendanceRemoval(requesterID, group, targetUserID)
}
