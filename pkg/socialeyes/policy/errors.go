package policy

import (
	"errors"
	"net/http"
)

// Kind classifies a rejected request
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindBadRequest
)

// StatusCode maps a kind to the HTTP status reported to clients
func (k Kind) StatusCode() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Client-visible messages. Clients branch on these strings, so they must not change.
const (
	MsgForbidden  = "Forbidden"
	MsgBadRequest = "Bad Request"

	MsgEventNotFound      = "Event couldn't be found"
	MsgGroupNotFound      = "Group couldn't be found"
	MsgVenueNotFound      = "Venue couldn't be found"
	MsgUserNotFound       = "User couldn't be found"
	MsgAttendanceNotFound = "Attendance between the user and the event does not exist"
	MsgAttendanceMissing  = "Attendance does not exist for this User"
	MsgMembershipNotFound = "Membership between the user and the group does not exist"

	MsgAttendanceRequested = "Attendance has already been requested"
	MsgAlreadyAttending    = "User is already an attendee of the event"
	MsgAlreadyInAttendance = "Attendee already in attendance"

	MsgMembershipRequested = "Membership has already been requested"
	MsgAlreadyMember       = "User is already a member of the group"

	MsgPendingAttendanceTarget = "Cannot change an attendance status to pending"
	MsgPendingMembershipTarget = "Cannot change a membership status to pending"
)

// Error is an expected rejection produced by a policy decision
type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level validation failures, keyed by request field
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status for the rejection
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// NotFound builds a 404 rejection
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Forbidden builds the 403 rejection
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: MsgForbidden}
}

// BadRequest builds a 400 rejection
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// FieldError builds a 400 rejection carrying one field-level error
func FieldError(field, msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: MsgBadRequest, Fields: map[string]string{field: msg}}
}

// IsKind reports whether err is a policy rejection of the given kind
func IsKind(err error, kind Kind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == kind
}
