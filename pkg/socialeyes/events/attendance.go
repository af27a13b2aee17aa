package events

import (
	"errors"
	"net/http"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/metrics"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AttendeeResponse is one row of an event's attendee listing
type AttendeeResponse struct {
	ID         uint           `json:"id"`
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Attendance AttendanceInfo `json:"Attendance"`
}

// AttendanceInfo is the attendance part of an attendee listing row
type AttendanceInfo struct {
	Status string `json:"status"`
}

// ChangeAttendanceRequest moves a user's attendance to a new status
type ChangeAttendanceRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// AttendanceResponse echoes an attendance row after a status change
type AttendanceResponse struct {
	ID      uint   `json:"id"`
	EventID uint   `json:"eventId"`
	UserID  uint   `json:"userId"`
	Status  string `json:"status"`
}

var transitionFor = map[models.AttendanceStatus]string{
	models.AttendanceStatusWaitlist:  metrics.TransitionChangedToWaitlist,
	models.AttendanceStatusAttending: metrics.TransitionChangedToAttending,
}

// ListAttendees returns an event's attendees. Pending requests are only
// listed for the organizer and co-hosts of the event's group.
// @Summary List an event's attendees
// @Tags attendance
// @Produce json
// @Param eventId path int true "Event ID"
// @Success 200 {object} map[string][]AttendeeResponse
// @Failure 404 {object} httpx.ErrorResponse "Event couldn't be found"
// @Router /events/{eventId}/attendees [get]
func (h *Handler) ListAttendees(c *gin.Context) {
	viewerID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	event, err := store.EventWithGroup(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	role, _, err := store.Role(h.db, event.Group, viewerID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	var rows []policy.Attendee
	err = h.db.Model(&models.Attendance{}).
		Select("attendances.user_id, users.first_name, users.last_name, attendances.status").
		Joins("JOIN users ON users.id = attendances.user_id AND users.deleted_at IS NULL").
		Where("attendances.event_id = ?", event.ID).
		Order("attendances.id").
		Scan(&rows).Error
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	visible := policy.VisibleAttendees(role, rows)
	attendees := make([]AttendeeResponse, len(visible))
	for i, a := range visible {
		attendees[i] = AttendeeResponse{
			ID:         a.UserID,
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Attendance: AttendanceInfo{Status: string(a.Status)},
		}
	}
	c.JSON(http.StatusOK, gin.H{"Attendees": attendees})
}

// RequestAttendance asks to attend an event on behalf of the current user.
// The user must hold a membership in the event's group.
// @Summary Request to attend an event
// @Tags attendance
// @Produce json
// @Param eventId path int true "Event ID"
// @Success 200 {object} map[string]interface{} "userId and status"
// @Failure 400 {object} httpx.ErrorResponse "Duplicate request"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /events/{eventId}/attendance [post]
func (h *Handler) RequestAttendance(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	event, err := store.Event(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	existing, err := store.Attendance(h.db, event.ID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	membership, err := store.Membership(h.db, event.GroupID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	status, err := policy.RequestAttendance(membership, existing)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	attendance := models.Attendance{EventID: event.ID, UserID: userID, Status: status}
	if err := h.db.Create(&attendance).Error; err != nil {
		// A concurrent request for the same pair won the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			current := models.AttendanceStatusPending
			if winner, lookupErr := store.Attendance(h.db, event.ID, userID); lookupErr == nil && winner != nil {
				current = winner.Status
			}
			httpx.Abort(c, policy.DuplicateAttendance(current))
			return
		}
		httpx.Abort(c, err)
		return
	}

	metrics.RecordTransition(metrics.TransitionRequested)
	httpx.Logger(c).Info("attendance requested", "event_id", event.ID)
	c.JSON(http.StatusOK, gin.H{"userId": userID, "status": attendance.Status})
}

// ChangeAttendance moves an attendance to waitlist or attending (organizer or co-host)
// @Summary Change an attendance status
// @Tags attendance
// @Accept json
// @Produce json
// @Param eventId path int true "Event ID"
// @Param request body ChangeAttendanceRequest true "Target user and status"
// @Success 200 {object} AttendanceResponse
// @Failure 400 {object} httpx.ErrorResponse "Cannot change an attendance status to pending"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Failure 404 {object} httpx.ErrorResponse "Event, user or attendance not found"
// @Security BearerAuth
// @Router /events/{eventId}/attendance [put]
func (h *Handler) ChangeAttendance(c *gin.Context) {
	requesterID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	event, err := store.EventWithGroup(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	var req ChangeAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	role, _, err := store.Role(h.db, event.Group, requesterID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	target := models.AttendanceStatus(req.Status)
	if err := policy.ChangeAttendanceStatus(role, target); err != nil {
		httpx.Abort(c, err)
		return
	}
	if _, err := store.User(h.db, req.UserID); err != nil {
		httpx.Abort(c, err)
		return
	}

	// Overwrite only the status of an existing row; never create one
	result := h.db.Model(&models.Attendance{}).
		Where("event_id = ? AND user_id = ?", event.ID, req.UserID).
		Update("status", target)
	if result.Error != nil {
		httpx.Abort(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		httpx.Abort(c, policy.NotFound(policy.MsgAttendanceNotFound))
		return
	}

	attendance, err := store.Attendance(h.db, event.ID, req.UserID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	if attendance == nil {
		// Removed between the update and the read
		httpx.Abort(c, policy.NotFound(policy.MsgAttendanceNotFound))
		return
	}

	metrics.RecordTransition(transitionFor[target])
	httpx.Logger(c).Info("attendance changed", "event_id", event.ID, "attendee_id", req.UserID, "status", target)
	c.JSON(http.StatusOK, AttendanceResponse{
		ID:      attendance.ID,
		EventID: attendance.EventID,
		UserID:  attendance.UserID,
		Status:  string(attendance.Status),
	})
}

// RemoveAttendance deletes a user's attendance at an event. The organizer
// may remove anyone; attendees may remove themselves.
// @Summary Delete an attendance
// @Tags attendance
// @Produce json
// @Param eventId path int true "Event ID"
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]string "Successfully deleted attendance from event"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Failure 404 {object} httpx.ErrorResponse "Event, user or attendance not found"
// @Security BearerAuth
// @Router /events/{eventId}/attendance/{userId} [delete]
func (h *Handler) RemoveAttendance(c *gin.Context) {
	requesterID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	event, err := store.EventWithGroup(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	targetID, ok := httpx.ParamID(c, "userId", policy.MsgUserNotFound)
	if !ok {
		return
	}
	if _, err := store.User(h.db, targetID); err != nil {
		httpx.Abort(c, err)
		return
	}
	if err := policy.AuthorizeAttendanceRemoval(requesterID, event.Group, targetID); err != nil {
		httpx.Abort(c, err)
		return
	}

	result := h.db.Where("event_id = ? AND user_id = ?", event.ID, targetID).Delete(&models.Attendance{})
	if result.Error != nil {
		httpx.Abort(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		httpx.Abort(c, policy.NotFound(policy.MsgAttendanceMissing))
		return
	}

	metrics.RecordTransition(metrics.TransitionRemoved)
	httpx.Logger(c).Info("attendance removed", "event_id", event.ID, "attendee_id", targetID)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted attendance from event"})
}
