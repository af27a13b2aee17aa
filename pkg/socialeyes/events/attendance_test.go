package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/metrics"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func (f *fixture) attendees(t *testing.T, viewer *models.User) []AttendeeResponse {
	t.Helper()
	resp := f.do("GET", f.eventPath("/attendees"), nil, viewer)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var response struct {
		Attendees []AttendeeResponse
	}
	json.Unmarshal(resp.Body.Bytes(), &response)
	return response.Attendees
}

func (f *fixture) storedAttendance(userID uint) *models.Attendance {
	var a models.Attendance
	if err := f.db.Where("event_id = ? AND user_id = ?", f.event.ID, userID).First(&a).Error; err != nil {
		return nil
	}
	return &a
}

func TestListAttendeesVisibility(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusAttending)
	f.attend(t, f.cohost, models.AttendanceStatusWaitlist)
	f.attend(t, f.pending, models.AttendanceStatusPending)

	for _, viewer := range []*models.User{&f.organizer, &f.cohost} {
		if got := f.attendees(t, viewer); len(got) != 3 {
			t.Errorf("%s: expected all 3 attendees, got %d", viewer.Username, len(got))
		}
	}

	for name, viewer := range map[string]*models.User{"member": &f.member, "outsider": &f.outsider, "anonymous": nil} {
		got := f.attendees(t, viewer)
		if len(got) != 2 {
			t.Errorf("%s: expected 2 attendees, got %d", name, len(got))
		}
		for _, a := range got {
			if a.Attendance.Status == "pending" {
				t.Errorf("%s: pending attendee %d leaked", name, a.ID)
			}
		}
	}

	got := f.attendees(t, &f.organizer)
	if got[0].FirstName != "member" || got[0].Attendance.Status != "attending" {
		t.Errorf("Unexpected first attendee %+v", got[0])
	}

	expectError(t, f.do("GET", "/api/events/999/attendees", nil, nil), http.StatusNotFound, "Event couldn't be found")
}

func TestRequestAttendance(t *testing.T) {
	f := setup(t)
	before := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRequested))

	// A member with no attendance row gets a pending one
	resp := f.do("POST", f.eventPath("/attendance"), nil, &f.member)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		UserID uint   `json:"userId"`
		Status string `json:"status"`
	}
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body.UserID != f.member.ID || body.Status != "pending" {
		t.Errorf("Unexpected response %+v", body)
	}
	if a := f.storedAttendance(f.member.ID); a == nil || a.Status != models.AttendanceStatusPending {
		t.Errorf("Expected a pending attendance row, got %+v", a)
	}

	// A pending membership is still a membership
	if resp := f.do("POST", f.eventPath("/attendance"), nil, &f.pending); resp.Code != http.StatusOK {
		t.Errorf("Expected pending member to be allowed, got %d", resp.Code)
	}

	if got := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRequested)); got-before != 2 {
		t.Errorf("Expected 2 requested transitions, got %v", got-before)
	}
}

func TestRequestAttendanceWithoutMembership(t *testing.T) {
	f := setup(t)

	// Outsiders are refused and nothing is stored
	expectError(t, f.do("POST", f.eventPath("/attendance"), nil, &f.outsider), http.StatusForbidden, "Forbidden")
	if f.storedAttendance(f.outsider.ID) != nil {
		t.Error("Rejected request must not create an attendance")
	}

	expectError(t, f.do("POST", "/api/events/999/attendance", nil, &f.member), http.StatusNotFound, "Event couldn't be found")
}

func TestRequestAttendanceDuplicates(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusPending)
	f.attend(t, f.cohost, models.AttendanceStatusAttending)
	f.attend(t, f.organizer, models.AttendanceStatusWaitlist)

	cases := []struct {
		user *models.User
		want string
	}{
		{&f.member, "Attendance has already been requested"},
		{&f.cohost, "User is already an attendee of the event"},
		{&f.organizer, "Attendee already in attendance"},
	}
	for _, tc := range cases {
		expectError(t, f.do("POST", f.eventPath("/attendance"), nil, tc.user), http.StatusBadRequest, tc.want)
	}
}

func TestRequestAttendanceLostRace(t *testing.T) {
	f := setup(t)

	// Another request for the same member commits between the duplicate
	// check and the insert.
	inserted := false
	err := f.db.Callback().Create().Before("gorm:begin_transaction").Register("test:competing_attendance", func(tx *gorm.DB) {
		if inserted || tx.Statement.Table != "attendances" {
			return
		}
		inserted = true
		now := time.Now().UTC()
		if err := f.db.Exec("INSERT INTO attendances (event_id, user_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			f.event.ID, f.member.ID, models.AttendanceStatusAttending, now, now).Error; err != nil {
			t.Errorf("Failed to insert competing attendance: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}
	before := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRequested))

	resp := f.do("POST", f.eventPath("/attendance"), nil, &f.member)
	expectError(t, resp, http.StatusBadRequest, "User is already an attendee of the event")

	if !inserted {
		t.Fatal("Expected the competing insert to run")
	}
	if a := f.storedAttendance(f.member.ID); a == nil || a.Status != models.AttendanceStatusAttending {
		t.Errorf("Expected the first request's attending row to survive, got %+v", a)
	}
	if got := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRequested)); got != before {
		t.Errorf("Expected no request transition to be recorded, got %v more", got-before)
	}
}

func TestChangeAttendance(t *testing.T) {
	f := setup(t)
	pending := f.attend(t, f.member, models.AttendanceStatusPending)
	before := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionChangedToAttending))

	// A co-host accepts the pending request
	resp := f.do("PUT", f.eventPath("/attendance"), gin.H{"userId": f.member.ID, "status": "attending"}, &f.cohost)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body AttendanceResponse
	json.Unmarshal(resp.Body.Bytes(), &body)
	want := AttendanceResponse{ID: pending.ID, EventID: f.event.ID, UserID: f.member.ID, Status: "attending"}
	if body != want {
		t.Errorf("Expected %+v, got %+v", want, body)
	}
	if a := f.storedAttendance(f.member.ID); a.Status != models.AttendanceStatusAttending {
		t.Errorf("Expected stored status attending, got %s", a.Status)
	}

	// The organizer moves it to the waitlist
	resp = f.do("PUT", f.eventPath("/attendance"), gin.H{"userId": f.member.ID, "status": "waitlist"}, &f.organizer)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected organizer change to succeed, got %d", resp.Code)
	}

	if got := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionChangedToAttending)); got-before != 1 {
		t.Errorf("Expected 1 changed_to_attending transition, got %v", got-before)
	}
}

func TestChangeAttendanceRejectsPendingForEveryRole(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusAttending)

	for _, user := range []*models.User{&f.organizer, &f.cohost, &f.member, &f.outsider} {
		resp := f.do("PUT", f.eventPath("/attendance"), gin.H{"userId": f.member.ID, "status": "pending"}, user)
		expectError(t, resp, http.StatusBadRequest, "Bad Request")
		if msg := errorBody(resp).Errors["status"]; msg != "Cannot change an attendance status to pending" {
			t.Errorf("%s: unexpected status error %q", user.Username, msg)
		}
	}

	if a := f.storedAttendance(f.member.ID); a.Status != models.AttendanceStatusAttending {
		t.Errorf("Expected status to be unchanged, got %s", a.Status)
	}
}

func TestChangeAttendanceRejections(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusPending)
	path := f.eventPath("/attendance")

	// Members cannot approve themselves or anyone else
	expectError(t, f.do("PUT", path, gin.H{"userId": f.member.ID, "status": "attending"}, &f.member), http.StatusForbidden, "Forbidden")

	resp := f.do("PUT", path, gin.H{"userId": f.member.ID, "status": "Going"}, &f.organizer)
	expectError(t, resp, http.StatusBadRequest, "Bad Request")

	expectError(t, f.do("PUT", path, gin.H{"userId": 999, "status": "attending"}, &f.organizer), http.StatusNotFound, "User couldn't be found")

	expectError(t, f.do("PUT", path, gin.H{"userId": f.outsider.ID, "status": "attending"}, &f.organizer),
		http.StatusNotFound, "Attendance between the user and the event does not exist")
	if f.storedAttendance(f.outsider.ID) != nil {
		t.Error("Status change must not create an attendance")
	}

	expectError(t, f.do("PUT", "/api/events/999/attendance", gin.H{"userId": f.member.ID, "status": "attending"}, &f.organizer),
		http.StatusNotFound, "Event couldn't be found")
}

func TestRemoveAttendance(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusAttending)
	path := f.eventPath(fmt.Sprintf("/attendance/%d", f.member.ID))
	before := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRemoved))

	// Co-hosts may not remove other attendees
	expectError(t, f.do("DELETE", path, nil, &f.cohost), http.StatusForbidden, "Forbidden")
	expectError(t, f.do("DELETE", path, nil, &f.outsider), http.StatusForbidden, "Forbidden")

	// A member may remove their own attendance
	resp := f.do("DELETE", path, nil, &f.member)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Message string `json:"message"`
	}
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body.Message != "Successfully deleted attendance from event" {
		t.Errorf("Unexpected message %q", body.Message)
	}
	if f.storedAttendance(f.member.ID) != nil {
		t.Error("Expected attendance to be deleted")
	}

	// A second removal finds nothing to delete
	expectError(t, f.do("DELETE", path, nil, &f.member), http.StatusNotFound, "Attendance does not exist for this User")

	if got := testutil.ToFloat64(metrics.AttendanceTransitions.WithLabelValues(metrics.TransitionRemoved)); got-before != 1 {
		t.Errorf("Expected 1 removed transition, got %v", got-before)
	}

	// The user may ask to attend again
	if resp := f.do("POST", f.eventPath("/attendance"), nil, &f.member); resp.Code != http.StatusOK {
		t.Errorf("Expected re-request to succeed, got %d", resp.Code)
	}
}

func TestRemoveAttendanceByOrganizer(t *testing.T) {
	f := setup(t)
	f.attend(t, f.member, models.AttendanceStatusWaitlist)

	resp := f.do("DELETE", f.eventPath(fmt.Sprintf("/attendance/%d", f.member.ID)), nil, &f.organizer)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	expectError(t, f.do("DELETE", f.eventPath("/attendance/999"), nil, &f.organizer), http.StatusNotFound, "User couldn't be found")
	expectError(t, f.do("DELETE", f.eventPath(fmt.Sprintf("/attendance/%d", f.outsider.ID)), nil, &f.organizer),
		http.StatusNotFound, "Attendance does not exist for this User")
	expectError(t, f.do("DELETE", fmt.Sprintf("/api/events/999/attendance/%d", f.member.ID), nil, &f.organizer),
		http.StatusNotFound, "Event couldn't be found")
}
