package store

import (
	"testing"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/database"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestMissingSubjectsAreNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, eventErr := Event(db, 99)
	_, groupErr := Group(db, 99)
	_, venueErr := Venue(db, 99)
	_, userErr := User(db, 99)

	cases := map[string]struct {
		err  error
		want string
	}{
		"event": {err: eventErr, want: policy.MsgEventNotFound},
		"group": {err: groupErr, want: policy.MsgGroupNotFound},
		"venue": {err: venueErr, want: policy.MsgVenueNotFound},
		"user":  {err: userErr, want: policy.MsgUserNotFound},
	}
	for name, tc := range cases {
		if !policy.IsKind(tc.err, policy.KindNotFound) || tc.err.Error() != tc.want {
			t.Errorf("%s: expected NotFound %q, got %v", name, tc.want, tc.err)
		}
	}
}

func TestOptionalRelations(t *testing.T) {
	db := setupTestDB(t)

	organizer := models.User{Email: "org@example.com", Username: "organizer", FirstName: "O", LastName: "Rg", PasswordHash: "x"}
	db.Create(&organizer)
	member := models.User{Email: "mem@example.com", Username: "member", FirstName: "M", LastName: "Em", PasswordHash: "x"}
	db.Create(&member)
	group := models.Group{OrganizerID: organizer.ID, Name: "Hikers", Type: models.GroupTypeInPerson}
	db.Create(&group)
	db.Create(&models.Membership{GroupID: group.ID, UserID: member.ID, Status: models.MembershipStatusMember})

	m, err := Membership(db, group.ID, member.ID)
	if err != nil || m == nil || m.Status != models.MembershipStatusMember {
		t.Fatalf("Expected member row, got %+v, %v", m, err)
	}
	if m, err := Membership(db, group.ID, organizer.ID); err != nil || m != nil {
		t.Errorf("Expected no row for organizer, got %+v, %v", m, err)
	}
	if a, err := Attendance(db, 1, member.ID); err != nil || a != nil {
		t.Errorf("Expected no attendance, got %+v, %v", a, err)
	}

	role, _, err := Role(db, group, member.ID)
	if err != nil || role != policy.RoleMember {
		t.Errorf("Expected member role, got %s, %v", role, err)
	}
	role, _, _ = Role(db, group, organizer.ID)
	if role != policy.RoleOrganizer {
		t.Errorf("Expected organizer role, got %s", role)
	}
	role, _, _ = Role(db, group, 0)
	if role != policy.RoleNonMember {
		t.Errorf("Expected anonymous viewer to be a non-member, got %s", role)
	}
}

func TestEventWithGroup(t *testing.T) {
	db := setupTestDB(t)
	group := models.Group{OrganizerID: 1, Name: "Hikers", Type: models.GroupTypeInPerson}
	db.Create(&group)
	event := models.Event{GroupID: group.ID, Name: "Ridge walk", Type: models.EventTypeInPerson}
	db.Create(&event)

	loaded, err := EventWithGroup(db, event.ID)
	if err != nil {
		t.Fatalf("EventWithGroup failed: %v", err)
	}
	if loaded.Group.OrganizerID != 1 {
		t.Errorf("Expected group to be preloaded, got %+v", loaded.Group)
	}
}
