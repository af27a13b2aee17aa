package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/database"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

// setupTestRouter mounts the admin routes as the given admin
func setupTestRouter(db *gorm.DB, admin *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rg := r.Group("/admin", func(c *gin.Context) {
		auth.SetUser(c, admin.ID, admin.Email, string(admin.SystemRole))
	}, auth.RequireAdmin())
	NewHandler(db).RegisterRoutes(rg)
	return r
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.SystemRole) *models.User {
	hashedPassword, _ := auth.HashPassword("password123")
	user := &models.User{
		Email:        username + "@test.com",
		Username:     username,
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: hashedPassword,
		SystemRole:   role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func serve(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.SystemRoleAdmin)
	createTestUser(t, db, "john", models.SystemRoleUser)
	createTestUser(t, db, "jane", models.SystemRoleUser)
	r := setupTestRouter(db, admin)

	w := serve(r, "GET", "/admin/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Users []UserResponse
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(resp.Users) != 3 {
		t.Errorf("Expected 3 users, got %d", len(resp.Users))
	}

	w = serve(r, "GET", "/admin/users?q=john", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Users) != 1 || resp.Users[0].Username != "john" {
		t.Errorf("Expected only john to match search, got %+v", resp.Users)
	}

	w = serve(r, "GET", "/admin/users?role=admin", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Users) != 1 || resp.Users[0].ID != admin.ID {
		t.Errorf("Expected only the admin, got %+v", resp.Users)
	}
}

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.SystemRoleAdmin)
	user := createTestUser(t, db, "member", models.SystemRoleUser)
	r := setupTestRouter(db, admin)

	group := models.Group{OrganizerID: admin.ID, Name: "Readers", Type: models.GroupTypeOnline}
	db.Create(&group)
	db.Create(&models.Membership{GroupID: group.ID, UserID: user.ID, Status: models.MembershipStatusMember})
	event := models.Event{GroupID: group.ID, Name: "Book night", Type: models.EventTypeOnline, StartDate: time.Now().UTC().Add(time.Hour), EndDate: time.Now().UTC().Add(2 * time.Hour)}
	db.Create(&event)
	db.Create(&models.Attendance{EventID: event.ID, UserID: user.ID, Status: models.AttendanceStatusAttending})

	w := serve(r, "GET", fmt.Sprintf("/admin/users/%d", user.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp UserResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Email != user.Email {
		t.Errorf("Expected email %s, got %s", user.Email, resp.Email)
	}
	if resp.GroupCount != 1 || resp.AttendanceCount != 1 {
		t.Errorf("Expected 1 group and 1 attendance, got %d and %d", resp.GroupCount, resp.AttendanceCount)
	}

	if w := serve(r, "GET", "/admin/users/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.SystemRoleAdmin)
	user := createTestUser(t, db, "member", models.SystemRoleUser)
	r := setupTestRouter(db, admin)

	w := serve(r, "PUT", fmt.Sprintf("/admin/users/%d", user.ID), UpdateUserRequest{SystemRole: "admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.User
	db.First(&stored, user.ID)
	if stored.SystemRole != models.SystemRoleAdmin {
		t.Errorf("Expected role admin, got %s", stored.SystemRole)
	}

	if w := serve(r, "PUT", fmt.Sprintf("/admin/users/%d", user.ID), UpdateUserRequest{SystemRole: "owner"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown role, got %d", w.Code)
	}
}

func TestUpdateUserCannotDemoteSelf(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.SystemRoleAdmin)
	r := setupTestRouter(db, admin)

	w := serve(r, "PUT", fmt.Sprintf("/admin/users/%d", admin.ID), UpdateUserRequest{SystemRole: "user"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", models.SystemRoleAdmin)
	a := createTestUser(t, db, "alice", models.SystemRoleUser)
	b := createTestUser(t, db, "bob", models.SystemRoleUser)
	r := setupTestRouter(db, admin)

	group := models.Group{OrganizerID: admin.ID, Name: "Climbers", Type: models.GroupTypeInPerson}
	db.Create(&group)
	upcoming := models.Event{GroupID: group.ID, Name: "Bouldering", Type: models.EventTypeInPerson, StartDate: time.Now().UTC().Add(time.Hour), EndDate: time.Now().UTC().Add(2 * time.Hour)}
	past := models.Event{GroupID: group.ID, Name: "Top rope", Type: models.EventTypeInPerson, StartDate: time.Now().UTC().Add(-2 * time.Hour), EndDate: time.Now().UTC().Add(-time.Hour)}
	db.Create(&upcoming)
	db.Create(&past)
	db.Create(&models.Attendance{EventID: upcoming.ID, UserID: a.ID, Status: models.AttendanceStatusAttending})
	db.Create(&models.Attendance{EventID: upcoming.ID, UserID: b.ID, Status: models.AttendanceStatusPending})
	db.Create(&models.Attendance{EventID: past.ID, UserID: a.ID, Status: models.AttendanceStatusAttending})

	w := serve(r, "GET", "/admin/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats StatsResponse
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalUsers != 3 || stats.AdminUsers != 1 {
		t.Errorf("Expected 3 users and 1 admin, got %d and %d", stats.TotalUsers, stats.AdminUsers)
	}
	if stats.TotalGroups != 1 || stats.TotalEvents != 2 || stats.UpcomingEvents != 1 {
		t.Errorf("Unexpected group/event counts %+v", stats)
	}
	want := map[string]int64{"pending": 1, "waitlist": 0, "attending": 2}
	for status, n := range want {
		if stats.Attendances[status] != n {
			t.Errorf("Expected %d %s attendances, got %d", n, status, stats.Attendances[status])
		}
	}
}

func TestRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "member", models.SystemRoleUser)
	r := setupTestRouter(db, user)

	if w := serve(r, "GET", "/admin/stats", nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}
