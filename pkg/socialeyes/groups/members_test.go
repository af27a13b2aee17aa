package groups

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/gin-gonic/gin"
)

func listMembers(t *testing.T, router *gin.Engine, groupID uint, viewer *models.User) []MemberResponse {
	t.Helper()
	resp := doJSON(router, "GET", fmt.Sprintf("/api/groups/%d/members", groupID), nil, viewer)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var response struct {
		Members []MemberResponse
	}
	json.Unmarshal(resp.Body.Bytes(), &response)
	return response.Members
}

func TestListMembersHidesPendingFromNonStaff(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	organizer := createTestUser(t, db, "organizer")
	cohost := createTestUser(t, db, "cohost")
	member := createTestUser(t, db, "member")
	pending := createTestUser(t, db, "pending")
	group := createGroup(t, router, organizer)
	addMember(t, db, group.ID, cohost.ID, models.MembershipStatusCoHost)
	addMember(t, db, group.ID, member.ID, models.MembershipStatusMember)
	addMember(t, db, group.ID, pending.ID, models.MembershipStatusPending)

	for _, viewer := range []*models.User{&organizer, &cohost} {
		if got := listMembers(t, router, group.ID, viewer); len(got) != 4 {
			t.Errorf("%s: expected 4 members, got %d", viewer.Username, len(got))
		}
	}
	for name, viewer := range map[string]*models.User{"member": &member, "pending": &pending, "anonymous": nil} {
		got := listMembers(t, router, group.ID, viewer)
		if len(got) != 3 {
			t.Errorf("%s: expected 3 members, got %d", name, len(got))
		}
		for _, m := range got {
			if m.Membership.Status == "pending" {
				t.Errorf("%s: pending member %d leaked", name, m.ID)
			}
		}
	}
}

func TestRequestMembership(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	organizer := createTestUser(t, db, "organizer")
	joiner := createTestUser(t, db, "joiner")
	group := createGroup(t, router, organizer)
	path := fmt.Sprintf("/api/groups/%d/membership", group.ID)

	resp := doJSON(router, "POST", path, nil, &joiner)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		MemberID uint   `json:"memberId"`
		Status   string `json:"status"`
	}
	json.Unmarshal(resp.Body.Bytes(), &created)
	if created.MemberID != joiner.ID || created.Status != "pending" {
		t.Errorf("Unexpected response %+v", created)
	}

	resp = doJSON(router, "POST", path, nil, &joiner)
	if resp.Code != http.StatusBadRequest || errorBody(resp).Message != "Membership has already been requested" {
		t.Errorf("Expected duplicate request rejection, got %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "POST", path, nil, &organizer)
	if resp.Code != http.StatusBadRequest || errorBody(resp).Message != "User is already a member of the group" {
		t.Errorf("Expected already-member rejection, got %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "POST", "/api/groups/999/membership", nil, &joiner)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing group, got %d", resp.Code)
	}
}

func TestChangeMembership(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	organizer := createTestUser(t, db, "organizer")
	cohost := createTestUser(t, db, "cohost")
	member := createTestUser(t, db, "member")
	joiner := createTestUser(t, db, "joiner")
	group := createGroup(t, router, organizer)
	addMember(t, db, group.ID, cohost.ID, models.MembershipStatusCoHost)
	addMember(t, db, group.ID, member.ID, models.MembershipStatusMember)
	addMember(t, db, group.ID, joiner.ID, models.MembershipStatusPending)
	path := fmt.Sprintf("/api/groups/%d/membership", group.ID)

	// A plain member cannot approve anyone
	resp := doJSON(router, "PUT", path, gin.H{"memberId": joiner.ID, "status": "member"}, &member)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected member to be forbidden, got %d", resp.Code)
	}

	// A co-host approves the pending member
	resp = doJSON(router, "PUT", path, gin.H{"memberId": joiner.ID, "status": "member"}, &cohost)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var changed MembershipResponse
	json.Unmarshal(resp.Body.Bytes(), &changed)
	if changed.MemberID != joiner.ID || changed.Status != "member" || changed.GroupID != group.ID {
		t.Errorf("Unexpected response %+v", changed)
	}

	// Only the organizer grants co-host
	resp = doJSON(router, "PUT", path, gin.H{"memberId": joiner.ID, "status": "co-host"}, &cohost)
	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected co-host promotion by co-host to be forbidden, got %d", resp.Code)
	}
	resp = doJSON(router, "PUT", path, gin.H{"memberId": joiner.ID, "status": "co-host"}, &organizer)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected organizer promotion to succeed, got %d: %s", resp.Code, resp.Body.String())
	}

	// pending is never a target, even for the organizer
	resp = doJSON(router, "PUT", path, gin.H{"memberId": member.ID, "status": "pending"}, &organizer)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
	if msg := errorBody(resp).Errors["status"]; msg != "Cannot change a membership status to pending" {
		t.Errorf("Unexpected status error %q", msg)
	}
}

func TestChangeMembershipMissingRows(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	organizer := createTestUser(t, db, "organizer")
	outsider := createTestUser(t, db, "outsider")
	group := createGroup(t, router, organizer)
	path := fmt.Sprintf("/api/groups/%d/membership", group.ID)

	resp := doJSON(router, "PUT", path, gin.H{"memberId": 999, "status": "member"}, &organizer)
	if resp.Code != http.StatusNotFound || errorBody(resp).Message != "User couldn't be found" {
		t.Errorf("Expected missing user 404, got %d %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "PUT", path, gin.H{"memberId": outsider.ID, "status": "member"}, &organizer)
	if resp.Code != http.StatusNotFound || errorBody(resp).Message != "Membership between the user and the group does not exist" {
		t.Errorf("Expected missing membership 404, got %d %s", resp.Code, resp.Body.String())
	}

	var count int64
	db.Model(&models.Membership{}).Where("user_id = ?", outsider.ID).Count(&count)
	if count != 0 {
		t.Error("Status change must not create a membership")
	}
}

func TestRemoveMembership(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	organizer := createTestUser(t, db, "organizer")
	cohost := createTestUser(t, db, "cohost")
	member := createTestUser(t, db, "member")
	group := createGroup(t, router, organizer)
	addMember(t, db, group.ID, cohost.ID, models.MembershipStatusCoHost)
	addMember(t, db, group.ID, member.ID, models.MembershipStatusMember)
	memberPath := fmt.Sprintf("/api/groups/%d/membership/%d", group.ID, member.ID)

	if resp := doJSON(router, "DELETE", memberPath, nil, &cohost); resp.Code != http.StatusForbidden {
		t.Errorf("Expected co-host removal to be forbidden, got %d", resp.Code)
	}

	resp := doJSON(router, "DELETE", memberPath, nil, &member)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected self-removal to succeed, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "DELETE", memberPath, nil, &member)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected second removal to be 404, got %d", resp.Code)
	}

	// The member can ask to join again after leaving
	resp = doJSON(router, "POST", fmt.Sprintf("/api/groups/%d/membership", group.ID), nil, &member)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected re-request to succeed, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, "DELETE", fmt.Sprintf("/api/groups/%d/membership/%d", group.ID, cohost.ID), nil, &organizer)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected organizer to remove co-host, got %d", resp.Code)
	}

	resp = doJSON(router, "DELETE", fmt.Sprintf("/api/groups/%d/membership/999", group.ID), nil, &organizer)
	if resp.Code != http.StatusNotFound || errorBody(resp).Message != "User couldn't be found" {
		t.Errorf("Expected missing user 404, got %d %s", resp.Code, resp.Body.String())
	}
}
