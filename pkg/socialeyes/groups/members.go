package groups

import (
	"errors"
	"net/http"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MemberResponse represents a group member in API responses
type MemberResponse struct {
	ID         uint           `json:"id"`
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Membership MembershipInfo `json:"Membership"`
}

// MembershipInfo is the membership part of a member listing row
type MembershipInfo struct {
	Status string `json:"status"`
}

// ChangeMembershipRequest represents a request to change a member's status
type ChangeMembershipRequest struct {
	MemberID uint   `json:"memberId" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// MembershipResponse echoes a membership row after a change
type MembershipResponse struct {
	ID       uint   `json:"id"`
	GroupID  uint   `json:"groupId"`
	MemberID uint   `json:"memberId"`
	Status   string `json:"status"`
}

// ListMembers returns a group's members. Pending requests are only listed
// for the group's organizer and co-hosts.
// @Summary List a group's members
// @Tags memberships
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} map[string][]MemberResponse
// @Failure 404 {object} httpx.ErrorResponse "Group couldn't be found"
// @Router /groups/{groupId}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	viewerID, _ := auth.GetUserID(c)
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	role, _, err := store.Role(h.db, *group, viewerID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	var memberships []models.Membership
	if err := h.db.Preload("User").Where("group_id = ?", group.ID).Order("id").Find(&memberships).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	visible := policy.VisibleMembers(role, memberships)
	members := make([]MemberResponse, len(visible))
	for i, m := range visible {
		members[i] = MemberResponse{
			ID:         m.User.ID,
			FirstName:  m.User.FirstName,
			LastName:   m.User.LastName,
			Membership: MembershipInfo{Status: string(m.Status)},
		}
	}

	c.JSON(http.StatusOK, gin.H{"Members": members})
}

// RequestMembership asks to join a group on behalf of the current user
// @Summary Request to join a group
// @Tags memberships
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} map[string]interface{} "memberId and status"
// @Failure 400 {object} httpx.ErrorResponse "Duplicate request"
// @Security BearerAuth
// @Router /groups/{groupId}/membership [post]
func (h *Handler) RequestMembership(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	existing, err := store.Membership(h.db, group.ID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	status, err := policy.RequestMembership(existing)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	membership := models.Membership{GroupID: group.ID, UserID: userID, Status: status}
	if err := h.db.Create(&membership).Error; err != nil {
		// A concurrent request for the same pair won the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if winner, lookupErr := store.Membership(h.db, group.ID, userID); lookupErr == nil && winner != nil {
				httpx.Abort(c, policy.DuplicateMembership(winner.Status))
				return
			}
			httpx.Abort(c, policy.DuplicateMembership(models.MembershipStatusPending))
			return
		}
		httpx.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"memberId": userID, "status": membership.Status})
}

// ChangeMembership approves a pending member or promotes a member to co-host
// @Summary Change a membership status
// @Tags memberships
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Param request body ChangeMembershipRequest true "Member and status"
// @Success 200 {object} MembershipResponse
// @Failure 400 {object} httpx.ErrorResponse "Cannot change a membership status to pending"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /groups/{groupId}/membership [put]
func (h *Handler) ChangeMembership(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}

	var req ChangeMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	role, _, err := store.Role(h.db, *group, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	target := models.MembershipStatus(req.Status)
	if err := policy.ChangeMembershipStatus(role, target); err != nil {
		httpx.Abort(c, err)
		return
	}
	if _, err := store.User(h.db, req.MemberID); err != nil {
		httpx.Abort(c, err)
		return
	}

	result := h.db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", group.ID, req.MemberID).
		Update("status", target)
	if result.Error != nil {
		httpx.Abort(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		httpx.Abort(c, policy.NotFound(policy.MsgMembershipNotFound))
		return
	}

	membership, err := store.Membership(h.db, group.ID, req.MemberID)
	if err != nil || membership == nil {
		httpx.Abort(c, policy.NotFound(policy.MsgMembershipNotFound))
		return
	}

	httpx.Logger(c).Info("membership changed", "group_id", group.ID, "member_id", req.MemberID, "status", target)
	c.JSON(http.StatusOK, MembershipResponse{
		ID:       membership.ID,
		GroupID:  membership.GroupID,
		MemberID: membership.UserID,
		Status:   string(membership.Status),
	})
}

// RemoveMembership deletes a membership. The organizer may remove anyone;
// members may remove themselves.
// @Summary Delete a membership
// @Tags memberships
// @Produce json
// @Param groupId path int true "Group ID"
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]string "Successfully deleted membership from group"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /groups/{groupId}/membership/{userId} [delete]
func (h *Handler) RemoveMembership(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}
	memberID, ok := httpx.ParamID(c, "userId", policy.MsgUserNotFound)
	if !ok {
		return
	}

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	if _, err := store.User(h.db, memberID); err != nil {
		httpx.Abort(c, err)
		return
	}
	if err := policy.AuthorizeMembershipRemoval(userID, *group, memberID); err != nil {
		httpx.Abort(c, err)
		return
	}

	result := h.db.Where("group_id = ? AND user_id = ?", group.ID, memberID).Delete(&models.Membership{})
	if result.Error != nil {
		httpx.Abort(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		httpx.Abort(c, policy.NotFound(policy.MsgMembershipNotFound))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted membership from group"})
}

// RegisterMemberRoutes registers the membership routes that require authentication
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.POST("/:groupId/membership", h.RequestMembership)
	rg.PUT("/:groupId/membership", h.ChangeMembership)
	rg.DELETE("/:groupId/membership/:userId", h.RemoveMembership)
}
