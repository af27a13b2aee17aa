package admin

import (
	"net/http"
	"time"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles admin requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new admin handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	SystemRole      string `json:"systemRole"`
	CreatedAt       string `json:"createdAt"`
	GroupCount      int64  `json:"groupCount"`
	AttendanceCount int64  `json:"attendanceCount"`
}

// UpdateUserRequest changes a user's system role
type UpdateUserRequest struct {
	SystemRole string `json:"systemRole" binding:"required,oneof=admin user"`
}

// StatsResponse represents system statistics
type StatsResponse struct {
	TotalUsers     int64            `json:"totalUsers"`
	AdminUsers     int64            `json:"adminUsers"`
	TotalGroups    int64            `json:"totalGroups"`
	TotalEvents    int64            `json:"totalEvents"`
	UpcomingEvents int64            `json:"upcomingEvents"`
	ActiveAPIKeys  int64            `json:"activeApiKeys"`
	Attendances    map[string]int64 `json:"attendances"`
}

func (h *Handler) toResponse(user models.User) UserResponse {
	var groupCount, attendanceCount int64
	h.db.Model(&models.Membership{}).Where("user_id = ?", user.ID).Count(&groupCount)
	h.db.Model(&models.Attendance{}).Where("user_id = ?", user.ID).Count(&attendanceCount)

	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		SystemRole:      string(user.SystemRole),
		CreatedAt:       user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		GroupCount:      groupCount,
		AttendanceCount: attendanceCount,
	}
}

// ListUsers returns all users (admin only)
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User

	query := h.db.Order("created_at DESC, id DESC")

	// Optional search by email or username
	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR username LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("system_role = ?", role)
	}

	if err := query.Find(&users).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = h.toResponse(user)
	}
	c.JSON(http.StatusOK, gin.H{"Users": responses})
}

// GetUser returns a single user by ID (admin only)
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := httpx.ParamID(c, "userId", policy.MsgUserNotFound)
	if !ok {
		return
	}
	user, err := store.User(h.db, id)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*user))
}

// UpdateUser changes a user's system role (admin only)
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := httpx.ParamID(c, "userId", policy.MsgUserNotFound)
	if !ok {
		return
	}
	user, err := store.User(h.db, id)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	currentUserID, _ := auth.GetUserID(c)
	if user.ID == currentUserID && req.SystemRole != string(models.SystemRoleAdmin) {
		httpx.Error(c, http.StatusBadRequest, "Cannot demote yourself")
		return
	}

	if err := h.db.Model(user).Update("system_role", req.SystemRole).Error; err != nil {
		httpx.Abort(c, err)
		return
	}
	user.SystemRole = models.SystemRole(req.SystemRole)

	httpx.Logger(c).Info("system role changed", "target_user_id", user.ID, "system_role", req.SystemRole)
	c.JSON(http.StatusOK, h.toResponse(*user))
}

// GetStats returns system-wide statistics (admin only)
func (h *Handler) GetStats(c *gin.Context) {
	stats := StatsResponse{Attendances: map[string]int64{}}

	h.db.Model(&models.User{}).Count(&stats.TotalUsers)
	h.db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&stats.AdminUsers)
	h.db.Model(&models.Group{}).Count(&stats.TotalGroups)
	h.db.Model(&models.Event{}).Count(&stats.TotalEvents)
	h.db.Model(&models.Event{}).Where("start_date > ?", time.Now().UTC()).Count(&stats.UpcomingEvents)
	h.db.Model(&models.APIKey{}).Count(&stats.ActiveAPIKeys)

	for _, status := range []models.AttendanceStatus{
		models.AttendanceStatusPending,
		models.AttendanceStatusWaitlist,
		models.AttendanceStatusAttending,
	} {
		stats.Attendances[string(status)] = 0
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err := h.db.Model(&models.Attendance{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	for _, row := range rows {
		stats.Attendances[row.Status] = row.Count
	}

	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.GetStats)
	rg.GET("/users", h.ListUsers)
	rg.GET("/users/:userId", h.GetUser)
	rg.PUT("/users/:userId", h.UpdateUser)
}
