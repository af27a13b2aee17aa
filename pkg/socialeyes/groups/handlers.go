package groups

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

// Handler handles group-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new groups handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GroupRequest is the body for creating or replacing a group
type GroupRequest struct {
	Name    string `json:"name" binding:"required,max=60"`
	About   string `json:"about" binding:"required,min=50"`
	Type    string `json:"type" binding:"required,oneof='In person' Online"`
	Private *bool  `json:"private" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
}

// ImageRequest is the body for attaching an image
type ImageRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Preview bool   `json:"preview"`
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID           uint      `json:"id"`
	OrganizerID  uint      `json:"organizerId"`
	Name         string    `json:"name"`
	About        string    `json:"about"`
	Type         string    `json:"type"`
	Private      bool      `json:"private"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	NumMembers   int64     `json:"numMembers"`
	PreviewImage *string   `json:"previewImage"`
}

// GroupDetailResponse is a group with its organizer, images and venues
type GroupDetailResponse struct {
	GroupResponse
	GroupImages []ImageResponse `json:"GroupImages"`
	Organizer   OrganizerInfo   `json:"Organizer"`
	Venues      []models.Venue  `json:"Venues"`
}

// OrganizerInfo is the public profile of a group's organizer
type OrganizerInfo struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ImageResponse represents an image in API responses
type ImageResponse struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

func toResponse(g models.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		OrganizerID: g.OrganizerID,
		Name:        g.Name,
		About:       g.About,
		Type:        string(g.Type),
		Private:     g.Private,
		City:        g.City,
		State:       g.State,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// summarize fills in member counts and preview images for a page of groups
func (h *Handler) summarize(groups []models.Group) ([]GroupResponse, error) {
	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}

	var counts []struct {
		GroupID uint
		Total   int64
	}
	if err := h.db.Model(&models.Membership{}).
		Select("group_id, COUNT(*) AS total").
		Where("group_id IN ? AND status <> ?", ids, models.MembershipStatusPending).
		Group("group_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	numMembers := make(map[uint]int64, len(counts))
	for _, c := range counts {
		numMembers[c.GroupID] = c.Total
	}

	var previews []models.GroupImage
	if err := h.db.Where("group_id IN ? AND preview = ?", ids, true).Order("id").Find(&previews).Error; err != nil {
		return nil, err
	}
	previewURL := make(map[uint]*string, len(previews))
	for i := range previews {
		if _, ok := previewURL[previews[i].GroupID]; !ok {
			previewURL[previews[i].GroupID] = &previews[i].URL
		}
	}

	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = toResponse(g)
		out[i].NumMembers = numMembers[g.ID]
		out[i].PreviewImage = previewURL[g.ID]
	}
	return out, nil
}

// List returns every group
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {object} map[string][]GroupResponse
// @Router /groups [get]
func (h *Handler) List(c *gin.Context) {
	var groups []models.Group
	if err := h.db.Order("id").Find(&groups).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	out, err := h.summarize(groups)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Groups": out})
}

// Current returns the groups the current user organizes or has joined
// @Summary List current user's groups
// @Tags groups
// @Produce json
// @Success 200 {object} map[string][]GroupResponse
// @Security BearerAuth
// @Router /groups/current [get]
func (h *Handler) Current(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	joined := h.db.Model(&models.Membership{}).
		Select("group_id").
		Where("user_id = ? AND status <> ?", userID, models.MembershipStatusPending)

	var groups []models.Group
	if err := h.db.Where("organizer_id = ? OR id IN (?)", userID, joined).Order("id").Find(&groups).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	out, err := h.summarize(groups)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Groups": out})
}

// Get returns a group with its organizer, images and venues
// @Summary Get a group
// @Tags groups
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} GroupDetailResponse
// @Failure 404 {object} httpx.ErrorResponse "Group couldn't be found"
// @Router /groups/{groupId} [get]
func (h *Handler) Get(c *gin.Context) {
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}

	group, err := store.Group(h.db.Preload("Organizer").Preload("GroupImages").Preload("Venues"), groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	summary, err := h.summarize([]models.Group{*group})
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	images := make([]ImageResponse, len(group.GroupImages))
	for i, img := range group.GroupImages {
		images[i] = ImageResponse{ID: img.ID, URL: img.URL, Preview: img.Preview}
	}
	venues := group.Venues
	if venues == nil {
		venues = []models.Venue{}
	}

	c.JSON(http.StatusOK, GroupDetailResponse{
		GroupResponse: summary[0],
		GroupImages:   images,
		Organizer: OrganizerInfo{
			ID:        group.Organizer.ID,
			FirstName: group.Organizer.FirstName,
			LastName:  group.Organizer.LastName,
		},
		Venues: venues,
	})
}

// Create creates a new group with the current user as organizer
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Param request body GroupRequest true "Group details"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} httpx.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /groups [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	group := models.Group{OrganizerID: userID}
	applyGroupRequest(&group, req)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		// The organizer is listed among the group's hosts
		return tx.Create(&models.Membership{
			GroupID: group.ID,
			UserID:  userID,
			Status:  models.MembershipStatusCoHost,
		}).Error
	})
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	httpx.Logger(c).Info("group created", "group_id", group.ID)
	c.JSON(http.StatusCreated, toResponse(group))
}

func applyGroupRequest(g *models.Group, req GroupRequest) {
	g.Name = req.Name
	g.About = req.About
	g.Type = models.GroupType(req.Type)
	g.Private = *req.Private
	g.City = req.City
	g.State = req.State
}

// organizerGroup loads a group and checks that the current user organizes it
func (h *Handler) organizerGroup(c *gin.Context) (*models.Group, bool) {
	userID, _ := auth.GetUserID(c)
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return nil, false
	}

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	if group.OrganizerID != userID {
		httpx.Abort(c, policy.Forbidden())
		return nil, false
	}
	return group, true
}

// Update replaces a group's details (organizer only)
// @Summary Update a group
// @Tags groups
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Param request body GroupRequest true "Updated group details"
// @Success 200 {object} GroupResponse
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /groups/{groupId} [put]
func (h *Handler) Update(c *gin.Context) {
	group, ok := h.organizerGroup(c)
	if !ok {
		return
	}

	var req GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	applyGroupRequest(group, req)
	if err := h.db.Save(group).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(*group))
}

// Delete deletes a group with its memberships, venues, events and images (organizer only)
// @Summary Delete a group
// @Tags groups
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} map[string]string "Successfully deleted"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /groups/{groupId} [delete]
func (h *Handler) Delete(c *gin.Context) {
	group, ok := h.organizerGroup(c)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		events := func() *gorm.DB {
			return tx.Model(&models.Event{}).Select("id").Where("group_id = ?", group.ID)
		}
		if err := tx.Where("event_id IN (?)", events()).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id IN (?)", events()).Delete(&models.EventImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.Venue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	httpx.Logger(c).Info("group deleted", "group_id", group.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
}

// AddImage attaches an image to a group (organizer only)
// @Summary Add an image to a group
// @Tags groups
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Param request body ImageRequest true "Image"
// @Success 200 {object} ImageResponse
// @Security BearerAuth
// @Router /groups/{groupId}/images [post]
func (h *Handler) AddImage(c *gin.Context) {
	group, ok := h.organizerGroup(c)
	if !ok {
		return
	}

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	image := models.GroupImage{GroupID: group.ID, URL: req.URL, Preview: req.Preview}
	if err := h.db.Create(&image).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ImageResponse{ID: image.ID, URL: image.URL, Preview: image.Preview})
}

// RegisterPublicRoutes registers the group reads that anonymous viewers may make.
// The router group should carry auth.OptionalAuth so staff see pending members.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:groupId", h.Get)
	rg.GET("/:groupId/members", h.ListMembers)
}

// RegisterRoutes registers the group routes that require authentication
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/current", h.Current)
	rg.POST("", h.Create)
	rg.PUT("/:groupId", h.Update)
	rg.DELETE("/:groupId", h.Delete)
	rg.POST("/:groupId/images", h.AddImage)
	h.RegisterMemberRoutes(rg)
}
