package venues

import (
	"net/http"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/store"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles venue requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new venues handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// VenueRequest is the body for creating or replacing a venue
type VenueRequest struct {
	Address string   `json:"address" binding:"required"`
	City    string   `json:"city" binding:"required"`
	State   string   `json:"state" binding:"required"`
	Lat     *float64 `json:"lat" binding:"required,latitude"`
	Lng     *float64 `json:"lng" binding:"required,longitude"`
}

func (r VenueRequest) apply(v *models.Venue) {
	v.Address = r.Address
	v.City = r.City
	v.State = r.State
	v.Lat = *r.Lat
	v.Lng = *r.Lng
}

// staffGroup loads a group and checks that the current user is its organizer or a co-host
func (h *Handler) staffGroup(c *gin.Context, groupID uint) (*models.Group, bool) {
	userID, _ := auth.GetUserID(c)

	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	role, _, err := store.Role(h.db, *group, userID)
	if err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	if !role.IsStaff() {
		httpx.Abort(c, policy.Forbidden())
		return nil, false
	}
	return group, true
}

// List returns a group's venues (organizer or co-host)
// @Summary List a group's venues
// @Tags venues
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} map[string][]models.Venue
// @Security BearerAuth
// @Router /groups/{groupId}/venues [get]
func (h *Handler) List(c *gin.Context) {
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}
	group, ok := h.staffGroup(c, groupID)
	if !ok {
		return
	}

	var venues []models.Venue
	if err := h.db.Where("group_id = ?", group.ID).Order("id").Find(&venues).Error; err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Venues": venues})
}

// Create adds a venue to a group (organizer or co-host)
// @Summary Create a venue
// @Tags venues
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Param request body VenueRequest true "Venue"
// @Success 200 {object} models.Venue
// @Security BearerAuth
// @Router /groups/{groupId}/venues [post]
func (h *Handler) Create(c *gin.Context) {
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}
	group, ok := h.staffGroup(c, groupID)
	if !ok {
		return
	}

	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	venue := models.Venue{GroupID: group.ID}
	req.apply(&venue)
	if err := h.db.Create(&venue).Error; err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// Update replaces a venue's details (organizer or co-host of the venue's group)
// @Summary Update a venue
// @Tags venues
// @Accept json
// @Produce json
// @Param venueId path int true "Venue ID"
// @Param request body VenueRequest true "Venue"
// @Success 200 {object} models.Venue
// @Security BearerAuth
// @Router /venues/{venueId} [put]
func (h *Handler) Update(c *gin.Context) {
	venueID, ok := httpx.ParamID(c, "venueId", policy.MsgVenueNotFound)
	if !ok {
		return
	}
	venue, err := store.Venue(h.db, venueID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	if _, ok := h.staffGroup(c, venue.GroupID); !ok {
		return
	}

	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	req.apply(venue)
	if err := h.db.Save(venue).Error; err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// RegisterRoutes registers venue routes. All of them require authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/groups/:groupId/venues", h.List)
	rg.POST("/groups/:groupId/venues", h.Create)
	rg.PUT("/venues/:venueId", h.Update)
}
