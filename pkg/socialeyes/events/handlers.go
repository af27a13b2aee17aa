package events

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

const (
	defaultPage = 1
	defaultSize = 20
)

// Handler handles event and attendance requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new events handler
func NewHandler(db *gorm.DB) *Handler {
	registerValidators()
	return &Handler{db: db}
}

// ListQuery holds the filters accepted by the event listings
type ListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1,max=10"`
	Size      int    `form:"size" binding:"omitempty,min=1,max=20"`
	Name      string `form:"name"`
	Type      string `form:"type" binding:"omitempty,oneof=Online 'In person'"`
	StartDate string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
}

// EventRequest is the body for creating or editing an event. Its fields are
// the only ones an edit may change.
type EventRequest struct {
	VenueID     *uint     `json:"venueId"`
	Name        string    `json:"name" binding:"required,min=5"`
	Type        string    `json:"type" binding:"required,oneof=Online 'In person'"`
	Capacity    *int      `json:"capacity" binding:"required,min=0"`
	Price       *float64  `json:"price" binding:"required,min=0"`
	Description string    `json:"description" binding:"required"`
	StartDate   time.Time `json:"startDate" binding:"required,future"`
	EndDate     time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
}

// apply copies the request onto e. Dates are stored in UTC; the startDate
// filter depends on it.
func (r EventRequest) apply(e *models.Event) {
	e.VenueID = r.VenueID
	e.Name = r.Name
	e.Type = models.EventType(r.Type)
	e.Capacity = *r.Capacity
	e.Price = *r.Price
	e.Description = r.Description
	e.StartDate = r.StartDate.UTC()
	e.EndDate = r.EndDate.UTC()
}

// ImageRequest is the body for attaching an image
type ImageRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Preview bool   `json:"preview"`
}

// ImageResponse represents an image in API responses
type ImageResponse struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

// GroupSummary is the group embedded in event responses
type GroupSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// VenueSummary is the venue embedded in event responses
type VenueSummary struct {
	ID      uint    `json:"id"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID           uint          `json:"id"`
	GroupID      uint          `json:"groupId"`
	VenueID      *uint         `json:"venueId"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	StartDate    time.Time     `json:"startDate"`
	EndDate      time.Time     `json:"endDate"`
	NumAttending int64         `json:"numAttending"`
	PreviewImage *string       `json:"previewImage"`
	Group        GroupSummary  `json:"Group"`
	Venue        *VenueSummary `json:"Venue"`
}

// EventDetailResponse is an event with its description, pricing and images
type EventDetailResponse struct {
	EventResponse
	Description string          `json:"description"`
	Capacity    int             `json:"capacity"`
	Price       float64         `json:"price"`
	EventImages []ImageResponse `json:"EventImages"`
}

func toResponse(e models.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		GroupID:   e.GroupID,
		VenueID:   e.VenueID,
		Name:      e.Name,
		Type:      string(e.Type),
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Group: GroupSummary{
			ID:      e.Group.ID,
			Name:    e.Group.Name,
			Private: e.Group.Private,
			City:    e.Group.City,
			State:   e.Group.State,
		},
	}
	if e.Venue != nil {
		resp.Venue = &VenueSummary{
			ID:      e.Venue.ID,
			Address: e.Venue.Address,
			City:    e.Venue.City,
			State:   e.Venue.State,
			Lat:     e.Venue.Lat,
			Lng:     e.Venue.Lng,
		}
	}
	return resp
}

func toDetail(e models.Event) EventDetailResponse {
	images := make([]ImageResponse, len(e.EventImages))
	for i, img := range e.EventImages {
		images[i] = ImageResponse{ID: img.ID, URL: img.URL, Preview: img.Preview}
	}
	return EventDetailResponse{
		EventResponse: toResponse(e),
		Description:   e.Description,
		Capacity:      e.Capacity,
		Price:         e.Price,
		EventImages:   images,
	}
}

// summarize fills in attendance counts and preview images for a page of events
func (h *Handler) summarize(events []models.Event) ([]EventResponse, error) {
	ids := make([]uint, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	var counts []struct {
		EventID uint
		Total   int64
	}
	if err := h.db.Model(&models.Attendance{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ? AND status = ?", ids, models.AttendanceStatusAttending).
		Group("event_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	attending := make(map[uint]int64, len(counts))
	for _, c := range counts {
		attending[c.EventID] = c.Total
	}

	var previews []models.EventImage
	if err := h.db.Where("event_id IN ? AND preview = ?", ids, true).Order("id").Find(&previews).Error; err != nil {
		return nil, err
	}
	previewURL := make(map[uint]*string, len(previews))
	for i := range previews {
		if _, ok := previewURL[previews[i].EventID]; !ok {
			previewURL[previews[i].EventID] = &previews[i].URL
		}
	}

	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = toResponse(e)
		out[i].NumAttending = attending[e.ID]
		out[i].PreviewImage = previewURL[e.ID]
	}
	return out, nil
}

// list runs a filtered, paginated event query and renders it
func (h *Handler) list(c *gin.Context, scope *gorm.DB) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpx.BindError(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Size == 0 {
		q.Size = defaultSize
	}

	if q.Name != "" {
		scope = scope.Where("events.name LIKE ?", "%"+q.Name+"%")
	}
	if q.Type != "" {
		scope = scope.Where("events.type = ?", q.Type)
	}
	if q.StartDate != "" {
		day, err := time.Parse("2006-01-02", q.StartDate)
		if err != nil {
			httpx.Abort(c, policy.FieldError("startDate", "Start date must be a valid datetime"))
			return
		}
		scope = scope.Where("events.start_date >= ? AND events.start_date < ?", day, day.AddDate(0, 0, 1))
	}

	var events []models.Event
	err := scope.Preload("Group").Preload("Venue").
		Order("events.start_date").Order("events.id").
		Offset((q.Page - 1) * q.Size).Limit(q.Size).
		Find(&events).Error
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	out, err := h.summarize(events)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Events": out, "page": q.Page, "size": q.Size})
}

// List returns events across all groups
// @Summary List events
// @Tags events
// @Produce json
// @Param page query int false "Page (1-10)"
// @Param size query int false "Page size (1-20)"
// @Param name query string false "Name contains"
// @Param type query string false "Online or In person"
// @Param startDate query string false "Starts on (YYYY-MM-DD)"
// @Success 200 {object} map[string][]EventResponse
// @Router /events [get]
func (h *Handler) List(c *gin.Context) {
	h.list(c, h.db.Model(&models.Event{}))
}

// ListForGroup returns a group's events
// @Summary List a group's events
// @Tags events
// @Produce json
// @Param groupId path int true "Group ID"
// @Success 200 {object} map[string][]EventResponse
// @Failure 404 {object} httpx.ErrorResponse "Group couldn't be found"
// @Router /groups/{groupId}/events [get]
func (h *Handler) ListForGroup(c *gin.Context) {
	groupID, ok := httpx.ParamID(c, "groupId", policy.MsgGroupNotFound)
	if !ok {
		return
	}
	group, err := store.Group(h.db, groupID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	h.list(c, h.db.Model(&models.Event{}).Where("events.group_id = ?", group.ID))
}

// Get returns an event's details
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventId path int true "Event ID"
// @Success 200 {object} EventDetailResponse
// @Failure 404 {object} httpx.ErrorResponse "Event couldn't be found"
// @Router /events/{eventId} [get]
func (h *Handler) Get(c *gin.Context) {
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	detail, err := h.detail(eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// detail loads an event with everything its detail response shows
func (h *Handler) detail(eventID uint) (*EventDetailResponse, error) {
	event, err := store.Event(h.db.Preload("Group").Preload("Venue").Preload("EventImages"), eventID)
	if err != nil {
		return nil, err
	}
	summary, err := h.summarize([]models.Event{*event})
	if err != nil {
		return nil, err
	}
	detail := toDetail(*event)
	detail.NumAttending = summary[0].NumAttending
	detail.PreviewImage = summary[0].PreviewImage
	return &detail, nil
}

// checkVenue verifies that a requested venue belongs to the event's group
func (h *Handler) checkVenue(venueID *uint, groupID uint) error {
	if venueID == nil {
		return nil
	}
	venue, err := store.Venue(h.db, *venueID)
	if err != nil {
		return err
	}
	if venue.GroupID != groupID {
		return policy.NotFound(policy.MsgVenueNotFound)
	}
	return nil
}

// Create creates an event under a group (organizer or co-host)
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param groupId path int true "Group ID"
// @Param request body EventRequest true "Event"
// @Success 201 {object} EventDetailResponse
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /groups/{groupId}/events [post]
func (h *Handler) Create(c *gin.Context) {
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
	membership, err := store.Membership(h.db, group.ID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	if err := policy.AuthorizeEventChange(userID, *group, membership); err != nil {
		httpx.Abort(c, err)
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	if err := h.checkVenue(req.VenueID, group.ID); err != nil {
		httpx.Abort(c, err)
		return
	}

	event := models.Event{GroupID: group.ID}
	req.apply(&event)
	if err := h.db.Create(&event).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	detail, err := h.detail(event.ID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	httpx.Logger(c).Info("event created", "event_id", event.ID, "group_id", group.ID)
	c.JSON(http.StatusCreated, detail)
}

// authorizeChange loads an event and checks that the current user may change it
func (h *Handler) authorizeChange(c *gin.Context) (*models.Event, bool) {
	userID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return nil, false
	}

	event, err := store.EventWithGroup(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	membership, err := store.Membership(h.db, event.GroupID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	if err := policy.AuthorizeEventChange(userID, event.Group, membership); err != nil {
		httpx.Abort(c, err)
		return nil, false
	}
	return event, true
}

// Update edits an event (organizer or co-host). Only the fields of
// EventRequest are written.
// @Summary Edit an event
// @Tags events
// @Accept json
// @Produce json
// @Param eventId path int true "Event ID"
// @Param request body EventRequest true "Event"
// @Success 200 {object} EventDetailResponse
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Failure 404 {object} httpx.ErrorResponse "Event couldn't be found"
// @Security BearerAuth
// @Router /events/{eventId} [put]
func (h *Handler) Update(c *gin.Context) {
	event, ok := h.authorizeChange(c)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	if err := h.checkVenue(req.VenueID, event.GroupID); err != nil {
		httpx.Abort(c, err)
		return
	}

	var changes models.Event
	req.apply(&changes)
	err := h.db.Model(&models.Event{ID: event.ID}).Select(
		"VenueID", "Name", "Type", "Capacity", "Price", "Description", "StartDate", "EndDate",
	).Updates(&changes).Error
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	detail, err := h.detail(event.ID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Delete deletes an event with its attendances and images (organizer or co-host)
// @Summary Delete an event
// @Tags events
// @Produce json
// @Param eventId path int true "Event ID"
// @Success 200 {object} map[string]string "Successfully deleted"
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /events/{eventId} [delete]
func (h *Handler) Delete(c *gin.Context) {
	event, ok := h.authorizeChange(c)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, event.ID).Error
	})
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	httpx.Logger(c).Info("event deleted", "event_id", event.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
}

// AddImage attaches an image to an event. Organizers, co-hosts and
// accepted attendees may add images.
// @Summary Add an image to an event
// @Tags events
// @Accept json
// @Produce json
// @Param eventId path int true "Event ID"
// @Param request body ImageRequest true "Image"
// @Success 200 {object} ImageResponse
// @Failure 403 {object} httpx.ErrorResponse "Forbidden"
// @Security BearerAuth
// @Router /events/{eventId}/images [post]
func (h *Handler) AddImage(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	eventID, ok := httpx.ParamID(c, "eventId", policy.MsgEventNotFound)
	if !ok {
		return
	}

	event, err := store.EventWithGroup(h.db, eventID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	membership, err := store.Membership(h.db, event.GroupID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	attendance, err := store.Attendance(h.db, event.ID, userID)
	if err != nil {
		httpx.Abort(c, err)
		return
	}
	if err := policy.AuthorizeImageUpload(userID, event.Group, membership, attendance); err != nil {
		httpx.Abort(c, err)
		return
	}

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	image := models.EventImage{EventID: event.ID, URL: req.URL, Preview: req.Preview}
	if err := h.db.Create(&image).Error; err != nil {
		httpx.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ImageResponse{ID: image.ID, URL: image.URL, Preview: image.Preview})
}

// RegisterPublicRoutes registers the event reads that anonymous viewers may
// make. The router group should carry auth.OptionalAuth so staff see
// pending attendees.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.List)
	rg.GET("/events/:eventId", h.Get)
	rg.GET("/events/:eventId/attendees", h.ListAttendees)
	rg.GET("/groups/:groupId/events", h.ListForGroup)
}

// RegisterRoutes registers the event routes that require authentication
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/groups/:groupId/events", h.Create)
	rg.PUT("/events/:eventId", h.Update)
	rg.DELETE("/events/:eventId", h.Delete)
	rg.POST("/events/:eventId/images", h.AddImage)
	rg.POST("/events/:eventId/attendance", h.RequestAttendance)
	rg.PUT("/events/:eventId/attendance", h.ChangeAttendance)
	rg.DELETE("/events/:eventId/attendance/:userId", h.RemoveAttendance)
}
