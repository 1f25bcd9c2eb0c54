package activity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/findone/findone-backend/internal/auth"
	"github.com/findone/findone-backend/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) (Actor, bool) {
	val, exists := c.Get("user")
	if !exists {
		return Actor{}, false
	}
	user, ok := val.(auth.User)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: user.ID, Email: user.Email, Name: user.FullName(), Avatar: user.Avatar}, true
}

func respondError(c *gin.Context, err error) {
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, ErrActivityNotFound), errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotOrganizer), errors.Is(err, ErrNotRequester):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyRequested), errors.Is(err, ErrAlreadyParticipant),
		errors.Is(err, ErrNoSpots), errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrActivityCompleted), errors.Is(err, ErrRequestNotPending),
		errors.Is(err, ErrSelfJoin), errors.Is(err, ErrNotParticipant):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func activityID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
		return 0, false
	}
	return uint(id), true
}

// Create handles POST /activities
func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var input CreateActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor, input, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List handles GET /activities with optional filters:
// category, completed, search, lat, lng, sort=nearest.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Nearest:  c.Query("sort") == "nearest",
	}

	if v := c.Query("completed"); v != "" {
		completed := v == "true"
		filter.Completed = &completed
	}
	if latStr, lngStr := c.Query("lat"), c.Query("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		filter.Lat = &lat
		filter.Lng = &lng
	}

	activities, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// Get handles GET /activities/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RequestToJoin handles POST /activities/:id/requests
func (h *Handler) RequestToJoin(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	req, err := h.service.RequestToJoin(c.Request.Context(), id, actor, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("requestId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return uint(id), true
}

// Approve handles POST /activities/:id/requests/:requestId/approve
func (h *Handler) Approve(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}
	reqID, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.service.Approve(c.Request.Context(), id, reqID, actor, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Reject handles POST /activities/:id/requests/:requestId/reject
func (h *Handler) Reject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}
	reqID, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.service.Reject(c.Request.Context(), id, reqID, actor, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Withdraw handles DELETE /activities/:id/requests/mine
func (h *Handler) Withdraw(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), id, actor, middleware.GetIPFromContext(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request withdrawn"})
}

// Revoke handles DELETE /activities/:id/requests/:requestId
func (h *Handler) Revoke(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}
	reqID, ok := requestID(c)
	if !ok {
		return
	}

	if err := h.service.Revoke(c.Request.Context(), id, reqID, actor, middleware.GetIPFromContext(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request revoked"})
}

// Complete handles POST /activities/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	a, err := h.service.Complete(c.Request.Context(), id, actor, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// MarkAttendance handles POST /activities/:id/attendance
func (h *Handler) MarkAttendance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	var input MarkAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.service.MarkAttendance(c.Request.Context(), id, actor, input, middleware.GetIPFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Attendance handles GET /activities/:id/attendance
func (h *Handler) Attendance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	recs, err := h.service.Attendance(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendance": recs})
}

// PendingRequests handles GET /activities/:id/requests
func (h *Handler) PendingRequests(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	requests, err := h.service.PendingRequests(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// RequestStatus handles GET /activities/:id/requests/status
func (h *Handler) RequestStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	status, err := h.service.RequestStatusFor(c.Request.Context(), id, actor.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch request status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// AvailableSpots handles GET /activities/:id/spots
func (h *Handler) AvailableSpots(c *gin.Context) {
	id, ok := activityID(c)
	if !ok {
		return
	}

	available, err := h.service.AvailableSpots(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available_spots": available})
}

// MyRequests handles GET /activities/requests/mine
func (h *Handler) MyRequests(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	requests, err := h.service.MyRequests(c.Request.Context(), actor.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// PendingForMyActivities handles GET /activities/requests/pending
func (h *Handler) PendingForMyActivities(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	requests, err := h.service.PendingForMyActivities(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Mine handles GET /activities/mine
func (h *Handler) Mine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	created, err := h.service.CreatedBy(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activities"})
		return
	}

	joined, err := h.service.JoinedBy(c.Request.Context(), actor.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created, "joined": joined})
}

// Categories handles GET /activities/categories
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": Subcategories})
}
