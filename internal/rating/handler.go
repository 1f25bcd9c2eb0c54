package rating

import (
	"errors"
	"net/http"

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

// RateUser handles POST /ratings
func (h *Handler) RateUser(c *gin.Context) {
	userVal, _ := c.Get("user")
	user, ok := userVal.(auth.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var input RateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rater := Rater{ID: user.ID, Email: user.Email, Name: user.FullName(), Avatar: user.Avatar}
	created, err := h.service.RateUser(c.Request.Context(), rater, input, middleware.GetIPFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidScore), errors.Is(err, ErrSelfRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotRatable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrAlreadyRated):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save rating"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetStats handles GET /ratings/:email/stats
func (h *Handler) GetStats(c *gin.Context) {
	email := c.Param("email")

	stats, err := h.service.GetStats(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListRatings handles GET /ratings/:email
func (h *Handler) ListRatings(c *gin.Context) {
	email := c.Param("email")

	ratings, err := h.service.ListRatings(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ratings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
