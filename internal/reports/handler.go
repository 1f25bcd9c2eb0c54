package reports

import (
	"fmt"
	"net/http"
	"time"

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

// ActivityReport handles GET /reports/activities.
// Query: range (daily|weekly|monthly|yearly|custom), start_date, end_date,
// format (csv|xlsx|pdf, default json).
func (h *Handler) ActivityReport(c *gin.Context) {
	userVal, _ := c.Get("user")
	user, ok := userVal.(auth.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	from, to, err := GetDateRange(c.Query("range"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.BuildReport(c.Request.Context(), user.ID, user.Email, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	format := c.Query("format")
	if format == "" {
		c.JSON(http.StatusOK, report)
		return
	}

	payload, contentType, err := h.service.Export(c.Request.Context(), user.ID, report, format, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("activities-%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
