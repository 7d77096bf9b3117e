package alert

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/middleware"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/service/assignment"
)

type Handler struct {
	service *assignment.Service
}

func NewHandler(service *assignment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	alerts := r.Group("/alerts")
	{
		alerts.POST("/:id/respond", h.Respond)
		alerts.POST("/:id/complete", h.Complete)
	}
}

// Respond records a mover's accept or decline. An accept that loses the
// claim race comes back as 409 with the already-claimed message.
func (h *Handler) Respond(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid alert ID"})
		return
	}

	var req model.AlertResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	alert, err := h.service.Respond(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(middleware.StatusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": alert})
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid alert ID"})
		return
	}

	alert, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		c.JSON(middleware.StatusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": alert})
}
