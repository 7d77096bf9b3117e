package job

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/middleware"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
	"github.com/movermatch/marketplace-api/internal/service/assignment"
	"github.com/movermatch/marketplace-api/internal/service/dispatch"
)

type Handler struct {
	jobs          repository.JobRepository
	dispatchSvc   *dispatch.Service
	assignmentSvc *assignment.Service
}

func NewHandler(jobs repository.JobRepository, dispatchSvc *dispatch.Service, assignmentSvc *assignment.Service) *Handler {
	return &Handler{
		jobs:          jobs,
		dispatchSvc:   dispatchSvc,
		assignmentSvc: assignmentSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	jobs := r.Group("/jobs")
	{
		jobs.GET("/:id", h.GetJob)
		jobs.POST("/:id/dispatch", h.Dispatch)
		jobs.POST("/:id/assign", auth.RequireAdmin(), h.AdminAssign)
	}
}

func (h *Handler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid job ID"})
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": job})
}

// Dispatch triggers an alert round for a job. A round that finds no
// eligible movers still succeeds; callers inspect no_candidates.
func (h *Handler) Dispatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid job ID"})
		return
	}

	result, err := h.dispatchSvc.Dispatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(middleware.StatusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

// AdminAssign binds a mover to a job directly, bypassing the alert flow.
func (h *Handler) AdminAssign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid job ID"})
		return
	}

	var req model.AdminAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.assignmentSvc.AdminAssign(c.Request.Context(), id, req.MoverID); err != nil {
		c.JSON(middleware.StatusFor(err), gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"job_id": id, "mover_id": req.MoverID}})
}
