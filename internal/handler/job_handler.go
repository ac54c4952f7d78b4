package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/scheduler"
	"github.com/yourorg/notification-engine/internal/service"
)

// JobHandler exposes the scheduler's jobs for manual, service-to-service
// triggering. Operators use it to re-run a job outside its cadence and to
// send a one-off digest to a single user.
type JobHandler struct {
	scheduler     *scheduler.Scheduler
	digestService *service.DigestService
	logger        *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(sched *scheduler.Scheduler, digestService *service.DigestService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		scheduler:     sched,
		digestService: digestService,
		logger:        logger,
	}
}

// ListJobs handles listing the runnable job names
// GET /api/v1/service/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.scheduler.JobNames()})
}

type runJobRequest struct {
	// UserID restricts a digest job to a single recipient, bypassing the
	// preferred-time window but not the re-send guard
	UserID *int64 `json:"user_id"`
}

// RunJob handles running a single job immediately
// POST /api/v1/service/jobs/{name}/run
func (h *JobHandler) RunJob(c *gin.Context) {
	name := c.Param("name")

	var req runJobRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	if req.UserID != nil {
		h.runDigestForUser(c, name, *req.UserID)
		return
	}

	if err := h.scheduler.RunJob(c.Request.Context(), name); err != nil {
		h.logger.Error("Manual job run failed",
			zap.Error(err),
			zap.String("job", name))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Job failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": name, "status": "completed"})
}

func (h *JobHandler) runDigestForUser(c *gin.Context, name string, userID int64) {
	now := time.Now()

	var result service.DigestResult
	var err error

	switch name {
	case "digest-daily":
		result, err = h.digestService.RunDaily(c.Request.Context(), now, &userID)
	case "digest-weekly":
		result, err = h.digestService.RunWeekly(c.Request.Context(), now, &userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is only supported for digest jobs"})
		return
	}

	if err != nil {
		h.logger.Error("Manual digest run failed",
			zap.Error(err),
			zap.String("job", name),
			zap.Int64("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Job failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":    name,
		"status": "completed",
		"result": result,
	})
}
