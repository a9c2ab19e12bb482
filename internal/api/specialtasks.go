package api

import (
	"errors"
	"net/http"
	"strconv"

	"cashpoints_miniapp/internal/middleware"
	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/service"
	"cashpoints_miniapp/pkg/auth"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type specialTaskRoutes struct {
	sts service.SpecialTaskServiceI
	a   *auth.TelegramAuth
}

func NewSpecialTaskRoutes(handler *gin.RouterGroup, sts service.SpecialTaskServiceI, a *auth.TelegramAuth, admin *middleware.Authorization) {
	r := &specialTaskRoutes{sts: sts, a: a}
	h := handler.Group("/specialtasks")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/:telegram_id/:task_id/check", r.CheckUID)
		h.POST("/:telegram_id/:task_id", r.SubmitUID)
		h.GET("/:telegram_id/:task_id", r.GetSubmissionStatus)
	}

	ad := handler.Group("/admin/specialtasks")
	ad.Use(a.TelegramAuthMiddleware(), admin.AdminOnly())
	{
		ad.GET("/pending", r.ListPendingSubmissions)
		ad.POST("/:submission_id/verify", r.VerifySubmission)
		ad.POST("/:submission_id/reject", r.RejectSubmission)
	}
}

func submissionResponse(sub *model.SpecialTaskSubmission) gin.H {
	return gin.H{
		"submission_id": sub.SubmissionID,
		"telegram_id":   sub.UserID,
		"task_id":       sub.TaskID,
		"task_type":     sub.TaskType,
		"uid":           sub.UIDSubmitted,
		"status":        sub.Status,
		"reward":        sub.RewardAmount,
		"admin_notes":   sub.AdminNotes,
		"created_at":    sub.CreatedAt,
		"verified_at":   sub.VerifiedAt,
	}
}

type UIDRequest struct {
	UID string `json:"uid" binding:"required"`
}

func (r *specialTaskRoutes) parseIDs(c *gin.Context) (int64, uuid.UUID, bool) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return 0, uuid.Nil, false
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		log.Error("failed to parse task_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
		return 0, uuid.Nil, false
	}

	return id, taskID, true
}

func (r *specialTaskRoutes) CheckUID(c *gin.Context) {
	log := logger.Logger()

	id, taskID, ok := r.parseIDs(c)
	if !ok {
		return
	}

	var req UIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.sts.CheckUID(c.Request.Context(), id, taskID, req.UID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUIDRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrNotUIDTask):
			c.JSON(http.StatusConflict, gin.H{"error": "task does not take uid submissions"})
		case errors.Is(err, service.ErrUIDUsedByAnother):
			c.JSON(http.StatusConflict, gin.H{"error": "uid already used by another account"})
		default:
			log.Error("failed to check uid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check uid"})
		}
		return
	}

	if result.Available {
		c.JSON(http.StatusOK, gin.H{"available": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"available":  false,
		"submission": submissionResponse(result.Submission),
	})
}

func (r *specialTaskRoutes) SubmitUID(c *gin.Context) {
	log := logger.Logger()

	id, taskID, ok := r.parseIDs(c)
	if !ok {
		return
	}

	var req UIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sub, err := r.sts.SubmitUID(c.Request.Context(), id, taskID, req.UID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUIDRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
		case errors.Is(err, service.ErrTaskNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "task is not active"})
		case errors.Is(err, service.ErrNotUIDTask):
			c.JSON(http.StatusConflict, gin.H{"error": "task does not take uid submissions"})
		case errors.Is(err, service.ErrUIDAlreadySubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "uid already submitted for this task"})
		case errors.Is(err, service.ErrUIDUsedByAnother):
			c.JSON(http.StatusConflict, gin.H{"error": "uid already used by another account"})
		default:
			log.Error("failed to submit uid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit uid"})
		}
		return
	}

	c.JSON(http.StatusCreated, submissionResponse(sub))
}

func (r *specialTaskRoutes) GetSubmissionStatus(c *gin.Context) {
	log := logger.Logger()

	id, taskID, ok := r.parseIDs(c)
	if !ok {
		return
	}

	sub, err := r.sts.GetSubmissionStatus(c.Request.Context(), id, taskID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no submission for this task"})
			return
		}
		log.Error("failed to get submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get submission"})
		return
	}

	c.JSON(http.StatusOK, submissionResponse(sub))
}

func (r *specialTaskRoutes) ListPendingSubmissions(c *gin.Context) {
	log := logger.Logger()

	subs, err := r.sts.ListPendingSubmissions(c.Request.Context())
	if err != nil {
		log.Error("failed to list pending submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list submissions"})
		return
	}

	out := make([]gin.H, len(subs))
	for i, sub := range subs {
		out[i] = submissionResponse(sub)
	}

	c.JSON(http.StatusOK, out)
}

func (r *specialTaskRoutes) VerifySubmission(c *gin.Context) {
	log := logger.Logger()

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		log.Error("failed to parse submission_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission_id"})
		return
	}

	sub, err := r.sts.VerifySubmission(c.Request.Context(), submissionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		case errors.Is(err, service.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "submission already processed"})
		default:
			log.Error("failed to verify submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify submission"})
		}
		return
	}

	c.JSON(http.StatusOK, submissionResponse(sub))
}

type RejectSubmissionRequest struct {
	Notes string `json:"notes"`
}

func (r *specialTaskRoutes) RejectSubmission(c *gin.Context) {
	log := logger.Logger()

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		log.Error("failed to parse submission_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission_id"})
		return
	}

	var req RejectSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sub, err := r.sts.RejectSubmission(c.Request.Context(), submissionID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		case errors.Is(err, service.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "submission already processed"})
		default:
			log.Error("failed to reject submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject submission"})
		}
		return
	}

	c.JSON(http.StatusOK, submissionResponse(sub))
}
