package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cashpoints_miniapp/internal/middleware"
	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/service"
	"cashpoints_miniapp/pkg/auth"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type taskRoutes struct {
	ts service.TaskServiceI
	a  *auth.TelegramAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, a *auth.TelegramAuth, admin *middleware.Authorization) {
	r := &taskRoutes{ts: ts, a: a}
	h := handler.Group("/tasks")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.GetTaskBoard)
		h.POST("/:telegram_id/:task_id/complete", r.CompleteTask)
	}

	ad := handler.Group("/admin/tasks")
	ad.Use(a.TelegramAuthMiddleware(), admin.AdminOnly())
	{
		ad.POST("/", r.CreateTask)
		ad.GET("/", r.ListTasks)
		ad.PUT("/:task_id", r.UpdateTask)
		ad.PATCH("/:task_id/active", r.SetTaskActive)
	}
}

func taskResponse(task *model.TaskTemplate) gin.H {
	return gin.H{
		"task_id":          task.TaskID,
		"title":            task.Title,
		"subtitle":         task.Subtitle,
		"description":      task.Description,
		"type":             task.Type,
		"reward":           task.Reward,
		"cooldown_seconds": task.CooldownSeconds,
		"max_completions":  task.MaxCompletions,
		"url":              task.URL,
		"is_active":        task.IsActive,
		"requires_uid":     task.IsSpecial(),
	}
}

func (r *taskRoutes) GetTaskBoard(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	board, err := r.ts.GetTaskBoard(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
		default:
			log.Error("failed to get task board", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tasks"})
		}
		return
	}

	tasks := make([]gin.H, len(board.Tasks))
	for i, st := range board.Tasks {
		entry := taskResponse(st.Task)
		entry["completed"] = st.Completed
		entry["remaining_cooldown"] = st.RemainingCooldown
		entry["completions_today"] = st.CompletionsToday
		entry["last_completed_at"] = st.LastCompletedAt
		tasks[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":            tasks,
		"streak":           board.Streak,
		"checked_in_today": board.CheckedInToday,
	})
}

func (r *taskRoutes) CompleteTask(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		log.Error("failed to parse task_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
		return
	}

	completion, err := r.ts.CompleteTask(c.Request.Context(), id, taskID)
	if err != nil {
		var cooldownErr *service.CooldownError
		switch {
		case errors.As(err, &cooldownErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":             "task is on cooldown",
				"remaining_seconds": int64(cooldownErr.Remaining.Seconds()),
			})
		case errors.Is(err, service.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
		case errors.Is(err, service.ErrTaskNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "task is not active"})
		case errors.Is(err, service.ErrTaskLimitReached):
			c.JSON(http.StatusConflict, gin.H{"error": "task completion limit reached"})
		case errors.Is(err, service.ErrUIDVerificationTask):
			c.JSON(http.StatusConflict, gin.H{"error": "task requires uid verification"})
		default:
			log.Error("failed to complete task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"completion_id": completion.CompletionID,
		"task_id":       completion.TaskID,
		"reward":        completion.RewardAmount,
		"completed_at":  completion.CompletedAt,
	})
}

type TaskRequest struct {
	Title           string  `json:"title" binding:"required"`
	Subtitle        string  `json:"subtitle"`
	Description     string  `json:"description"`
	Type            string  `json:"type" binding:"required"`
	Reward          float64 `json:"reward"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	MaxCompletions  int     `json:"max_completions"`
	URL             string  `json:"url"`
	IsActive        bool    `json:"is_active"`
}

func (r *taskRoutes) CreateTask(c *gin.Context) {
	log := logger.Logger()

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task := &model.TaskTemplate{
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Description:     req.Description,
		Type:            req.Type,
		Reward:          req.Reward,
		CooldownSeconds: req.CooldownSeconds,
		MaxCompletions:  req.MaxCompletions,
		URL:             req.URL,
		IsActive:        req.IsActive,
	}

	if err := r.ts.CreateTask(c.Request.Context(), task); err != nil {
		log.Error("failed to create task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, taskResponse(task))
}

func (r *taskRoutes) ListTasks(c *gin.Context) {
	log := logger.Logger()

	includeInactive := c.Query("include_inactive") == "true"

	tasks, err := r.ts.ListTasks(c.Request.Context(), includeInactive)
	if err != nil {
		log.Error("failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	out := make([]gin.H, len(tasks))
	for i, task := range tasks {
		out[i] = taskResponse(task)
	}

	c.JSON(http.StatusOK, out)
}

func (r *taskRoutes) UpdateTask(c *gin.Context) {
	log := logger.Logger()

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		log.Error("failed to parse task_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	task := &model.TaskTemplate{
		TaskID:          taskID,
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Description:     req.Description,
		Type:            req.Type,
		Reward:          req.Reward,
		CooldownSeconds: req.CooldownSeconds,
		MaxCompletions:  req.MaxCompletions,
		URL:             req.URL,
		IsActive:        req.IsActive,
	}

	if err := r.ts.UpdateTask(c.Request.Context(), task); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("failed to update task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	c.JSON(http.StatusOK, taskResponse(task))
}

type SetTaskActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (r *taskRoutes) SetTaskActive(c *gin.Context) {
	log := logger.Logger()

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		log.Error("failed to parse task_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
		return
	}

	var req SetTaskActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.ts.SetTaskActive(c.Request.Context(), taskID, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("failed to update task state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":    taskID,
		"is_active":  *req.IsActive,
		"updated_at": time.Now().UTC(),
	})
}
