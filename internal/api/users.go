package api

import (
	"errors"
	"net/http"
	"strconv"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/service"
	"cashpoints_miniapp/pkg/auth"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:telegram_id", r.GetUserByTelegramID)
		h.GET("/:telegram_id/stats", r.GetUserStats)
		h.GET("/:telegram_id/referrals", r.GetUserReferrals)
	}
}

type RegisterUserRequest struct {
	ReferralCode string `json:"referral_code"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"telegram_id":       user.TelegramID,
		"username":          user.Username,
		"first_name":        user.FirstName,
		"last_name":         user.LastName,
		"photo_url":         user.PhotoURL,
		"balance":           user.Balance,
		"total_earnings":    user.TotalEarnings,
		"total_referrals":   user.TotalReferrals,
		"referral_code":     user.ReferralCode,
		"referred_by":       user.ReferredBy,
		"is_verified":       user.IsVerified,
		"is_admin":          user.IsAdmin,
		"registration_date": user.RegistrationDate,
		"last_active_at":    user.LastActiveAt,
	}
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userData, exists := c.Get("telegram_user")
	if !exists {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	tgUser, ok := userData.(*auth.TelegramUserData)
	if !ok {
		log.Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	u := &model.User{
		TelegramID: tgUser.ID,
		Username:   tgUser.Username,
		FirstName:  tgUser.FirstName,
		LastName:   tgUser.LastName,
		PhotoURL:   tgUser.PhotoURL,
	}

	user, err := r.us.RegisterUser(c.Request.Context(), u, req.ReferralCode)
	if err != nil {
		if errors.Is(err, service.ErrUserBanned) {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
			return
		}
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

func (r *userRoutes) GetUserByTelegramID(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
			return
		}
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (r *userRoutes) GetUserStats(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	stats, err := r.us.GetUserStats(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
			return
		}
		log.Error("failed to get user stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks_completed":      stats.TasksCompleted,
		"total_referrals":      stats.ReferralsTotal,
		"referrals_today":      stats.ReferralsToday,
		"referrals_this_week":  stats.ReferralsThisWeek,
		"referrals_this_month": stats.ReferralsThisMonth,
		"earnings_today":       stats.EarningsToday,
		"earnings_this_week":   stats.EarningsThisWeek,
		"earnings_this_month":  stats.EarningsThisMonth,
		"total_earnings":       stats.EarningsTotal,
	})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	leaderboard := make([]gin.H, len(users))
	for i, user := range users {
		leaderboard[i] = gin.H{
			"rank":        i + 1,
			"telegram_id": user.TelegramID,
			"username":    user.Username,
			"first_name":  user.FirstName,
			"photo_url":   user.PhotoURL,
			"balance":     user.Balance,
		}
	}

	c.JSON(http.StatusOK, leaderboard)
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	referrals, err := r.us.GetUserReferrals(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	out := make([]gin.H, len(referrals))
	for i, ref := range referrals {
		out[i] = gin.H{
			"telegram_id":     ref.TelegramID,
			"username":        ref.Username,
			"total_referrals": ref.TotalReferrals,
			"balance":         ref.Balance,
			"referred_at":     ref.ReferredAt,
		}
	}

	c.JSON(http.StatusOK, out)
}
