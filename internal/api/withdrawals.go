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

type withdrawalRoutes struct {
	ws service.WithdrawalServiceI
	a  *auth.TelegramAuth
}

func NewWithdrawalRoutes(handler *gin.RouterGroup, ws service.WithdrawalServiceI, a *auth.TelegramAuth, admin *middleware.Authorization) {
	r := &withdrawalRoutes{ws: ws, a: a}
	h := handler.Group("/withdrawals")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/:telegram_id", r.RequestWithdrawal)
		h.GET("/:telegram_id", r.GetUserWithdrawals)
	}

	ad := handler.Group("/admin/withdrawals")
	ad.Use(a.TelegramAuthMiddleware(), admin.AdminOnly())
	{
		ad.GET("/pending", r.ListPendingWithdrawals)
		ad.POST("/:withdrawal_id/approve", r.ApproveWithdrawal)
		ad.POST("/:withdrawal_id/reject", r.RejectWithdrawal)
	}
}

func withdrawalResponse(w *model.WithdrawalRequest) gin.H {
	return gin.H{
		"withdrawal_id":  w.WithdrawalID,
		"telegram_id":    w.UserID,
		"amount":         w.Amount,
		"method":         w.Method,
		"account_name":   w.AccountName,
		"account_number": w.AccountNumber,
		"bank_name":      w.BankName,
		"crypto_symbol":  w.CryptoSymbol,
		"status":         w.Status,
		"admin_notes":    w.AdminNotes,
		"created_at":     w.CreatedAt,
		"processed_at":   w.ProcessedAt,
	}
}

type WithdrawalRequestBody struct {
	Amount        float64 `json:"amount" binding:"required"`
	Method        string  `json:"method" binding:"required"`
	AccountName   string  `json:"account_name" binding:"required"`
	AccountNumber string  `json:"account_number" binding:"required"`
	BankName      *string `json:"bank_name"`
	CryptoSymbol  *string `json:"crypto_symbol"`
}

func (r *withdrawalRoutes) RequestWithdrawal(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req WithdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	w, err := r.ws.RequestWithdrawal(c.Request.Context(), &model.WithdrawalRequest{
		UserID:        id,
		Amount:        req.Amount,
		Method:        req.Method,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		CryptoSymbol:  req.CryptoSymbol,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimumAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount is below the minimum withdrawal"})
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
		default:
			log.Error("failed to request withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, withdrawalResponse(w))
}

func (r *withdrawalRoutes) GetUserWithdrawals(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	withdrawals, err := r.ws.GetUserWithdrawals(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	out := make([]gin.H, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = withdrawalResponse(w)
	}

	c.JSON(http.StatusOK, out)
}

func (r *withdrawalRoutes) ListPendingWithdrawals(c *gin.Context) {
	log := logger.Logger()

	withdrawals, err := r.ws.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		log.Error("failed to list pending withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}

	out := make([]gin.H, len(withdrawals))
	for i, w := range withdrawals {
		out[i] = withdrawalResponse(w)
	}

	c.JSON(http.StatusOK, out)
}

func (r *withdrawalRoutes) ApproveWithdrawal(c *gin.Context) {
	log := logger.Logger()

	withdrawalID, err := uuid.Parse(c.Param("withdrawal_id"))
	if err != nil {
		log.Error("failed to parse withdrawal_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal_id"})
		return
	}

	w, err := r.ws.ApproveWithdrawal(c.Request.Context(), withdrawalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already processed"})
		default:
			log.Error("failed to approve withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve withdrawal"})
		}
		return
	}

	c.JSON(http.StatusOK, withdrawalResponse(w))
}

type RejectWithdrawalRequest struct {
	Notes string `json:"notes"`
	Valid bool   `json:"valid"`
}

func (r *withdrawalRoutes) RejectWithdrawal(c *gin.Context) {
	log := logger.Logger()

	withdrawalID, err := uuid.Parse(c.Param("withdrawal_id"))
	if err != nil {
		log.Error("failed to parse withdrawal_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal_id"})
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	w, err := r.ws.RejectWithdrawal(c.Request.Context(), withdrawalID, req.Notes, req.Valid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already processed"})
		default:
			log.Error("failed to reject withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject withdrawal"})
		}
		return
	}

	c.JSON(http.StatusOK, withdrawalResponse(w))
}
