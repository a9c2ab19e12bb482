package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"cashpoints_miniapp/internal/api"
	"cashpoints_miniapp/internal/middleware"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/internal/service"
	"cashpoints_miniapp/pkg/auth"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zapLogger.Fatal("Failed to load timezone", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	hub := api.NewNotificationHub()

	notifiers := []service.Notifier{hub}
	if cfg.TelegramAuth.TelegramBotToken != "" {
		botNotifier, err := service.NewBotNotifier(service.BotConfig{
			BotToken: cfg.TelegramAuth.TelegramBotToken,
			Debug:    cfg.TelegramAuth.DebugMode,
		})
		if err != nil {
			zapLogger.Warn("Telegram bot relay disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, botNotifier)
		}
	}

	notificationService := service.NewNotificationService(repo, notifiers...)
	userService := service.NewUserService(repo, notificationService, cfg.Rewards.ReferralBonus, loc)
	taskService := service.NewTaskService(repo, notificationService, loc)
	specialTaskService := service.NewSpecialTaskService(repo, notificationService)
	withdrawalService := service.NewWithdrawalService(repo, notificationService, cfg.Rewards.MinWithdrawal)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	adminOnly := middleware.NewAuthorization(userService)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth)
	api.NewTaskRoutes(a, taskService, telegramAuth, adminOnly)
	api.NewSpecialTaskRoutes(a, specialTaskService, telegramAuth, adminOnly)
	api.NewWithdrawalRoutes(a, withdrawalService, telegramAuth, adminOnly)
	api.NewNotificationRoutes(a, notificationService, telegramAuth)
	api.NewNotificationHubRoutes(a, hub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
