package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserBanned           = errors.New("user is banned")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskNotActive        = errors.New("task is not active")
	ErrCooldownActive       = errors.New("the required time has not yet passed since your last completion")
	ErrTaskLimitReached     = errors.New("task completion limit reached")
	ErrUIDVerificationTask  = errors.New("task requires UID verification")
	ErrNotUIDTask           = errors.New("task does not take UID submissions")
	ErrUIDRequired          = errors.New("uid is required")
	ErrUIDAlreadySubmitted  = errors.New("uid already submitted for this task")
	ErrUIDUsedByAnother     = errors.New("uid already used by another account")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal request not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrBelowMinimumAmount   = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAlreadyProcessed     = errors.New("request has already been processed")
)

// CooldownError reports how long until the task can be completed again.
// errors.Is(err, ErrCooldownActive) matches it.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("task is on cooldown for another %d seconds", int64(e.Remaining.Seconds()))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

type Service struct {
	*UserService
	*TaskService
	*SpecialTaskService
	*WithdrawalService
	*NotificationService
}

func NewService(
	userService *UserService,
	taskService *TaskService,
	specialTaskService *SpecialTaskService,
	withdrawalService *WithdrawalService,
	notificationService *NotificationService,
) *Service {
	return &Service{
		UserService:         userService,
		TaskService:         taskService,
		SpecialTaskService:  specialTaskService,
		WithdrawalService:   withdrawalService,
		NotificationService: notificationService,
	}
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User, referrerCode string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserStats(ctx context.Context, telegramID int64) (*model.UserStats, error)
	GetLeaderboard(ctx context.Context) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, referralBonus float64) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	TouchLastActive(ctx context.Context, telegramID int64) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	GetUserStats(ctx context.Context, telegramID int64, dayStart, weekStart, monthStart time.Time) (*model.UserStats, error)
}

type TaskServiceI interface {
	GetTaskBoard(ctx context.Context, telegramID int64) (*model.TaskBoard, error)
	CompleteTask(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.TaskCompletion, error)
	CreateTask(ctx context.Context, task *model.TaskTemplate) error
	ListTasks(ctx context.Context, includeInactive bool) ([]*model.TaskTemplate, error)
	UpdateTask(ctx context.Context, task *model.TaskTemplate) error
	SetTaskActive(ctx context.Context, taskID uuid.UUID, active bool) error
}

type TaskRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetTasksData(ctx context.Context, telegramID int64, dayStart time.Time) ([]*model.TaskTemplate, []*model.TaskStatus, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error)
	GetLatestCompletion(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.TaskCompletion, error)
	CountCompletionsBetween(ctx context.Context, telegramID int64, taskID uuid.UUID, start, end time.Time) (int, error)
	CompleteTask(ctx context.Context, completion *model.TaskCompletion) error
	CompletionDays(ctx context.Context, telegramID int64, since time.Time, zone string) ([]string, error)
	HasCompletionOfTypeBetween(ctx context.Context, telegramID int64, taskType string, start, end time.Time) (bool, error)
	CreateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error
	ListTaskTemplates(ctx context.Context, includeInactive bool) ([]*model.TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error
	SetTaskActive(ctx context.Context, taskID uuid.UUID, active bool) error
}

type SpecialTaskServiceI interface {
	CheckUID(ctx context.Context, telegramID int64, taskID uuid.UUID, uid string) (*model.UIDCheckResult, error)
	SubmitUID(ctx context.Context, telegramID int64, taskID uuid.UUID, uid string) (*model.SpecialTaskSubmission, error)
	GetSubmissionStatus(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.SpecialTaskSubmission, error)
	ListPendingSubmissions(ctx context.Context) ([]*model.SpecialTaskSubmission, error)
	VerifySubmission(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error)
	RejectSubmission(ctx context.Context, submissionID uuid.UUID, notes string) (*model.SpecialTaskSubmission, error)
}

type SpecialTaskRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	FindSubmissionByUID(ctx context.Context, taskID uuid.UUID, uid string) (*model.SpecialTaskSubmission, error)
	GetUserSubmission(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.SpecialTaskSubmission, error)
	GetSubmissionByID(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error)
	CreateSubmission(ctx context.Context, sub *model.SpecialTaskSubmission) error
	ListPendingSubmissions(ctx context.Context) ([]*model.SpecialTaskSubmission, error)
	VerifySubmission(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error)
	RejectSubmission(ctx context.Context, submissionID uuid.UUID, notes string) (*model.SpecialTaskSubmission, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error)
}

type WithdrawalServiceI interface {
	RequestWithdrawal(ctx context.Context, req *model.WithdrawalRequest) (*model.WithdrawalRequest, error)
	GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.WithdrawalRequest, error)
	ListPendingWithdrawals(ctx context.Context) ([]*model.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, notes string, valid bool) (*model.WithdrawalRequest, error)
}

type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest) error
	ListUserWithdrawals(ctx context.Context, telegramID int64, limit int) ([]*model.WithdrawalRequest, error)
	ListWithdrawalsByStatus(ctx context.Context, status string) ([]*model.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, notes string, refund bool) (*model.WithdrawalRequest, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type NotificationServiceI interface {
	GetUserNotifications(ctx context.Context, telegramID int64) ([]*model.Notification, error)
	MarkRead(ctx context.Context, telegramID int64, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, telegramID int64) error
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListUserNotifications(ctx context.Context, telegramID int64, limit int) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, telegramID int64, notificationID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, telegramID int64) error
}

// Notifier delivers a stored notification to a live channel (websocket
// hub, Telegram bot). Delivery is best effort.
type Notifier interface {
	Notify(n *model.Notification)
}

// NotificationPublisher is what the other services use to emit
// notifications as side effects of their operations.
type NotificationPublisher interface {
	Publish(ctx context.Context, telegramID int64, notificationType, title, message string)
}
