package mocks

import (
	"context"
	"time"

	"cashpoints_miniapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, referralBonus float64) error {
	args := m.Called(ctx, user, referralBonus)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) TouchLastActive(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserRepository) GetUserStats(ctx context.Context, telegramID int64, dayStart, weekStart, monthStart time.Time) (*model.UserStats, error) {
	args := m.Called(ctx, telegramID, dayStart, weekStart, monthStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStats), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockTaskRepository) GetTasksData(ctx context.Context, telegramID int64, dayStart time.Time) ([]*model.TaskTemplate, []*model.TaskStatus, error) {
	args := m.Called(ctx, telegramID, dayStart)
	var tasks []*model.TaskTemplate
	if args.Get(0) != nil {
		tasks = args.Get(0).([]*model.TaskTemplate)
	}
	var statuses []*model.TaskStatus
	if args.Get(1) != nil {
		statuses = args.Get(1).([]*model.TaskStatus)
	}
	return tasks, statuses, args.Error(2)
}

func (m *MockTaskRepository) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskTemplate), args.Error(1)
}

func (m *MockTaskRepository) GetLatestCompletion(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.TaskCompletion, error) {
	args := m.Called(ctx, telegramID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskCompletion), args.Error(1)
}

func (m *MockTaskRepository) CountCompletionsBetween(ctx context.Context, telegramID int64, taskID uuid.UUID, start, end time.Time) (int, error) {
	args := m.Called(ctx, telegramID, taskID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CompleteTask(ctx context.Context, completion *model.TaskCompletion) error {
	args := m.Called(ctx, completion)
	return args.Error(0)
}

func (m *MockTaskRepository) CompletionDays(ctx context.Context, telegramID int64, since time.Time, zone string) ([]string, error) {
	args := m.Called(ctx, telegramID, since, zone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskRepository) HasCompletionOfTypeBetween(ctx context.Context, telegramID int64, taskType string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, telegramID, taskType, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) CreateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) ListTaskTemplates(ctx context.Context, includeInactive bool) ([]*model.TaskTemplate, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TaskTemplate), args.Error(1)
}

func (m *MockTaskRepository) UpdateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) SetTaskActive(ctx context.Context, taskID uuid.UUID, active bool) error {
	args := m.Called(ctx, taskID, active)
	return args.Error(0)
}

type MockSpecialTaskRepository struct {
	mock.Mock
}

func (m *MockSpecialTaskRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockSpecialTaskRepository) FindSubmissionByUID(ctx context.Context, taskID uuid.UUID, uid string) (*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx, taskID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) GetUserSubmission(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx, telegramID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) GetSubmissionByID(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) CreateSubmission(ctx context.Context, sub *model.SpecialTaskSubmission) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSpecialTaskRepository) ListPendingSubmissions(ctx context.Context) ([]*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) VerifySubmission(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) RejectSubmission(ctx context.Context, submissionID uuid.UUID, notes string) (*model.SpecialTaskSubmission, error) {
	args := m.Called(ctx, submissionID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpecialTaskSubmission), args.Error(1)
}

func (m *MockSpecialTaskRepository) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaskTemplate), args.Error(1)
}

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListUserWithdrawals(ctx context.Context, telegramID int64, limit int) ([]*model.WithdrawalRequest, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) ListWithdrawalsByStatus(ctx context.Context, status string) ([]*model.WithdrawalRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.WithdrawalRequest, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, notes string, refund bool) (*model.WithdrawalRequest, error) {
	args := m.Called(ctx, withdrawalID, notes, refund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListUserNotifications(ctx context.Context, telegramID int64, limit int) ([]*model.Notification, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkNotificationRead(ctx context.Context, telegramID int64, notificationID uuid.UUID) error {
	args := m.Called(ctx, telegramID, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllNotificationsRead(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

type MockNotificationPublisher struct {
	mock.Mock
}

func (m *MockNotificationPublisher) Publish(ctx context.Context, telegramID int64, notificationType, title, message string) {
	m.Called(ctx, telegramID, notificationType, title, message)
}
