package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTaskService_CompleteTask(t *testing.T) {
	taskID := uuid.New()
	userID := int64(123)

	activeUser := &model.User{TelegramID: userID}
	bannedUser := &model.User{TelegramID: userID, IsBanned: true}

	tests := []struct {
		name          string
		setupMocks    func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher)
		expectedError error
		checkResult   func(t *testing.T, completion *model.TaskCompletion, err error)
	}{
		{
			name: "Task not found",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrTaskNotFound,
		},
		{
			name: "Inactive task",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:   taskID,
						Type:     model.TaskTypeSocial,
						IsActive: false,
					}, nil)
			},
			expectedError: ErrTaskNotActive,
		},
		{
			name: "Special task must go through UID verification",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:   taskID,
						Type:     model.TaskTypeTradingPlatform,
						IsActive: true,
					}, nil)
			},
			expectedError: ErrUIDVerificationTask,
		},
		{
			name: "Banned user",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:   taskID,
						Type:     model.TaskTypeSocial,
						IsActive: true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(bannedUser, nil)
			},
			expectedError: ErrUserBanned,
		},
		{
			name: "Cooldown still active",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:          taskID,
						Type:            model.TaskTypeSocial,
						Reward:          5,
						CooldownSeconds: 86400,
						IsActive:        true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(activeUser, nil)
				repo.On("GetLatestCompletion", mock.Anything, userID, taskID).
					Return(&model.TaskCompletion{
						CompletedAt: time.Now().UTC().Add(-1 * time.Hour),
					}, nil)
			},
			expectedError: ErrCooldownActive,
			checkResult: func(t *testing.T, completion *model.TaskCompletion, err error) {
				var cooldownErr *CooldownError
				assert.True(t, errors.As(err, &cooldownErr))
				assert.InDelta(t, float64(23*time.Hour), float64(cooldownErr.Remaining), float64(time.Minute))
			},
		},
		{
			name: "Cooldown elapsed",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:          taskID,
						Title:           "Daily bonus",
						Type:            model.TaskTypeDaily,
						Reward:          5,
						CooldownSeconds: 86400,
						IsActive:        true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(activeUser, nil)
				repo.On("GetLatestCompletion", mock.Anything, userID, taskID).
					Return(&model.TaskCompletion{
						CompletedAt: time.Now().UTC().Add(-25 * time.Hour),
					}, nil)
				repo.On("CompleteTask", mock.Anything, mock.MatchedBy(func(c *model.TaskCompletion) bool {
					return c.UserID == userID && c.TaskID == taskID && c.RewardAmount == 5
				})).Return(nil)
				pub.On("Publish", mock.Anything, userID, model.NotificationReward,
					mock.Anything, mock.Anything).Return()
			},
			checkResult: func(t *testing.T, completion *model.TaskCompletion, err error) {
				assert.NoError(t, err)
				assert.Equal(t, 5.0, completion.RewardAmount)
				assert.Equal(t, model.TaskTypeDaily, completion.TaskType)
			},
		},
		{
			name: "Zero cooldown repeats freely",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:   taskID,
						Type:     model.TaskTypeSocial,
						Reward:   1,
						IsActive: true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(activeUser, nil)
				repo.On("CompleteTask", mock.Anything, mock.Anything).Return(nil)
				pub.On("Publish", mock.Anything, userID, model.NotificationReward,
					mock.Anything, mock.Anything).Return()
			},
			checkResult: func(t *testing.T, completion *model.TaskCompletion, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "Check-in already done today",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:          taskID,
						Type:            model.TaskTypeCheckin,
						Reward:          2,
						CooldownSeconds: 86400,
						IsActive:        true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(activeUser, nil)
				repo.On("HasCompletionOfTypeBetween", mock.Anything, userID,
					model.TaskTypeCheckin, mock.Anything, mock.Anything).
					Return(true, nil)
			},
			expectedError: ErrCooldownActive,
		},
		{
			name: "Daily completion limit reached",
			setupMocks: func(repo *mocks.MockTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID:         taskID,
						Type:           model.TaskTypeSocial,
						Reward:         1,
						MaxCompletions: 3,
						IsActive:       true,
					}, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(activeUser, nil)
				repo.On("CountCompletionsBetween", mock.Anything, userID, taskID,
					mock.Anything, mock.Anything).
					Return(3, nil)
			},
			expectedError: ErrTaskLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTaskRepository{}
			mockPub := &mocks.MockNotificationPublisher{}
			tt.setupMocks(mockRepo, mockPub)

			service := NewTaskService(mockRepo, mockPub, time.UTC)
			completion, err := service.CompleteTask(context.Background(), userID, taskID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, completion)
			}
			if tt.checkResult != nil {
				tt.checkResult(t, completion, err)
			}
			mockRepo.AssertExpectations(t)
			mockPub.AssertExpectations(t)
		})
	}
}

func TestTaskService_GetTaskBoard(t *testing.T) {
	userID := int64(42)
	taskID := uuid.New()

	mockRepo := &mocks.MockTaskRepository{}
	mockPub := &mocks.MockNotificationPublisher{}
	service := NewTaskService(mockRepo, mockPub, time.UTC)

	now := time.Now().UTC()
	lastCompleted := now.Add(-1 * time.Hour)

	mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
		Return(&model.User{TelegramID: userID}, nil)
	mockRepo.On("GetTasksData", mock.Anything, userID, mock.Anything).
		Return(nil, []*model.TaskStatus{
			{
				Task: &model.TaskTemplate{
					TaskID:          taskID,
					Type:            model.TaskTypeSocial,
					CooldownSeconds: 86400,
				},
				LastCompletedAt:  &lastCompleted,
				CompletionsToday: 1,
			},
		}, nil)
	mockRepo.On("HasCompletionOfTypeBetween", mock.Anything, userID,
		model.TaskTypeCheckin, mock.Anything, mock.Anything).
		Return(true, nil)
	mockRepo.On("CompletionDays", mock.Anything, userID, mock.Anything, "UTC").
		Return([]string{
			now.Format("2006-01-02"),
			now.AddDate(0, 0, -1).Format("2006-01-02"),
		}, nil)

	board, err := service.GetTaskBoard(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, 2, board.Streak)
	assert.True(t, board.CheckedInToday)
	assert.Len(t, board.Tasks, 1)
	assert.True(t, board.Tasks[0].Completed)
	assert.Greater(t, board.Tasks[0].RemainingCooldown, 0)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_GetTaskBoard_StreakWindow(t *testing.T) {
	userID := int64(42)

	mockRepo := &mocks.MockTaskRepository{}
	mockPub := &mocks.MockNotificationPublisher{}
	service := NewTaskService(mockRepo, mockPub, time.UTC)

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := dayStart.AddDate(0, 0, -7)

	// History fetched only for the last 7 days, so a run of any length
	// reads at most the dates the window can hold.
	windowDays := make([]string, 0, 8)
	for d := since; !d.After(dayStart); d = d.AddDate(0, 0, 1) {
		windowDays = append(windowDays, d.Format("2006-01-02"))
	}

	mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
		Return(&model.User{TelegramID: userID}, nil)
	mockRepo.On("GetTasksData", mock.Anything, userID, mock.Anything).
		Return(nil, []*model.TaskStatus{}, nil)
	mockRepo.On("HasCompletionOfTypeBetween", mock.Anything, userID,
		model.TaskTypeCheckin, mock.Anything, mock.Anything).
		Return(false, nil)
	mockRepo.On("CompletionDays", mock.Anything, userID, mock.MatchedBy(func(got time.Time) bool {
		return got.Equal(since)
	}), "UTC").
		Return(windowDays, nil)

	board, err := service.GetTaskBoard(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, len(windowDays), board.Streak)
	mockRepo.AssertExpectations(t)
}

func TestCalculateStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) string {
		return today.AddDate(0, 0, offset).Format("2006-01-02")
	}

	tests := []struct {
		name     string
		days     []string
		expected int
	}{
		{
			name:     "No completions",
			days:     nil,
			expected: 0,
		},
		{
			name:     "Three days ending today",
			days:     []string{day(0), day(-1), day(-2)},
			expected: 3,
		},
		{
			name:     "Run ends yesterday, today not yet checked in",
			days:     []string{day(-1), day(-2)},
			expected: 2,
		},
		{
			name:     "Gap breaks the run",
			days:     []string{day(0), day(-2), day(-3)},
			expected: 1,
		},
		{
			name:     "Last completion two days ago",
			days:     []string{day(-2), day(-3)},
			expected: 0,
		},
		{
			name:     "Unordered input",
			days:     []string{day(-2), day(0), day(-1)},
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateStreak(tt.days, today))
		})
	}
}
