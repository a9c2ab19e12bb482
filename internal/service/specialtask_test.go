package service

import (
	"context"
	"testing"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSpecialTaskService_CheckUID(t *testing.T) {
	taskID := uuid.New()
	userID := int64(555)

	specialTask := &model.TaskTemplate{
		TaskID:   taskID,
		Type:     model.TaskTypeTradingPlatform,
		Reward:   50,
		IsActive: true,
	}

	tests := []struct {
		name          string
		uid           string
		setupMocks    func(repo *mocks.MockSpecialTaskRepository)
		expectedError error
		checkResult   func(t *testing.T, result *model.UIDCheckResult)
	}{
		{
			name:          "Empty UID",
			uid:           "   ",
			setupMocks:    func(repo *mocks.MockSpecialTaskRepository) {},
			expectedError: ErrUIDRequired,
		},
		{
			name: "Task does not take UIDs",
			uid:  "12345",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(&model.TaskTemplate{
						TaskID: taskID,
						Type:   model.TaskTypeSocial,
					}, nil)
			},
			expectedError: ErrNotUIDTask,
		},
		{
			name: "UID still available",
			uid:  "12345",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("FindSubmissionByUID", mock.Anything, taskID, "12345").
					Return(nil, repository.ErrNotFound)
			},
			checkResult: func(t *testing.T, result *model.UIDCheckResult) {
				assert.True(t, result.Available)
				assert.Nil(t, result.Submission)
			},
		},
		{
			name: "Own earlier submission returned with status",
			uid:  "12345",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("FindSubmissionByUID", mock.Anything, taskID, "12345").
					Return(&model.SpecialTaskSubmission{
						UserID:       userID,
						TaskID:       taskID,
						UIDSubmitted: "12345",
						Status:       model.SubmissionStatusPending,
					}, nil)
			},
			checkResult: func(t *testing.T, result *model.UIDCheckResult) {
				assert.False(t, result.Available)
				assert.Equal(t, model.SubmissionStatusPending, result.Submission.Status)
			},
		},
		{
			name: "UID claimed by another account",
			uid:  "12345",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("FindSubmissionByUID", mock.Anything, taskID, "12345").
					Return(&model.SpecialTaskSubmission{
						UserID:       int64(999),
						TaskID:       taskID,
						UIDSubmitted: "12345",
						Status:       model.SubmissionStatusVerified,
					}, nil)
			},
			expectedError: ErrUIDUsedByAnother,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockSpecialTaskRepository{}
			tt.setupMocks(mockRepo)

			service := NewSpecialTaskService(mockRepo, &mocks.MockNotificationPublisher{})
			result, err := service.CheckUID(context.Background(), userID, taskID, tt.uid)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			}
			if tt.checkResult != nil {
				assert.NoError(t, err)
				tt.checkResult(t, result)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestSpecialTaskService_SubmitUID(t *testing.T) {
	taskID := uuid.New()
	userID := int64(555)

	specialTask := &model.TaskTemplate{
		TaskID:   taskID,
		Title:    "Open trading account",
		Type:     model.TaskTypeTradingPlatform,
		Reward:   50,
		IsActive: true,
	}

	tests := []struct {
		name          string
		setupMocks    func(repo *mocks.MockSpecialTaskRepository, pub *mocks.MockNotificationPublisher)
		expectedError error
		checkResult   func(t *testing.T, sub *model.SpecialTaskSubmission)
	}{
		{
			name: "New submission goes to pending",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID}, nil)
				repo.On("GetUserSubmission", mock.Anything, userID, taskID).
					Return(nil, repository.ErrNotFound)
				repo.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(s *model.SpecialTaskSubmission) bool {
					return s.UserID == userID && s.UIDSubmitted == "777" &&
						s.Status == model.SubmissionStatusPending && s.RewardAmount == 50
				})).Return(nil)
				pub.On("Publish", mock.Anything, userID, model.NotificationInfo,
					mock.Anything, mock.Anything).Return()
			},
			checkResult: func(t *testing.T, sub *model.SpecialTaskSubmission) {
				assert.Equal(t, model.SubmissionStatusPending, sub.Status)
				assert.Equal(t, model.TaskTypeTradingPlatform, sub.TaskType)
			},
		},
		{
			name: "Pending submission blocks resubmission",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID}, nil)
				repo.On("GetUserSubmission", mock.Anything, userID, taskID).
					Return(&model.SpecialTaskSubmission{
						UserID: userID,
						TaskID: taskID,
						Status: model.SubmissionStatusPending,
					}, nil)
			},
			expectedError: ErrUIDAlreadySubmitted,
		},
		{
			name: "Rejected submission can be retried",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID}, nil)
				repo.On("GetUserSubmission", mock.Anything, userID, taskID).
					Return(&model.SpecialTaskSubmission{
						UserID: userID,
						TaskID: taskID,
						Status: model.SubmissionStatusRejected,
					}, nil)
				repo.On("CreateSubmission", mock.Anything, mock.Anything).Return(nil)
				pub.On("Publish", mock.Anything, userID, model.NotificationInfo,
					mock.Anything, mock.Anything).Return()
			},
			checkResult: func(t *testing.T, sub *model.SpecialTaskSubmission) {
				assert.Equal(t, model.SubmissionStatusPending, sub.Status)
			},
		},
		{
			name: "UID raced away by another account",
			setupMocks: func(repo *mocks.MockSpecialTaskRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetTaskByID", mock.Anything, taskID).
					Return(specialTask, nil)
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID}, nil)
				repo.On("GetUserSubmission", mock.Anything, userID, taskID).
					Return(nil, repository.ErrNotFound)
				repo.On("CreateSubmission", mock.Anything, mock.Anything).
					Return(repository.ErrUIDAlreadyExists)
				repo.On("FindSubmissionByUID", mock.Anything, taskID, "777").
					Return(&model.SpecialTaskSubmission{
						UserID: int64(999),
					}, nil)
			},
			expectedError: ErrUIDUsedByAnother,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockSpecialTaskRepository{}
			mockPub := &mocks.MockNotificationPublisher{}
			tt.setupMocks(mockRepo, mockPub)

			service := NewSpecialTaskService(mockRepo, mockPub)
			sub, err := service.SubmitUID(context.Background(), userID, taskID, "777")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, sub)
			}
			if tt.checkResult != nil {
				assert.NoError(t, err)
				tt.checkResult(t, sub)
			}
			mockRepo.AssertExpectations(t)
			mockPub.AssertExpectations(t)
		})
	}
}

func TestSpecialTaskService_VerifySubmission(t *testing.T) {
	submissionID := uuid.New()
	userID := int64(555)

	t.Run("Pending submission verified and credited", func(t *testing.T) {
		mockRepo := &mocks.MockSpecialTaskRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		now := time.Now().UTC()
		mockRepo.On("VerifySubmission", mock.Anything, submissionID).
			Return(&model.SpecialTaskSubmission{
				SubmissionID: submissionID,
				UserID:       userID,
				Status:       model.SubmissionStatusVerified,
				RewardAmount: 50,
				VerifiedAt:   &now,
			}, nil)
		mockPub.On("Publish", mock.Anything, userID, model.NotificationReward,
			mock.Anything, mock.Anything).Return()

		service := NewSpecialTaskService(mockRepo, mockPub)
		sub, err := service.VerifySubmission(context.Background(), submissionID)

		assert.NoError(t, err)
		assert.Equal(t, model.SubmissionStatusVerified, sub.Status)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Already processed submission", func(t *testing.T) {
		mockRepo := &mocks.MockSpecialTaskRepository{}
		mockRepo.On("VerifySubmission", mock.Anything, submissionID).
			Return(nil, repository.ErrAlreadyProcessed)

		service := NewSpecialTaskService(mockRepo, &mocks.MockNotificationPublisher{})
		_, err := service.VerifySubmission(context.Background(), submissionID)

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown submission", func(t *testing.T) {
		mockRepo := &mocks.MockSpecialTaskRepository{}
		mockRepo.On("VerifySubmission", mock.Anything, submissionID).
			Return(nil, repository.ErrNotFound)

		service := NewSpecialTaskService(mockRepo, &mocks.MockNotificationPublisher{})
		_, err := service.VerifySubmission(context.Background(), submissionID)

		assert.ErrorIs(t, err, ErrSubmissionNotFound)
		mockRepo.AssertExpectations(t)
	})
}
