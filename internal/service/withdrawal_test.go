package service

import (
	"context"
	"testing"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testMinWithdrawal = 100.0

func TestWithdrawalService_RequestWithdrawal(t *testing.T) {
	userID := int64(321)

	tests := []struct {
		name          string
		request       *model.WithdrawalRequest
		setupMocks    func(repo *mocks.MockWithdrawalRepository, pub *mocks.MockNotificationPublisher)
		expectedError error
	}{
		{
			name:          "Below minimum amount",
			request:       &model.WithdrawalRequest{UserID: userID, Amount: 50},
			setupMocks:    func(repo *mocks.MockWithdrawalRepository, pub *mocks.MockNotificationPublisher) {},
			expectedError: ErrBelowMinimumAmount,
		},
		{
			name:    "Banned user",
			request: &model.WithdrawalRequest{UserID: userID, Amount: 200},
			setupMocks: func(repo *mocks.MockWithdrawalRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID, IsBanned: true}, nil)
			},
			expectedError: ErrUserBanned,
		},
		{
			name:    "Insufficient balance",
			request: &model.WithdrawalRequest{UserID: userID, Amount: 200},
			setupMocks: func(repo *mocks.MockWithdrawalRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID, Balance: 150}, nil)
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).
					Return(repository.ErrInsufficientBalance)
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name: "Request accepted",
			request: &model.WithdrawalRequest{
				UserID:        userID,
				Amount:        200,
				Method:        "bkash",
				AccountName:   "Test User",
				AccountNumber: "01700000000",
			},
			setupMocks: func(repo *mocks.MockWithdrawalRepository, pub *mocks.MockNotificationPublisher) {
				repo.On("GetUserByTelegramID", mock.Anything, userID).
					Return(&model.User{TelegramID: userID, Balance: 500}, nil)
				repo.On("CreateWithdrawal", mock.Anything, mock.MatchedBy(func(w *model.WithdrawalRequest) bool {
					return w.Status == model.WithdrawalStatusPending && w.Amount == 200
				})).Return(nil)
				pub.On("Publish", mock.Anything, userID, model.NotificationInfo,
					mock.Anything, mock.Anything).Return()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockWithdrawalRepository{}
			mockPub := &mocks.MockNotificationPublisher{}
			tt.setupMocks(mockRepo, mockPub)

			service := NewWithdrawalService(mockRepo, mockPub, testMinWithdrawal)
			w, err := service.RequestWithdrawal(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, w)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.WithdrawalStatusPending, w.Status)
				assert.NotEqual(t, uuid.Nil, w.WithdrawalID)
			}
			mockRepo.AssertExpectations(t)
			mockPub.AssertExpectations(t)
		})
	}
}

func TestWithdrawalService_RejectWithdrawal(t *testing.T) {
	withdrawalID := uuid.New()
	userID := int64(321)

	rejected := &model.WithdrawalRequest{
		WithdrawalID: withdrawalID,
		UserID:       userID,
		Amount:       200,
		Status:       model.WithdrawalStatusRejected,
	}

	t.Run("Standard rejection refunds the amount", func(t *testing.T) {
		mockRepo := &mocks.MockWithdrawalRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		mockRepo.On("RejectWithdrawal", mock.Anything, withdrawalID, "bad account number", true).
			Return(rejected, nil)
		mockPub.On("Publish", mock.Anything, userID, model.NotificationWarning,
			mock.Anything, mock.Anything).Return()

		service := NewWithdrawalService(mockRepo, mockPub, testMinWithdrawal)
		w, err := service.RejectWithdrawal(context.Background(), withdrawalID, "bad account number", false)

		assert.NoError(t, err)
		assert.Equal(t, model.WithdrawalStatusRejected, w.Status)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Valid rejection keeps the deduction", func(t *testing.T) {
		mockRepo := &mocks.MockWithdrawalRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		mockRepo.On("RejectWithdrawal", mock.Anything, withdrawalID, "fraudulent activity", false).
			Return(rejected, nil)
		mockPub.On("Publish", mock.Anything, userID, model.NotificationWarning,
			mock.Anything, mock.Anything).Return()

		service := NewWithdrawalService(mockRepo, mockPub, testMinWithdrawal)
		_, err := service.RejectWithdrawal(context.Background(), withdrawalID, "fraudulent activity", true)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Already processed", func(t *testing.T) {
		mockRepo := &mocks.MockWithdrawalRepository{}

		mockRepo.On("RejectWithdrawal", mock.Anything, withdrawalID, "", true).
			Return(nil, repository.ErrAlreadyProcessed)

		service := NewWithdrawalService(mockRepo, &mocks.MockNotificationPublisher{}, testMinWithdrawal)
		_, err := service.RejectWithdrawal(context.Background(), withdrawalID, "", false)

		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		mockRepo.AssertExpectations(t)
	})
}

func TestWithdrawalService_ApproveWithdrawal(t *testing.T) {
	withdrawalID := uuid.New()
	userID := int64(321)

	t.Run("Pending request approved", func(t *testing.T) {
		mockRepo := &mocks.MockWithdrawalRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		mockRepo.On("ApproveWithdrawal", mock.Anything, withdrawalID).
			Return(&model.WithdrawalRequest{
				WithdrawalID: withdrawalID,
				UserID:       userID,
				Amount:       200,
				Method:       "bkash",
				Status:       model.WithdrawalStatusApproved,
			}, nil)
		mockPub.On("Publish", mock.Anything, userID, model.NotificationSuccess,
			mock.Anything, mock.Anything).Return()

		service := NewWithdrawalService(mockRepo, mockPub, testMinWithdrawal)
		w, err := service.ApproveWithdrawal(context.Background(), withdrawalID)

		assert.NoError(t, err)
		assert.Equal(t, model.WithdrawalStatusApproved, w.Status)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Unknown request", func(t *testing.T) {
		mockRepo := &mocks.MockWithdrawalRepository{}
		mockRepo.On("ApproveWithdrawal", mock.Anything, withdrawalID).
			Return(nil, repository.ErrNotFound)

		service := NewWithdrawalService(mockRepo, &mocks.MockNotificationPublisher{}, testMinWithdrawal)
		_, err := service.ApproveWithdrawal(context.Background(), withdrawalID)

		assert.ErrorIs(t, err, ErrWithdrawalNotFound)
		mockRepo.AssertExpectations(t)
	})
}
