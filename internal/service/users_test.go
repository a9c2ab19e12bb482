package service

import (
	"context"
	"testing"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
	"cashpoints_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testReferralBonus = 10.0

func TestGenerateReferralCode(t *testing.T) {
	tests := []struct {
		telegramID int64
		expected   string
	}{
		{telegramID: 123456789, expected: "BT456789"},
		{telegramID: 42, expected: "BT000042"},
		{telegramID: -123456789, expected: "BT456789"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GenerateReferralCode(tt.telegramID))
	}
}

func TestUserService_RegisterUser(t *testing.T) {
	userID := int64(123456789)

	t.Run("Existing user is returned, not recreated", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		existing := &model.User{TelegramID: userID, Balance: 42}
		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(existing, nil)
		mockRepo.On("TouchLastActive", mock.Anything, userID).
			Return(nil)

		service := NewUserService(mockRepo, mockPub, testReferralBonus, time.UTC)
		user, err := service.RegisterUser(context.Background(), &model.User{TelegramID: userID}, "")

		assert.NoError(t, err)
		assert.Equal(t, existing, user)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Banned user is refused", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}

		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(&model.User{TelegramID: userID, IsBanned: true}, nil)

		service := NewUserService(mockRepo, &mocks.MockNotificationPublisher{}, testReferralBonus, time.UTC)
		_, err := service.RegisterUser(context.Background(), &model.User{TelegramID: userID}, "")

		assert.ErrorIs(t, err, ErrUserBanned)
		mockRepo.AssertExpectations(t)
	})

	t.Run("New user with referral code links the referrer", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		referrerID := int64(987654321)
		created := &model.User{TelegramID: userID, ReferralCode: "BT456789"}

		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(nil, repository.ErrNotFound).Once()
		mockRepo.On("GetUserByReferralCode", mock.Anything, "BT654321").
			Return(&model.User{TelegramID: referrerID}, nil)
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.TelegramID == userID &&
				u.ReferralCode == "BT456789" &&
				u.ReferredBy != nil && *u.ReferredBy == referrerID
		}), testReferralBonus).Return(nil)
		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(created, nil)
		mockPub.On("Publish", mock.Anything, referrerID, model.NotificationReward,
			mock.Anything, mock.Anything).Return()
		mockPub.On("Publish", mock.Anything, userID, model.NotificationReward,
			mock.Anything, mock.Anything).Return()

		service := NewUserService(mockRepo, mockPub, testReferralBonus, time.UTC)
		user, err := service.RegisterUser(context.Background(), &model.User{TelegramID: userID}, "BT654321")

		assert.NoError(t, err)
		assert.Equal(t, created, user)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Unknown referral code is ignored", func(t *testing.T) {
		mockRepo := &mocks.MockUserRepository{}
		mockPub := &mocks.MockNotificationPublisher{}

		created := &model.User{TelegramID: userID, ReferralCode: "BT456789"}

		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(nil, repository.ErrNotFound).Once()
		mockRepo.On("GetUserByReferralCode", mock.Anything, "BTXXXXXX").
			Return(nil, repository.ErrNotFound)
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.ReferredBy == nil
		}), testReferralBonus).Return(nil)
		mockRepo.On("GetUserByTelegramID", mock.Anything, userID).
			Return(created, nil)

		service := NewUserService(mockRepo, mockPub, testReferralBonus, time.UTC)
		user, err := service.RegisterUser(context.Background(), &model.User{TelegramID: userID}, "BTXXXXXX")

		assert.NoError(t, err)
		assert.Equal(t, created, user)
		mockRepo.AssertExpectations(t)
	})
}
