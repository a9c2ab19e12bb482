package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"
)

const (
	referralCodePrefix = "BT"
	leaderboardSize    = 100
)

const (
	defaultEnergy      = 100
	defaultLevel       = 1
	defaultMiningPower = 1
)

type UserService struct {
	repo          UserRepository
	notifications NotificationPublisher
	referralBonus float64
	loc           *time.Location
}

func NewUserService(repo UserRepository, notifications NotificationPublisher, referralBonus float64, loc *time.Location) *UserService {
	return &UserService{
		repo:          repo,
		notifications: notifications,
		referralBonus: referralBonus,
		loc:           loc,
	}
}

// GenerateReferralCode derives the user's share code from the last six
// digits of the telegram ID.
func GenerateReferralCode(telegramID int64) string {
	id := telegramID
	if id < 0 {
		id = -id
	}
	return fmt.Sprintf("%s%06d", referralCodePrefix, id%1000000)
}

// RegisterUser creates the user on first contact and returns the stored
// profile on every later call. A valid referral code on first contact
// links the referrer and credits the bonus to both sides.
func (s *UserService) RegisterUser(ctx context.Context, user *model.User, referrerCode string) (*model.User, error) {
	existing, err := s.repo.GetUserByTelegramID(ctx, user.TelegramID)
	if err == nil {
		if existing.IsBanned {
			return nil, ErrUserBanned
		}
		if err := s.repo.TouchLastActive(ctx, user.TelegramID); err != nil {
			return nil, fmt.Errorf("failed to update last active: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	user.ReferralCode = GenerateReferralCode(user.TelegramID)
	user.Energy = defaultEnergy
	user.MaxEnergy = defaultEnergy
	user.Level = defaultLevel
	user.MiningPower = defaultMiningPower
	user.RegistrationDate = now
	user.LastActiveAt = now

	if referrerCode != "" && referrerCode != user.ReferralCode {
		referrer, err := s.repo.GetUserByReferralCode(ctx, referrerCode)
		switch {
		case err == nil:
			if !referrer.IsBanned && referrer.TelegramID != user.TelegramID {
				user.ReferredBy = &referrer.TelegramID
			}
		case errors.Is(err, repository.ErrNotFound):
			// unknown codes are ignored, registration still goes through
		default:
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
	}

	err = s.repo.CreateUser(ctx, user, s.referralBonus)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return s.repo.GetUserByTelegramID(ctx, user.TelegramID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.ReferredBy != nil {
		s.notifications.Publish(ctx, *user.ReferredBy, model.NotificationReward,
			"New referral",
			fmt.Sprintf("%s joined with your code, you earned %.2f BDT", user.FirstName, s.referralBonus))
		s.notifications.Publish(ctx, user.TelegramID, model.NotificationReward,
			"Referral bonus",
			fmt.Sprintf("You received %.2f BDT for joining with a referral code", s.referralBonus))
	}

	return s.repo.GetUserByTelegramID(ctx, user.TelegramID)
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserStats(ctx context.Context, telegramID int64) (*model.UserStats, error) {
	now := time.Now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := dayStart.AddDate(0, 0, -(weekday - 1))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	stats, err := s.repo.GetUserStats(ctx, telegramID, dayStart, weekStart, monthStart)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.GetTopUsers(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}
