package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"

	"github.com/google/uuid"
)

const withdrawalHistoryLimit = 50

type WithdrawalService struct {
	repo          WithdrawalRepository
	notifications NotificationPublisher
	minAmount     float64
}

func NewWithdrawalService(repo WithdrawalRepository, notifications NotificationPublisher, minAmount float64) *WithdrawalService {
	return &WithdrawalService{
		repo:          repo,
		notifications: notifications,
		minAmount:     minAmount,
	}
}

// RequestWithdrawal deducts the amount from the balance and queues the
// request for admin review. The money leaves the balance here, not at
// approval time.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, req *model.WithdrawalRequest) (*model.WithdrawalRequest, error) {
	if req.Amount < s.minAmount {
		return nil, ErrBelowMinimumAmount
	}

	user, err := s.repo.GetUserByTelegramID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}

	req.WithdrawalID = uuid.New()
	req.Status = model.WithdrawalStatusPending
	req.CreatedAt = time.Now().UTC()

	err = s.repo.CreateWithdrawal(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	s.notifications.Publish(ctx, req.UserID, model.NotificationInfo,
		"Withdrawal requested",
		fmt.Sprintf("Your withdrawal of %.2f BDT is being processed", req.Amount))

	return req, nil
}

func (s *WithdrawalService) GetUserWithdrawals(ctx context.Context, telegramID int64) ([]*model.WithdrawalRequest, error) {
	withdrawals, err := s.repo.ListUserWithdrawals(ctx, telegramID, withdrawalHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *WithdrawalService) ListPendingWithdrawals(ctx context.Context) ([]*model.WithdrawalRequest, error) {
	withdrawals, err := s.repo.ListWithdrawalsByStatus(ctx, model.WithdrawalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.WithdrawalRequest, error) {
	w, err := s.repo.ApproveWithdrawal(ctx, withdrawalID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}

	s.notifications.Publish(ctx, w.UserID, model.NotificationSuccess,
		"Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %.2f BDT was sent to %s", w.Amount, w.Method))

	return w, nil
}

// RejectWithdrawal refunds the deducted amount unless the rejection is
// marked valid (fraudulent or bogus payment details).
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, notes string, valid bool) (*model.WithdrawalRequest, error) {
	w, err := s.repo.RejectWithdrawal(ctx, withdrawalID, notes, !valid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}

	message := fmt.Sprintf("Your withdrawal of %.2f BDT was rejected and refunded", w.Amount)
	if valid {
		message = fmt.Sprintf("Your withdrawal of %.2f BDT was rejected", w.Amount)
	}
	s.notifications.Publish(ctx, w.UserID, model.NotificationWarning, "Withdrawal rejected", message)

	return w, nil
}
