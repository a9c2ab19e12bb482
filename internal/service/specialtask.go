package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cashpoints_miniapp/internal/model"
	"cashpoints_miniapp/internal/repository"

	"github.com/google/uuid"
)

type SpecialTaskService struct {
	repo          SpecialTaskRepository
	notifications NotificationPublisher
}

func NewSpecialTaskService(repo SpecialTaskRepository, notifications NotificationPublisher) *SpecialTaskService {
	return &SpecialTaskService{
		repo:          repo,
		notifications: notifications,
	}
}

func (s *SpecialTaskService) getSpecialTask(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error) {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !task.IsSpecial() {
		return nil, ErrNotUIDTask
	}
	return task, nil
}

// CheckUID tells the caller whether a platform UID is still claimable
// for the task. A UID claimed by someone else is rejected outright; the
// caller's own earlier submission is returned with its current status.
func (s *SpecialTaskService) CheckUID(ctx context.Context, telegramID int64, taskID uuid.UUID, uid string) (*model.UIDCheckResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}

	if _, err := s.getSpecialTask(ctx, taskID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindSubmissionByUID(ctx, taskID, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.UIDCheckResult{Available: true}, nil
		}
		return nil, fmt.Errorf("failed to look up uid: %w", err)
	}

	if existing.UserID != telegramID {
		return nil, ErrUIDUsedByAnother
	}

	return &model.UIDCheckResult{Submission: existing}, nil
}

// SubmitUID records a pending submission for admin review. A user may
// resubmit only after a rejection.
func (s *SpecialTaskService) SubmitUID(ctx context.Context, telegramID int64, taskID uuid.UUID, uid string) (*model.SpecialTaskSubmission, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrUIDRequired
	}

	task, err := s.getSpecialTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsActive {
		return nil, ErrTaskNotActive
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsBanned {
		return nil, ErrUserBanned
	}

	own, err := s.repo.GetUserSubmission(ctx, telegramID, taskID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get existing submission: %w", err)
	}
	if err == nil && own.Status != model.SubmissionStatusRejected {
		return nil, ErrUIDAlreadySubmitted
	}

	sub := &model.SpecialTaskSubmission{
		SubmissionID: uuid.New(),
		UserID:       telegramID,
		TaskID:       taskID,
		TaskType:     task.Type,
		UIDSubmitted: uid,
		Status:       model.SubmissionStatusPending,
		RewardAmount: task.Reward,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.repo.CreateSubmission(ctx, sub)
	if err != nil {
		if errors.Is(err, repository.ErrUIDAlreadyExists) {
			existing, lookupErr := s.repo.FindSubmissionByUID(ctx, taskID, uid)
			if lookupErr == nil && existing.UserID == telegramID {
				return nil, ErrUIDAlreadySubmitted
			}
			return nil, ErrUIDUsedByAnother
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.notifications.Publish(ctx, telegramID, model.NotificationInfo,
		"UID submitted",
		fmt.Sprintf("Your UID for %q is pending verification", task.Title))

	return sub, nil
}

func (s *SpecialTaskService) GetSubmissionStatus(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	sub, err := s.repo.GetUserSubmission(ctx, telegramID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (s *SpecialTaskService) ListPendingSubmissions(ctx context.Context) ([]*model.SpecialTaskSubmission, error) {
	subs, err := s.repo.ListPendingSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return subs, nil
}

// VerifySubmission credits the task reward and marks the submission
// verified. Only pending submissions can be verified.
func (s *SpecialTaskService) VerifySubmission(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	sub, err := s.repo.VerifySubmission(ctx, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSubmissionNotFound
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to verify submission: %w", err)
	}

	s.notifications.Publish(ctx, sub.UserID, model.NotificationReward,
		"UID verified",
		fmt.Sprintf("Your submission was approved, %.2f BDT credited", sub.RewardAmount))

	return sub, nil
}

func (s *SpecialTaskService) RejectSubmission(ctx context.Context, submissionID uuid.UUID, notes string) (*model.SpecialTaskSubmission, error) {
	sub, err := s.repo.RejectSubmission(ctx, submissionID, notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSubmissionNotFound
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to reject submission: %w", err)
	}

	s.notifications.Publish(ctx, sub.UserID, model.NotificationWarning,
		"UID rejected",
		"Your submission was rejected, you can submit a different UID")

	return sub, nil
}
