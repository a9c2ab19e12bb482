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

// streakLookbackDays bounds how far back completion history is scanned
// when counting consecutive activity days.
const streakLookbackDays = 7

type TaskService struct {
	repo          TaskRepository
	notifications NotificationPublisher
	loc           *time.Location
}

func NewTaskService(repo TaskRepository, notifications NotificationPublisher, loc *time.Location) *TaskService {
	return &TaskService{
		repo:          repo,
		notifications: notifications,
		loc:           loc,
	}
}

func (s *TaskService) dayWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// GetTaskBoard returns every active task with the caller's completion
// state, plus the activity streak.
func (s *TaskService) GetTaskBoard(ctx context.Context, telegramID int64) (*model.TaskBoard, error) {
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

	now := time.Now().UTC()
	dayStart, dayEnd := s.dayWindow(now)

	_, statuses, err := s.repo.GetTasksData(ctx, telegramID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks data: %w", err)
	}

	for _, st := range statuses {
		st.RemainingCooldown = remainingCooldown(st.Task, st.LastCompletedAt, now)
		st.Completed = taskDone(st, dayStart)
	}

	checkedIn, err := s.repo.HasCompletionOfTypeBetween(ctx, telegramID, model.TaskTypeCheckin, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily check-in: %w", err)
	}

	since := dayStart.AddDate(0, 0, -streakLookbackDays)
	days, err := s.repo.CompletionDays(ctx, telegramID, since, s.loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get completion days: %w", err)
	}

	return &model.TaskBoard{
		Tasks:          statuses,
		Streak:         calculateStreak(days, now.In(s.loc)),
		CheckedInToday: checkedIn,
	}, nil
}

func remainingCooldown(task *model.TaskTemplate, lastCompleted *time.Time, now time.Time) int {
	if task == nil || lastCompleted == nil || task.CooldownSeconds <= 0 {
		return 0
	}
	readyAt := lastCompleted.Add(time.Duration(task.CooldownSeconds) * time.Second)
	if !now.Before(readyAt) {
		return 0
	}
	return int(readyAt.Sub(now).Seconds())
}

func taskDone(st *model.TaskStatus, dayStart time.Time) bool {
	if st.Task == nil {
		return false
	}
	if st.Task.Type == model.TaskTypeCheckin {
		return st.LastCompletedAt != nil && !st.LastCompletedAt.Before(dayStart)
	}
	if st.Task.MaxCompletions > 0 && st.CompletionsToday >= st.Task.MaxCompletions {
		return true
	}
	return st.RemainingCooldown > 0
}

// calculateStreak counts consecutive active days ending today, or
// yesterday when today has no activity yet. days holds distinct local
// dates formatted as 2006-01-02.
func calculateStreak(days []string, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		seen[d] = struct{}{}
	}

	anchor := today
	if _, ok := seen[anchor.Format("2006-01-02")]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
		if _, ok := seen[anchor.Format("2006-01-02")]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := seen[anchor.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return streak
}

// CompleteTask credits the task reward after every eligibility check
// passes. Special tasks go through UID verification instead.
func (s *TaskService) CompleteTask(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.TaskCompletion, error) {
	task, err := s.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !task.IsActive {
		return nil, ErrTaskNotActive
	}
	if task.IsSpecial() {
		return nil, ErrUIDVerificationTask
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

	now := time.Now().UTC()
	dayStart, dayEnd := s.dayWindow(now)

	if task.Type == model.TaskTypeCheckin {
		done, err := s.repo.HasCompletionOfTypeBetween(ctx, telegramID, model.TaskTypeCheckin, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to check daily check-in: %w", err)
		}
		if done {
			return nil, &CooldownError{Remaining: dayEnd.Sub(now)}
		}
	}

	if task.CooldownSeconds > 0 {
		latest, err := s.repo.GetLatestCompletion(ctx, telegramID, taskID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get latest completion: %w", err)
		}
		if err == nil {
			if remaining := remainingCooldown(task, &latest.CompletedAt, now); remaining > 0 {
				return nil, &CooldownError{Remaining: time.Duration(remaining) * time.Second}
			}
		}
	}

	if task.MaxCompletions > 0 {
		count, err := s.repo.CountCompletionsBetween(ctx, telegramID, taskID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to count completions: %w", err)
		}
		if count >= task.MaxCompletions {
			return nil, ErrTaskLimitReached
		}
	}

	completion := &model.TaskCompletion{
		CompletionID: uuid.New(),
		UserID:       telegramID,
		TaskID:       taskID,
		TaskType:     task.Type,
		TaskTitle:    task.Title,
		RewardAmount: task.Reward,
		CompletedAt:  now,
	}

	if err := s.repo.CompleteTask(ctx, completion); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	s.notifications.Publish(ctx, telegramID, model.NotificationReward,
		"Task completed",
		fmt.Sprintf("You earned %.2f BDT for %q", task.Reward, task.Title))

	return completion, nil
}

func (s *TaskService) CreateTask(ctx context.Context, task *model.TaskTemplate) error {
	if task.TaskID == uuid.Nil {
		task.TaskID = uuid.New()
	}
	task.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateTaskTemplate(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, includeInactive bool) ([]*model.TaskTemplate, error) {
	tasks, err := s.repo.ListTaskTemplates(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, task *model.TaskTemplate) error {
	err := s.repo.UpdateTaskTemplate(ctx, task)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *TaskService) SetTaskActive(ctx context.Context, taskID uuid.UUID, active bool) error {
	err := s.repo.SetTaskActive(ctx, taskID, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to update task state: %w", err)
	}
	return nil
}
