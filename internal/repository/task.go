package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashpoints_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type taskTemplate struct {
	TaskID          uuid.UUID `db:"task_id"`
	Title           string    `db:"title"`
	Subtitle        string    `db:"subtitle"`
	Description     string    `db:"description"`
	Type            string    `db:"task_type"`
	Reward          float64   `db:"reward"`
	CooldownSeconds int       `db:"cooldown_seconds"`
	MaxCompletions  int       `db:"max_completions"`
	URL             string    `db:"url"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
}

func (t *taskTemplate) toModel() *model.TaskTemplate {
	return &model.TaskTemplate{
		TaskID:          t.TaskID,
		Title:           t.Title,
		Subtitle:        t.Subtitle,
		Description:     t.Description,
		Type:            t.Type,
		Reward:          t.Reward,
		CooldownSeconds: t.CooldownSeconds,
		MaxCompletions:  t.MaxCompletions,
		URL:             t.URL,
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt,
	}
}

type taskWithCompletion struct {
	taskTemplate
	LastCompletedAt  *time.Time `db:"last_completed_at"`
	CompletionsToday int        `db:"completions_today"`
}

var taskColumns = []string{
	"t.task_id", "t.title", "t.subtitle", "t.description", "t.task_type",
	"t.reward", "t.cooldown_seconds", "t.max_completions", "t.url",
	"t.is_active", "t.created_at",
}

// GetTasksData returns active templates with the caller's latest completion
// time and today's completion count folded into each row.
func (r *Repository) GetTasksData(ctx context.Context, telegramID int64, dayStart time.Time) ([]*model.TaskTemplate, []*model.TaskStatus, error) {
	builder := squirrel.Select(taskColumns...).
		Column("max(c.completed_at) AS last_completed_at").
		Column(squirrel.Alias(
			squirrel.Expr("count(c.completion_id) FILTER (WHERE c.completed_at >= ?)", dayStart),
			"completions_today",
		)).
		From("task_templates t").
		LeftJoin("task_completions c ON c.task_id = t.task_id AND c.user_id = ?", telegramID).
		Where(squirrel.Eq{"t.is_active": true}).
		GroupBy("t.task_id").
		OrderBy("t.created_at").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return nil, nil, err
	}

	var rows []*taskWithCompletion
	err = r.db.SelectContext(ctx, &rows, sqlQuery, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.TaskTemplate{}, []*model.TaskStatus{}, nil
		}
		return nil, nil, err
	}

	tasks := make([]*model.TaskTemplate, len(rows))
	statuses := make([]*model.TaskStatus, len(rows))
	for i, row := range rows {
		tasks[i] = row.taskTemplate.toModel()
		statuses[i] = &model.TaskStatus{
			Task:             tasks[i],
			CompletionsToday: row.CompletionsToday,
			LastCompletedAt:  row.LastCompletedAt,
		}
	}

	return tasks, statuses, nil
}

func (r *Repository) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*model.TaskTemplate, error) {
	query, args, err := squirrel.
		Select("task_id", "title", "subtitle", "description", "task_type",
			"reward", "cooldown_seconds", "max_completions", "url", "is_active", "created_at").
		From("task_templates").
		Where(squirrel.Eq{"task_id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var task taskTemplate
	err = r.db.GetContext(ctx, &task, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return task.toModel(), nil
}

func (r *Repository) GetLatestCompletion(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.TaskCompletion, error) {
	query, args, err := squirrel.
		Select("completion_id", "user_id", "task_id", "task_type", "task_title", "reward_amount", "completed_at").
		From("task_completions").
		Where(squirrel.Eq{"user_id": telegramID, "task_id": taskID}).
		OrderBy("completed_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var completion struct {
		CompletionID uuid.UUID `db:"completion_id"`
		UserID       int64     `db:"user_id"`
		TaskID       uuid.UUID `db:"task_id"`
		TaskType     string    `db:"task_type"`
		TaskTitle    string    `db:"task_title"`
		RewardAmount float64   `db:"reward_amount"`
		CompletedAt  time.Time `db:"completed_at"`
	}
	err = r.db.GetContext(ctx, &completion, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.TaskCompletion{
		CompletionID: completion.CompletionID,
		UserID:       completion.UserID,
		TaskID:       completion.TaskID,
		TaskType:     completion.TaskType,
		TaskTitle:    completion.TaskTitle,
		RewardAmount: completion.RewardAmount,
		CompletedAt:  completion.CompletedAt,
	}, nil
}

func (r *Repository) CountCompletionsBetween(ctx context.Context, telegramID int64, taskID uuid.UUID, start, end time.Time) (int, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("task_completions").
		Where(squirrel.Eq{"user_id": telegramID, "task_id": taskID}).
		Where(squirrel.GtOrEq{"completed_at": start}).
		Where(squirrel.Lt{"completed_at": end}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// CompleteTask records the completion and credits the reward as one
// transaction, so a failed credit never leaves an orphaned completion row.
func (r *Repository) CompleteTask(ctx context.Context, completion *model.TaskCompletion) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("task_completions").
			SetMap(map[string]interface{}{
				"completion_id": completion.CompletionID,
				"user_id":       completion.UserID,
				"task_id":       completion.TaskID,
				"task_type":     completion.TaskType,
				"task_title":    completion.TaskTitle,
				"reward_amount": completion.RewardAmount,
				"completed_at":  completion.CompletedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build completion insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert task completion: %w", err)
		}

		return r.creditBalanceWithTx(ctx, tx, completion.UserID, completion.RewardAmount, model.EarningSourceTask)
	})
}

// CompletionDays lists the distinct calendar days (in the given zone) on
// which the user completed at least one task since the cutoff.
func (r *Repository) CompletionDays(ctx context.Context, telegramID int64, since time.Time, zone string) ([]string, error) {
	builder := squirrel.
		Select().
		Column(squirrel.Expr(
			"coalesce(array_agg(DISTINCT to_char(completed_at AT TIME ZONE ?, 'YYYY-MM-DD')), '{}')", zone)).
		From("task_completions").
		Where(squirrel.Eq{"user_id": telegramID}).
		Where(squirrel.GtOrEq{"completed_at": since}).
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var days pq.StringArray
	if err := r.db.GetContext(ctx, &days, query, args...); err != nil {
		return nil, err
	}

	return []string(days), nil
}

func (r *Repository) HasCompletionOfTypeBetween(ctx context.Context, telegramID int64, taskType string, start, end time.Time) (bool, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("task_completions").
		Where(squirrel.Eq{"user_id": telegramID, "task_type": taskType}).
		Where(squirrel.GtOrEq{"completed_at": start}).
		Where(squirrel.Lt{"completed_at": end}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error {
	query, args, err := squirrel.
		Insert("task_templates").
		SetMap(map[string]interface{}{
			"task_id":          task.TaskID,
			"title":            task.Title,
			"subtitle":         task.Subtitle,
			"description":      task.Description,
			"task_type":        task.Type,
			"reward":           task.Reward,
			"cooldown_seconds": task.CooldownSeconds,
			"max_completions":  task.MaxCompletions,
			"url":              task.URL,
			"is_active":        task.IsActive,
			"created_at":       task.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert task template: %w", err)
	}

	return nil
}

func (r *Repository) ListTaskTemplates(ctx context.Context, includeInactive bool) ([]*model.TaskTemplate, error) {
	builder := squirrel.
		Select("task_id", "title", "subtitle", "description", "task_type",
			"reward", "cooldown_seconds", "max_completions", "url", "is_active", "created_at").
		From("task_templates").
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar)

	if !includeInactive {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []taskTemplate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]*model.TaskTemplate, len(rows))
	for i := range rows {
		tasks[i] = rows[i].toModel()
	}
	return tasks, nil
}

func (r *Repository) UpdateTaskTemplate(ctx context.Context, task *model.TaskTemplate) error {
	query, args, err := squirrel.
		Update("task_templates").
		SetMap(map[string]interface{}{
			"title":            task.Title,
			"subtitle":         task.Subtitle,
			"description":      task.Description,
			"task_type":        task.Type,
			"reward":           task.Reward,
			"cooldown_seconds": task.CooldownSeconds,
			"max_completions":  task.MaxCompletions,
			"url":              task.URL,
			"is_active":        task.IsActive,
		}).
		Where(squirrel.Eq{"task_id": task.TaskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) SetTaskActive(ctx context.Context, taskID uuid.UUID, active bool) error {
	query, args, err := squirrel.
		Update("task_templates").
		Set("is_active", active).
		Where(squirrel.Eq{"task_id": taskID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
