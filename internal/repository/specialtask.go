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
)

type specialTaskSubmission struct {
	SubmissionID uuid.UUID  `db:"submission_id"`
	UserID       int64      `db:"user_id"`
	TaskID       uuid.UUID  `db:"task_id"`
	TaskType     string     `db:"task_type"`
	UIDSubmitted string     `db:"uid_submitted"`
	Status       string     `db:"status"`
	RewardAmount float64    `db:"reward_amount"`
	AdminNotes   *string    `db:"admin_notes"`
	CreatedAt    time.Time  `db:"created_at"`
	VerifiedAt   *time.Time `db:"verified_at"`
}

func (s *specialTaskSubmission) toModel() *model.SpecialTaskSubmission {
	return &model.SpecialTaskSubmission{
		SubmissionID: s.SubmissionID,
		UserID:       s.UserID,
		TaskID:       s.TaskID,
		TaskType:     s.TaskType,
		UIDSubmitted: s.UIDSubmitted,
		Status:       s.Status,
		RewardAmount: s.RewardAmount,
		AdminNotes:   s.AdminNotes,
		CreatedAt:    s.CreatedAt,
		VerifiedAt:   s.VerifiedAt,
	}
}

var submissionColumns = []string{
	"submission_id", "user_id", "task_id", "task_type", "uid_submitted",
	"status", "reward_amount", "admin_notes", "created_at", "verified_at",
}

// FindSubmissionByUID looks up the newest submission of the given UID for
// the task, regardless of who submitted it.
func (r *Repository) FindSubmissionByUID(ctx context.Context, taskID uuid.UUID, uid string) (*model.SpecialTaskSubmission, error) {
	query, args, err := squirrel.
		Select(submissionColumns...).
		From("special_task_submissions").
		Where(squirrel.Eq{"task_id": taskID, "uid_submitted": uid}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sub specialTaskSubmission
	err = r.db.GetContext(ctx, &sub, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sub.toModel(), nil
}

func (r *Repository) GetUserSubmission(ctx context.Context, telegramID int64, taskID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	query, args, err := squirrel.
		Select(submissionColumns...).
		From("special_task_submissions").
		Where(squirrel.Eq{"user_id": telegramID, "task_id": taskID}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sub specialTaskSubmission
	err = r.db.GetContext(ctx, &sub, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sub.toModel(), nil
}

func (r *Repository) GetSubmissionByID(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	query, args, err := squirrel.
		Select(submissionColumns...).
		From("special_task_submissions").
		Where(squirrel.Eq{"submission_id": submissionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sub specialTaskSubmission
	err = r.db.GetContext(ctx, &sub, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sub.toModel(), nil
}

// CreateSubmission relies on the unique index on (task_id, uid_submitted)
// to close the race between the availability check and the insert.
func (r *Repository) CreateSubmission(ctx context.Context, sub *model.SpecialTaskSubmission) error {
	query, args, err := squirrel.
		Insert("special_task_submissions").
		SetMap(map[string]interface{}{
			"submission_id": sub.SubmissionID,
			"user_id":       sub.UserID,
			"task_id":       sub.TaskID,
			"task_type":     sub.TaskType,
			"uid_submitted": sub.UIDSubmitted,
			"status":        sub.Status,
			"reward_amount": sub.RewardAmount,
			"created_at":    sub.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build submission insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUIDAlreadyExists
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

func (r *Repository) ListPendingSubmissions(ctx context.Context) ([]*model.SpecialTaskSubmission, error) {
	query, args, err := squirrel.
		Select(submissionColumns...).
		From("special_task_submissions").
		Where(squirrel.Eq{"status": model.SubmissionStatusPending}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []specialTaskSubmission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	subs := make([]*model.SpecialTaskSubmission, len(rows))
	for i := range rows {
		subs[i] = rows[i].toModel()
	}
	return subs, nil
}

// VerifySubmission flips a pending submission to verified and credits the
// copied reward in one transaction. Terminal submissions are not touched.
func (r *Repository) VerifySubmission(ctx context.Context, submissionID uuid.UUID) (*model.SpecialTaskSubmission, error) {
	var verified *model.SpecialTaskSubmission

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		query, args, err := squirrel.
			Update("special_task_submissions").
			Set("status", model.SubmissionStatusVerified).
			Set("verified_at", now).
			Where(squirrel.Eq{
				"submission_id": submissionID,
				"status":        model.SubmissionStatusPending,
			}).
			Suffix("RETURNING user_id, task_id, task_type, uid_submitted, reward_amount, admin_notes, created_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var sub specialTaskSubmission
		err = tx.GetContext(ctx, &sub, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifySubmissionMiss(ctx, tx, submissionID)
			}
			return err
		}
		sub.SubmissionID = submissionID
		sub.Status = model.SubmissionStatusVerified
		sub.VerifiedAt = &now

		if err := r.creditBalanceWithTx(ctx, tx, sub.UserID, sub.RewardAmount, model.EarningSourceSpecialTask); err != nil {
			return err
		}

		verified = sub.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return verified, nil
}

func (r *Repository) RejectSubmission(ctx context.Context, submissionID uuid.UUID, notes string) (*model.SpecialTaskSubmission, error) {
	var rejected *model.SpecialTaskSubmission

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		query, args, err := squirrel.
			Update("special_task_submissions").
			Set("status", model.SubmissionStatusRejected).
			Set("admin_notes", notes).
			Set("verified_at", now).
			Where(squirrel.Eq{
				"submission_id": submissionID,
				"status":        model.SubmissionStatusPending,
			}).
			Suffix("RETURNING user_id, task_id, task_type, uid_submitted, reward_amount, created_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var sub specialTaskSubmission
		err = tx.GetContext(ctx, &sub, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifySubmissionMiss(ctx, tx, submissionID)
			}
			return err
		}
		sub.SubmissionID = submissionID
		sub.Status = model.SubmissionStatusRejected
		sub.AdminNotes = &notes
		sub.VerifiedAt = &now

		rejected = sub.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}

func (r *Repository) classifySubmissionMiss(ctx context.Context, tx *sqlx.Tx, submissionID uuid.UUID) error {
	query, args, err := squirrel.
		Select("status").
		From("special_task_submissions").
		Where(squirrel.Eq{"submission_id": submissionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var status string
	err = tx.GetContext(ctx, &status, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return ErrAlreadyProcessed
}
