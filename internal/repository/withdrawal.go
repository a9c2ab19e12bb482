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

type withdrawalRequest struct {
	WithdrawalID  uuid.UUID  `db:"withdrawal_id"`
	UserID        int64      `db:"user_id"`
	Amount        float64    `db:"amount"`
	Method        string     `db:"method"`
	AccountName   string     `db:"account_name"`
	AccountNumber string     `db:"account_number"`
	BankName      *string    `db:"bank_name"`
	CryptoSymbol  *string    `db:"crypto_symbol"`
	Status        string     `db:"status"`
	AdminNotes    *string    `db:"admin_notes"`
	CreatedAt     time.Time  `db:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at"`
}

func (w *withdrawalRequest) toModel() *model.WithdrawalRequest {
	return &model.WithdrawalRequest{
		WithdrawalID:  w.WithdrawalID,
		UserID:        w.UserID,
		Amount:        w.Amount,
		Method:        w.Method,
		AccountName:   w.AccountName,
		AccountNumber: w.AccountNumber,
		BankName:      w.BankName,
		CryptoSymbol:  w.CryptoSymbol,
		Status:        w.Status,
		AdminNotes:    w.AdminNotes,
		CreatedAt:     w.CreatedAt,
		ProcessedAt:   w.ProcessedAt,
	}
}

var withdrawalColumns = []string{
	"withdrawal_id", "user_id", "amount", "method", "account_name",
	"account_number", "bank_name", "crypto_symbol", "status", "admin_notes",
	"created_at", "processed_at",
}

// CreateWithdrawal deducts the amount and records the pending request in
// one transaction. The deduction happens at request time; approval later
// does not touch the balance again.
func (r *Repository) CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := r.debitBalanceWithTx(ctx, tx, w.UserID, w.Amount); err != nil {
			return err
		}

		query, args, err := squirrel.
			Insert("withdrawal_requests").
			SetMap(map[string]interface{}{
				"withdrawal_id":  w.WithdrawalID,
				"user_id":        w.UserID,
				"amount":         w.Amount,
				"method":         w.Method,
				"account_name":   w.AccountName,
				"account_number": w.AccountNumber,
				"bank_name":      w.BankName,
				"crypto_symbol":  w.CryptoSymbol,
				"status":         w.Status,
				"created_at":     w.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build withdrawal insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert withdrawal request: %w", err)
		}

		return nil
	})
}

func (r *Repository) ListUserWithdrawals(ctx context.Context, telegramID int64, limit int) ([]*model.WithdrawalRequest, error) {
	builder := squirrel.
		Select(withdrawalColumns...).
		From("withdrawal_requests").
		Where(squirrel.Eq{"user_id": telegramID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []withdrawalRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.WithdrawalRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (r *Repository) ListWithdrawalsByStatus(ctx context.Context, status string) ([]*model.WithdrawalRequest, error) {
	builder := squirrel.
		Select(withdrawalColumns...).
		From("withdrawal_requests").
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar)

	if status != "" {
		builder = builder.Where(squirrel.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []withdrawalRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]*model.WithdrawalRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (r *Repository) ApproveWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.WithdrawalRequest, error) {
	var approved *model.WithdrawalRequest

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		query, args, err := squirrel.
			Update("withdrawal_requests").
			Set("status", model.WithdrawalStatusApproved).
			Set("processed_at", now).
			Where(squirrel.Eq{
				"withdrawal_id": withdrawalID,
				"status":        model.WithdrawalStatusPending,
			}).
			Suffix("RETURNING user_id, amount, method, account_name, account_number, bank_name, crypto_symbol, admin_notes, created_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var w withdrawalRequest
		err = tx.GetContext(ctx, &w, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifyWithdrawalMiss(ctx, tx, withdrawalID)
			}
			return err
		}
		w.WithdrawalID = withdrawalID
		w.Status = model.WithdrawalStatusApproved
		w.ProcessedAt = &now

		approved = w.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return approved, nil
}

// RejectWithdrawal marks the request rejected; unless the rejection is
// flagged as valid (fraud, bogus details) the deducted amount is refunded
// in the same transaction.
func (r *Repository) RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, notes string, refund bool) (*model.WithdrawalRequest, error) {
	var rejected *model.WithdrawalRequest

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		query, args, err := squirrel.
			Update("withdrawal_requests").
			Set("status", model.WithdrawalStatusRejected).
			Set("admin_notes", notes).
			Set("processed_at", now).
			Where(squirrel.Eq{
				"withdrawal_id": withdrawalID,
				"status":        model.WithdrawalStatusPending,
			}).
			Suffix("RETURNING user_id, amount, method, account_name, account_number, bank_name, crypto_symbol, created_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var w withdrawalRequest
		err = tx.GetContext(ctx, &w, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifyWithdrawalMiss(ctx, tx, withdrawalID)
			}
			return err
		}
		w.WithdrawalID = withdrawalID
		w.Status = model.WithdrawalStatusRejected
		w.AdminNotes = &notes
		w.ProcessedAt = &now

		if refund {
			if err := r.refundBalanceWithTx(ctx, tx, w.UserID, w.Amount); err != nil {
				return err
			}
		}

		rejected = w.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}

// refundBalanceWithTx restores balance only; a refund is not an earning.
func (r *Repository) refundBalanceWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount float64) error {
	query, args, err := squirrel.
		Update("users").
		Set("balance", squirrel.Expr("balance + ?", amount)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
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

func (r *Repository) classifyWithdrawalMiss(ctx context.Context, tx *sqlx.Tx, withdrawalID uuid.UUID) error {
	query, args, err := squirrel.
		Select("status").
		From("withdrawal_requests").
		Where(squirrel.Eq{"withdrawal_id": withdrawalID}).
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
