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

type User struct {
	TelegramID       int64     `db:"telegram_id"`
	Username         string    `db:"username"`
	FirstName        string    `db:"first_name"`
	LastName         string    `db:"last_name"`
	PhotoURL         string    `db:"photo_url"`
	Balance          float64   `db:"balance"`
	TotalEarnings    float64   `db:"total_earnings"`
	TotalReferrals   int       `db:"total_referrals"`
	Energy           int       `db:"energy"`
	MaxEnergy        int       `db:"max_energy"`
	Level            int       `db:"level"`
	ExperiencePoints int       `db:"experience_points"`
	MiningPower      int       `db:"mining_power"`
	ReferralCode     string    `db:"referral_code"`
	ReferredBy       *int64    `db:"referred_by"`
	IsVerified       bool      `db:"is_verified"`
	IsBanned         bool      `db:"is_banned"`
	BanReason        *string   `db:"ban_reason"`
	IsAdmin          bool      `db:"is_admin"`
	RegistrationDate time.Time `db:"registration_date"`
	LastActiveAt     time.Time `db:"last_active_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		TelegramID:       u.TelegramID,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PhotoURL:         u.PhotoURL,
		Balance:          u.Balance,
		TotalEarnings:    u.TotalEarnings,
		TotalReferrals:   u.TotalReferrals,
		Energy:           u.Energy,
		MaxEnergy:        u.MaxEnergy,
		Level:            u.Level,
		ExperiencePoints: u.ExperiencePoints,
		MiningPower:      u.MiningPower,
		ReferralCode:     u.ReferralCode,
		ReferredBy:       u.ReferredBy,
		IsVerified:       u.IsVerified,
		IsBanned:         u.IsBanned,
		BanReason:        u.BanReason,
		IsAdmin:          u.IsAdmin,
		RegistrationDate: u.RegistrationDate,
		LastActiveAt:     u.LastActiveAt,
	}
}

type userReferral struct {
	TelegramID     int64     `db:"telegram_id"`
	Username       string    `db:"username"`
	TotalReferrals int       `db:"total_referrals"`
	Balance        float64   `db:"balance"`
	ReferredAt     time.Time `db:"referred_at"`
}

// CreateUser inserts the user and, when a referrer is linked, applies the
// referral side effects in the same transaction: referral row, referrer
// counter and the sign-up bonus credited to both sides.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, referralBonus float64) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id":       user.TelegramID,
				"username":          user.Username,
				"first_name":        user.FirstName,
				"last_name":         user.LastName,
				"photo_url":         user.PhotoURL,
				"balance":           user.Balance,
				"total_earnings":    user.TotalEarnings,
				"total_referrals":   user.TotalReferrals,
				"energy":            user.Energy,
				"max_energy":        user.MaxEnergy,
				"level":             user.Level,
				"experience_points": user.ExperiencePoints,
				"mining_power":      user.MiningPower,
				"referral_code":     user.ReferralCode,
				"referred_by":       user.ReferredBy,
				"is_verified":       user.IsVerified,
				"is_banned":         user.IsBanned,
				"registration_date": user.RegistrationDate,
				"last_active_at":    user.LastActiveAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if user.ReferredBy == nil {
			return nil
		}

		referralQuery, referralArgs, err := squirrel.
			Insert("referrals").
			SetMap(map[string]interface{}{
				"referral_id": uuid.New(),
				"referrer_id": *user.ReferredBy,
				"referred_id": user.TelegramID,
				"created_at":  time.Now().UTC(),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referral insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, referralQuery, referralArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert referral: %w", err)
		}

		updateQuery, updateArgs, err := squirrel.
			Update("users").
			Set("total_referrals", squirrel.Expr("total_referrals + 1")).
			Where(squirrel.Eq{"telegram_id": *user.ReferredBy}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referrer update query: %w", err)
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update referrer: %w", err)
		}

		if referralBonus > 0 {
			for _, id := range []int64{*user.ReferredBy, user.TelegramID} {
				if err := r.creditBalanceWithTx(ctx, tx, id, referralBonus, model.EarningSourceReferralBonus); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// creditBalanceWithTx applies a reward to balance and total_earnings and
// records the matching earnings ledger row.
func (r *Repository) creditBalanceWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount float64, source string) error {
	updateQuery, updateArgs, err := squirrel.
		Update("users").
		Set("balance", squirrel.Expr("balance + ?", amount)).
		Set("total_earnings", squirrel.Expr("total_earnings + ?", amount)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
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

	earningQuery, earningArgs, err := squirrel.
		Insert("earnings").
		SetMap(map[string]interface{}{
			"earning_id": uuid.New(),
			"user_id":    telegramID,
			"source":     source,
			"amount":     amount,
			"created_at": time.Now().UTC(),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, earningQuery, earningArgs...)
	return err
}

func (r *Repository) CreditBalance(ctx context.Context, telegramID int64, amount float64, source string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return r.creditBalanceWithTx(ctx, tx, telegramID, amount, source)
	})
}

// debitBalanceWithTx deducts with a balance guard so a concurrent debit
// can never push the balance negative.
func (r *Repository) debitBalanceWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, amount float64) error {
	query, args, err := squirrel.
		Update("users").
		Set("balance", squirrel.Expr("balance - ?", amount)).
		Where(squirrel.And{
			squirrel.Eq{"telegram_id": telegramID},
			squirrel.Expr("balance >= ?", amount),
		}).
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
		if _, err := r.getUserWithTx(ctx, tx, telegramID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}

	return nil
}

func (r *Repository) TouchLastActive(ctx context.Context, telegramID int64) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_active_at", time.Now().UTC()).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query, args, err := squirrel.
		Select("telegram_id", "username", "photo_url", "balance", "total_earnings", "total_referrals", "level").
		From("users").
		Where(squirrel.Eq{"is_banned": false}).
		OrderBy("balance DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var users []User
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, err
	}

	userList := make([]*model.User, len(users))
	for i := range users {
		userList[i] = users[i].toModel()
	}

	return userList, nil
}

func (r *Repository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"u.telegram_id",
		"u.username",
		"u.total_referrals",
		"u.balance",
		"r.created_at AS referred_at",
	).
		From("referrals r").
		Join("users u ON u.telegram_id = r.referred_id").
		Where(squirrel.Eq{"r.referrer_id": telegramID}).
		OrderBy("r.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			TelegramID:     ref.TelegramID,
			Username:       ref.Username,
			TotalReferrals: ref.TotalReferrals,
			Balance:        ref.Balance,
			ReferredAt:     ref.ReferredAt,
		}
	}

	return refs, nil
}

func (r *Repository) GetUserStats(ctx context.Context, telegramID int64, dayStart, weekStart, monthStart time.Time) (*model.UserStats, error) {
	stats := &model.UserStats{}

	countQueries := []struct {
		dest    *int
		builder squirrel.SelectBuilder
	}{
		{
			dest: &stats.TasksCompleted,
			builder: squirrel.Select("count(*)").From("task_completions").
				Where(squirrel.Eq{"user_id": telegramID}),
		},
		{
			dest: &stats.ReferralsTotal,
			builder: squirrel.Select("count(*)").From("referrals").
				Where(squirrel.Eq{"referrer_id": telegramID}),
		},
		{
			dest: &stats.ReferralsToday,
			builder: squirrel.Select("count(*)").From("referrals").
				Where(squirrel.Eq{"referrer_id": telegramID}).
				Where(squirrel.GtOrEq{"created_at": dayStart}),
		},
		{
			dest: &stats.ReferralsThisWeek,
			builder: squirrel.Select("count(*)").From("referrals").
				Where(squirrel.Eq{"referrer_id": telegramID}).
				Where(squirrel.GtOrEq{"created_at": weekStart}),
		},
		{
			dest: &stats.ReferralsThisMonth,
			builder: squirrel.Select("count(*)").From("referrals").
				Where(squirrel.Eq{"referrer_id": telegramID}).
				Where(squirrel.GtOrEq{"created_at": monthStart}),
		},
	}

	for _, cq := range countQueries {
		query, args, err := cq.builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return nil, err
		}
		if err := r.db.GetContext(ctx, cq.dest, query, args...); err != nil {
			return nil, err
		}
	}

	sumQueries := []struct {
		dest  *float64
		since *time.Time
	}{
		{dest: &stats.EarningsTotal},
		{dest: &stats.EarningsToday, since: &dayStart},
		{dest: &stats.EarningsThisWeek, since: &weekStart},
		{dest: &stats.EarningsThisMonth, since: &monthStart},
	}

	for _, sq := range sumQueries {
		builder := squirrel.Select("coalesce(sum(amount), 0)").From("earnings").
			Where(squirrel.Eq{"user_id": telegramID})
		if sq.since != nil {
			builder = builder.Where(squirrel.GtOrEq{"created_at": *sq.since})
		}
		query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return nil, err
		}
		if err := r.db.GetContext(ctx, sq.dest, query, args...); err != nil {
			return nil, err
		}
	}

	return stats, nil
}
