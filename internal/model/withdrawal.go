package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

type WithdrawalRequest struct {
	WithdrawalID  uuid.UUID
	UserID        int64
	Amount        float64
	Method        string
	AccountName   string
	AccountNumber string
	BankName      *string
	CryptoSymbol  *string
	Status        string
	AdminNotes    *string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}
