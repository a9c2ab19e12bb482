package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationInfo    = "info"
	NotificationError   = "error"
	NotificationReward  = "reward"
)

type Notification struct {
	NotificationID uuid.UUID
	UserID         int64
	Type           string
	Title          string
	Message        string
	IsRead         bool
	ActionURL      *string
	CreatedAt      time.Time
}

type Referral struct {
	ReferralID uuid.UUID
	ReferrerID int64
	ReferredID int64
	CreatedAt  time.Time
}

type Earning struct {
	EarningID uuid.UUID
	UserID    int64
	Source    string
	Amount    float64
	CreatedAt time.Time
}

const (
	EarningSourceTask          = "task"
	EarningSourceSpecialTask   = "special_task"
	EarningSourceReferralBonus = "referral_bonus"
)
