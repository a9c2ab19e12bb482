package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskTypeCheckin         = "daily_checkin"
	TaskTypeDaily           = "daily"
	TaskTypeSocial          = "social"
	TaskTypeReferral        = "referral"
	TaskTypeBonus           = "bonus"
	TaskTypeTradingPlatform = "trading_platform"
)

// Special tasks are verified manually by an admin instead of being
// credited on completion.
func IsSpecialTaskType(taskType string) bool {
	switch taskType {
	case TaskTypeTradingPlatform, TaskTypeReferral, TaskTypeBonus:
		return true
	}
	return false
}

type TaskTemplate struct {
	TaskID          uuid.UUID
	Title           string
	Subtitle        string
	Description     string
	Type            string
	Reward          float64
	CooldownSeconds int
	MaxCompletions  int
	URL             string
	IsActive        bool
	CreatedAt       time.Time
}

func (t *TaskTemplate) IsSpecial() bool {
	return IsSpecialTaskType(t.Type)
}

type TaskCompletion struct {
	CompletionID uuid.UUID
	UserID       int64
	TaskID       uuid.UUID
	TaskType     string
	TaskTitle    string
	RewardAmount float64
	CompletedAt  time.Time
}

// TaskStatus is the per-user view of a template: whether it can be
// completed right now and how long until it can be again.
type TaskStatus struct {
	Task              *TaskTemplate
	Completed         bool
	RemainingCooldown int
	CompletionsToday  int
	LastCompletedAt   *time.Time
}

type TaskBoard struct {
	Tasks          []*TaskStatus
	Streak         int
	CheckedInToday bool
}
