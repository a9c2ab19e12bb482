package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusVerified = "verified"
	SubmissionStatusRejected = "rejected"
)

type SpecialTaskSubmission struct {
	SubmissionID uuid.UUID
	UserID       int64
	TaskID       uuid.UUID
	TaskType     string
	UIDSubmitted string
	Status       string
	RewardAmount float64
	AdminNotes   *string
	CreatedAt    time.Time
	VerifiedAt   *time.Time
}

// UIDCheckResult is the outcome of checking a UID before submission.
// Available means no account has claimed the UID for the task yet;
// otherwise Submission holds the caller's own earlier submission.
type UIDCheckResult struct {
	Available  bool
	Submission *SpecialTaskSubmission
}
