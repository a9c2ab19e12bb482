package model

import "time"

type User struct {
	TelegramID       int64
	Username         string
	FirstName        string
	LastName         string
	PhotoURL         string
	Balance          float64
	TotalEarnings    float64
	TotalReferrals   int
	Energy           int
	MaxEnergy        int
	Level            int
	ExperiencePoints int
	MiningPower      int
	ReferralCode     string
	ReferredBy       *int64
	IsVerified       bool
	IsBanned         bool
	BanReason        *string
	IsAdmin          bool
	RegistrationDate time.Time
	LastActiveAt     time.Time
}

type UserReferral struct {
	TelegramID     int64
	Username       string
	TotalReferrals int
	Balance        float64
	ReferredAt     time.Time
}

type UserStats struct {
	TasksCompleted     int
	ReferralsTotal     int
	ReferralsToday     int
	ReferralsThisWeek  int
	ReferralsThisMonth int
	EarningsToday      float64
	EarningsThisWeek   float64
	EarningsThisMonth  float64
	EarningsTotal      float64
}
