package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusFailed  ReminderStatus = "failed"
)

const DefaultReminderLead = 6 * time.Hour

// Reminder is a persisted, deferred notification about an upcoming game.
type Reminder struct {
	ID             uuid.UUID
	GameID         uuid.UUID
	BookingID      *uuid.UUID
	RecipientID    uuid.UUID
	RecipientName  string
	RecipientEmail string
	DueAt          time.Time
	Status         ReminderStatus
	Attempts       int
	LastError      string
	LeaseUntil     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReminderDue returns when a reminder for an event should fire: lead before
// the start, or now if that moment has already passed.
func ReminderDue(eventStart time.Time, lead time.Duration, now time.Time) time.Time {
	due := eventStart.Add(-lead)
	if due.Before(now) {
		return now
	}
	return due
}

func NewReminder(gameID uuid.UUID, recipient *User, due time.Time) *Reminder {
	now := time.Now().UTC()
	return &Reminder{
		ID:             uuid.New(),
		GameID:         gameID,
		RecipientID:    recipient.ID,
		RecipientName:  recipient.Name,
		RecipientEmail: recipient.Email,
		DueAt:          due.UTC(),
		Status:         ReminderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
